package postgres

import (
	"database/sql"
	"strings"
	"testing"

	"patternscope/config"

	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// go test -v --run ^TestPrepareClosesPoolOnMigrationFailure$
func TestPrepareClosesPoolOnMigrationFailure(t *testing.T) {
	dsn := "host=127.0.0.1 port=1 user=fail password=fail dbname=fail sslmode=disable connect_timeout=1"

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	client, err := prepare(&PostgresClient{DB: db}, config.PostgresConfig{MaxOpenConns: 2})
	if err == nil {
		t.Fatal("expected migration against an unreachable server to fail")
	}
	if client != nil {
		t.Fatal("expected nil client on failure")
	}

	if err := sqlDB.Ping(); err == nil || !strings.Contains(err.Error(), "database is closed") {
		t.Fatalf("expected pool to be closed after failed prepare, ping returned: %v", err)
	}
}
