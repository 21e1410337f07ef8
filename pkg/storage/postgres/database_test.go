package postgres_test

import (
	"testing"

	"patternscope/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBName = "patternscope_create_test"

	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	// second call sees the existing database
	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("create database not idempotent: %v", err)
	}
}
