package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Polygon   PolygonConfig   `mapstructure:"polygon"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Pattern   PatternConfig   `mapstructure:"pattern"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

type AppConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"` // "dev" or "prod"
	DefaultDays int    `mapstructure:"default_days"`

	// AllowedOrigins may open the scan websocket besides the dashboard itself.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type PolygonConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // "openai" or "gemini"
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Recent   int           `mapstructure:"recent"` // detections handed to the model
}

// PatternConfig mirrors pattern.Params so thresholds can be tuned without a rebuild.
type PatternConfig struct {
	Order          int      `mapstructure:"order"`
	Tolerance      float64  `mapstructure:"tolerance"`
	MinDepth       float64  `mapstructure:"min_depth"`
	MinSeparation  int      `mapstructure:"min_separation"`
	VolumeWindow   int      `mapstructure:"volume_window"`
	VolumeFactor   float64  `mapstructure:"volume_factor"`
	LevelWindow    int      `mapstructure:"level_window"`
	LevelTolerance float64  `mapstructure:"level_tolerance"`
	RequireVolume  bool     `mapstructure:"require_volume"`
	RequireLevel   bool     `mapstructure:"require_level"`
	Kinds          []string `mapstructure:"kinds"`
}

type WatchlistConfig struct {
	Symbols   []string `mapstructure:"symbols"`
	DailyScan bool     `mapstructure:"daily_scan"`
	Days      int      `mapstructure:"days"`
	Explain   bool     `mapstructure:"explain"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 8501)
	v.SetDefault("app.environment", "dev")
	v.SetDefault("app.default_days", 90)
	v.SetDefault("app.allowed_origins", []string{})

	v.SetDefault("polygon.api_key", "")
	v.SetDefault("polygon.timeout", 15*time.Second)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.recent", 3)

	v.SetDefault("pattern.order", 5)
	v.SetDefault("pattern.tolerance", 0.03)
	v.SetDefault("pattern.min_depth", 0.03)
	v.SetDefault("pattern.min_separation", 5)
	v.SetDefault("pattern.volume_window", 20)
	v.SetDefault("pattern.volume_factor", 1.0)
	v.SetDefault("pattern.level_window", 60)
	v.SetDefault("pattern.level_tolerance", 0.02)
	v.SetDefault("pattern.require_volume", true)
	v.SetDefault("pattern.require_level", false)
	v.SetDefault("pattern.kinds", []string{})

	v.SetDefault("watchlist.symbols", []string{})
	v.SetDefault("watchlist.daily_scan", false)
	v.SetDefault("watchlist.days", 90)
	v.SetDefault("watchlist.explain", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "patternscope")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
}

// Load loads application configuration using Viper.
// It reads an optional .env file, then config.yaml, and overrides both with
// environment variables (e.g. POLYGON_API_KEY, LLM_API_KEY).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	for _, p := range configPaths() {
		v.AddConfigPath(p)
	}

	// Support environment variables with dot notation (e.g., POLYGON_API_KEY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the dashboard historically read OPENAI_API_KEY
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "prod" {
		cfg.resolveSecrets(NewParameterStore())
	}

	return &cfg, nil
}

func configPaths() []string {
	paths := []string{"./config"}
	if dir := os.Getenv("PATTERNSCOPE_CONFIG_DIR"); dir != "" {
		paths = append([]string{dir}, paths...)
	}

	ex, err := os.Executable()
	if err != nil {
		return paths
	}
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		paths = append(paths, filepath.Join(pwd, "../../config"))
	} else {
		paths = append(paths, filepath.Join(filepath.Dir(ex), "../config"))
	}
	return paths
}
