package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// FeedConfig locates the OHLCV feed. The feed directory must hold exactly
// one CSV file following the seven-column convention.
type FeedConfig struct {
	Dir    string `mapstructure:"dir"`    // directory holding the single feed CSV
	Symbol string `mapstructure:"symbol"` // symbol to replay, e.g. "MNQZ4"
}

type ReplayConfig struct {
	Mode      string `mapstructure:"mode"`        // "replay" or "live"
	QueueSize int    `mapstructure:"queue_size"`  // buffered bars between pipeline stages
	StoreToDB bool   `mapstructure:"store_to_db"` // persist processed bars to Postgres
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	// TODO: env path
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		// go run / go test binaries live in the build cache; resolve the
		// config dir from the working directory instead. Covers both the
		// repo root (go run ./cmd/replayer) and the package dir.
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "config"))
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	v.SetDefault("feed.dir", "csv_port")
	v.SetDefault("replay.mode", "replay")
	v.SetDefault("replay.queue_size", 256)

	// Support environment variables with dot notation (e.g., FEED_SYMBOL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
