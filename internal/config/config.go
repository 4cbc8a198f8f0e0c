package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

const maxBatchSize = vpic.MaxBatchSize

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	VPICBaseURL        string        `mapstructure:"vpic_base_url"`
	VPICFormat         string        `mapstructure:"vpic_format"`
	UserAgent          string        `mapstructure:"user_agent"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	SourcesFile           string        `mapstructure:"sources_file"`
	PublishersFile        string        `mapstructure:"publishers_file"`
	BatchSize             int           `mapstructure:"batch_size"`
	DecodeIntervalSeconds int64         `mapstructure:"decode_interval"`
	DecodeInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "vpic-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("vpic_base_url", "https://vpic.nhtsa.dot.gov/api/")
	v.SetDefault("vpic_format", "json")
	v.SetDefault("user_agent", "vpic-harvester/1.0")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("batch_size", maxBatchSize)
	v.SetDefault("decode_interval", 0) // seconds; 0 runs a single pass
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/decoded.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	format, err := vpic.ParseFormat(cfg.VPICFormat)
	if err != nil {
		return fmt.Errorf("invalid vpic_format: %w", err)
	}
	cfg.VPICFormat = string(format)

	if cfg.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must not be negative)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.BatchSize <= 0 || cfg.BatchSize > maxBatchSize {
		return fmt.Errorf("invalid batch_size %d (must be 1..%d)", cfg.BatchSize, maxBatchSize)
	}

	if cfg.DecodeIntervalSeconds < 0 {
		return fmt.Errorf("invalid decode_interval (must not be negative)")
	}
	cfg.DecodeInterval = time.Duration(cfg.DecodeIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
