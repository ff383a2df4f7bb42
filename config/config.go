package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	Billing  BillingConfig  `mapstructure:"billing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig holds MySQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig holds SMTP settings for payment reminder mail.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// BillingConfig holds reconciliation settings.
type BillingConfig struct {
	// Threshold is the tolerance within which an invoice balance still counts
	// as settled. Zero falls back to 1.50.
	Threshold float64 `mapstructure:"threshold"`
}

var (
	// GlobalConfig is the loaded configuration instance.
	GlobalConfig *Config
)

// LoadConfig loads configuration with the precedence
// external config file > embedded defaults, plus KONTOR_* env overrides.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("reading embedded config failed: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("warning: cannot read config file %s: %v", configPath, err)
		} else {
			log.Printf("merged external config file: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/kontor")
		externalViper.AddConfigPath("$HOME/.kontor")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("warning: merging external config failed: %v", err)
			} else {
				log.Printf("merged external config file: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	v.SetEnvPrefix("KONTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	GlobalConfig = &cfg

	return &cfg, nil
}

// MustLoadConfig loads the configuration and panics on failure.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("loading config failed: %v", err))
	}
	return cfg
}

// GetConfig returns the global configuration.
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("config not initialized, call LoadConfig first")
	}
	return GlobalConfig
}

// SafeErrorMessage hides internal error details from clients in release mode.
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}

// PrintConfig logs the active configuration, hiding credentials.
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	log.Printf("active configuration:")
	log.Printf("  server: %s (mode: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	log.Printf("  database: %s@%s:%s/%s",
		GlobalConfig.Database.Username,
		GlobalConfig.Database.Host,
		GlobalConfig.Database.Port,
		GlobalConfig.Database.DBName)
	log.Printf("  email: %v", GlobalConfig.Email.Enabled)
	log.Printf("  billing threshold: %.2f", GlobalConfig.Billing.Threshold)
}
