package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	TLS      TLSConfig      `mapstructure:"tls"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Composer ComposerConfig `mapstructure:"composer"`
	Sitemap  SitemapConfig  `mapstructure:"sitemap"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Import   ImportConfig   `mapstructure:"import"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server and host routing settings
type ServerConfig struct {
	HTTPPort       int           `mapstructure:"http_port"`
	AdminDomains   []string      `mapstructure:"admin_domains"` // substring patterns
	StripWWW       bool          `mapstructure:"strip_www"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// TLSConfig holds HTTPS listener settings. TLS is off unless AutoCert is
// set or both certificate files are given.
type TLSConfig struct {
	HTTPSPort int    `mapstructure:"https_port"`
	AutoCert  bool   `mapstructure:"auto_cert"`
	CertDir   string `mapstructure:"cert_dir"`
	Email     string `mapstructure:"email"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`
}

// Enabled reports whether an HTTPS listener is configured.
func (c TLSConfig) Enabled() bool {
	return c.AutoCert || (c.CertFile != "" && c.KeyFile != "")
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Database    string `mapstructure:"database"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SSLMode     string `mapstructure:"ssl_mode"`
	SQLLogLevel string `mapstructure:"sql_log_level"`
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

// ComposerConfig holds page composition settings
type ComposerConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	DefaultShowCount int           `mapstructure:"default_show_count"`
}

// SitemapConfig holds sitemap generation settings
type SitemapConfig struct {
	GroupSize int    `mapstructure:"group_size"`
	Scheme    string `mapstructure:"scheme"`
}

// PublishConfig holds publishing API settings
type PublishConfig struct {
	Rate  float64 `mapstructure:"rate"` // requests per second per key
	Burst int     `mapstructure:"burst"`
}

// ImportConfig holds bulk import settings
type ImportConfig struct {
	MaxUploadMB int `mapstructure:"max_upload_mb"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const defaultJWTSecret = "change-this-to-a-secure-random-string"

// Load loads configuration from file. An empty path loads defaults and
// environment overrides only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	// SAAS_SERVER_HTTP_PORT overrides server.http_port
	v.SetEnvPrefix("SAAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"auth.jwt_secret", "database.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.admin_domains", []string{"localhost"})
	v.SetDefault("server.strip_www", false)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	// TLS defaults
	v.SetDefault("tls.https_port", 8443)
	v.SetDefault("tls.auto_cert", false)
	v.SetDefault("tls.cert_dir", "certs")

	// Database defaults (SQLite for easier local development)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.database", "saas.db")
	// PostgreSQL defaults (if driver is set to postgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "saas")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sql_log_level", "silent")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_username", "admin@localhost")
	v.SetDefault("auth.admin_password", "admin123") // Change in production!

	// Composition defaults
	v.SetDefault("composer.read_timeout", "3s")
	v.SetDefault("composer.default_show_count", 10)

	// Sitemap defaults
	v.SetDefault("sitemap.group_size", 500)
	v.SetDefault("sitemap.scheme", "https")

	// Publishing API defaults
	v.SetDefault("publish.rate", 1.0)
	v.SetDefault("publish.burst", 10)

	v.SetDefault("import.max_upload_mb", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file", "saas.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
}

// validateConfig checks settings that have no safe default
func validateConfig(cfg *Config) error {
	secret := cfg.Auth.JWTSecret
	switch {
	case secret == "":
		return fmt.Errorf("auth.jwt_secret is required")
	case secret == defaultJWTSecret:
		return fmt.Errorf("auth.jwt_secret must be changed from default value")
	case len(secret) < 32:
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}

	if len(cfg.Server.AdminDomains) == 0 {
		return fmt.Errorf("server.admin_domains must list at least one pattern")
	}
	for _, d := range cfg.Server.AdminDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("server.admin_domains must not contain empty patterns")
		}
	}

	if cfg.TLS.AutoCert && cfg.TLS.CertDir == "" {
		return fmt.Errorf("tls.cert_dir is required when tls.auto_cert is enabled")
	}

	if cfg.Sitemap.GroupSize <= 0 {
		return fmt.Errorf("sitemap.group_size must be positive")
	}

	return nil
}
