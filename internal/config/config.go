package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Session   SessionConfig   `mapstructure:"session"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Log       LogConfig       `mapstructure:"log"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Upload    UploadConfig    `mapstructure:"upload"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Blog      BlogConfig      `mapstructure:"blog"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
	// TrustProxy takes the client address from X-Forwarded-For and X-Real-IP.
	// Enable it only when a reverse proxy sets those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver     string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN        string `mapstructure:"dsn"`
	Migrations string `mapstructure:"migrations"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	Lifetime   int    `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration. SSO is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether single sign-on is configured.
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// CacheConfig selects and configures the cache store.
type CacheConfig struct {
	Driver        string `mapstructure:"driver"` // "sqlite" or "redis"
	FilePath      string `mapstructure:"file_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
}

// UploadConfig configures featured-image storage.
type UploadConfig struct {
	Storage  string   `mapstructure:"storage"` // "local" or "s3"
	Dir      string   `mapstructure:"dir"`
	MaxBytes int64    `mapstructure:"max_bytes"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config holds the S3 bucket used when Upload.Storage is "s3".
type S3Config struct {
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	Prefix  string `mapstructure:"prefix"`
	BaseURL string `mapstructure:"base_url"`
}

// SMTPConfig configures contact notifications. Mail is not sent when Host is empty.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// CORSConfig holds the origins allowed to call the JSON API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits form posts per client IP.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// BlogConfig holds content settings.
type BlogConfig struct {
	SiteName   string           `mapstructure:"site_name"`
	PageSize   int              `mapstructure:"page_size"`
	Categories []CategoryConfig `mapstructure:"categories"`
}

// CategoryConfig describes one card on the categories page.
type CategoryConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Icon        string `mapstructure:"icon"`
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/soulbalance/")
	v.AddConfigPath("$HOME/.soulbalance")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("SOUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "soulbalance.db?_foreign_keys=on")
	v.SetDefault("db.migrations", "migrations")
	v.SetDefault("session.cookie_name", "soulbalance_session")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("upload.storage", "local")
	v.SetDefault("upload.dir", "uploads/blogs")
	v.SetDefault("upload.max_bytes", 5*1024*1024)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8080"})
	v.SetDefault("ratelimit.per_minute", 20)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("blog.site_name", "SoulBalance")
	v.SetDefault("blog.page_size", 9)
	v.SetDefault("blog.categories", []map[string]string{
		{"name": "Yoga Practices", "description": "Calm your mind, find peace", "icon": "yoga.svg"},
		{"name": "Meditation", "description": "Inner stillness and clarity", "icon": "meditation.svg"},
		{"name": "Nutrition", "description": "Wholesome recipes & Ayurveda", "icon": "nutrition.svg"},
	})
}
