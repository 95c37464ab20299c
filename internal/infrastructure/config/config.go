package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Storage     StorageConfig
	Chrome      ChromeConfig
	Certificate CertificateConfig
	Cache       CacheConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for validating access tokens issued by the hosted auth service
type JWTConfig struct {
	Secret    string
	Issuer    string // optional; checked when set
	Audience  string
	AdminRole string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	VerifyRateLimit  int // requests per client per window on the public verification endpoint
	VerifyRateWindow time.Duration
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	Region            string
	AccessKey         string
	SecretKey         string
	Bucket            string // signature images
	ExportBucket      string // archived certificate PDFs
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	PublicBaseURL     string // e.g. https://<project>.supabase.co/storage/v1/object/public
	PublicSignatures  bool   // signature bucket is publicly readable
}

// ChromeConfig holds headless Chrome settings
type ChromeConfig struct {
	RemoteURL      string
	NoSandbox      bool
	Timeout        time.Duration
	ViewportWidth  int64
	ViewportHeight int64
}

// CertificateConfig holds certificate rendering and export settings
type CertificateConfig struct {
	Locale           string
	EscapeFields     bool
	CaptureScale     float64
	SettleDelay      time.Duration
	ExportTimeout    time.Duration
	JPEGQuality      int
	QRSize           int
	AssetBaseURL     string
	AssetTimeout     time.Duration
	LayoutDir        string
	ArchiveEnabled   bool
	ArchiveDir       string
	ArchiveRetention time.Duration
}

// CacheConfig holds exported document cache settings
type CacheConfig struct {
	Driver    string // redis, memory
	TTL       time.Duration
	KeyPrefix string
	MaxItems  int // memory driver only
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled          bool
	ArchiveSweepCron string
	JobTimeout       time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool          // export zap logs over OTLP
	DBTracing         bool          // otelgorm spans for every query
	SlowQuery         time.Duration // marks slower queries on their span
}

// Load loads configuration from .env, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with UDES_ prefix (e.g., UDES_DATABASE_PASSWORD)
// 2. .env file in the working directory (does not override the real environment)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("UDES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot use the zero-value check in applyDefaults
	v.SetDefault("certificate.escape_fields", true)
	v.SetDefault("storage.use_path_style", true)
	v.SetDefault("scheduler.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("jwt.secret"),
			Issuer:    v.GetString("jwt.issuer"),
			Audience:  v.GetString("jwt.audience"),
			AdminRole: v.GetString("jwt.admin_role"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			VerifyRateLimit:  v.GetInt("http.verify_rate_limit"),
			VerifyRateWindow: v.GetDuration("http.verify_rate_window"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			Bucket:            v.GetString("storage.bucket"),
			ExportBucket:      v.GetString("storage.export_bucket"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			PublicBaseURL:     v.GetString("storage.public_base_url"),
			PublicSignatures:  v.GetBool("storage.public_signatures"),
		},
		Chrome: ChromeConfig{
			RemoteURL:      v.GetString("chrome.remote_url"),
			NoSandbox:      v.GetBool("chrome.no_sandbox"),
			Timeout:        v.GetDuration("chrome.timeout"),
			ViewportWidth:  v.GetInt64("chrome.viewport_width"),
			ViewportHeight: v.GetInt64("chrome.viewport_height"),
		},
		Certificate: CertificateConfig{
			Locale:           v.GetString("certificate.locale"),
			EscapeFields:     v.GetBool("certificate.escape_fields"),
			CaptureScale:     v.GetFloat64("certificate.capture_scale"),
			SettleDelay:      v.GetDuration("certificate.settle_delay"),
			ExportTimeout:    v.GetDuration("certificate.export_timeout"),
			JPEGQuality:      v.GetInt("certificate.jpeg_quality"),
			QRSize:           v.GetInt("certificate.qr_size"),
			AssetBaseURL:     v.GetString("certificate.asset_base_url"),
			AssetTimeout:     v.GetDuration("certificate.asset_timeout"),
			LayoutDir:        v.GetString("certificate.layout_dir"),
			ArchiveEnabled:   v.GetBool("certificate.archive_enabled"),
			ArchiveDir:       v.GetString("certificate.archive_dir"),
			ArchiveRetention: v.GetDuration("certificate.archive_retention"),
		},
		Cache: CacheConfig{
			Driver:    v.GetString("cache.driver"),
			TTL:       v.GetDuration("cache.ttl"),
			KeyPrefix: v.GetString("cache.key_prefix"),
			MaxItems:  v.GetInt("cache.max_items"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          v.GetBool("scheduler.enabled"),
			ArchiveSweepCron: v.GetString("scheduler.archive_sweep_cron"),
			JobTimeout:       v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
			SlowQuery:         v.GetDuration("telemetry.slow_query"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "udes-certificates"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "udes"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "authenticated"
	}
	if cfg.JWT.AdminRole == "" {
		cfg.JWT.AdminRole = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Exports run headless Chrome, so the write timeout is generous
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB, templates are capped at 1MB
	}
	// Empty CORS origins means no cross-origin requests until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.VerifyRateLimit == 0 {
		cfg.HTTP.VerifyRateLimit = 60
	}
	if cfg.HTTP.VerifyRateWindow == 0 {
		cfg.HTTP.VerifyRateWindow = time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "signatures"
	}
	if cfg.Storage.ExportBucket == "" {
		cfg.Storage.ExportBucket = "certificates"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Chrome.Timeout == 0 {
		cfg.Chrome.Timeout = 30 * time.Second
	}
	if cfg.Chrome.ViewportWidth == 0 {
		cfg.Chrome.ViewportWidth = 1200
	}
	if cfg.Chrome.ViewportHeight == 0 {
		cfg.Chrome.ViewportHeight = 900
	}
	if cfg.Certificate.Locale == "" {
		cfg.Certificate.Locale = "es"
	}
	if cfg.Certificate.CaptureScale == 0 {
		cfg.Certificate.CaptureScale = 3
	}
	if cfg.Certificate.SettleDelay == 0 {
		cfg.Certificate.SettleDelay = 50 * time.Millisecond
	}
	if cfg.Certificate.ExportTimeout == 0 {
		cfg.Certificate.ExportTimeout = 45 * time.Second
	}
	if cfg.Certificate.JPEGQuality == 0 {
		cfg.Certificate.JPEGQuality = 92
	}
	if cfg.Certificate.QRSize == 0 {
		cfg.Certificate.QRSize = 256
	}
	if cfg.Certificate.AssetTimeout == 0 {
		cfg.Certificate.AssetTimeout = 10 * time.Second
	}
	if cfg.Certificate.ArchiveDir == "" {
		cfg.Certificate.ArchiveDir = "/data/certificates"
	}
	if cfg.Certificate.ArchiveRetention == 0 {
		cfg.Certificate.ArchiveRetention = 30 * 24 * time.Hour
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "udes:cert:pdf:"
	}
	if cfg.Cache.MaxItems == 0 {
		cfg.Cache.MaxItems = 256
	}
	if cfg.Scheduler.ArchiveSweepCron == "" {
		cfg.Scheduler.ArchiveSweepCron = "0 3 * * *"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "udes-certificates"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.SlowQuery == 0 {
		cfg.Telemetry.SlowQuery = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Certificate.CaptureScale < 1 || c.Certificate.CaptureScale > 6 {
		return fmt.Errorf("certificate.capture_scale must be between 1 and 6, got %g", c.Certificate.CaptureScale)
	}
	if c.Certificate.JPEGQuality < 1 || c.Certificate.JPEGQuality > 100 {
		return fmt.Errorf("certificate.jpeg_quality must be between 1 and 100, got %d", c.Certificate.JPEGQuality)
	}
	if c.HTTP.VerifyRateLimit <= 0 {
		return fmt.Errorf("http.verify_rate_limit must be positive, got %d", c.HTTP.VerifyRateLimit)
	}
	if c.HTTP.VerifyRateWindow <= 0 {
		return fmt.Errorf("http.verify_rate_window must be positive, got %s", c.HTTP.VerifyRateWindow)
	}
	if c.Certificate.AssetBaseURL != "" {
		u, err := url.Parse(c.Certificate.AssetBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("certificate.asset_base_url must be an absolute URL")
		}
	}

	switch c.Cache.Driver {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("cache.driver must be one of redis, memory, none, got %q", c.Cache.Driver)
	}

	if c.Storage.Enabled {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when storage is enabled")
		}
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if !c.Certificate.EscapeFields {
			return fmt.Errorf("certificate.escape_fields must be true in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
