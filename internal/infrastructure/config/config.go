package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RuntimeMode values. Maintenance mode makes state-changing endpoints answer
// 503 during deployment windows instead of scattering environment checks.
const (
	RuntimeModeNormal      = "normal"
	RuntimeModeMaintenance = "maintenance"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Xero      XeroConfig
	Sync      SyncConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
	// RuntimeMode is "normal" or "maintenance"; injected at startup rather
	// than derived from ad-hoc environment probes
	RuntimeMode string
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

// JWTConfig holds JWT settings for the HTTP surface
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
}

// XeroConfig holds the OAuth application credentials and API endpoints
type XeroConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
	APIBaseURL   string
	// ConnectionsURL is where granted tenant connections are listed after an
	// authorization-code exchange
	ConnectionsURL string
	// SettingsRedirectURL is where the OAuth callback sends the browser
	SettingsRedirectURL string
	PageSize            int
	RequestTimeout      time.Duration
	// MaxAttempts bounds retries of transient fetch failures
	MaxAttempts int
	// RateLimitPerMinute is the per-tenant request budget
	RateLimitPerMinute int
}

// SyncConfig holds orchestration settings
type SyncConfig struct {
	// TriggerSecret is the bearer secret required by the scheduled trigger
	// endpoint
	TriggerSecret string
	// SessionTimeout is the overall budget for one tenant's session
	SessionTimeout time.Duration
	// StateTTL bounds pending OAuth authorization attempts
	StateTTL time.Duration
	// SchedulerEnabled turns the internal interval scheduler on
	SchedulerEnabled bool
	// SchedulerInterval is how often the internal scheduler runs a full sync
	SchedulerInterval time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FINSIGHT_ prefix (e.g., FINSIGHT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
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

	v.SetEnvPrefix("FINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			RuntimeMode: v.GetString("app.runtime_mode"),
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
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Xero: XeroConfig{
			ClientID:            v.GetString("xero.client_id"),
			ClientSecret:        v.GetString("xero.client_secret"),
			RedirectURI:         v.GetString("xero.redirect_uri"),
			Scopes:              v.GetStringSlice("xero.scopes"),
			AuthURL:             v.GetString("xero.auth_url"),
			TokenURL:            v.GetString("xero.token_url"),
			RevokeURL:           v.GetString("xero.revoke_url"),
			APIBaseURL:          v.GetString("xero.api_base_url"),
			ConnectionsURL:      v.GetString("xero.connections_url"),
			SettingsRedirectURL: v.GetString("xero.settings_redirect_url"),
			PageSize:            v.GetInt("xero.page_size"),
			RequestTimeout:      v.GetDuration("xero.request_timeout"),
			MaxAttempts:         v.GetInt("xero.max_attempts"),
			RateLimitPerMinute:  v.GetInt("xero.rate_limit_per_minute"),
		},
		Sync: SyncConfig{
			TriggerSecret:     v.GetString("sync.trigger_secret"),
			SessionTimeout:    v.GetDuration("sync.session_timeout"),
			StateTTL:          v.GetDuration("sync.state_ttl"),
			SchedulerEnabled:  v.GetBool("sync.scheduler_enabled"),
			SchedulerInterval: v.GetDuration("sync.scheduler_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
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
		cfg.App.Name = "finsight-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.RuntimeMode == "" {
		cfg.App.RuntimeMode = RuntimeModeNormal
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
		cfg.Database.DBName = "finsight"
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
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "finsight-backend"
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
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.Xero.Scopes) == 0 {
		cfg.Xero.Scopes = []string{
			"openid", "profile", "email",
			"accounting.transactions.read",
			"accounting.settings.read",
			"accounting.contacts.read",
			"offline_access",
		}
	}
	if cfg.Xero.AuthURL == "" {
		cfg.Xero.AuthURL = "https://login.xero.com/identity/connect/authorize"
	}
	if cfg.Xero.TokenURL == "" {
		cfg.Xero.TokenURL = "https://identity.xero.com/connect/token"
	}
	if cfg.Xero.RevokeURL == "" {
		cfg.Xero.RevokeURL = "https://identity.xero.com/connect/revocation"
	}
	if cfg.Xero.APIBaseURL == "" {
		cfg.Xero.APIBaseURL = "https://api.xero.com/api.xro/2.0"
	}
	if cfg.Xero.ConnectionsURL == "" {
		cfg.Xero.ConnectionsURL = "https://api.xero.com/connections"
	}
	if cfg.Xero.SettingsRedirectURL == "" {
		cfg.Xero.SettingsRedirectURL = "/settings/integrations"
	}
	if cfg.Xero.PageSize == 0 {
		cfg.Xero.PageSize = 100
	}
	if cfg.Xero.RequestTimeout == 0 {
		cfg.Xero.RequestTimeout = 30 * time.Second
	}
	if cfg.Xero.MaxAttempts == 0 {
		cfg.Xero.MaxAttempts = 4
	}
	if cfg.Xero.RateLimitPerMinute == 0 {
		// Xero publishes 60 calls/minute per tenant connection
		cfg.Xero.RateLimitPerMinute = 60
	}
	if cfg.Sync.SessionTimeout == 0 {
		cfg.Sync.SessionTimeout = 15 * time.Minute
	}
	if cfg.Sync.StateTTL == 0 {
		cfg.Sync.StateTTL = 10 * time.Minute
	}
	if cfg.Sync.SchedulerInterval == 0 {
		cfg.Sync.SchedulerInterval = time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "finsight-backend"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
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
	if c.App.RuntimeMode != RuntimeModeNormal && c.App.RuntimeMode != RuntimeModeMaintenance {
		return fmt.Errorf("app.runtime_mode must be %q or %q", RuntimeModeNormal, RuntimeModeMaintenance)
	}
	if c.Xero.PageSize < 1 || c.Xero.PageSize > 1000 {
		return fmt.Errorf("xero.page_size must be between 1 and 1000")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Sync.TriggerSecret == "" {
			return fmt.Errorf("sync.trigger_secret is required in production")
		}
		if c.Xero.ClientID == "" || c.Xero.ClientSecret == "" {
			return fmt.Errorf("xero.client_id and xero.client_secret are required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// IsMaintenance reports whether the app is in a deployment/build window
func (c *Config) IsMaintenance() bool {
	return c.App.RuntimeMode == RuntimeModeMaintenance
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

// Addr returns the host:port address for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
