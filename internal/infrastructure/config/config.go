package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Google    GoogleConfig
	Gemini    GeminiConfig
	Rubric    RubricConfig
	Storage   StorageConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Report    ReportConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
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

// DatabaseConfig holds database connection settings. The sqlite driver is
// the default and needs only a file path; postgres uses the full DSN fields.
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	SQLitePath      string
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

// RedisConfig holds Redis connection settings for the idempotency store.
// When disabled the in-memory store is used instead.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// GoogleConfig holds Google API access settings. Exactly one of the three
// credential sources is needed: an OAuth client secret file (interactive
// flow), a service account file, or an API key.
type GoogleConfig struct {
	OAuthClientFile string        // client_secret.json for the authorization-code flow
	TokenFile       string        // where the exchanged OAuth token is persisted
	RedirectURL     string        // OAuth callback URL
	CredentialsFile string        // service account JSON
	APIKey          string        // API-key access (read-only endpoints)
	StateSecret     string        // HMAC secret signing OAuth state tokens
	StateTTL        time.Duration // how long a state token stays valid
}

// GeminiConfig holds Gemini model settings. The temperatures separate the
// grading calls (slightly creative) from rubric parsing (near-deterministic).
type GeminiConfig struct {
	APIKey             string
	Model              string
	GradingTemperature float64
	ParsingTemperature float64
	TopP               float64
	TopK               int
	MaxOutputTokens    int
	Timeout            time.Duration
}

// RubricConfig holds rubric template storage settings
type RubricConfig struct {
	Dir              string // directory holding rubric JSON templates
	OriginalsBackend string // local, s3
	OriginalsDir     string // local backend directory for uploaded originals
	OriginalsPrefix  string // object key prefix on the s3 backend
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Bucket       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
	Region       string
	UseSSL       bool
	UsePathStyle bool
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
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// ReportConfig holds PDF report renderer configuration
type ReportConfig struct {
	Enabled     bool
	ChromePath  string // empty = let chromedp locate the browser
	Timeout     time.Duration
	PaperWidth  float64 // inches
	PaperHeight float64 // inches
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool
	AllowedIPs []string // IP whitelist (empty = allow all)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBSlowQueryThresh time.Duration
	ProfilingEnabled  bool
	PyroscopeEndpoint string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GRADER_ prefix (e.g., GRADER_GEMINI_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("GRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			SQLitePath:      v.GetString("database.sqlite_path"),
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
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Google: GoogleConfig{
			OAuthClientFile: v.GetString("google.oauth_client_file"),
			TokenFile:       v.GetString("google.token_file"),
			RedirectURL:     v.GetString("google.redirect_url"),
			CredentialsFile: v.GetString("google.credentials_file"),
			APIKey:          v.GetString("google.api_key"),
			StateSecret:     v.GetString("google.state_secret"),
			StateTTL:        v.GetDuration("google.state_ttl"),
		},
		Gemini: GeminiConfig{
			APIKey:             v.GetString("gemini.api_key"),
			Model:              v.GetString("gemini.model"),
			GradingTemperature: v.GetFloat64("gemini.grading_temperature"),
			ParsingTemperature: v.GetFloat64("gemini.parsing_temperature"),
			TopP:               v.GetFloat64("gemini.top_p"),
			TopK:               v.GetInt("gemini.top_k"),
			MaxOutputTokens:    v.GetInt("gemini.max_output_tokens"),
			Timeout:            v.GetDuration("gemini.timeout"),
		},
		Rubric: RubricConfig{
			Dir:              v.GetString("rubric.dir"),
			OriginalsBackend: v.GetString("rubric.originals_backend"),
			OriginalsDir:     v.GetString("rubric.originals_dir"),
			OriginalsPrefix:  v.GetString("rubric.originals_prefix"),
		},
		Storage: StorageConfig{
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
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
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Report: ReportConfig{
			Enabled:     v.GetBool("report.enabled"),
			ChromePath:  v.GetString("report.chrome_path"),
			Timeout:     v.GetDuration("report.timeout"),
			PaperWidth:  v.GetFloat64("report.paper_width"),
			PaperHeight: v.GetFloat64("report.paper_height"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeEndpoint: v.GetString("telemetry.pyroscope_endpoint"),
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
		cfg.App.Name = "gradeflow-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "gradeflow.db"
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
		cfg.Database.DBName = "gradeflow"
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
	if cfg.Google.OAuthClientFile == "" {
		cfg.Google.OAuthClientFile = "client_secret.json"
	}
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = "token.json"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = "http://localhost:8080/api/v1/google/auth/callback"
	}
	if cfg.Google.CredentialsFile == "" {
		cfg.Google.CredentialsFile = "service_account.json"
	}
	if cfg.Google.StateTTL == 0 {
		cfg.Google.StateTTL = 10 * time.Minute
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.GradingTemperature == 0 {
		cfg.Gemini.GradingTemperature = 0.3
	}
	if cfg.Gemini.ParsingTemperature == 0 {
		cfg.Gemini.ParsingTemperature = 0.1
	}
	if cfg.Gemini.TopP == 0 {
		cfg.Gemini.TopP = 0.95
	}
	if cfg.Gemini.TopK == 0 {
		cfg.Gemini.TopK = 40
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 4000
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = 2 * time.Minute
	}
	if cfg.Rubric.Dir == "" {
		cfg.Rubric.Dir = "rubrics"
	}
	if cfg.Rubric.OriginalsBackend == "" {
		cfg.Rubric.OriginalsBackend = "local"
	}
	if cfg.Rubric.OriginalsDir == "" {
		cfg.Rubric.OriginalsDir = "rubrics/originals"
	}
	if cfg.Rubric.OriginalsPrefix == "" {
		cfg.Rubric.OriginalsPrefix = "rubric-originals/"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
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
		// Batch grading calls wait on Gemini per document
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB, rubric uploads included
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly
	// configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Report.Timeout == 0 {
		cfg.Report.Timeout = 60 * time.Second
	}
	if cfg.Report.PaperWidth == 0 {
		cfg.Report.PaperWidth = 8.5
	}
	if cfg.Report.PaperHeight == 0 {
		cfg.Report.PaperHeight = 11
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "gradeflow-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeEndpoint == "" {
		cfg.Telemetry.PyroscopeEndpoint = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != DriverSQLite && c.Database.Driver != DriverPostgres {
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
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

	if c.Rubric.OriginalsBackend != "local" && c.Rubric.OriginalsBackend != "s3" {
		return fmt.Errorf("rubric.originals_backend must be local or s3, got %q", c.Rubric.OriginalsBackend)
	}
	if c.Rubric.OriginalsBackend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when rubric.originals_backend is s3")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("gemini.api_key is required in production")
		}
		if c.Google.StateSecret == "" {
			return fmt.Errorf("google.state_secret is required in production")
		}
		if len(c.Google.StateSecret) > 0 && len(c.Google.StateSecret) < 32 {
			return fmt.Errorf("google.state_secret must be at least 32 characters in production")
		}
		if c.Database.Driver == DriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or IP-restricted in production")
		}
	}

	if c.Gemini.GradingTemperature < 0 || c.Gemini.GradingTemperature > 2 {
		return fmt.Errorf("gemini.grading_temperature must be between 0.0 and 2.0, got %f", c.Gemini.GradingTemperature)
	}
	if c.Gemini.ParsingTemperature < 0 || c.Gemini.ParsingTemperature > 2 {
		return fmt.Errorf("gemini.parsing_temperature must be between 0.0 and 2.0, got %f", c.Gemini.ParsingTemperature)
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		// Shared cache plus a busy timeout keeps concurrent request handlers
		// from tripping over sqlite's single-writer lock.
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", d.SQLitePath)
	}

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

// Addr returns the host:port address for the Redis connection
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
