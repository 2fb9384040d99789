package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	OpenAI       OpenAIConfig
	GoogleMaps   GoogleMapsConfig
	Catalog      CatalogConfig
	Embeddings   EmbeddingsConfig
	Admin        AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VAPEVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"VAPEVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VAPEVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VAPEVAULT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"VAPEVAULT_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated allow list; empty allows any origin.
	CORSOrigins string `envconfig:"VAPEVAULT_CORS_ORIGINS"`
}

// ConsoleLogs reports whether logs should use the human readable writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the CORS allow list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"VAPEVAULT_DB_DSN"`
	Driver string `envconfig:"VAPEVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VAPEVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"VAPEVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VAPEVAULT_DB_USER"`
	LegacyPassword string `envconfig:"VAPEVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"VAPEVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"VAPEVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VAPEVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VAPEVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VAPEVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VAPEVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"VAPEVAULT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VAPEVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VAPEVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"VAPEVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"VAPEVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VAPEVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VAPEVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VAPEVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VAPEVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VAPEVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"VAPEVAULT_REDIS_KEY_PREFIX" default:"vv"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VAPEVAULT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VAPEVAULT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VAPEVAULT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VAPEVAULT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VAPEVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VAPEVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VAPEVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VAPEVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VAPEVAULT_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"VAPEVAULT_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"VAPEVAULT_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"VAPEVAULT_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"VAPEVAULT_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"VAPEVAULT_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"VAPEVAULT_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	ChatWindow       time.Duration `envconfig:"VAPEVAULT_RATE_LIMIT_CHAT_WINDOW" default:"1m"`
	ChatIPLimit      int           `envconfig:"VAPEVAULT_RATE_LIMIT_CHAT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VAPEVAULT_AUTO_MIGRATE" default:"false"`
}

type OpenAIConfig struct {
	APIKey         string        `envconfig:"VAPEVAULT_OPENAI_API_KEY"`
	BaseURL        string        `envconfig:"VAPEVAULT_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	ChatModel      string        `envconfig:"VAPEVAULT_OPENAI_CHAT_MODEL" default:"gpt-4-turbo"`
	EmbeddingModel string        `envconfig:"VAPEVAULT_OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	Timeout        time.Duration `envconfig:"VAPEVAULT_OPENAI_TIMEOUT" default:"60s"`
}

type GoogleMapsConfig struct {
	APIKey  string        `envconfig:"VAPEVAULT_GOOGLE_MAPS_API_KEY"`
	QPS     float64       `envconfig:"VAPEVAULT_GOOGLE_MAPS_QPS" default:"10"`
	Burst   int           `envconfig:"VAPEVAULT_GOOGLE_MAPS_BURST" default:"5"`
	Timeout time.Duration `envconfig:"VAPEVAULT_GOOGLE_MAPS_TIMEOUT" default:"10s"`
}

type CatalogConfig struct {
	CacheTTL    time.Duration `envconfig:"VAPEVAULT_CATALOG_CACHE_TTL" default:"5m"`
	SearchLimit int           `envconfig:"VAPEVAULT_CATALOG_SEARCH_LIMIT" default:"50"`
}

type EmbeddingsConfig struct {
	BatchSize int           `envconfig:"VAPEVAULT_EMBEDDINGS_BATCH_SIZE" default:"50"`
	Pause     time.Duration `envconfig:"VAPEVAULT_EMBEDDINGS_PAUSE" default:"1s"`
	Interval  time.Duration `envconfig:"VAPEVAULT_EMBEDDINGS_INTERVAL" default:"6h"`
	// MetricsAddr is where the embed worker serves /metrics; empty disables it.
	MetricsAddr string `envconfig:"VAPEVAULT_EMBEDDINGS_METRICS_ADDR"`
}

type AdminConfig struct {
	StatsRetryDelay time.Duration `envconfig:"VAPEVAULT_ADMIN_STATS_RETRY_DELAY" default:"350ms"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
