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
	LLM          LLMConfig
	Conversation ConversationConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"ZATGPT_APP_ENV" required:"true"`
	Port            string        `envconfig:"ZATGPT_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"ZATGPT_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"ZATGPT_LOG_WARN_STACK" default:"false"`
	AllowedHosts    []string      `envconfig:"ZATGPT_ALLOWED_HOSTS" default:"http://localhost:5173,http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"ZATGPT_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZATGPT_DB_DSN"`
	Driver string `envconfig:"ZATGPT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZATGPT_DB_HOST"`
	LegacyPort     int    `envconfig:"ZATGPT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZATGPT_DB_USER"`
	LegacyPassword string `envconfig:"ZATGPT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZATGPT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZATGPT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZATGPT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZATGPT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZATGPT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZATGPT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ZATGPT_REDIS_URL"`
	Address      string        `envconfig:"ZATGPT_REDIS_ADDR"`
	Password     string        `envconfig:"ZATGPT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZATGPT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZATGPT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZATGPT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZATGPT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZATGPT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZATGPT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ZATGPT_SECRET_KEY" required:"true"`
	Issuer                 string `envconfig:"ZATGPT_JWT_ISSUER" default:"zatgpt"`
	ExpirationMinutes      int    `envconfig:"ZATGPT_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ZATGPT_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZATGPT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZATGPT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZATGPT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZATGPT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZATGPT_ARGON_KEY_LEN" default:"32"`
}

// LLMConfig points at the chat completion endpoint. For the azure provider
// Model is the deployment name.
type LLMConfig struct {
	Provider   string        `envconfig:"ZATGPT_LLM_PROVIDER" default:"azure"`
	Endpoint   string        `envconfig:"ZATGPT_LLM_ENDPOINT"`
	APIKey     string        `envconfig:"ZATGPT_LLM_API_KEY" required:"true"`
	Model      string        `envconfig:"ZATGPT_LLM_MODEL" required:"true"`
	APIVersion string        `envconfig:"ZATGPT_LLM_API_VERSION" default:"2024-02-01"`
	Timeout    time.Duration `envconfig:"ZATGPT_LLM_TIMEOUT" default:"60s"`
}

// IsAzure reports whether the azure flavored API is configured.
func (l LLMConfig) IsAzure() bool {
	return strings.EqualFold(strings.TrimSpace(l.Provider), LLMProviderAzure)
}

func (l LLMConfig) validate() error {
	provider := strings.ToLower(strings.TrimSpace(l.Provider))
	switch provider {
	case LLMProviderAzure:
		if strings.TrimSpace(l.Endpoint) == "" {
			return fmt.Errorf("%s is required for the azure provider", EnvLLMEndpoint)
		}
	case LLMProviderOpenAI:
	default:
		return fmt.Errorf("unsupported llm provider %q", l.Provider)
	}
	return nil
}

type ConversationConfig struct {
	SystemPrompt string `envconfig:"ZATGPT_SYSTEM_PROMPT" default:"You are a helpful assistant."`
	TitleLength  int    `envconfig:"ZATGPT_SESSION_TITLE_LENGTH" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ZATGPT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
