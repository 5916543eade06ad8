package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so
// the prefix only matters for fields without one.
const EnvPrefix = "ZATGPT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	LLMProviderAzure  = "azure"
	LLMProviderOpenAI = "openai"
)

const (
	EnvAppEnv       = "ZATGPT_APP_ENV"
	EnvPort         = "ZATGPT_APP_PORT"
	EnvAllowedHosts = "ZATGPT_ALLOWED_HOSTS"

	EnvDBDSN    = "ZATGPT_DB_DSN"
	EnvDBDriver = "ZATGPT_DB_DRIVER"
	EnvDBHost   = "ZATGPT_DB_HOST"
	EnvDBUser   = "ZATGPT_DB_USER"
	EnvDBName   = "ZATGPT_DB_NAME"

	EnvRedisURL = "ZATGPT_REDIS_URL"

	EnvSecretKey              = "ZATGPT_SECRET_KEY"
	EnvJWTIssuer              = "ZATGPT_JWT_ISSUER"
	EnvJWTExpMins             = "ZATGPT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ZATGPT_REFRESH_TOKEN_TTL_MINUTES"
	EnvLLMProvider            = "ZATGPT_LLM_PROVIDER"
	EnvLLMEndpoint            = "ZATGPT_LLM_ENDPOINT"
	EnvLLMAPIKey              = "ZATGPT_LLM_API_KEY"
	EnvLLMModel               = "ZATGPT_LLM_MODEL"
	EnvLLMAPIVersion          = "ZATGPT_LLM_API_VERSION"
	EnvLLMTimeout             = "ZATGPT_LLM_TIMEOUT"
	EnvSystemPrompt           = "ZATGPT_SYSTEM_PROMPT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
