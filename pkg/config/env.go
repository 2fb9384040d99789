package config

const (
	EnvPrefix = "VAPEVAULT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv                 = "VAPEVAULT_APP_ENV"
	EnvPort                   = "VAPEVAULT_APP_PORT"
	EnvDBDSN                  = "VAPEVAULT_DB_DSN"
	EnvDBHost                 = "VAPEVAULT_DB_HOST"
	EnvDBUser                 = "VAPEVAULT_DB_USER"
	EnvDBName                 = "VAPEVAULT_DB_NAME"
	EnvDBPassword             = "VAPEVAULT_DB_PASSWORD"
	EnvRedisURL               = "VAPEVAULT_REDIS_URL"
	EnvJWTSecret              = "VAPEVAULT_JWT_SECRET"
	EnvJWTIssuer              = "VAPEVAULT_JWT_ISSUER"
	EnvJWTExpMins             = "VAPEVAULT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "VAPEVAULT_REFRESH_TOKEN_TTL_MINUTES"
	EnvOpenAIAPIKey           = "VAPEVAULT_OPENAI_API_KEY"
	EnvOpenAIChatModel        = "VAPEVAULT_OPENAI_CHAT_MODEL"
	EnvEmbeddingsBatchSize    = "VAPEVAULT_EMBEDDINGS_BATCH_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
