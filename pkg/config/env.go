package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the prefix is informational.
const EnvPrefix = "ACCOUNTS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv          = "ACCOUNTS_APP_ENV"
	EnvPort            = "ACCOUNTS_APP_PORT"
	EnvDisplayTimezone = "ACCOUNTS_DISPLAY_TIMEZONE"

	EnvDBDSN  = "ACCOUNTS_DB_DSN"
	EnvDBHost = "ACCOUNTS_DB_HOST"
	EnvDBUser = "ACCOUNTS_DB_USER"
	EnvDBName = "ACCOUNTS_DB_NAME"

	EnvUseSQLite  = "ACCOUNTS_USE_SQLITE"
	EnvSQLitePath = "ACCOUNTS_SQLITE_PATH"

	EnvRedisURL = "ACCOUNTS_REDIS_URL"

	EnvJWTSecret              = "ACCOUNTS_JWT_SECRET"
	EnvJWTIssuer              = "ACCOUNTS_JWT_ISSUER"
	EnvJWTExpMins             = "ACCOUNTS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ACCOUNTS_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
