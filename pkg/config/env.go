package config

const EnvPrefix = "NUTRITRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendFile   = "file"
	BackendMemory = "memory"
)

const (
	EnvAppEnv    = "NUTRITRACK_APP_ENV"
	EnvPort      = "NUTRITRACK_APP_PORT"
	EnvDBDSN     = "NUTRITRACK_DB_DSN"
	EnvDBHost    = "NUTRITRACK_DB_HOST"
	EnvDBUser    = "NUTRITRACK_DB_USER"
	EnvDBName    = "NUTRITRACK_DB_NAME"
	EnvUseSQLite = "NUTRITRACK_USE_SQLITE"
	EnvRedisURL  = "NUTRITRACK_REDIS_URL"
	EnvJWTSecret = "NUTRITRACK_JWT_SECRET"
	EnvJWTIssuer = "NUTRITRACK_JWT_ISSUER"

	EnvNotificationsInterval   = "NUTRITRACK_NOTIFICATIONS_INTERVAL"
	EnvNotificationsTimezone   = "NUTRITRACK_NOTIFICATIONS_TIMEZONE"
	EnvNotificationsBackend    = "NUTRITRACK_NOTIFICATIONS_BACKEND"
	EnvNotificationsStorageKey = "NUTRITRACK_NOTIFICATIONS_STORAGE_KEY"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
