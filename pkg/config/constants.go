package config

const (
	EnvPrefix = "FOODHAUL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "FOODHAUL_APP_ENV"
	EnvPort      = "FOODHAUL_APP_PORT"
	EnvDBDSN     = "FOODHAUL_DB_DSN"
	EnvDBHost    = "FOODHAUL_DB_HOST"
	EnvDBUser    = "FOODHAUL_DB_USER"
	EnvDBName    = "FOODHAUL_DB_NAME"
	EnvUseSQLite = "FOODHAUL_USE_SQLITE"
	EnvRedisURL  = "FOODHAUL_REDIS_URL"
	EnvJWTSecret = "FOODHAUL_JWT_SECRET"
	EnvOTPTTL    = "FOODHAUL_OTP_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
