package config

const (
	EnvPrefix = "SWAPMARKET"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "SWAPMARKET_APP_ENV"
	EnvDBDSN  = "SWAPMARKET_DB_DSN"
	EnvDBHost = "SWAPMARKET_DB_HOST"
	EnvDBUser = "SWAPMARKET_DB_USER"
	EnvDBName = "SWAPMARKET_DB_NAME"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
