package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for unannotated fields.
const EnvPrefix = ""

const (
	AppEnvLocal = "local"
	AppEnvDev   = "dev"
	AppEnvProd  = "prod"
)

const (
	EnvDBDSN  = "SOCIALIO_DB_DSN"
	EnvDBHost = "SOCIALIO_DB_HOST"
	EnvDBUser = "SOCIALIO_DB_USER"
	EnvDBName = "SOCIALIO_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
