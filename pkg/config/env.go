package config

// EnvPrefix is handed to envconfig; every tag below is fully qualified so the
// prefix only matters for unnamed fields.
const EnvPrefix = "VISADESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"

	DefaultCurrency    = "usd"
	DefaultMaxUploadKB = 5120
)

const (
	EnvAppEnv        = "VISADESK_APP_ENV"
	EnvPort          = "VISADESK_APP_PORT"
	EnvDBDSN         = "VISADESK_DB_DSN"
	EnvDBDriver      = "VISADESK_DB_DRIVER"
	EnvDBHost        = "VISADESK_DB_HOST"
	EnvDBUser        = "VISADESK_DB_USER"
	EnvDBName        = "VISADESK_DB_NAME"
	EnvRedisURL      = "VISADESK_REDIS_URL"
	EnvJWTSecret     = "VISADESK_JWT_SECRET"
	EnvJWTIssuer     = "VISADESK_JWT_ISSUER"
	EnvJWTExpMins    = "VISADESK_JWT_EXPIRATION_MINUTES"
	EnvGCSBucket     = "VISADESK_GCS_BUCKET_NAME"
	EnvStorageDriver = "VISADESK_STORAGE_DRIVER"
	EnvStripeAPIKey  = "VISADESK_STRIPE_API_KEY"
	EnvStripeSecret  = "VISADESK_STRIPE_SECRET"
	EnvStripeCurr    = "VISADESK_STRIPE_CURRENCY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
