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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Storage      StorageConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.GCS); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"VISADESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"VISADESK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"VISADESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"VISADESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"VISADESK_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind        string `envconfig:"VISADESK_SERVICE_KIND" default:"api"`
	// MetricsAddr exposes /metrics from the background workers when set.
	MetricsAddr string `envconfig:"VISADESK_WORKER_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"VISADESK_DB_DSN"`
	Driver string `envconfig:"VISADESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VISADESK_DB_HOST"`
	LegacyPort     int    `envconfig:"VISADESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VISADESK_DB_USER"`
	LegacyPassword string `envconfig:"VISADESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"VISADESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"VISADESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VISADESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VISADESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VISADESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VISADESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"VISADESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VISADESK_REDIS_ADDR"`
	Password     string        `envconfig:"VISADESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"VISADESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VISADESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VISADESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VISADESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VISADESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VISADESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VISADESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VISADESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VISADESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool   `envconfig:"VISADESK_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"VISADESK_GCS_ACCESS_MODE" default:"public"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"VISADESK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"VISADESK_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VISADESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VISADESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VISADESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"VISADESK_GCS_BUCKET_NAME"`
}

// StorageConfig selects where answer documents live.
type StorageConfig struct {
	Driver        string `envconfig:"VISADESK_STORAGE_DRIVER" default:"local"`
	LocalRoot     string `envconfig:"VISADESK_STORAGE_LOCAL_ROOT" default:"storage"`
	PublicBaseURL string `envconfig:"VISADESK_STORAGE_PUBLIC_BASE_URL" default:"/storage"`
	MaxUploadKB   int64  `envconfig:"VISADESK_STORAGE_MAX_UPLOAD_KB" default:"5120"`
}

func (s StorageConfig) IsGCS() bool {
	return strings.EqualFold(strings.TrimSpace(s.Driver), StorageDriverGCS)
}

// MaxUploadBytes returns the per-file upload cap.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadKB <= 0 {
		return DefaultMaxUploadKB * 1024
	}
	return s.MaxUploadKB * 1024
}

func (s StorageConfig) validate(gcs GCSConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StorageDriverLocal, "":
		return nil
	case StorageDriverGCS:
		if strings.TrimSpace(gcs.BucketName) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCSBucket, EnvStorageDriver, StorageDriverGCS)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"VISADESK_PUBSUB_ORDERS_TOPIC" default:"vd-order-events"`
	NotificationTopic        string `envconfig:"VISADESK_PUBSUB_NOTIFICATION_TOPIC" default:"vd-notification-events"`
	NotificationSubscription string `envconfig:"VISADESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VISADESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VISADESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VISADESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"VISADESK_STRIPE_API_KEY"`
	Secret   string `envconfig:"VISADESK_STRIPE_SECRET"`
	Env      string `envconfig:"VISADESK_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"VISADESK_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// NormalizedCurrency returns the lower-cased ISO currency used for intents.
func (s StripeConfig) NormalizedCurrency() string {
	currency := strings.TrimSpace(strings.ToLower(s.Currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}

type CheckoutConfig struct {
	ReferenceAttempts int `envconfig:"VISADESK_CHECKOUT_REFERENCE_ATTEMPTS" default:"10"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"VISADESK_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int64         `envconfig:"VISADESK_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
	QuoteWindow    time.Duration `envconfig:"VISADESK_RATE_LIMIT_QUOTE_WINDOW" default:"10m"`
	QuoteLimit     int64         `envconfig:"VISADESK_RATE_LIMIT_QUOTE_LIMIT" default:"5"`
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
