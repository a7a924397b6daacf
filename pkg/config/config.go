package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	OTP           OTPConfig
	Admin         AdminConfig
	GoogleMaps    GoogleMapsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"FOODHAUL_APP_ENV" required:"true"`
	Port            string        `envconfig:"FOODHAUL_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"FOODHAUL_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"FOODHAUL_LOG_WARN_STACK" default:"false"`
	ReadTimeout     time.Duration `envconfig:"FOODHAUL_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"FOODHAUL_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"FOODHAUL_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"FOODHAUL_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FOODHAUL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FOODHAUL_DB_DSN"`
	Driver string `envconfig:"FOODHAUL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODHAUL_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODHAUL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODHAUL_DB_USER"`
	LegacyPassword string `envconfig:"FOODHAUL_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODHAUL_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODHAUL_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FOODHAUL_SQLITE_PATH" default:"foodhaul.db"`

	MaxOpenConns    int           `envconfig:"FOODHAUL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODHAUL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODHAUL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODHAUL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODHAUL_REDIS_URL" required:"true"`
	Password     string        `envconfig:"FOODHAUL_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODHAUL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODHAUL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODHAUL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODHAUL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODHAUL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODHAUL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FOODHAUL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FOODHAUL_JWT_ISSUER" default:"foodhaul"`
	ExpirationMinutes int    `envconfig:"FOODHAUL_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODHAUL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODHAUL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODHAUL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODHAUL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODHAUL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FOODHAUL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOODHAUL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOODHAUL_AUTO_MIGRATE" default:"false"`
	MapsRanking bool `envconfig:"FOODHAUL_FEATURE_MAPS_RANKING" default:"false"`
}

type OrdersConfig struct {
	DefaultReadyTimeMinutes int           `envconfig:"FOODHAUL_ORDER_DEFAULT_READY_MINUTES" default:"45"`
	CustomerLockTTL         time.Duration `envconfig:"FOODHAUL_ORDER_CUSTOMER_LOCK_TTL" default:"15s"`
	StaleTransactionTTL     time.Duration `envconfig:"FOODHAUL_ORDER_STALE_TRANSACTION_TTL" default:"2h"`
	AssignmentRetryWindow   time.Duration `envconfig:"FOODHAUL_ORDER_ASSIGNMENT_RETRY_WINDOW" default:"2h"`
	AssignmentMaxAttempts   int           `envconfig:"FOODHAUL_ORDER_ASSIGNMENT_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL          time.Duration `envconfig:"FOODHAUL_ORDER_IDEMPOTENCY_TTL" default:"24h"`
}

type OTPConfig struct {
	Length int           `envconfig:"FOODHAUL_OTP_LENGTH" default:"6"`
	TTL    time.Duration `envconfig:"FOODHAUL_OTP_TTL" default:"30m"`
}

type AdminConfig struct {
	BootstrapEmail    string `envconfig:"FOODHAUL_ADMIN_EMAIL"`
	BootstrapPassword string `envconfig:"FOODHAUL_ADMIN_PASSWORD"`
}

type GoogleMapsConfig struct {
	APIKey  string        `envconfig:"FOODHAUL_GOOGLE_MAPS_API_KEY"`
	BaseURL string        `envconfig:"FOODHAUL_GOOGLE_MAPS_BASE_URL" default:"https://maps.googleapis.com"`
	Timeout time.Duration `envconfig:"FOODHAUL_GOOGLE_MAPS_TIMEOUT" default:"3s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FOODHAUL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FOODHAUL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FOODHAUL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic       string `envconfig:"FOODHAUL_PUBSUB_ORDERS_TOPIC" default:"foodhaul-order-events"`
	NotificationTopic string `envconfig:"FOODHAUL_PUBSUB_NOTIFICATION_TOPIC" default:"foodhaul-notification-events"`
	PaymentsTopic     string `envconfig:"FOODHAUL_PUBSUB_PAYMENTS_TOPIC" default:"foodhaul-payment-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FOODHAUL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FOODHAUL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FOODHAUL_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"FOODHAUL_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FOODHAUL_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"FOODHAUL_CRON_LOCK_TTL" default:"5m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = db.SQLitePath
		return nil
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
