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
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOCIALIO_APP_ENV" default:"local"`
	Port         string `envconfig:"SOCIALIO_APP_PORT" default:"8080"`
	MetricsPort  string `envconfig:"SOCIALIO_METRICS_PORT" default:"9000"`
	LogLevel     string `envconfig:"SOCIALIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOCIALIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, AppEnvLocal)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOCIALIO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOCIALIO_DB_DSN"`
	Driver string `envconfig:"SOCIALIO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SOCIALIO_DB_HOST"`
	Port     int    `envconfig:"SOCIALIO_DB_PORT" default:"5432"`
	User     string `envconfig:"SOCIALIO_DB_USER"`
	Password string `envconfig:"SOCIALIO_DB_PASSWORD"`
	Name     string `envconfig:"SOCIALIO_DB_NAME"`
	SSLMode  string `envconfig:"SOCIALIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOCIALIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOCIALIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOCIALIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOCIALIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOCIALIO_REDIS_URL" default:"redis://localhost:6379/0"`
	Address      string        `envconfig:"SOCIALIO_REDIS_ADDR"`
	Password     string        `envconfig:"SOCIALIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOCIALIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOCIALIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOCIALIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOCIALIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOCIALIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOCIALIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type KafkaConfig struct {
	BootstrapServers string `envconfig:"SOCIALIO_KAFKA_BOOTSTRAP_SERVERS" default:"localhost:9092"`
	ClientID         string `envconfig:"SOCIALIO_KAFKA_CLIENT_ID" default:"socialio-api"`
	GroupID          string `envconfig:"SOCIALIO_KAFKA_GROUP_ID" default:"socialio-consumer"`
	SecurityProtocol string `envconfig:"SOCIALIO_KAFKA_SECURITY_PROTOCOL" default:"PLAINTEXT"`
	Topics           string `envconfig:"SOCIALIO_KAFKA_TOPICS" default:"user.created,user.followed,post.created,post.liked,comment.created"`
}

// Brokers returns the bootstrap server list split on commas.
func (k KafkaConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(k.BootstrapServers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// TopicList returns the configured subscription topics split on commas.
func (k KafkaConfig) TopicList() []string {
	var topics []string
	for _, t := range strings.Split(k.Topics, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

type OutboxConfig struct {
	BatchSize            int `envconfig:"SOCIALIO_OUTBOX_BATCH_SIZE" default:"50"`
	DispatchIntervalSecs int `envconfig:"SOCIALIO_OUTBOX_DISPATCH_INTERVAL_SECONDS" default:"5"`
}

// DispatchInterval returns the dispatcher poll interval as a duration.
func (o OutboxConfig) DispatchInterval() time.Duration {
	secs := o.DispatchIntervalSecs
	if secs <= 0 {
		secs = 5
	}
	return time.Duration(secs) * time.Second
}

type EventingConfig struct {
	IdempotencyTTLSecs int `envconfig:"SOCIALIO_IDEMPOTENCY_TTL_SECONDS" default:"86400"`
}

// IdempotencyTTL returns the dedup marker expiry window.
func (e EventingConfig) IdempotencyTTL() time.Duration {
	secs := e.IdempotencyTTLSecs
	if secs <= 0 {
		secs = 86400
	}
	return time.Duration(secs) * time.Second
}

type JWTConfig struct {
	Secret            string `envconfig:"SOCIALIO_JWT_SECRET" default:"dev-secret"`
	Issuer            string `envconfig:"SOCIALIO_JWT_ISSUER" default:"socialio"`
	ExpirationMinutes int    `envconfig:"SOCIALIO_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshExpMinutes int    `envconfig:"SOCIALIO_JWT_REFRESH_EXPIRATION_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshExpMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOCIALIO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOCIALIO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOCIALIO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOCIALIO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOCIALIO_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	Requests int           `envconfig:"SOCIALIO_RATE_LIMIT_REQUESTS" default:"60"`
	Window   time.Duration `envconfig:"SOCIALIO_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOCIALIO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOCIALIO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
