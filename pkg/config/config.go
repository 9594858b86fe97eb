package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "brokerpulse"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Tax      TaxConfig
	Checkout CheckoutConfig
	Worker   WorkerConfig
	Migrate  MigrateConfig
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
	Env          string `envconfig:"BROKERPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"BROKERPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BROKERPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BROKERPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BROKERPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"BROKERPULSE_DB_DSN"`

	Host     string `envconfig:"BROKERPULSE_DB_HOST"`
	Port     int    `envconfig:"BROKERPULSE_DB_PORT" default:"5432"`
	User     string `envconfig:"BROKERPULSE_DB_USER"`
	Password string `envconfig:"BROKERPULSE_DB_PASSWORD"`
	Name     string `envconfig:"BROKERPULSE_DB_NAME"`
	SSLMode  string `envconfig:"BROKERPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BROKERPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BROKERPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BROKERPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BROKERPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either BROKERPULSE_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"BROKERPULSE_REDIS_URL"`
	Address      string        `envconfig:"BROKERPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"BROKERPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BROKERPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BROKERPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BROKERPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BROKERPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BROKERPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BROKERPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BROKERPULSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BROKERPULSE_JWT_ISSUER" default:"brokerpulse"`
	ExpirationMinutes int    `envconfig:"BROKERPULSE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TaxConfig holds the IVA rate applied to net prices. Stored in basis
// points so the default 19% survives envconfig's integer parsing.
type TaxConfig struct {
	RateBasisPoints int `envconfig:"BROKERPULSE_TAX_RATE_BPS" default:"1900"`
}

// Rate returns the tax rate as a fraction (0.19 for the default).
func (t TaxConfig) Rate() float64 {
	return float64(t.RateBasisPoints) / 10000
}

type CheckoutConfig struct {
	GrantDuration time.Duration `envconfig:"BROKERPULSE_GRANT_DURATION" default:"8760h"`
}

type WorkerConfig struct {
	RetryInterval  time.Duration `envconfig:"BROKERPULSE_RETRY_INTERVAL" default:"5m"`
	RetryBatchSize int           `envconfig:"BROKERPULSE_RETRY_BATCH_SIZE" default:"50"`
	MaxAttempts    int           `envconfig:"BROKERPULSE_RETRY_MAX_ATTEMPTS" default:"5"`
}

type MigrateConfig struct {
	AutoRunDev bool `envconfig:"BROKERPULSE_MIGRATE_AUTORUN_DEV" default:"true"`
}
