package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "LENDING"

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Gateway   GatewayConfig
	Deduction DeductionConfig
}

type AppConfig struct {
	Env          string `envconfig:"LENDING_APP_ENV" default:"dev"`
	Port         string `envconfig:"LENDING_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LENDING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LENDING_LOG_WARN_STACK" default:"false"`
	IdempTTLSecs int    `envconfig:"LENDING_IDEMPOTENCY_TTL_SECONDS" default:"300"`
}

func (a AppConfig) IsDev() bool { return strings.EqualFold(a.Env, "dev") }

type DBConfig struct {
	Driver string `envconfig:"LENDING_DB_DRIVER" default:"mysql"`
	// DSN wins over the discrete MySQL fields when set.
	DSN string `envconfig:"LENDING_DB_DSN"`

	MySQLHost string `envconfig:"LENDING_MYSQL_HOST" default:"mysql"`
	MySQLPort string `envconfig:"LENDING_MYSQL_PORT" default:"3306"`
	MySQLDB   string `envconfig:"LENDING_MYSQL_DB" default:"credlio"`
	MySQLUser string `envconfig:"LENDING_MYSQL_USER" default:"credlio"`
	MySQLPass string `envconfig:"LENDING_MYSQL_PASS" default:"credlio"`

	MaxOpenConns    int           `envconfig:"LENDING_DB_MAX_OPEN_CONNS" default:"30"`
	MaxIdleConns    int           `envconfig:"LENDING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LENDING_DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"LENDING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	Addr string `envconfig:"LENDING_REDIS_ADDR" default:"redis:6379"`
	DB   int    `envconfig:"LENDING_REDIS_DB" default:"0"`
}

type JWTConfig struct {
	Secret string `envconfig:"LENDING_JWT_SECRET"`
	Issuer string `envconfig:"LENDING_JWT_ISSUER"`
}

type GatewayConfig struct {
	BaseURL       string `envconfig:"LENDING_GATEWAY_BASE_URL" default:"https://connect.squareupsandbox.com"`
	AccessToken   string `envconfig:"LENDING_GATEWAY_ACCESS_TOKEN"`
	LocationID    string `envconfig:"LENDING_GATEWAY_LOCATION_ID"`
	WebhookSecret string `envconfig:"LENDING_GATEWAY_WEBHOOK_SECRET"`
	// WebhookDedupeTTL bounds how long a processed event id is remembered.
	WebhookDedupeTTL time.Duration `envconfig:"LENDING_GATEWAY_WEBHOOK_DEDUPE_TTL" default:"72h"`
}

type DeductionConfig struct {
	Interval    time.Duration `envconfig:"LENDING_DEDUCTION_INTERVAL" default:"24h"`
	ChargeDelay time.Duration `envconfig:"LENDING_DEDUCTION_CHARGE_DELAY" default:"1s"`
	RetryAfter  time.Duration `envconfig:"LENDING_DEDUCTION_RETRY_AFTER" default:"24h"`
	StuckAfter  time.Duration `envconfig:"LENDING_DEDUCTION_STUCK_AFTER" default:"6h"`
	LockTTL     time.Duration `envconfig:"LENDING_DEDUCTION_LOCK_TTL" default:"30m"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMySQL:
		if c.DB.DSN == "" {
			if c.DB.MySQLHost == "" || c.DB.MySQLPort == "" || c.DB.MySQLDB == "" || c.DB.MySQLUser == "" {
				return errors.New("missing MySQL config (LENDING_MYSQL_HOST/PORT/DB/USER)")
			}
			if _, err := net.LookupPort("tcp", c.DB.MySQLPort); err != nil {
				return fmt.Errorf("invalid LENDING_MYSQL_PORT %q: %w", c.DB.MySQLPort, err)
			}
		}
	case DriverPostgres, DriverSQLite:
		if c.DB.DSN == "" {
			return fmt.Errorf("LENDING_DB_DSN is required for driver %q", c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported LENDING_DB_DRIVER %q", c.DB.Driver)
	}
	if c.App.Port == "" {
		return errors.New("missing LENDING_APP_PORT")
	}
	if c.JWT.Secret == "" {
		return errors.New("missing LENDING_JWT_SECRET")
	}
	if c.Deduction.RetryAfter <= 0 || c.Deduction.StuckAfter <= 0 {
		return errors.New("deduction retry and stuck windows must be positive")
	}
	return nil
}

// DatabaseDSN resolves the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	return c.MySQLDSN()
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.DB.MySQLHost, c.DB.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.DB.MySQLUser, c.DB.MySQLPass, c.mysqlAddr(), c.DB.MySQLDB)
}
