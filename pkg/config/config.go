package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "GREENGO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Cart          CartConfig
	Catalog       CatalogConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = cfg.FeatureFlags.SQLitePath
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GREENGO_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENGO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GREENGO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENGO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GREENGO_DB_DSN"`
	Driver string `envconfig:"GREENGO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GREENGO_DB_HOST"`
	Port     int    `envconfig:"GREENGO_DB_PORT" default:"5432"`
	User     string `envconfig:"GREENGO_DB_USER"`
	Password string `envconfig:"GREENGO_DB_PASSWORD"`
	Name     string `envconfig:"GREENGO_DB_NAME"`
	SSLMode  string `envconfig:"GREENGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENGO_REDIS_URL"`
	Address      string        `envconfig:"GREENGO_REDIS_ADDR"`
	Password     string        `envconfig:"GREENGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GREENGO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GREENGO_JWT_ISSUER" default:"greengo"`
	ExpirationMinutes      int    `envconfig:"GREENGO_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"GREENGO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GREENGO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GREENGO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GREENGO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GREENGO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GREENGO_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"GREENGO_PASSWORD_MIN_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GREENGO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GREENGO_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GREENGO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GREENGO_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GREENGO_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GREENGO_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CartConfig struct {
	// GuestTTL bounds how long an untouched guest cart survives in Redis.
	GuestTTL time.Duration `envconfig:"GREENGO_CART_GUEST_TTL" default:"720h"`
	// RemoteWriteRetries is the number of extra attempts against the remote
	// store before a write failure is absorbed for authenticated carts.
	RemoteWriteRetries int           `envconfig:"GREENGO_CART_REMOTE_WRITE_RETRIES" default:"2"`
	RemoteWriteBackoff time.Duration `envconfig:"GREENGO_CART_REMOTE_WRITE_BACKOFF" default:"100ms"`
}

type CatalogConfig struct {
	SeedOnStart bool `envconfig:"GREENGO_CATALOG_SEED_ON_START" default:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"GREENGO_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"GREENGO_SQLITE_PATH" default:"greengo.db"`
	AutoMigrate bool   `envconfig:"GREENGO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || strings.EqualFold(db.Driver, "sqlite") {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"GREENGO_DB_HOST": db.Host,
		"GREENGO_DB_USER": db.User,
		"GREENGO_DB_NAME": db.Name,
	}
	for _, env := range []string{"GREENGO_DB_HOST", "GREENGO_DB_USER", "GREENGO_DB_NAME"} {
		if required[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either GREENGO_DB_DSN or %s are required", strings.Join(missing, ", "))
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
