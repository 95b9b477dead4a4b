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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Moderation   ModerationConfig
	Media        MediaConfig
	Storage      StorageConfig
	Telegram     TelegramConfig
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
	Env          string `envconfig:"SWAPMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"SWAPMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWAPMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWAPMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWAPMARKET_DB_DSN"`
	Driver string `envconfig:"SWAPMARKET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWAPMARKET_DB_HOST"`
	Port     int    `envconfig:"SWAPMARKET_DB_PORT" default:"5432"`
	User     string `envconfig:"SWAPMARKET_DB_USER"`
	Password string `envconfig:"SWAPMARKET_DB_PASSWORD"`
	Name     string `envconfig:"SWAPMARKET_DB_NAME"`
	SSLMode  string `envconfig:"SWAPMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWAPMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWAPMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWAPMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWAPMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWAPMARKET_REDIS_URL"`
	Address      string        `envconfig:"SWAPMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SWAPMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWAPMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWAPMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWAPMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWAPMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWAPMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWAPMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SWAPMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SWAPMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SWAPMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ModerationConfig controls the listing moderation gate.
type ModerationConfig struct {
	// AfterChanges requires moderator review before a published (or edited)
	// listing becomes publicly visible. When off every publish action goes
	// straight to the published state.
	AfterChanges bool `envconfig:"SWAPMARKET_MODERATION_AFTER_CHANGES" default:"true"`
	// ReviewURLBase prefixes the moderation screen link embedded in
	// moderator notifications.
	ReviewURLBase string `envconfig:"SWAPMARKET_MODERATION_REVIEW_URL" default:"https://swapmarket.app/moderation/listings"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"SWAPMARKET_MEDIA_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes returns the configured upload cap in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) << 20
}

type StorageConfig struct {
	Endpoint  string `envconfig:"SWAPMARKET_S3_ENDPOINT" required:"true"`
	AccessKey string `envconfig:"SWAPMARKET_S3_ACCESS_KEY" required:"true"`
	SecretKey string `envconfig:"SWAPMARKET_S3_SECRET_KEY" required:"true"`
	Bucket    string `envconfig:"SWAPMARKET_S3_BUCKET" default:"swapmarket-media"`
	UseSSL    bool   `envconfig:"SWAPMARKET_S3_USE_SSL" default:"true"`
	// PublicBaseURL is used to build client-facing image URLs. Falls back to
	// the endpoint when empty.
	PublicBaseURL string `envconfig:"SWAPMARKET_S3_PUBLIC_URL"`
}

type TelegramConfig struct {
	BotToken string        `envconfig:"SWAPMARKET_TELEGRAM_BOT_TOKEN"`
	APIBase  string        `envconfig:"SWAPMARKET_TELEGRAM_API_BASE" default:"https://api.telegram.org"`
	Timeout  time.Duration `envconfig:"SWAPMARKET_TELEGRAM_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SWAPMARKET_AUTO_MIGRATE" default:"false"`
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
	for _, env := range componentDBEnvVars {
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
