package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `env:"PORT" envDefault:"8080"`
	GoEnv string `env:"GO_ENV" envDefault:"dev"` // dev/prod

	//DATABASE_URLがあれば最優先
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"grocerystore"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	DBMaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"30m"`

	Payment PaymentConfig
	SMTP    SMTPConfig
	Notify  NotifyConfig

	//空ならプロセス内ロック
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	CheckoutLockTTL time.Duration `env:"CHECKOUT_LOCK_TTL" envDefault:"30s"`

	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type PaymentConfig struct {
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	Currency            string `env:"PAYMENT_CURRENCY" envDefault:"inr"`
	SuccessURL          string `env:"PAYMENT_SUCCESS_URL" envDefault:"http://localhost:8080/orders"`
	CancelURL           string `env:"PAYMENT_CANCEL_URL" envDefault:"http://localhost:8080/cart"`
	//CHECKOUT_LOCK_TTL 以上なら使われずTTLの2/3になる
	Timeout time.Duration `env:"PAYMENT_TIMEOUT" envDefault:"20s"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"localhost"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@grocerystore.local"`
}

type NotifyConfig struct {
	Workers     int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	QueueSize   int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	SendTimeout time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"15s"`
}

// Loadは.env（あれば）を読み込んでから環境変数をパースする
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		//ファイルが無いのは許す
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}

	cfg.Payment.Currency = strings.ToLower(strings.TrimSpace(cfg.Payment.Currency))
	if cfg.GoEnv != "dev" && cfg.GoEnv != "prod" && cfg.GoEnv != "test" {
		return Config{}, errors.Errorf("GO_ENV must be dev, prod or test: %q", cfg.GoEnv)
	}
	if cfg.Notify.Workers < 1 {
		return Config{}, errors.New("NOTIFY_WORKERS must be >= 1")
	}
	if cfg.Notify.QueueSize < 1 {
		return Config{}, errors.New("NOTIFY_QUEUE_SIZE must be >= 1")
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN returns DATABASE_URL when set, otherwise a DSN built from POSTGRES_*.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
