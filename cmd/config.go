package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"
)

const (
	RateLimitProviderMemory = "memory"
	RateLimitProviderRedis  = "redis"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8082" validate:"required,numeric"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost" validate:"required"`
	DBPort     string `env:"DB_PORT" envDefault:"5432" validate:"required,numeric"`
	DBUser     string `env:"DB_USER,required" validate:"required"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME,required" validate:"required"`
	DBSslMode  string `env:"DB_SSLMODE" envDefault:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`

	AdminToken          string        `env:"ADMIN_TOKEN,required" validate:"required,min=16"`
	DriverJWTSecret     string        `env:"DRIVER_JWT_SECRET,required" validate:"required,min=32"`
	DriverTokenTTL      time.Duration `env:"DRIVER_TOKEN_TTL" envDefault:"720h" validate:"gt=0"`
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`

	RateLimitProvider     string        `env:"RATE_LIMIT_PROVIDER" envDefault:"memory" validate:"oneof=memory redis"`
	RedisURL              string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=RateLimitProvider redis"`
	RateLimitInterval     time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"1m" validate:"gt=0"`
	RateLimitKeysPerShard int           `env:"RATE_LIMIT_KEYS_PER_SHARD" envDefault:"4096" validate:"gt=0"`
	PaymentRateLimit      int           `env:"PAYMENT_RATE_LIMIT" envDefault:"60" validate:"gt=0"`
	GPSRateLimit          int           `env:"GPS_RATE_LIMIT" envDefault:"120" validate:"gt=0"`
	TrustedProxies        []string      `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr"`

	DriverLoadCap       int `env:"DISPATCH_DRIVER_LOAD_CAP" envDefault:"3" validate:"gt=0"`
	AssignmentBatchSize int `env:"DISPATCH_BATCH_SIZE" envDefault:"50" validate:"gt=0,lte=1000"`

	NotifyMaxAttempts int           `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"5" validate:"gt=0"`
	NotifySendTimeout time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	NotifyBatchSize   int           `env:"NOTIFY_BATCH_SIZE" envDefault:"100" validate:"gt=0,lte=1000"`

	WhatsAppBaseURL       string `env:"WHATSAPP_BASE_URL" validate:"omitempty,url"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppToken         string `env:"WHATSAPP_TOKEN"`
	ResendAPIKey          string `env:"RESEND_API_KEY"`
	EmailFrom             string `env:"EMAIL_FROM"`

	KafkaHost              string `env:"KAFKA_HOST"`
	KafkaOrderChangedTopic string `env:"KAFKA_ORDER_CHANGED_TOPIC" envDefault:"fulfillment.order_changed" validate:"required_with=KafkaHost"`

	ReconciliationGrace time.Duration `env:"RECONCILIATION_GRACE" envDefault:"10m" validate:"gt=0"`
	EventBusBufferSize  int           `env:"EVENT_BUS_BUFFER_SIZE" envDefault:"1024" validate:"gt=0"`
}

var configValidator = validator.New()

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasPhoneID := strings.TrimSpace(c.WhatsAppPhoneNumberID) != ""
	hasPhoneToken := strings.TrimSpace(c.WhatsAppToken) != ""
	if hasPhoneID != hasPhoneToken {
		return fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_TOKEN must be set together")
	}

	hasResendKey := strings.TrimSpace(c.ResendAPIKey) != ""
	hasEmailFrom := strings.TrimSpace(c.EmailFrom) != ""
	if hasResendKey != hasEmailFrom {
		return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM must be set together")
	}

	return nil
}

// DSN is the Postgres connection string shared by gorm and the LISTEN
// connection.
func (c Config) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSslMode}}.Encode(),
	}
	return dsn.String()
}

func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, host := range strings.Split(c.KafkaHost, ",") {
		if host = strings.TrimSpace(host); host != "" {
			brokers = append(brokers, host)
		}
	}
	return brokers
}

// TrustedProxyRanges parses TRUSTED_PROXIES. validate has already checked
// the CIDR syntax.
func (c Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, cidr := range c.TrustedProxies {
		_, ipRange, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", cidr, err)
		}
		ranges = append(ranges, ipRange)
	}
	return ranges, nil
}

// GormLogLevel keeps SQL tracing for debug runs only.
func (c Config) GormLogLevel() gormlogger.LogLevel {
	if c.LogLevel <= slog.LevelDebug {
		return gormlogger.Info
	}
	return gormlogger.Warn
}
