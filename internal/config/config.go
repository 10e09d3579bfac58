package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	OrderStorePostgres  = "postgres"
	OrderStoreFirestore = "firestore"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int

	PublicBaseURL string // 決済後の戻り先

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	ShippingFlatCents   int64

	AdminSecretHash string // X-Admin-Secret の bcrypt ハッシュ
	CartTokenSecret string // cart_session クッキーの署名鍵

	RedisAddr string // 空ならメモリ

	OrderStore         string // postgres / firestore
	FirestoreProjectID string

	KafkaBrokers     string // カンマ区切り。空なら publish しない
	OrderEventsTopic string

	SendGridAPIKey string
	MailFrom       string

	GCPSecretsProject string

	RetentionSweepInterval time.Duration
	ExternalCallTimeout    time.Duration
}

// Secret Manager から上書きするキー
var SecretKeys = []string{
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"CART_TOKEN_SECRET",
	"ADMIN_SECRET_HASH",
	"SENDGRID_API_KEY",
}

// シークレットの取得元
type SecretLookup interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// Loadは環境変数から読む。シークレットは ResolveSecrets の後で Validate する。
func Load() (Config, error) {
	shipping, err := int64Or("SHIPPING_FLAT_CENTS", 499)
	if err != nil {
		return Config{}, err
	}
	sweep, err := durationOr("RETENTION_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("EXTERNAL_CALL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  envOr("PORT", "8080"),
		GoEnv: envOr("GO_ENV", "dev"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),

		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(envOr("CURRENCY", "usd")),
		ShippingFlatCents:   shipping,

		AdminSecretHash: os.Getenv("ADMIN_SECRET_HASH"),
		CartTokenSecret: os.Getenv("CART_TOKEN_SECRET"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		OrderStore:         strings.ToLower(envOr("ORDER_STORE", OrderStorePostgres)),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),

		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		OrderEventsTopic: envOr("ORDER_EVENTS_TOPIC", "order-events"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       os.Getenv("MAIL_FROM"),

		GCPSecretsProject: os.Getenv("GCP_SECRETS_PROJECT"),

		RetentionSweepInterval: sweep,
		ExternalCallTimeout:    timeout,
	}

	if cfg.DatabaseURL == "" {
		port, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresPort = port
	}

	return cfg, nil
}

// ResolveSecrets は SecretKeys を Secret Manager の値で上書きする
func (c *Config) ResolveSecrets(ctx context.Context, src SecretLookup) error {
	targets := map[string]*string{
		"STRIPE_SECRET_KEY":     &c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &c.StripeWebhookSecret,
		"CART_TOKEN_SECRET":     &c.CartTokenSecret,
		"ADMIN_SECRET_HASH":     &c.AdminSecretHash,
		"SENDGRID_API_KEY":      &c.SendGridAPIKey,
	}
	for _, key := range SecretKeys {
		// SendGrid は任意
		if key == "SENDGRID_API_KEY" && c.MailFrom == "" {
			continue
		}
		v, err := src.Lookup(ctx, key)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*targets[key] = v
	}
	return nil
}

// Validate は必須チェック
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.PostgresPassword == "" {
			return fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if c.GoEnv != "dev" && c.GoEnv != "prod" && c.GoEnv != "test" {
		return fmt.Errorf("GO_ENV must be dev or prod")
	}
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.AdminSecretHash == "" {
		return fmt.Errorf("ADMIN_SECRET_HASH is required")
	}
	if c.CartTokenSecret == "" {
		return fmt.Errorf("CART_TOKEN_SECRET is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be an ISO 4217 code")
	}
	if c.ShippingFlatCents < 0 {
		return fmt.Errorf("SHIPPING_FLAT_CENTS must be >= 0")
	}
	switch c.OrderStore {
	case OrderStorePostgres:
	case OrderStoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when ORDER_STORE=firestore")
		}
	default:
		return fmt.Errorf("ORDER_STORE must be postgres or firestore")
	}
	if c.SendGridAPIKey != "" && c.MailFrom == "" {
		return fmt.Errorf("MAIL_FROM is required when SENDGRID_API_KEY is set")
	}
	if c.RetentionSweepInterval <= 0 {
		return fmt.Errorf("RETENTION_SWEEP_INTERVAL must be > 0")
	}
	return nil
}

// gorm に渡す DSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func int64Or(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
