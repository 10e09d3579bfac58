package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "9090")
	t.Setenv("GO_ENV", "dev")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "shop")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example.com/")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_x")
	t.Setenv("ADMIN_SECRET_HASH", "$2a$10$hash")
	t.Setenv("CART_TOKEN_SECRET", "cart-secret")
	t.Setenv("ORDER_STORE", "")
	t.Setenv("CURRENCY", "")
	t.Setenv("SHIPPING_FLAT_CENTS", "")
	t.Setenv("RETENTION_SWEEP_INTERVAL", "")
	t.Setenv("EXTERNAL_CALL_TIMEOUT", "")
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("MAIL_FROM", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "https://shop.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, int64(499), cfg.ShippingFlatCents)
	assert.Equal(t, OrderStorePostgres, cfg.OrderStore)
	assert.Equal(t, "order-events", cfg.OrderEventsTopic)
	assert.Equal(t, time.Hour, cfg.RetentionSweepInterval)
	assert.Equal(t, 10*time.Second, cfg.ExternalCallTimeout)
	assert.Contains(t, cfg.DSN(), "port=5433")
}

func TestLoad_DatabaseURLSkipsPostgresPort(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("POSTGRES_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.DSN())
}

func TestLoad_BadNumbers(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SHIPPING_FLAT_CENTS", "4.99")
	_, err := Load()
	assert.Error(t, err)

	setBaseEnv(t)
	t.Setenv("RETENTION_SWEEP_INTERVAL", "hourly")
	_, err = Load()
	assert.Error(t, err)

	setBaseEnv(t)
	t.Setenv("POSTGRES_PORT", "")
	_, err = Load()
	assert.EqualError(t, err, "POSTGRES_PORT is required")
}

func TestValidate_Required(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY is required"},
		{"STRIPE_WEBHOOK_SECRET", "STRIPE_WEBHOOK_SECRET is required"},
		{"ADMIN_SECRET_HASH", "ADMIN_SECRET_HASH is required"},
		{"CART_TOKEN_SECRET", "CART_TOKEN_SECRET is required"},
		{"PUBLIC_BASE_URL", "PUBLIC_BASE_URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, "")
			cfg, err := Load()
			require.NoError(t, err)
			assert.EqualError(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_FirestoreNeedsProject(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ORDER_STORE", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.FirestoreProjectID = "shop-prod"
	assert.NoError(t, cfg.Validate())
}

type mapLookup map[string]string

func (m mapLookup) Lookup(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.ResolveSecrets(context.Background(), mapLookup{
		"STRIPE_SECRET_KEY":     "sk_live_sm",
		"STRIPE_WEBHOOK_SECRET": "whsec_sm",
		"CART_TOKEN_SECRET":     "cart_sm",
		"ADMIN_SECRET_HASH":     "hash_sm",
	})
	require.NoError(t, err)
	assert.Equal(t, "sk_live_sm", cfg.StripeSecretKey)
	assert.Equal(t, "whsec_sm", cfg.StripeWebhookSecret)
	assert.Equal(t, "cart_sm", cfg.CartTokenSecret)
	assert.Equal(t, "hash_sm", cfg.AdminSecretHash)

	// メール送信が有効なら SendGrid キーも必須
	cfg.MailFrom = "shop@example.com"
	err = cfg.ResolveSecrets(context.Background(), mapLookup{
		"STRIPE_SECRET_KEY": "a", "STRIPE_WEBHOOK_SECRET": "b", "CART_TOKEN_SECRET": "c", "ADMIN_SECRET_HASH": "d",
	})
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")
}
