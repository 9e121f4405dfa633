package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "athometyre", cfg.DB.DBName)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 10*time.Second, cfg.CheckoutLockTimeout)
	assert.Equal(t, 70*time.Second, cfg.StuckAfter())
	assert.True(t, cfg.FreeShippingThreshold.Equal(decimal.NewFromInt(5000)))
	assert.True(t, cfg.ShippingFee.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "INR", cfg.Currency)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("SHIPPING_FEE", "99.50")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.True(t, cfg.ShippingFee.Equal(decimal.RequireFromString("99.50")))
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PORT", "abc")
	t.Setenv("PAYMENT_TIMEOUT", "soon")
	t.Setenv("SHIPPING_FEE", "-1")

	_, err := FromEnv()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
	assert.ErrorContains(t, err, "invalid DB_PORT")
	assert.ErrorContains(t, err, "invalid PAYMENT_TIMEOUT")
	assert.ErrorContains(t, err, "invalid SHIPPING_FEE")
}

func TestFromEnv_PaymentTimeoutMustFitRequest(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")
	t.Setenv("PAYMENT_TIMEOUT", "30s")
	t.Setenv("REQUEST_TIMEOUT", "20s")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "PAYMENT_TIMEOUT must be shorter")
}

func TestFromEnv_LockWaitAndChargeMustFitRequest(t *testing.T) {
	t.Setenv("JWT_SECRET", "test")
	t.Setenv("PAYMENT_TIMEOUT", "10s")
	t.Setenv("CHECKOUT_LOCK_TIMEOUT", "15s")
	t.Setenv("REQUEST_TIMEOUT", "20s")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "CHECKOUT_LOCK_TIMEOUT plus PAYMENT_TIMEOUT")
}

// A checkout still inside its request must never look stuck to the
// recovery loop, including a charge sent just before the deadline.
func TestStuckAfter_OutlivesAnyLiveCheckout(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"defaults", nil},
		{"long request", map[string]string{"REQUEST_TIMEOUT": "2m", "PAYMENT_TIMEOUT": "45s"}},
		{"short request", map[string]string{"REQUEST_TIMEOUT": "5s", "PAYMENT_TIMEOUT": "2s", "CHECKOUT_LOCK_TIMEOUT": "1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := FromEnv()
			require.NoError(t, err)

			longest := cfg.RequestTimeout + cfg.PaymentTimeout
			assert.Greater(t, cfg.StuckAfter(), longest)
			assert.GreaterOrEqual(t, cfg.StuckAfter()-longest, 30*time.Second)
		})
	}
}

func TestLoadDatabase_IgnoresServiceSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")

	cred, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cred.Host)
	assert.Equal(t, 6543, cred.Port)

	t.Setenv("DB_PORT", "x")
	_, err = LoadDatabase()
	assert.ErrorContains(t, err, "invalid DB_PORT")
}
