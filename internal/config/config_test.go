package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RedirectDelay)
	assert.Equal(t, "/", cfg.RedirectTarget)
	assert.True(t, decimal.NewFromInt(10000).Equal(cfg.ShippingFeeAmount()))
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers())
	assert.Equal(t, 20*time.Second, cfg.CheckoutItemsBudget)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHIPPING_FEE", "15000")
	t.Setenv("REDIRECT_DELAY", "2s")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(15000).Equal(cfg.ShippingFeeAmount()))
	assert.Equal(t, 2*time.Second, cfg.RedirectDelay)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=9999\nDB_NAME=apotek\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "apotek", cfg.DBName)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoad_InvalidShippingFee(t *testing.T) {
	t.Setenv("SHIPPING_FEE", "-1")
	_, err := Load("")
	assert.ErrorContains(t, err, "SHIPPING_FEE")
}

func TestWriteTimeout_CoversItemsBudget(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("CHECKOUT_ITEMS_BUDGET", "45s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.WriteTimeout())
}

func TestLoad_InvalidItemsBudget(t *testing.T) {
	t.Setenv("CHECKOUT_ITEMS_BUDGET", "0s")
	_, err := Load("")
	assert.ErrorContains(t, err, "CHECKOUT_ITEMS_BUDGET")
}
