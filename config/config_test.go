package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cart", cfg.Cart.StorageKey)
	assert.Equal(t, int64(500000), cfg.Cart.ShippingThreshold)
	assert.Equal(t, int64(30000), cfg.Cart.ShippingFee)
	assert.Equal(t, 3*time.Second, cfg.Cart.NotificationTTL)
	assert.Equal(t, "/api/apply-coupon", cfg.Coupon.Path)
	assert.Equal(t, 10*time.Second, cfg.Coupon.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "storefront.cart", cfg.RabbitMQ.Exchange)
	assert.Equal(t, 4, cfg.Worker.PoolSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("CART_SHIPPING_FEE", "45000")
	t.Setenv("CART_NOTIFICATION_TTL", "5s")
	t.Setenv("COUPON_TIMEOUT", "not-a-duration")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, int64(45000), cfg.Cart.ShippingFee)
	assert.Equal(t, 5*time.Second, cfg.Cart.NotificationTTL)
	assert.Equal(t, 10*time.Second, cfg.Coupon.Timeout)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "floppy")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative fee", func(t *testing.T) {
		t.Setenv("CART_SHIPPING_FEE", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.DSN())
}
