package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
		t.Setenv("APP_ENV", "test")
		t.Setenv("MIN_ORDER_AMOUNT", "75")
		t.Setenv("POLL_INTERVAL", "10s")
		t.Setenv("MIRROR_DIR", "/tmp/mirror")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "sk_test_123", cfg.StripeSecretKey)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, int64(75), cfg.MinOrderAmount)
		assert.Equal(t, 10*time.Second, cfg.PollInterval)
		assert.Equal(t, "/tmp/mirror", cfg.MirrorDir)
	})

	t.Run("Defaults applied", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("MIN_ORDER_AMOUNT", "")
		t.Setenv("POLL_INTERVAL", "")
		t.Setenv("MIRROR_DIR", "")

		cfg := LoadConfig()

		assert.Equal(t, int64(50), cfg.MinOrderAmount)
		assert.Equal(t, 5*time.Second, cfg.PollInterval)
		assert.Equal(t, "./mirror", cfg.MirrorDir)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	})

	t.Run("Origins list parsed from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("ALLOWED_ORIGINS", "https://canteen.example, https://admin.canteen.example")

		cfg := LoadConfig()

		assert.Equal(t,
			[]string{"https://canteen.example", "https://admin.canteen.example"},
			cfg.AllowedOrigins)
	})

	t.Run("Invalid numeric values fall back to defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("MIN_ORDER_AMOUNT", "fifty")
		t.Setenv("POLL_INTERVAL", "soon")

		cfg := LoadConfig()

		assert.Equal(t, int64(50), cfg.MinOrderAmount)
		assert.Equal(t, 5*time.Second, cfg.PollInterval)
	})
}
