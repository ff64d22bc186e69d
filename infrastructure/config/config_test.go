package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a local secret")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("SEALING_KEY", "prod-sealing-key-0000")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_x")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_x")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestRejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	_, err := LoadConfig()
	assert.Error(t, err)
}
