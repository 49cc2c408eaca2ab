package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 5, cfg.Global.ShutdownTimeoutInSeconds)

	assert.Equal(t, DefaultMongoURL, cfg.Mongo.URL)
	assert.Equal(t, DefaultMongoDatabase, cfg.Mongo.Database)

	assert.Empty(t, cfg.Auth.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.SecureCookies)

	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "*/30 * * * *", cfg.Reconcile.Schedule)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGODB_URL", "mongodb://mongo.internal:27017")
	t.Setenv("MONGODB_DATABASE", "booknest_test")
	t.Setenv("AUTH_SESSION_LIFETIME", "48h")
	t.Setenv("AUTH_SECURE_COOKIES", "false")
	t.Setenv("RECONCILE_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, "mongodb://mongo.internal:27017", cfg.Mongo.URL)
	assert.Equal(t, "booknest_test", cfg.Mongo.Database)
	assert.Equal(t, 48*time.Hour, cfg.Auth.SessionLifetime)
	assert.False(t, cfg.Auth.SecureCookies)
	assert.False(t, cfg.Reconcile.Enabled)
}
