package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "default", cfg.Store.DocumentID)
	assert.Equal(t, 5, cfg.Store.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.Cache.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", " SQLite ")
	v.Set("ALLOWED_ORIGINS", "https://a.id, ,https://b.id")
	v.Set("DASHBOARD_CACHE_TTL", "not-a-duration")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, []string{"https://a.id", "https://b.id"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
}

func TestRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "mongo")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestRejectsDevSecretInProduction(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENV", EnvProduction)

	_, err := fromViper(v)
	assert.Error(t, err)
}
