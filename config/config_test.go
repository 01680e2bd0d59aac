package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig("testdata-missing.env")
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "8088", cfg.App.Port)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, "arena", cfg.JWT.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.Session.TempBanDefault)
	assert.Equal(t, 12, cfg.Session.BcryptCost)
	assert.Equal(t, time.Minute, cfg.Housekeeping.Interval)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", "15")
	t.Setenv("SESSION_TEMP_BAN_DEFAULT", "90m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig("testdata-missing.env")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 90*time.Minute, cfg.Session.TempBanDefault)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":             "mongo",
		"BCRYPT_COST":              "high",
		"SESSION_TEMP_BAN_DEFAULT": "-1h",
		"HOUSEKEEPING_INTERVAL":    "often",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig("testdata-missing.env")
			assert.Error(t, err)
		})
	}
}
