package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFile, cfg.Slot.Backend)
	assert.Equal(t, "miBiblioteca", cfg.Slot.Name)
	assert.Equal(t, 18, cfg.Search.Limit)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "1234", cfg.Login.User)
}

func TestFromViper_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SLOT_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("SEARCH_LIMIT", "12")
	t.Setenv("SEARCH_TIMEOUT", "3s")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.Slot.Backend)
	assert.Equal(t, "cache:6379", cfg.Slot.RedisAddr)
	assert.Equal(t, 12, cfg.Search.Limit)
	assert.Equal(t, 3*time.Second, cfg.Search.Timeout)
}

func TestFromViper_Invalid(t *testing.T) {
	t.Setenv("SLOT_BACKEND", "postgres")
	_, err := fromViper(newViper())
	assert.Error(t, err, "postgres without DATABASE_URL")

	t.Setenv("SLOT_BACKEND", "floppy")
	_, err = fromViper(newViper())
	assert.Error(t, err)
}
