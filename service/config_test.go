package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://cargo.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendMock, cfg.Auth.Backend)
	assert.Equal(t, BackendRemote, cfg.API.Backend)
	assert.Equal(t, SlotsSQLite, cfg.Slots.Backend)
	assert.Equal(t, "https://cargo.example", cfg.API.BaseURL)
	assert.Equal(t, "https://cargo.example", cfg.Auth.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Shell.IdleTimeout)
	assert.Equal(t, 14*24*time.Hour, cfg.Waste.NextPickup)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxSize)
	assert.False(t, cfg.Secure())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("API_BACKEND", "mock")
	t.Setenv("API_BASE_URL", "https://api.cargo.example")
	t.Setenv("SLOTS_BACKEND", "redis")
	t.Setenv("AUTH_MOCK_DELAY", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Secure())
	assert.Equal(t, BackendMock, cfg.API.Backend)
	assert.Equal(t, "https://api.cargo.example", cfg.API.BaseURL)
	assert.Equal(t, SlotsRedis, cfg.Slots.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Auth.MockDelay)
}

func TestLoadConfig_InvalidBackends(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"AUTH_BACKEND", "ldap"},
		{"API_BACKEND", "grpc"},
		{"SLOTS_BACKEND", "etcd"},
		{"UPLOAD_MAX_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
