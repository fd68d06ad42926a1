package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
	assert.Equal(t, "ws://localhost:8080", cfg.WSURL)
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TERRA_BACKEND_URL", "https://orders.example.com")
	t.Setenv("TERRA_STORE_BACKEND", "redis")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "https://orders.example.com", cfg.BackendURL)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestValidateRejectsUnknownStoreBackend(t *testing.T) {
	t.Setenv("TERRA_STORE_BACKEND", "cookies")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsBadPollInterval(t *testing.T) {
	cfg := &Config{StoreBackend: "memory", PollInterval: 0}
	assert.Error(t, cfg.Validate())
}

func TestArchiveConfigured(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.ArchiveConfigured())

	cfg.AWSS3Bucket = "terra-invoices"
	cfg.AWSAccessKeyID = "AKIA..."
	assert.True(t, cfg.ArchiveConfigured())
}

func TestGetConfigAfterSet(t *testing.T) {
	custom := &Config{StoreBackend: "memory", PollInterval: time.Second}
	SetConfig(custom)
	defer SetConfig(nil)

	assert.Same(t, custom, GetConfig())
}
