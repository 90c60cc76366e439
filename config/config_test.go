package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "nyu.edu", cfg.InstitutionDomain)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CM_PORT", "9000")
	t.Setenv("CM_SESSION_TTL", "1h")
	t.Setenv("CM_INSTITUTION_DOMAIN", "example.edu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "example.edu", cfg.InstitutionDomain)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("CM_SESSION_TTL", "-5m")

	_, err := Load()
	assert.Error(t, err)
}
