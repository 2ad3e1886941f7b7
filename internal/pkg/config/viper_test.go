package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
modules:
  otp:
    enabled: true
    expiry_minutes: 5
    store_timeout_ms: 3000
    consumer_names: "otp-requests-otp, ,email-notifications-notification"
instrument:
  log_mask_fields:
    - otp
    - " code "
mail:
  password: c2VjcmV0
  broken: "%%%"
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	assert.True(t, cfg.GetBool("modules.otp.enabled"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("modules.otp.expiry_minutes"))
	assert.Equal(t, 3000, cfg.GetInt("modules.otp.store_timeout_ms"))
	assert.Equal(t, []string{"otp-requests-otp", "email-notifications-notification"}, cfg.GetArray("modules.otp.consumer_names"))
	assert.Equal(t, []string{"otp", "code"}, cfg.GetArray("instrument.log_mask_fields"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.True(t, cfg.IsSet("modules.otp.expiry_minutes"))
	assert.False(t, cfg.IsSet("modules.otp.sweep_interval_seconds"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("mail.password"))
	assert.Nil(t, cfg.GetBinary("mail.broken"))
	assert.Equal(t, 3*time.Second, cfg.GetMillisecond("modules.otp.store_timeout_ms"))
	assert.Zero(t, cfg.GetMillisecond("modules.otp.cache_timeout_ms"))
	assert.NoError(t, cfg.Close())

	_, err = NewViperFromBytes(" ", []byte(sampleYAML))
	assert.Error(t, err)
}

func TestNewViper_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sampleYAML), 0o600))

	t.Setenv("MODULES_OTP_EXPIRY_MINUTES", "10")

	cfg, err := NewViper(file)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.GetMinute("modules.otp.expiry_minutes"))
	assert.Equal(t, 3000, cfg.GetInt("modules.otp.store_timeout_ms"))
}
