package usecase

import (
	"testing"
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want Policy
	}{
		{
			name: "Defaults",
			yaml: "modules:\n  otp: {}\n",
			want: Policy{
				CodeLength:      6,
				ExpiryWindow:    5 * time.Minute,
				MaxAttempts:     3,
				RateLimitWindow: 15 * time.Minute,
				RateLimitMax:    5,
				StoreTimeout:    3 * time.Second,
				CacheTimeout:    200 * time.Millisecond,
				SweepInterval:   time.Minute,
			},
		},
		{
			name: "Configured",
			yaml: `
modules:
  otp:
    code_length: 8
    expiry_minutes: 10
    max_attempts: 5
    store_timeout_ms: 1500
    cache_timeout_ms: 50
    sweep_interval_seconds: 30
    rate_limit:
      window_minutes: 1
      max_requests: 2
      fail_open: true
`,
			want: Policy{
				CodeLength:        8,
				ExpiryWindow:      10 * time.Minute,
				MaxAttempts:       5,
				RateLimitWindow:   time.Minute,
				RateLimitMax:      2,
				RateLimitFailOpen: true,
				StoreTimeout:      1500 * time.Millisecond,
				CacheTimeout:      50 * time.Millisecond,
				SweepInterval:     30 * time.Second,
			},
		},
		{
			name: "NonPositiveFallsBackAndZeroSweepDisables",
			yaml: `
modules:
  otp:
    code_length: 0
    expiry_minutes: -1
    max_attempts: 0
    sweep_interval_seconds: 0
`,
			want: Policy{
				CodeLength:      6,
				ExpiryWindow:    5 * time.Minute,
				MaxAttempts:     3,
				RateLimitWindow: 15 * time.Minute,
				RateLimitMax:    5,
				StoreTimeout:    3 * time.Second,
				CacheTimeout:    200 * time.Millisecond,
			},
		},
		{
			name: "CodeLengthClamped",
			yaml: "modules:\n  otp:\n    code_length: 20\n",
			want: Policy{
				CodeLength:      9,
				ExpiryWindow:    5 * time.Minute,
				MaxAttempts:     3,
				RateLimitWindow: 15 * time.Minute,
				RateLimitMax:    5,
				StoreTimeout:    3 * time.Second,
				CacheTimeout:    200 * time.Millisecond,
				SweepInterval:   time.Minute,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPolicy(newTestConfig(t, tt.yaml))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_ExpiryMinutes(t *testing.T) {
	assert.Equal(t, 5, Policy{ExpiryWindow: 5 * time.Minute}.ExpiryMinutes())
	assert.Equal(t, 1, Policy{ExpiryWindow: 90 * time.Second}.ExpiryMinutes())
}
