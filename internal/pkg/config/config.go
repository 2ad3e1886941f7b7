// Package config reads otphub settings from a YAML file with environment
// overrides, where MODULES_OTP_EXPIRY_MINUTES overrides modules.otp.expiry_minutes.
package config

import (
	"io"
	"time"
)

// DurationConfig reads integer keys in the unit their name ends with, so
// store_timeout_ms goes through GetMillisecond and expiry_minutes through
// GetMinute. Missing or non numeric keys give zero.
type DurationConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}

// NumberConfig reads numeric keys. Missing or non numeric keys give zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64
}

// Config is the read-only view of configuration handed to modules.
//
// Callers apply their own fallbacks for zero values. IsSet tells an explicit
// zero, such as a disabled sweep interval, apart from a missing key.
type Config interface {
	io.Closer
	DurationConfig
	NumberConfig

	IsSet(key string) bool
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value, such as service account JSON. It
	// returns nil when the value is not valid base64.
	GetBinary(key string) []byte

	// GetArray accepts a YAML sequence or a comma separated string and drops
	// blank items.
	GetArray(key string) []string
}
