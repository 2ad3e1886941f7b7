package hash

import (
	"fmt"
	"strings"
)

// Supported algorithm names for New.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Hash defines the contract for one-way hashing of secrets.
type Hash interface {
	// Hash returns the encoded hash of str. Every call uses a fresh salt.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the encoded hash.
	Verify(hashed, str string) bool
}

// Options holds algorithm specific settings consumed by New.
type Options struct {
	BcryptCost     int
	BcryptPepper   string
	Argon2idPepper string
	Argon2id       Argon2idParams
}

// New returns the hasher registered under algorithm. An empty name selects bcrypt.
func New(algorithm string, opts Options) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost, opts.BcryptPepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(opts.Argon2idPepper, opts.Argon2id), nil
	default:
		return nil, fmt.Errorf("hash: unsupported algorithm %q", algorithm)
	}
}
