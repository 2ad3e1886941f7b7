package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2idSaltLength = 16
	argon2idKeyLength  = 32

	defaultArgon2idMemoryKiB   = 19 * 1024
	defaultArgon2idIterations  = 2
	defaultArgon2idParallelism = 1

	// stored hashes asking for more are rejected rather than computed
	maxArgon2idMemoryKiB  = 256 * 1024
	maxArgon2idIterations = 10
)

// Argon2idParams tunes the cost of Argon2id. Zero fields use the defaults.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

func (p Argon2idParams) withDefaults() Argon2idParams {
	if p.MemoryKiB == 0 {
		p.MemoryKiB = defaultArgon2idMemoryKiB
	}
	if p.Iterations == 0 {
		p.Iterations = defaultArgon2idIterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = defaultArgon2idParallelism
	}
	p.MemoryKiB = min(p.MemoryKiB, maxArgon2idMemoryKiB)
	p.Iterations = min(p.Iterations, maxArgon2idIterations)

	return p
}

// Argon2id implements Hash using Argon2id in the PHC string format.
type Argon2id struct {
	params Argon2idParams
	pepper string
}

// NewArgon2id returns an Argon2id hasher. Codes live for minutes, so the
// defaults favour issuance latency over the cost used for long lived passwords.
func NewArgon2id(pepper string, params Argon2idParams) *Argon2id {
	return &Argon2id{params: params.withDefaults(), pepper: pepper}
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, argon2idSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(str+a.pepper), salt, a.params.Iterations, a.params.MemoryKiB, a.params.Parallelism, argon2idKeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.MemoryKiB,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return []byte(encoded), nil
}

// Verify recomputes str with the parameters stored in hashed, so codes
// issued before a cost change still verify.
func (a *Argon2id) Verify(hashed, str string) bool {
	if hashed == "" || str == "" {
		return false
	}

	stored, ok := parseArgon2id(hashed)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(str+a.pepper), stored.salt, stored.params.Iterations, stored.params.MemoryKiB,
		stored.params.Parallelism, uint32(len(stored.key))) //nolint:gosec // key length is bounded by the encoded hash

	return subtle.ConstantTimeCompare(stored.key, computed) == 1
}

type argon2idHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func parseArgon2id(encoded string) (argon2idHash, bool) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2idHash{}, false
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return argon2idHash{}, false
	}

	var out argon2idHash
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, found := strings.Cut(kv, "=")
		if !found {
			return argon2idHash{}, false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return argon2idHash{}, false
		}

		switch k {
		case "m":
			out.params.MemoryKiB = uint32(n)
		case "t":
			out.params.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return argon2idHash{}, false
			}
			out.params.Parallelism = uint8(n)
		default:
			return argon2idHash{}, false
		}
	}
	if out.params.MemoryKiB == 0 || out.params.Iterations == 0 || out.params.Parallelism == 0 {
		return argon2idHash{}, false
	}
	if out.params.MemoryKiB > maxArgon2idMemoryKiB || out.params.Iterations > maxArgon2idIterations {
		return argon2idHash{}, false
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) == 0 {
		return argon2idHash{}, false
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return argon2idHash{}, false
	}

	return out, true
}
