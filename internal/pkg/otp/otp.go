package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Length bounds accepted by Numeric.
const (
	MinLength = 4
	MaxLength = 9
)

// ErrInvalidLength is returned when the requested length is outside MinLength..MaxLength.
var ErrInvalidLength = errors.New("otp: invalid code length")

// Generator defines the contract for one-time code generation.
type Generator interface {
	// Generate returns a decimal code of exactly length digits.
	Generate(length int) (string, error)
}

// Numeric generates uniformly distributed decimal codes.
type Numeric struct {
	reader io.Reader
}

// NewNumeric returns a Numeric generator reading from r.
//
// A nil reader uses crypto/rand.Reader.
func NewNumeric(r io.Reader) *Numeric {
	if r == nil {
		r = rand.Reader
	}
	return &Numeric{reader: r}
}

// Generate returns a decimal code of exactly length digits, zero padded.
func (n *Numeric) Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", ErrInvalidLength
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	v, err := rand.Int(n.reader, limit)
	if err != nil {
		return "", err
	}

	//nolint:gosec // bounded by 10^9 which fits in int32
	return otp.Digits(length).Format(int32(v.Int64())), nil
}
