// Package ids provides the id generators records are stamped with.
package ids

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

const (
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength   = 9
)

// Token generates short random base-36 tokens. Collisions are not detected.
type Token struct{}

// NewID returns a 9-character lowercase alphanumeric token.
func (Token) NewID() string {
	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return string(b)
}

// UUID generates UUID v7 strings.
type UUID struct{}

// NewID returns a UUID v7, falling back to v4 if v7 generation fails.
func (UUID) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Sequential generates prefix-1, prefix-2, ... and is safe for concurrent
// use. It exists for deterministic tests.
type Sequential struct {
	Prefix string
	n      atomic.Int64
}

// NewSequential returns a Sequential generator with the given prefix.
func NewSequential(prefix string) *Sequential {
	return &Sequential{Prefix: prefix}
}

// NewID returns the next id in sequence.
func (s *Sequential) NewID() string {
	return fmt.Sprintf("%s%d", s.Prefix, s.n.Add(1))
}

// ForFormat returns the generator for an id format from StoreConfig.
func ForFormat(format string) (types.IDGenerator, error) {
	switch format {
	case "", types.IDFormatShort:
		return Token{}, nil
	case types.IDFormatUUID:
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrIDFormatUnknown, format)
	}
}
