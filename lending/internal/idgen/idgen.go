// Package idgen produces short human readable display ids such as BK-7F3K9Q.
package idgen

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/pkg/errors"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
)

const (
	// Alphabet holds uppercase letters and digits without I, O, 0 and 1.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	Length   = 6

	MaxAttempts = 10
)

// ExistsFunc reports whether a display id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

type Generator struct {
	rand io.Reader
}

// New returns a generator reading from crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewWithReader is used by tests that need deterministic ids.
func NewWithReader(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns prefix + "-" + Length symbols of Alphabet.
func (g *Generator) Generate(prefix string) (string, error) {
	buf := make([]byte, Length)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	out := make([]byte, 0, len(prefix)+1+Length)
	out = append(out, prefix...)
	out = append(out, '-')
	for _, b := range buf {
		// len(Alphabet) divides 256, so the modulo is unbiased.
		out = append(out, Alphabet[int(b)%len(Alphabet)])
	}
	return string(out), nil
}

// CreateUnique draws candidates until exists reports a free one. It gives up
// with errs.ErrIDExhaustion after maxAttempts candidates.
func (g *Generator) CreateUnique(ctx context.Context, prefix string, exists ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = MaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := g.Generate(prefix)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", errors.Wrap(err, "check display id")
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.Wrapf(errs.ErrIDExhaustion, "%s after %d attempts", prefix, maxAttempts)
}

// Valid reports whether id has the shape produced by Generate for prefix.
func Valid(prefix, id string) bool {
	if len(id) != len(prefix)+1+Length || id[:len(prefix)] != prefix || id[len(prefix)] != '-' {
		return false
	}
	for i := len(prefix) + 1; i < len(id); i++ {
		if !inAlphabet(id[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}
