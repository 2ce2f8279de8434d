package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character classes drawn from by GenerateSecret. Glyphs that are easy to
// confuse when read aloud or copied from a log (I, l) are left out.
const (
	upperAlphabet  = "ABCDEFGHJKLMNOPQRSTUVWXYZ"
	lowerAlphabet  = "abcdefghijkmnopqrstuvwxyz"
	digitAlphabet  = "0123456789"
	symbolAlphabet = "!@$?_-"
)

var alphabets = [...]string{upperAlphabet, lowerAlphabet, digitAlphabet, symbolAlphabet}

// alphabetSize is the number of distinct characters GenerateSecret can emit.
const alphabetSize = len(upperAlphabet) + len(lowerAlphabet) + len(digitAlphabet) + len(symbolAlphabet)

// maxSecretLength is the largest MinLength a policy may ask for.
const maxSecretLength = 1024

// fillSlack bounds how far past MinLength the fill loop may grow. For the
// full alphabet the rarest character (p = 1/100 per draw) is still missing
// after this many draws with probability below e^-42.
const fillSlack = 64 * alphabetSize

// ComplexityPolicy describes what a generated secret must contain.
type ComplexityPolicy struct {
	MinLength      int
	MinUniqueChars int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSymbol  bool
}

// BootstrapPolicy is used for the one-time administrator password.
var BootstrapPolicy = ComplexityPolicy{
	MinLength:      16,
	MinUniqueChars: 8,
	RequireUpper:   true,
	RequireLower:   true,
	RequireDigit:   true,
	RequireSymbol:  true,
}

func (p ComplexityPolicy) required() [len(alphabets)]bool {
	return [len(alphabets)]bool{p.RequireUpper, p.RequireLower, p.RequireDigit, p.RequireSymbol}
}

// GenerateSecret returns a random string satisfying policy.
//
// One character of each required class is placed first, in the order upper,
// lower, digit, symbol. Characters from any class are then inserted at random
// positions until both the length and distinct-character thresholds hold.
// All randomness comes from crypto/rand.
func GenerateSecret(policy ComplexityPolicy) (string, error) {
	if policy.MinLength < 0 || policy.MinUniqueChars < 0 {
		return "", newError(KindInvalidInput, "policy thresholds must not be negative")
	}
	if policy.MinUniqueChars > alphabetSize {
		return "", newError(KindPolicyUnsatisfiable, "%d unique characters requested, alphabet has %d", policy.MinUniqueChars, alphabetSize)
	}
	if policy.MinLength > maxSecretLength {
		return "", newError(KindPolicyUnsatisfiable, "length %d exceeds limit %d", policy.MinLength, maxSecretLength)
	}

	b := newSecretBuilder(policy.MinLength)
	fillLimit := policy.MinLength + fillSlack

	for class, required := range policy.required() {
		if !required {
			continue
		}
		if err := b.insertFrom(alphabets[class]); err != nil {
			return "", err
		}
	}

	for len(b.chars) < policy.MinLength || b.unique < policy.MinUniqueChars {
		if len(b.chars) >= fillLimit {
			return "", newError(KindPolicyUnsatisfiable, "policy not met within %d characters", fillLimit)
		}
		class, err := randIntn(len(alphabets))
		if err != nil {
			return "", err
		}
		if err := b.insertFrom(alphabets[class]); err != nil {
			return "", err
		}
	}

	return string(b.chars), nil
}

// secretBuilder accumulates characters and tracks how many are distinct.
type secretBuilder struct {
	chars  []byte
	seen   [256]bool
	unique int
}

func newSecretBuilder(capacity int) *secretBuilder {
	return &secretBuilder{chars: make([]byte, 0, capacity)}
}

// insertFrom picks a random character of alphabet and inserts it at a
// random position in [0, len].
func (b *secretBuilder) insertFrom(alphabet string) error {
	i, err := randIntn(len(alphabet))
	if err != nil {
		return err
	}
	pos, err := randIntn(len(b.chars) + 1)
	if err != nil {
		return err
	}

	c := alphabet[i]
	b.chars = append(b.chars, 0)
	copy(b.chars[pos+1:], b.chars[pos:])
	b.chars[pos] = c

	if !b.seen[c] {
		b.seen[c] = true
		b.unique++
	}
	return nil
}

// randIntn returns a uniform integer in [0, n) from crypto/rand.
func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("reading random source: %w", err)
	}
	return int(v.Int64()), nil
}
