package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SecretHasher one-way hashes emails and verification codes. Input is
// pre-digested with SHA-256 so long emails stay under bcrypt's 72 byte limit.
type SecretHasher struct{ cost int }

func NewSecretHasher(cost int) *SecretHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &SecretHasher{cost: cost}
}

func (h *SecretHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(digest(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *SecretHasher) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(plain)) == nil
}

// NormalizeEmail is applied before an email is hashed or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func digest(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(hex.EncodeToString(sum[:]))
}

// GenerateNumericCode returns a uniformly random code of the given length.
func GenerateNumericCode(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
