package players

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
	"regexp"
	"strings"

	"strayfinder/internal/apperr"
)

// tokenPattern matches exactly 32 lowercase hex characters.
var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// tokenGenerator produces 32-hex-char bearer tokens by concatenating two
// independent 64-bit draws. Each underlying generator is seeded once from
// OS entropy, but both can be swapped for deterministic sources in tests.
type tokenGenerator struct {
	gen1, gen2 *mrand.Rand
}

func newTokenGenerator() *tokenGenerator {
	return &tokenGenerator{
		gen1: mrand.New(mrand.NewSource(mustEntropySeed())),
		gen2: mrand.New(mrand.NewSource(mustEntropySeed())),
	}
}

func mustEntropySeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("players: failed to read OS entropy: %v", err))
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Next renders two zero-padded 16-hex-digit draws concatenated into one
// 32-char token.
func (g *tokenGenerator) Next() string {
	return fmt.Sprintf("%016x%016x", g.gen1.Uint64(), g.gen2.Uint64())
}

// ParseBearer extracts the token from an Authorization header value of the
// form "Bearer <32-hex>". The "Bearer " prefix is matched case-sensitively
// per spec; the hex portion is matched case-insensitively then lowercased.
func ParseBearer(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", apperr.NewValidation(apperr.InvalidToken, "missing Bearer prefix")
	}
	token := strings.ToLower(strings.TrimPrefix(header, prefix))
	if !tokenPattern.MatchString(token) {
		return "", apperr.NewValidation(apperr.InvalidToken, "malformed token")
	}
	return token, nil
}
