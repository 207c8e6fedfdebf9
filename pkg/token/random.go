package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const opaqueTokenBytes = 20

// CreateToken returns 20 random bytes hex encoded. It is used for password
// reset and registration tokens.
func (s *Service) CreateToken() string {
	return randomHex(opaqueTokenBytes)
}

// CreateVerificationToken returns a zero-padded 6 digit code.
//
// The code is a random 24-bit value reduced modulo 1,000,000. Since 2^24 is
// not a multiple of 1,000,000, values in [0, 777216) are drawn 17 times out
// of 2^24 and the rest 16 times. The skew is fine for a short-lived code
// typed by a human and must not be reused for secrets.
func (s *Service) CreateVerificationToken() string {
	b := make([]byte, 3)
	mustRead(b)
	n := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return fmt.Sprintf("%06d", n%1000000)
}

func randomHex(n int) string {
	b := make([]byte, n)
	mustRead(b)
	return hex.EncodeToString(b)
}

// crypto/rand failures mean the platform has no usable entropy source.
func mustRead(b []byte) {
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
}
