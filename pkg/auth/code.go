package auth

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
)

const maxVerificationCode = 999999

// VerificationCode is a submitted second-factor code. It decodes from a JSON
// number or a numeric string so both client encodings compare the same way.
type VerificationCode struct {
	raw string
	set bool
}

// NewVerificationCode wraps a code given as text
func NewVerificationCode(s string) VerificationCode {
	return VerificationCode{raw: s, set: true}
}

func (c *VerificationCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = VerificationCode{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = NewVerificationCode(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*c = NewVerificationCode(string(b))
	default:
		return errors.New("code must be a number")
	}
	return nil
}

func (c VerificationCode) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.raw)
}

// Value returns the code as an integer in [0, 999999]
func (c VerificationCode) Value() (int, error) {
	if !c.set || strings.TrimSpace(c.raw) == "" {
		return 0, apperrors.ValidationFailed("code is a required field", map[string]interface{}{"code": "required"})
	}
	n, err := parseCode(c.raw)
	if err != nil {
		return 0, apperrors.ValidationFailed("code must be a number between 0 and 999999", map[string]interface{}{"code": err.Error()})
	}
	return n, nil
}

// parseCode accepts decimal integers, including integral float spellings
// such as 123456.0 or 1.23456e5
func parseCode(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty")
	}
	if strings.IndexFunc(s, notDecimal) >= 0 {
		return 0, errors.New("not a number")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, errors.New("not a non-negative integer")
	}
	if f > maxVerificationCode {
		return 0, errors.New("out of range")
	}
	return int(f), nil
}

func notDecimal(r rune) bool {
	return (r < '0' || r > '9') && !strings.ContainsRune(".eE+-", r)
}

// codesMatch compares the canonical six digit forms in constant time. A
// stored code that does not parse never matches.
func codesMatch(submitted int, stored string) bool {
	want, err := parseCode(stored)
	if err != nil {
		return false
	}
	a := []byte(fmt.Sprintf("%06d", submitted))
	b := []byte(fmt.Sprintf("%06d", want))
	return subtle.ConstantTimeCompare(a, b) == 1
}
