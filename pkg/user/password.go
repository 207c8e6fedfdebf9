package user

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

var (
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
	specialPattern   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordPolicy defines the requirements for password complexity
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
}

// DefaultPasswordPolicy returns the admin password policy: eight characters
// with at least one lowercase letter, one uppercase letter and one digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
	}
}

// CheckPasswordComplexity verifies that a password meets the policy
func (p PasswordPolicy) CheckPasswordComplexity(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", maxPasswordBytes)
	}
	if p.RequireUppercase && !uppercasePattern.MatchString(password) {
		return errors.New("password must contain at least one uppercase character")
	}
	if p.RequireLowercase && !lowercasePattern.MatchString(password) {
		return errors.New("password must contain at least one lowercase character")
	}
	if p.RequireDigit && !digitPattern.MatchString(password) {
		return errors.New("password must contain at least one number")
	}
	if p.RequireSpecialChar && !specialPattern.MatchString(password) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashedPassword string) (bool, error)
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	Cost int
}

// Hash implements PasswordHasher.Hash
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify implements PasswordHasher.Verify
func (h BcryptHasher) Verify(password, hashedPassword string) (bool, error) {
	if password == "" || hashedPassword == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
