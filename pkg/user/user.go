package user

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// AdminUser is an administrator account. Password holds a bcrypt hash.
type AdminUser struct {
	ID                 uuid.UUID
	Firstname          string
	Lastname           string
	Username           string
	Email              string
	Password           string
	IsActive           bool
	Blocked            bool
	RegistrationToken  string
	ResetPasswordToken string
	PreferedLanguage   string
	Roles              []role.Role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SanitizedUser is the only user shape that leaves the service: no password
// hash and no registration or reset tokens.
type SanitizedUser struct {
	ID               uuid.UUID   `json:"id"`
	Firstname        string      `json:"firstname"`
	Lastname         string      `json:"lastname"`
	Username         string      `json:"username,omitempty"`
	Email            string      `json:"email"`
	IsActive         bool        `json:"isActive"`
	Blocked          bool        `json:"blocked"`
	PreferedLanguage string      `json:"preferedLanguage,omitempty"`
	Roles            []role.Role `json:"roles"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Sanitize strips secrets from u
func Sanitize(u AdminUser) SanitizedUser {
	var s SanitizedUser
	if err := copier.Copy(&s, &u); err != nil {
		slog.Error("Failed to copy user", "err", err)
		return SanitizedUser{ID: u.ID, Email: u.Email}
	}
	if s.Roles == nil {
		s.Roles = []role.Role{}
	}
	return s
}

// RegistrationInfo is what an invited user sees before completing registration
type RegistrationInfo struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
