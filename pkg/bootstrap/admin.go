// Package bootstrap creates the first super admin from configuration so a
// fresh deployment can be used without going through the register-admin form.
package bootstrap

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/role"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

const generatedPasswordLength = 20

// generated passwords always get one of each class so they satisfy the default policy
const (
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	digitChars   = "23456789"
	specialChars = "!@#$%^&*-_"
)

// RoleProvider ensures the default roles and returns the super admin role
type RoleProvider interface {
	EnsureDefaultRoles(ctx context.Context) error
	GetSuperAdmin(ctx context.Context) (role.Role, error)
}

// UserCreator creates admin users
type UserCreator interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, in user.CreateUserInput) (user.AdminUser, error)
	PasswordPolicy() user.PasswordPolicy
}

// AdminBootstrapConfig contains the identity of the first super admin
type AdminBootstrapConfig struct {
	Email     string
	Firstname string
	Lastname  string
	Password  string

	Roles RoleProvider
	Users UserCreator
}

// AdminBootstrapResult describes what BootstrapSuperAdmin did
type AdminBootstrapResult struct {
	UserID      uuid.UUID
	Email       string
	Role        string
	Password    string // only set when generated
	UserCreated bool

	PasswordFromEnv bool
}

// BootstrapSuperAdmin creates an active super admin when no admin exists yet.
// It does nothing once any admin has been created.
func BootstrapSuperAdmin(ctx context.Context, cfg AdminBootstrapConfig) (*AdminBootstrapResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid bootstrap configuration: %w", err)
	}

	exists, err := cfg.Users.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check if admins exist: %w", err)
	}
	if exists {
		slog.Info("Admins already exist - skipping admin bootstrap")
		return &AdminBootstrapResult{}, nil
	}

	if err := cfg.Roles.EnsureDefaultRoles(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure default roles: %w", err)
	}
	superAdmin, err := cfg.Roles.GetSuperAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find super admin role: %w", err)
	}

	password := cfg.Password
	if password == "" {
		password, err = generatePassword(generatedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
	} else if err := cfg.Users.PasswordPolicy().CheckPasswordComplexity(password); err != nil {
		return nil, fmt.Errorf("bootstrap password rejected: %w", err)
	}

	u, err := cfg.Users.Create(ctx, user.CreateUserInput{
		Firstname: cfg.Firstname,
		Lastname:  cfg.Lastname,
		Email:     cfg.Email,
		Password:  password,
		IsActive:  true,
		Roles:     []role.Role{superAdmin},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	result := &AdminBootstrapResult{
		UserID:          u.ID,
		Email:           u.Email,
		Role:            superAdmin.Code,
		UserCreated:     true,
		PasswordFromEnv: cfg.Password != "",
	}
	if !result.PasswordFromEnv {
		result.Password = password
	}

	slog.Info("Admin bootstrap completed", "email", u.Email, "user_id", u.ID)
	return result, nil
}

func validateConfig(cfg AdminBootstrapConfig) error {
	if cfg.Email == "" {
		return errors.New("admin email is required")
	}
	if cfg.Roles == nil {
		return errors.New("role provider is required")
	}
	if cfg.Users == nil {
		return errors.New("user creator is required")
	}
	return nil
}

func generatePassword(length int) (string, error) {
	classes := []string{upperChars, lowerChars, digitChars, specialChars}
	all := upperChars + lowerChars + digitChars + specialChars

	out := make([]byte, 0, length)
	for _, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// shuffle so the class order is not predictable
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func pick(chars string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
	if err != nil {
		return 0, err
	}
	return chars[n.Int64()], nil
}
