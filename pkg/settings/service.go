package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/role"
)

const qrChartURL = "https://chart.googleapis.com/chart?chs=166x166&chld=L|0&cht=qr&chl="

// RoleLister lists the roles shown next to the advanced settings
type RoleLister interface {
	FindRoles(ctx context.Context) ([]role.Role, error)
}

// Config holds the settings service configuration
type Config struct {
	ServerURL  string
	TOTPIssuer string
}

// Service reads and writes plugin configuration through a Store
type Service struct {
	store  Store
	roles  RoleLister
	config Config
}

func NewService(store Store, roles RoleLister, config Config) *Service {
	if config.TOTPIssuer == "" {
		config.TOTPIssuer = "Admin"
	}
	return &Service{store: store, roles: roles, config: config}
}

// AdvancedSettingsResponse is returned by GetAdvancedSettings
type AdvancedSettingsResponse struct {
	Settings json.RawMessage `json:"settings"`
	Roles    []role.Role     `json:"roles"`
}

// EnsureDefaults stores the default blobs for any missing key
func (s *Service) EnsureDefaults(ctx context.Context) error {
	defaults := map[Key]json.RawMessage{
		EmailKey:    mustMarshal(DefaultEmailTemplates()),
		AdvancedKey: mustMarshal(DefaultAdvancedSettings()),
		GrantKey:    mustMarshal(DefaultProviders()),
	}
	for key, value := range defaults {
		_, err := s.store.Get(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.store.Set(ctx, key, value); err != nil {
			return err
		}
		slog.Info("Stored default settings", "key", key.Key)
	}
	return nil
}

// Advanced returns the typed advanced settings. It reads the store on every
// call so toggles apply to the next login.
func (s *Service) Advanced(ctx context.Context) (AdvancedSettings, error) {
	raw, err := s.store.Get(ctx, AdvancedKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultAdvancedSettings(), nil
		}
		return AdvancedSettings{}, err
	}

	var advanced AdvancedSettings
	if err := json.Unmarshal(raw, &advanced); err != nil {
		return AdvancedSettings{}, fmt.Errorf("failed to decode advanced settings: %w", err)
	}
	return advanced, nil
}

func (s *Service) GetEmailTemplate(ctx context.Context) (json.RawMessage, error) {
	return s.getOrDefault(ctx, EmailKey, DefaultEmailTemplates())
}

func (s *Service) UpdateEmailTemplate(ctx context.Context, body json.RawMessage) error {
	fields, err := nonEmptyObject(body)
	if err != nil {
		return err
	}

	rawTemplates, ok := fields["email-templates"]
	if !ok {
		return apperrors.Validation("Request body cannot be empty")
	}
	var templates map[string]EmailTemplate
	if err := json.Unmarshal(rawTemplates, &templates); err != nil {
		return apperrors.Validation("Invalid template")
	}
	for name, template := range templates {
		if !IsValidEmailTemplate(template.Options.Message) {
			slog.Warn("Rejected email template", "template", name)
			return apperrors.Validation("Invalid template")
		}
	}

	return s.store.Set(ctx, EmailKey, rawTemplates)
}

func (s *Service) GetAdvancedSettings(ctx context.Context) (AdvancedSettingsResponse, error) {
	settings, err := s.getOrDefault(ctx, AdvancedKey, DefaultAdvancedSettings())
	if err != nil {
		return AdvancedSettingsResponse{}, err
	}
	roles, err := s.roles.FindRoles(ctx)
	if err != nil {
		return AdvancedSettingsResponse{}, fmt.Errorf("failed to list roles: %w", err)
	}
	if roles == nil {
		roles = []role.Role{}
	}
	return AdvancedSettingsResponse{Settings: settings, Roles: roles}, nil
}

func (s *Service) UpdateAdvancedSettings(ctx context.Context, body json.RawMessage) error {
	if _, err := nonEmptyObject(body); err != nil {
		return err
	}
	// Advanced decodes the stored body on every login
	var advanced AdvancedSettings
	if err := json.Unmarshal(body, &advanced); err != nil {
		slog.Warn("Rejected advanced settings", "err", err)
		return apperrors.Validation("Invalid advanced settings")
	}
	return s.store.Set(ctx, AdvancedKey, body)
}

// GetQRCode creates a fresh TOTP secret for email and returns a chart URL
// rendering its otpauth URI as a QR code.
func (s *Service) GetQRCode(ctx context.Context, email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.config.TOTPIssuer,
		AccountName: email,
		Period:      30,
		SecretSize:  10,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate totp key: %w", err)
	}
	return qrChartURL + url.QueryEscape(key.URL()), nil
}

func (s *Service) GetProviders(ctx context.Context) (map[string]Provider, error) {
	raw, err := s.getOrDefault(ctx, GrantKey, DefaultProviders())
	if err != nil {
		return nil, err
	}

	var providers map[string]Provider
	if err := json.Unmarshal(raw, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	for name, provider := range providers {
		if name == "email" || provider == nil {
			continue
		}
		provider["redirectUri"] = s.BuildRedirectURI(name)
	}
	return providers, nil
}

func (s *Service) UpdateProviders(ctx context.Context, body json.RawMessage) error {
	fields, err := nonEmptyObject(body)
	if err != nil {
		return err
	}
	providers, ok := fields["providers"]
	if !ok || len(providers) == 0 || string(providers) == "null" {
		return apperrors.Validation("providers is required")
	}
	if _, err := nonEmptyObject(providers); err != nil {
		return apperrors.Validation("providers must be a non-empty object")
	}
	return s.store.Set(ctx, GrantKey, providers)
}

// BuildRedirectURI returns the OAuth callback URL of provider
func (s *Service) BuildRedirectURI(provider string) string {
	return strings.TrimRight(s.config.ServerURL, "/") + "/api/connect/" + provider + "/callback"
}

func (s *Service) getOrDefault(ctx context.Context, key Key, fallback interface{}) (json.RawMessage, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return mustMarshal(fallback), nil
		}
		return nil, err
	}
	return raw, nil
}

func nonEmptyObject(body json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &fields) != nil || len(fields) == 0 {
		return nil, apperrors.Validation("Request body cannot be empty")
	}
	return fields, nil
}
