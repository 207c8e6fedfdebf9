package config

import (
	"github.com/tendant/simple-admin-auth/pkg/notification"
)

// EmailConfig holds SMTP configuration for verification codes and reset links
type EmailConfig struct {
	Host               string `env:"ADMIN_EMAIL_HOST" env-default:"localhost"`
	Port               uint16 `env:"ADMIN_EMAIL_PORT" env-default:"1025"`
	Username           string `env:"ADMIN_EMAIL_USERNAME"`
	Password           string `env:"ADMIN_EMAIL_PASSWORD"`
	From               string `env:"ADMIN_EMAIL_FROM" env-default:"noreply@example.com"`
	TLS                bool   `env:"ADMIN_EMAIL_TLS" env-default:"false"`
	InsecureSkipVerify bool   `env:"ADMIN_EMAIL_INSECURE_SKIP_VERIFY" env-default:"false"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:               e.Host,
		Port:               int(e.Port),
		TLS:                e.TLS,
		InsecureSkipVerify: e.InsecureSkipVerify,
		Username:           e.Username,
		Password:           e.Password,
		From:               e.From,
	}
}

func (e EmailConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("ADMIN_EMAIL_HOST", e.Host),
		RequireValidPort("ADMIN_EMAIL_PORT", e.Port),
		RequireValidEmail("ADMIN_EMAIL_FROM", e.From),
	)
}
