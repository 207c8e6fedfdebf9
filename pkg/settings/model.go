package settings

import "encoding/json"

// AdvancedSettings is the typed view of the "advanced" blob
type AdvancedSettings struct {
	UniqueEmail                  bool   `json:"unique_email"`
	AllowRegister                bool   `json:"allow_register"`
	EmailConfirmation            bool   `json:"email_confirmation"`
	EmailResetPassword           string `json:"email_reset_password"`
	EmailConfirmationRedirection string `json:"email_confirmation_redirection"`
	DefaultRole                  string `json:"default_role"`
	MultiFactorAuthentication    bool   `json:"multi_factor_authentication"`
}

// DefaultAdvancedSettings is stored when no advanced settings exist
func DefaultAdvancedSettings() AdvancedSettings {
	return AdvancedSettings{
		UniqueEmail:   true,
		AllowRegister: true,
		DefaultRole:   "authenticated",
	}
}

type emailSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type emailOptions struct {
	From          emailSender `json:"from"`
	ResponseEmail string      `json:"response_email"`
	Object        string      `json:"object"`
	Message       string      `json:"message"`
}

// EmailTemplate is one entry of the "email" blob
type EmailTemplate struct {
	Display string       `json:"display"`
	Icon    string       `json:"icon"`
	Options emailOptions `json:"options"`
}

// DefaultEmailTemplates returns the templates stored when none exist
func DefaultEmailTemplates() map[string]EmailTemplate {
	from := emailSender{Name: "Administration Panel", Email: "no-reply@example.com"}
	return map[string]EmailTemplate{
		"reset_password": {
			Display: "Email.template.reset_password",
			Icon:    "sync",
			Options: emailOptions{
				From:   from,
				Object: "Reset password",
				Message: `<p>We heard that you lost your password. Sorry about that!</p>

<p>But don’t worry! You can use the following link to reset your password:</p>
<p><%= URL %>?code=<%= TOKEN %></p>

<p>Thanks.</p>`,
			},
		},
		"email_confirmation": {
			Display: "Email.template.email_confirmation",
			Icon:    "check-square",
			Options: emailOptions{
				From:   from,
				Object: "Account confirmation",
				Message: `<p>Thank you for registering!</p>

<p>You have to confirm your email address. Please click on the link below.</p>

<p><%= URL %>?confirmation=<%= CODE %></p>

<p>Thanks.</p>`,
			},
		},
	}
}

// Provider is one entry of the "grant" blob. Unknown provider fields are kept.
type Provider map[string]interface{}

// DefaultProviders returns the provider configuration stored when none exists
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		"email": {"enabled": true, "icon": "envelope"},
		"github": {
			"enabled":  false,
			"icon":     "github",
			"key":      "",
			"secret":   "",
			"callback": "api/auth/github/callback",
			"scope":    []string{"user", "user:email"},
		},
		"google": {
			"enabled":  false,
			"icon":     "google",
			"key":      "",
			"secret":   "",
			"callback": "api/auth/google/callback",
			"scope":    []string{"email"},
		},
		"microsoft": {
			"enabled":  false,
			"icon":     "windows",
			"key":      "",
			"secret":   "",
			"callback": "api/auth/microsoft/callback",
			"scope":    []string{"user.read"},
		},
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
