package notification

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host               string
	Port               int
	TLS                bool
	InsecureSkipVerify bool
	Username           string
	Password           string
	From               string
}

type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
}

func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	// Only add authentication if username and password are provided
	if config.Username != "" && config.Password != "" {
		slog.Info("Adding authentication", "user", config.Username)
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if config.TLS {
		slog.Info("Using TLS Mandatory policy")
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: config.Host, InsecureSkipVerify: config.InsecureSkipVerify}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		slog.Info("Using NoTLS policy")
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	slog.Info("Creating mail client", "Host", config.Host, "Port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{SMTPConfig: config, client: client}, nil
}

func (e *EmailNotifier) Send(noticeType NoticeType, notification NotificationData, noticeTemplate NoticeTemplate) error {
	msg, err := e.buildMessage(notification, noticeTemplate)
	if err != nil {
		return err
	}

	if err := e.client.DialAndSend(msg); err != nil {
		slog.Error("Failed to send email", "notice", noticeType, "err", err)
		return err
	}

	slog.Info("Email sent successfully", "notice", noticeType, "host", e.SMTPConfig.Host, "port", e.SMTPConfig.Port)
	return nil
}

func (e *EmailNotifier) buildMessage(notification NotificationData, noticeTemplate NoticeTemplate) (*mail.Msg, error) {
	if notification.To == "" {
		return nil, fmt.Errorf("email notification requires 'To' address")
	}

	textBody, err := renderTemplate("text", noticeTemplate.Text, notification.Data)
	if err != nil {
		return nil, err
	}
	htmlBody, err := renderTemplate("html", noticeTemplate.Html, notification.Data)
	if err != nil {
		return nil, err
	}
	if textBody == "" && htmlBody == "" {
		textBody = notification.Body
	}

	msg := mail.NewMsg()
	if err := msg.From(e.SMTPConfig.From); err != nil {
		slog.Error("Failed to set from address", "err", err)
		return nil, err
	}
	if err := msg.To(notification.To); err != nil {
		slog.Error("Failed to set to address", "err", err)
		return nil, err
	}

	subject := noticeTemplate.Subject
	if notification.Subject != "" {
		subject = notification.Subject
	}
	msg.Subject(subject)

	switch {
	case textBody != "" && htmlBody != "":
		msg.SetBodyString(mail.TypeTextPlain, textBody)
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	case htmlBody != "":
		msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, textBody)
	}
	return msg, nil
}

func renderTemplate(name, source string, data map[string]string) (string, error) {
	if source == "" {
		return "", nil
	}
	tmpl, err := template.New(name).Parse(source)
	if err != nil {
		slog.Error("Failed to parse template", "template", name, "err", err)
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("Failed to execute template", "template", name, "err", err)
		return "", err
	}
	return buf.String(), nil
}
