package auth

import (
	"context"
	"time"

	"github.com/tendant/simple-admin-auth/pkg/notification"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

// NotificationMailer sends auth emails through a NotificationManager
type NotificationMailer struct {
	manager      *notification.NotificationManager
	challengeTTL time.Duration
}

func NewNotificationMailer(manager *notification.NotificationManager, challengeTTL time.Duration) *NotificationMailer {
	return &NotificationMailer{manager: manager, challengeTTL: challengeTTL}
}

func (m *NotificationMailer) SendVerificationCode(ctx context.Context, u user.SanitizedUser, code string) error {
	return m.manager.Send(notification.MfaCodeNotice, notification.NotificationData{
		To: u.Email,
		Data: map[string]string{
			"Firstname": u.Firstname,
			"Code":      code,
			"ExpiresIn": m.challengeTTL.String(),
		},
	})
}

func (m *NotificationMailer) SendResetPasswordEmail(ctx context.Context, u user.SanitizedUser, link string) error {
	return m.manager.Send(notification.ResetPasswordNotice, notification.NotificationData{
		To: u.Email,
		Data: map[string]string{
			"Firstname": u.Firstname,
			"Link":      link,
		},
	})
}
