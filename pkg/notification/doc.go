// Package notification sends admin notices such as MFA codes and password
// reset links.
//
// A NotificationManager maps each NoticeType to one template per delivery
// system and dispatches to the Notifier registered for that system:
//
//	nm, err := notification.NewNotificationManagerWithOptions(
//	    notification.WithSMTP(smtpConfig),
//	    notification.WithDefaultTemplates(),
//	)
//	err = nm.Send(notification.MfaCodeNotice, notification.NotificationData{
//	    To:   "admin@example.com",
//	    Data: map[string]string{"Code": "042817"},
//	})
//
// EmailNotifier delivers through SMTP using go-mail. MockNotifier records
// notifications for tests.
package notification
