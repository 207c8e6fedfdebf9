package notification

import (
	"fmt"
	"sync"
)

// NotificationSystem represents a delivery system (e.g., email).
type NotificationSystem string

// NoticeType represents a type of notice (e.g., "mfa_code", "reset_password").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	ExampleNotice       NoticeType = "example"
	MfaCodeNotice       NoticeType = "mfa_code"
	ResetPasswordNotice NoticeType = "reset_password"
)

// NotificationManager manages notifiers and notification templates.
type NotificationManager struct {
	mu                   sync.RWMutex
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NoticeType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates and returns a new NotificationManager.
func NewNotificationManager() *NotificationManager {
	return &NotificationManager{
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
}

// RegisterNotifier registers a notifier for a specific system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.notifiers[system] = notifier
}

// RegisterNotification adds or replaces the template of a notice type for a system.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, system NotificationSystem, template NoticeTemplate) error {
	if noticeType == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}
	if template.Subject == "" {
		return fmt.Errorf("invalid template: subject cannot be empty")
	}
	if template.Text == "" && template.Html == "" {
		return fmt.Errorf("invalid template: text or html body is required")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notificationRegistry[noticeType]; !exists {
		nm.notificationRegistry[noticeType] = make(map[NotificationSystem]NoticeTemplate)
	}
	nm.notificationRegistry[noticeType][system] = template
	return nil
}

// Send delivers a notice through every system that has a template for it.
func (nm *NotificationManager) Send(noticeType NoticeType, notification NotificationData) error {
	nm.mu.RLock()
	systemTemplates, exists := nm.notificationRegistry[noticeType]
	if !exists {
		nm.mu.RUnlock()
		return fmt.Errorf("no templates registered for notice type: %s", noticeType)
	}

	type delivery struct {
		system   NotificationSystem
		notifier Notifier
		template NoticeTemplate
	}
	deliveries := make([]delivery, 0, len(systemTemplates))
	for system, template := range systemTemplates {
		notifier, ok := nm.notifiers[system]
		if !ok {
			nm.mu.RUnlock()
			return fmt.Errorf("no notifier registered for system: %s", system)
		}
		deliveries = append(deliveries, delivery{system: system, notifier: notifier, template: template})
	}
	nm.mu.RUnlock()

	for _, d := range deliveries {
		if err := d.notifier.Send(noticeType, notification, d.template); err != nil {
			return fmt.Errorf("failed to send %s via %s: %w", noticeType, d.system, err)
		}
	}
	return nil
}
