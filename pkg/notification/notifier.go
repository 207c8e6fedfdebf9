package notification

type NotificationData struct {
	To      string            // Recipient email address
	Subject string            // Optional: overrides the template subject
	Body    string            // Optional: plain content for notifiers without templates
	Data    map[string]string // Template variables
}

// NoticeTemplate holds the subject and bodies of one notice. Text and Html are
// html/template sources rendered with NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
