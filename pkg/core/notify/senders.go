package notify

import "context"

// EmailSender sends plain-text email
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// PushMessage is a push notification payload
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushSender delivers push notifications to every device of a user.
// Device-level opt-out is the push service's concern.
type PushSender interface {
	SendToUser(ctx context.Context, userID string, msg PushMessage) error
}

// CalendarSyncer mirrors an event to an external calendar
type CalendarSyncer interface {
	SyncEvent(ctx context.Context, eventID string) error
}

// NopPush discards push notifications
type NopPush struct{}

func (NopPush) SendToUser(ctx context.Context, userID string, msg PushMessage) error { return nil }

// NopCalendar skips calendar sync
type NopCalendar struct{}

func (NopCalendar) SyncEvent(ctx context.Context, eventID string) error { return nil }
