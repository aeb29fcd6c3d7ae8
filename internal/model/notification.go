package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification statuses. Sent and failed are terminal.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// ReasonMissingReference is recorded on a notification whose event or contact
// no longer exists at delivery time.
const ReasonMissingReference = "Event or contact not found"

// Notification represents one scheduled reminder delivery to one contact for one event.
type Notification struct {
	ID             uuid.UUID  `json:"id"`              // unique identifier for the notification
	EventID        uuid.UUID  `json:"event_id"`        // event the reminder is about
	SubscriptionID uuid.UUID  `json:"subscription_id"` // subscription that seeded the reminder
	ContactID      uuid.UUID  `json:"contact_id"`      // recipient contact
	UserID         uuid.UUID  `json:"user_id"`         // owner of the event
	ScheduledAt    time.Time  `json:"scheduled_at"`    // UTC instant the reminder is due
	Status         string     `json:"status"`          // "pending", "sent" or "failed"
	SentAt         *time.Time `json:"sent_at"`         // set once on transition to sent
	ErrorMessage   *string    `json:"error_message"`   // set only on transition to failed
	CreatedAt      time.Time  `json:"created_at"`      // timestamp when the notification was created
}

// IsTerminal reports whether the notification has left the pending state.
func (n Notification) IsTerminal() bool {
	return n.Status == StatusSent || n.Status == StatusFailed
}

// NotificationView is a notification enriched with event and contact details for listings.
type NotificationView struct {
	Notification
	EventTitle   string     `json:"event_title"`
	EventDate    *time.Time `json:"event_date"`
	ContactName  string     `json:"contact_name"`
	ContactEmail string     `json:"contact_email"`
}

// Stats holds notification counts per status for a single user.
type Stats struct {
	Pending int `json:"pending_notifications"`
	Sent    int `json:"sent_notifications"`
	Failed  int `json:"failed_notifications"`
}
