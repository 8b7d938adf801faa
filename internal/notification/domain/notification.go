package domain

import "time"

// NotificationType classifies a message for the recipient's inbox.
type NotificationType string

const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeError   NotificationType = "error"
	TypeAdmin   NotificationType = "admin"
)

// ValidType reports whether t is a known notification type.
func ValidType(t NotificationType) bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError, TypeAdmin:
		return true
	}
	return false
}

// Notification is one delivered message row. A send to multiple targets
// produces one row per recipient sharing a BatchID.
type Notification struct {
	ID          string
	BatchID     string
	RecipientID string
	Title       string
	Message     string
	Type        NotificationType
	IsRead      bool
	Metadata    map[string]string
	CreatedAt   time.Time
}
