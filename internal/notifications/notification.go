// Package notifications derives, deduplicates and persists per-user meal and goal reminders.
package notifications

import (
	"time"

	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
)

const dayLayout = "2006-01-02"

// Notification is one entry of a user's list. JSON field names match the cached format.
type Notification struct {
	ID        string                 `json:"id"`
	Message   string                 `json:"message"`
	Type      enums.NotificationType `json:"type"`
	Time      string                 `json:"time,omitempty"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Candidate is a notification before the store assigns defaults. ID is optional.
type Candidate struct {
	ID      string
	Message string
	Type    enums.NotificationType
	Time    string
}

// Snapshot is the list and its derived unread count, returned after every mutation.
type Snapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

func newSnapshot(items []Notification) Snapshot {
	out := make([]Notification, len(items))
	copy(out, items)
	return Snapshot{Notifications: out, UnreadCount: countUnread(out)}
}

func countUnread(items []Notification) int {
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	return unread
}
