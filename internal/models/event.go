package models

import "time"

// Event represents an auditable action, e.g. a registration or role change.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "account.register", "account.role.toggle"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	AccountID *string   `json:"accountId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
