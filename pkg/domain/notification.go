package domain

import "time"

// Notification is a transient status message with an expiry.
type Notification struct {
	Message string    `json:"message"`
	Expiry  time.Time `json:"expiry"`
}

// IsEmpty reports whether no message is set.
func (n Notification) IsEmpty() bool {
	return n.Message == ""
}
