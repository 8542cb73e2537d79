package domain

import "time"

// Session is a persisted server-side session record. Data holds the encoded
// session values; it is opaque to the repository.
type Session struct {
	ID        string
	Data      string
	ExpiresAt time.Time
}
