package cache

import "time"

// Entry valor almacenado con su instante de expiración.
type Entry struct {
	Value     any
	ExpiresAt time.Time
}

// IsExpired indica si la entrada expiró en el instante dado.
// Una entrada sigue viva exactamente en su instante de expiración.
func (e Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
