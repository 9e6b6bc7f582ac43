package storage

import "fmt"

// QuotaError is returned by a backend that refuses a write for lack of space
type QuotaError struct {
	Key   string
	Size  int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("store quota exceeded writing %s: %d > %d bytes", e.Key, e.Size, e.Limit)
}
