package xid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns a time-ordered identifier. UUIDv7 keeps ledger ids sortable by
// creation time.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	if prefix == "" {
		return id.String()
	}
	return prefix + "-" + id.String()
}
