package identity

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewUserID generates a subscriber ID (random UUID v4).
func NewUserID() string {
	return uuid.NewString()
}

// NewRequestID generates a request correlation ID.
// Format: "req_" + ulid().
func NewRequestID() string {
	return "req_" + generateULID()
}

// NewLocalID generates a sortable ID for records that only exist locally.
// Format: prefix + "_" + ulid().
func NewLocalID(prefix string) string {
	return prefix + "_" + generateULID()
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// generateULID generates a ULID string.
func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
	return id.String()
}
