package registry

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates project ids.
// Implemented by UUIDv7Generator (production) and testutil.FixedIDs (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 project ids.
//
// UUIDv7 embeds a millisecond timestamp followed by random bits, so ids
// created in different sessions sharing one store do not collide.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock supplies the creation date of new projects.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
