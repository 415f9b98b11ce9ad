package compiler

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newRunID returns a sortable identifier for a compiler run.
func newRunID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
