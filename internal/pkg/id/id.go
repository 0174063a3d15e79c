package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, which makes
// them convenient attempt identifiers for correlating operator logs.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
