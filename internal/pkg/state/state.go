// Package state encodes and parses the composite OAuth2 state parameter
// carried through the identity provider: subjectID:communityID:secret.
// Fields must never contain the colon delimiter.
package state

import (
	"fmt"
	"strings"

	"github.com/rolegate/internal/domain"
)

const fieldCount = 3

// Encode builds the composite state string. It rejects fields that are empty
// or contain the delimiter, since those would be unparseable on the way back.
func Encode(subjectID, communityID, secret string) (string, error) {
	for _, f := range []string{subjectID, communityID, secret} {
		if f == "" {
			return "", fmt.Errorf("empty state field: %w", domain.ErrBadRequest)
		}
		if strings.Contains(f, ":") {
			return "", fmt.Errorf("state field contains delimiter: %w", domain.ErrBadRequest)
		}
	}
	return subjectID + ":" + communityID + ":" + secret, nil
}

// Parse splits a composite state into its three fields. Anything other than
// exactly three non-empty colon-delimited fields is a client error; no
// partial parsing is attempted.
func Parse(s string) (subjectID, communityID, secret string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != fieldCount {
		return "", "", "", fmt.Errorf("malformed state %q: %w", s, domain.ErrBadRequest)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", fmt.Errorf("malformed state %q: %w", s, domain.ErrBadRequest)
		}
	}
	return parts[0], parts[1], parts[2], nil
}
