package domain

import "time"

// VerificationSession is one pending verification attempt, keyed by the
// subject being verified. A subject has at most one live session; creating a
// new one replaces the old one and kills its link.
type VerificationSession struct {
	SubjectID   string    `json:"subject_id"`
	CommunityID string    `json:"community_id"`
	Secret      string    `json:"secret"`
	CreatedAt   time.Time `json:"created_at"`
}

// Age returns how long the session has been pending.
func (s VerificationSession) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
