package domain

import "time"

// Archive reasons. Every archived session carries exactly one of these.
const (
	ReasonExpired     = "expired"
	ReasonSuperseded  = "superseded by new login"
	ReasonLogout      = "logout"
	ReasonDeactivated = "deactivated"
)

// Session is one active login, keyed by its signed token.
//
// ExpiresAt is the store-side sliding expiration, independent of (and normally
// shorter than) the hard expiration embedded in the token itself. It moves
// forward on use, or is forced into the past when the session is invalidated
// in place prior to archival.
type Session struct {
	Token     string
	UserID    string
	IP        string // network origin recorded at issuance, re-checked at validation
	IssuedAt  time.Time
	ExpiresAt time.Time
	Note      string // set only when the session is invalidated in place (e.g. superseded)
}

// Live reports whether the session's store expiration is still in the future.
func (s *Session) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// ArchivedSession is a terminated session in the append-only archive.
// Created exclusively by moving rows out of the active table; never mutated.
type ArchivedSession struct {
	ID         int64
	Token      string
	UserID     string
	IP         string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Note       string
	Reason     string
	ArchivedAt time.Time
}
