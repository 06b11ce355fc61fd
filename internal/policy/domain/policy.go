package domain

import "time"

// SessionPolicy is a stored Rego policy controlling session concurrency.
type SessionPolicy struct {
	ID        string
	Name      string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
