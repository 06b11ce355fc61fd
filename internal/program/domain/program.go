package domain

import (
	"errors"
	"time"
)

// Program is a degree program students enroll under.
type Program struct {
	ID          int64
	Name        string
	Description string
	MinCredits  int32
	MaxCredits  int32
	CreatedBy   string
	UpdatedBy   string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (p *Program) Validate() error {
	if p.Name == "" {
		return errors.New("program name is required")
	}
	if p.MinCredits < 0 || p.MaxCredits < 0 {
		return errors.New("credits must not be negative")
	}
	if p.MaxCredits > 0 && p.MinCredits > p.MaxCredits {
		return errors.New("min credits must not exceed max credits")
	}
	return nil
}
