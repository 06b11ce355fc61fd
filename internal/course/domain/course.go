package domain

import (
	"errors"
	"time"
)

// Course is a catalog course identified by its unique code.
type Course struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Credits     int32
	CreatedBy   string
	UpdatedBy   string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (c *Course) Validate() error {
	if c.Code == "" {
		return errors.New("course code is required")
	}
	if c.Name == "" {
		return errors.New("course name is required")
	}
	if c.Credits < 0 {
		return errors.New("credits must not be negative")
	}
	return nil
}
