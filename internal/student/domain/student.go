package domain

import (
	"errors"
	"time"
)

// Student is the academic profile attached to a portal account. FirstName,
// LastName, Email, and ProgramName are denormalized from the users and
// programs tables on read.
type Student struct {
	ID            int64
	UserID        string
	StudentNumber string
	Phone         string
	Major         string
	ProgramID     int64
	ProgramName   string
	FirstName     string
	LastName      string
	Email         string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func (s *Student) Validate() error {
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if s.StudentNumber == "" {
		return errors.New("student number is required")
	}
	if s.ProgramID == 0 {
		return errors.New("program is required")
	}
	return nil
}

// Classmate is one row of a classmates listing: a fellow student plus the
// course both share.
type Classmate struct {
	StudentID     int64
	StudentNumber string
	FirstName     string
	LastName      string
	CourseID      int64
	CourseCode    string
	CourseName    string
}
