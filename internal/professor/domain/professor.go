package domain

import (
	"errors"
	"time"
)

// Professor is the teaching profile attached to a portal account. FirstName,
// LastName, and Email are denormalized from the users table on read.
type Professor struct {
	ID             int64
	UserID         string
	EmployeeNumber string
	Phone          string
	Department     string
	FirstName      string
	LastName       string
	Email          string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

func (p *Professor) Validate() error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.EmployeeNumber == "" {
		return errors.New("employee number is required")
	}
	return nil
}

// CourseAssignment records that a professor teaches a course.
type CourseAssignment struct {
	ID          int64
	ProfessorID int64
	CourseID    int64
	CourseCode  string
	CourseName  string
	Active      bool
	CreatedAt   time.Time
}
