package domain

import (
	"errors"
	"time"
)

// Enrollment statuses.
const (
	StatusEnrolled  = "enrolled"
	StatusCompleted = "completed"
	StatusWithdrawn = "withdrawn"
)

// Enrollment links a student to a course. Grade is set only once the course
// is completed. CourseCode and CourseName are denormalized on read.
type Enrollment struct {
	ID         int64
	StudentID  int64
	CourseID   int64
	CourseCode string
	CourseName string
	Status     string
	Grade      *float64
	EnrolledAt time.Time
	UpdatedAt  *time.Time
	Active     bool
}

func (e *Enrollment) Validate() error {
	if e.StudentID == 0 {
		return errors.New("student is required")
	}
	if e.CourseID == 0 {
		return errors.New("course is required")
	}
	switch e.Status {
	case StatusEnrolled, StatusCompleted, StatusWithdrawn:
	default:
		return errors.New("unknown enrollment status")
	}
	if e.Grade != nil && (*e.Grade < 0 || *e.Grade > 10) {
		return errors.New("grade must be between 0 and 10")
	}
	return nil
}
