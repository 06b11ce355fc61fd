package domain

import (
	"testing"
	"time"
)

func TestEnrollmentValidate(t *testing.T) {
	grade := func(g float64) *float64 { return &g }

	valid := Enrollment{
		StudentID:  1,
		CourseID:   2,
		Status:     StatusEnrolled,
		EnrolledAt: time.Now(),
		Active:     true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid enrollment rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Enrollment)
	}{
		{"missing student", func(e *Enrollment) { e.StudentID = 0 }},
		{"missing course", func(e *Enrollment) { e.CourseID = 0 }},
		{"unknown status", func(e *Enrollment) { e.Status = "paused" }},
		{"grade below range", func(e *Enrollment) { e.Grade = grade(-1) }},
		{"grade above range", func(e *Enrollment) { e.Grade = grade(10.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	completed := valid
	completed.Status = StatusCompleted
	completed.Grade = grade(8.5)
	if err := completed.Validate(); err != nil {
		t.Fatalf("completed enrollment with grade rejected: %v", err)
	}
}
