package model

import "time"

// Enrollment status values.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusSuspended = "suspended"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment grants a student ongoing access to a course. At most one row
// exists per (student, course) pair; it is created or reactivated only as a
// side effect of a completed payment.
type Enrollment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Status         string    `db:"status" json:"status"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
}
