package repository

import (
	"context"
	"database/sql"
	"errors"

	"coursehub/internal/model"
)

type EnrollmentRepository interface {
	GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
	// GetWithCompletedPayment joins the enrollment against a completed
	// payment for the same student and course.
	GetWithCompletedPayment(ctx context.Context, studentID, courseID string) (*model.Enrollment, error)
}

type enrollmentRepo struct {
	db *sql.DB
}

func NewEnrollmentRepo(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	query := `
		SELECT id, student_id, course_id, status, enrollment_date
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2
	`
	err := r.db.QueryRowContext(ctx, query, studentID, courseID).Scan(
		&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.EnrollmentDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) GetWithCompletedPayment(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	var e model.Enrollment
	query := `
		SELECT e.id, e.student_id, e.course_id, e.status, e.enrollment_date
		FROM enrollments e
		JOIN payments p ON e.student_id = p.student_id AND e.course_id = p.course_id
		WHERE e.student_id = $1 AND e.course_id = $2 AND p.status = 'completed'
	`
	err := r.db.QueryRowContext(ctx, query, studentID, courseID).Scan(
		&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.EnrollmentDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
