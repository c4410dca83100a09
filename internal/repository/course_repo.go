package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coursehub/internal/model"

	"github.com/rs/zerolog"
)

// CourseFilter narrows ListCourses results. Status defaults to published.
type CourseFilter struct {
	Status       string
	Category     string
	InstructorID string
}

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	// ListCourses returns courses matching the filter, aggregated with
	// material and active-enrollment counts.
	ListCourses(ctx context.Context, f CourseFilter) ([]model.Course, error)
	// GetCourseByID returns the same aggregation for a single course.
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// GetCourseRow returns the bare row without joins.
	GetCourseRow(ctx context.Context, courseID string) (*model.Course, error)
	// UpdateCourse applies only the supplied fields and bumps updated_at.
	UpdateCourse(ctx context.Context, courseID string, u model.CourseUpdate) (*model.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
	// ListByInstructor returns an instructor's courses with enrolled counts.
	ListByInstructor(ctx context.Context, instructorID string) ([]model.Course, error)
	// ListEnrolledByStudent returns courses the student is enrolled in.
	ListEnrolledByStudent(ctx context.Context, studentID string) ([]model.Course, error)
}

type courseRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepo{db: db, logger: logger.With().Str("repository", "CourseRepository").Logger()}
}

func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (instructor_id, title, description, price, currency, category, max_students, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		c.InstructorID, c.Title, c.Description, c.Price, c.Currency, c.Category, c.MaxStudents, c.ThumbnailURL,
	).Scan(&c.ID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
}

const courseAggregateSelect = `
	SELECT c.id, c.instructor_id, c.title, c.description, c.price, c.currency,
	       c.category, c.status, c.max_students, c.thumbnail_url, c.created_at, c.updated_at,
	       u.first_name, u.last_name,
	       COUNT(DISTINCT cm.id) AS material_count,
	       COUNT(DISTINCT e.id) AS enrolled_count
	FROM courses c
	LEFT JOIN users u ON c.instructor_id = u.id
	LEFT JOIN course_materials cm ON c.id = cm.course_id
	LEFT JOIN enrollments e ON c.id = e.course_id AND e.status = 'active'
`

func scanAggregatedCourse(scanner interface{ Scan(...any) error }) (*model.Course, error) {
	var c model.Course
	err := scanner.Scan(
		&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.Currency,
		&c.Category, &c.Status, &c.MaxStudents, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt,
		&c.InstructorFirstName, &c.InstructorLastName,
		&c.MaterialCount, &c.EnrolledCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) ListCourses(ctx context.Context, f CourseFilter) ([]model.Course, error) {
	status := f.Status
	if status == "" {
		status = model.CourseStatusPublished
	}
	query := courseAggregateSelect + ` WHERE c.status = $1`
	args := []any{status}

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND c.category = $%d", len(args))
	}
	if f.InstructorID != "" {
		args = append(args, f.InstructorID)
		query += fmt.Sprintf(" AND c.instructor_id = $%d", len(args))
	}
	query += ` GROUP BY c.id, u.first_name, u.last_name ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c, err := scanAggregatedCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := courseAggregateSelect + ` WHERE c.id = $1 GROUP BY c.id, u.first_name, u.last_name`
	c, err := scanAggregatedCourse(r.db.QueryRowContext(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *courseRepo) GetCourseRow(ctx context.Context, courseID string) (*model.Course, error) {
	var c model.Course
	query := `
		SELECT id, instructor_id, title, description, price, currency, category, status,
		       max_students, thumbnail_url, created_at, updated_at
		FROM courses WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(
		&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.Currency,
		&c.Category, &c.Status, &c.MaxStudents, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// UpdateCourse builds the SET clause dynamically from the supplied fields.
func (r *courseRepo) UpdateCourse(ctx context.Context, courseID string, u model.CourseUpdate) (*model.Course, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Currency != nil {
		add("currency", *u.Currency)
	}
	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.MaxStudents != nil {
		add("max_students", *u.MaxStudents)
	}
	if u.ThumbnailURL != nil {
		add("thumbnail_url", *u.ThumbnailURL)
	}
	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, courseID)

	query := fmt.Sprintf(`
		UPDATE courses SET %s WHERE id = $%d
		RETURNING id, instructor_id, title, description, price, currency, category, status,
		          max_students, thumbnail_url, created_at, updated_at`,
		strings.Join(sets, ", "), len(args))

	var c model.Course
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.Currency,
		&c.Category, &c.Status, &c.MaxStudents, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCourse removes the course row. FK cascades remove materials,
// enrollments and payments.
func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	return err
}

func (r *courseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	query := `
		SELECT c.id, c.instructor_id, c.title, c.description, c.price, c.currency,
		       c.category, c.status, c.max_students, c.thumbnail_url, c.created_at, c.updated_at,
		       COUNT(e.id) AS enrolled_count
		FROM courses c
		LEFT JOIN enrollments e ON c.id = e.course_id AND e.status = 'active'
		WHERE c.instructor_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.Currency,
			&c.Category, &c.Status, &c.MaxStudents, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt,
			&c.EnrolledCount,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *courseRepo) ListEnrolledByStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	query := `
		SELECT c.id, c.instructor_id, c.title, c.description, c.price, c.currency,
		       c.category, c.status, c.max_students, c.thumbnail_url, c.created_at, c.updated_at,
		       u.first_name, u.last_name
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		JOIN users u ON c.instructor_id = u.id
		WHERE e.student_id = $1
		ORDER BY e.enrollment_date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.Currency,
			&c.Category, &c.Status, &c.MaxStudents, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt,
			&c.InstructorFirstName, &c.InstructorLastName,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
