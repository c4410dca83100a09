package service

import (
	"context"
	"errors"
	"fmt"

	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/storage"

	"github.com/rs/zerolog"
)

var (
	// ErrCourseNotFound is returned when the referenced course is absent.
	ErrCourseNotFound = errors.New("course not found")
	// ErrNegativePrice rejects courses priced below zero.
	ErrNegativePrice = errors.New("price must be a positive number")
	// ErrNoFields is returned for an update carrying nothing to change.
	ErrNoFields = errors.New("no fields to update")
	// ErrNotCourseOwner is returned when an instructor mutates a course
	// they do not own.
	ErrNotCourseOwner = errors.New("course is owned by another instructor")
)

// EnrollmentStatus is the access report for a (caller, course) pair.
type EnrollmentStatus struct {
	HasAccess        bool
	IsInstructor     bool
	EnrollmentStatus *string
}

// CourseService defines course operations
type CourseService interface {
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	ListCourses(ctx context.Context, f repository.CourseFilter) ([]model.Course, error)
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	GetCourseRow(ctx context.Context, courseID string) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID, instructorID string, u model.CourseUpdate) (*model.Course, error)
	// DeleteCourse removes the course's stored material blobs in one
	// batched call, then deletes the row. FK cascades clean up the rest.
	DeleteCourse(ctx context.Context, courseID, instructorID string) (*model.Course, error)
	// ListMine returns the caller's courses: owned ones for instructors,
	// enrolled ones for students.
	ListMine(ctx context.Context, userID, role string) ([]model.Course, error)
	// CheckEnrollment reports access for the caller. The course's own
	// instructor always has access regardless of enrollment rows.
	CheckEnrollment(ctx context.Context, courseID, userID string) (*EnrollmentStatus, error)
}

type courseService struct {
	repo           repository.CourseRepository
	materialRepo   repository.MaterialRepository
	enrollmentRepo repository.EnrollmentRepository
	store          storage.ObjectStore
	logger         zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	repo repository.CourseRepository,
	materialRepo repository.MaterialRepository,
	enrollmentRepo repository.EnrollmentRepository,
	store storage.ObjectStore,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		repo:           repo,
		materialRepo:   materialRepo,
		enrollmentRepo: enrollmentRepo,
		store:          store,
		logger:         logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	if c.Price < 0 {
		return nil, ErrNegativePrice
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("instructor_id", c.InstructorID).Msg("Failed to create course")
		return nil, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

func (s *courseService) ListCourses(ctx context.Context, f repository.CourseFilter) ([]model.Course, error) {
	return s.repo.ListCourses(ctx, f)
}

func (s *courseService) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	return s.repo.GetCourseByID(ctx, courseID)
}

func (s *courseService) GetCourseRow(ctx context.Context, courseID string) (*model.Course, error) {
	return s.repo.GetCourseRow(ctx, courseID)
}

func (s *courseService) UpdateCourse(ctx context.Context, courseID, instructorID string, u model.CourseUpdate) (*model.Course, error) {
	if u.Empty() {
		return nil, ErrNoFields
	}
	if u.Price != nil && *u.Price < 0 {
		return nil, ErrNegativePrice
	}
	existing, err := s.repo.GetCourseRow(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if existing == nil {
		return nil, ErrCourseNotFound
	}
	if existing.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}
	updated, err := s.repo.UpdateCourse(ctx, courseID, u)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to update course")
		return nil, fmt.Errorf("update course: %w", err)
	}
	if updated == nil {
		return nil, ErrCourseNotFound
	}
	return updated, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, courseID, instructorID string) (*model.Course, error) {
	existing, err := s.repo.GetCourseRow(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if existing == nil {
		return nil, ErrCourseNotFound
	}
	if existing.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}

	keys, err := s.materialRepo.ListKeysByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list material keys: %w", err)
	}
	// Storage cleanup is best-effort: the row delete proceeds even if the
	// batched object delete fails, matching the cascade semantics.
	if err := s.store.DeleteBatch(ctx, keys); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course materials from storage")
	}

	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
		return nil, fmt.Errorf("delete course: %w", err)
	}
	return existing, nil
}

func (s *courseService) ListMine(ctx context.Context, userID, role string) ([]model.Course, error) {
	if role == model.RoleInstructor {
		return s.repo.ListByInstructor(ctx, userID)
	}
	return s.repo.ListEnrolledByStudent(ctx, userID)
}

func (s *courseService) CheckEnrollment(ctx context.Context, courseID, userID string) (*EnrollmentStatus, error) {
	course, err := s.repo.GetCourseRow(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.InstructorID == userID {
		return &EnrollmentStatus{HasAccess: true, IsInstructor: true}, nil
	}

	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrollment: %w", err)
	}
	status := &EnrollmentStatus{}
	if enrollment != nil {
		status.EnrollmentStatus = &enrollment.Status
		status.HasAccess = enrollment.Status == model.EnrollmentStatusActive
	}
	return status, nil
}
