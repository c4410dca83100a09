package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"coursehub/internal/model"
	"coursehub/internal/repository"
)

// In-memory fakes over the repository and storage interfaces.

type fakeUserRepo struct {
	users  map[string]*model.User // keyed by id
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := r.GetUserByEmail(ctx, email)
	return u != nil, err
}

type fakeCourseRepo struct {
	courses map[string]*model.Course
	nextID  int
	deleted []string
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[string]*model.Course{}}
}

func (r *fakeCourseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	r.nextID++
	c.ID = fmt.Sprintf("course-%d", r.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.courses[c.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) ListCourses(ctx context.Context, f repository.CourseFilter) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range r.courses {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.InstructorID != "" && c.InstructorID != f.InstructorID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCourseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	return r.GetCourseRow(ctx, courseID)
}

func (r *fakeCourseRepo) GetCourseRow(ctx context.Context, courseID string) (*model.Course, error) {
	c, ok := r.courses[courseID]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCourseRepo) UpdateCourse(ctx context.Context, courseID string, u model.CourseUpdate) (*model.Course, error) {
	c, ok := r.courses[courseID]
	if !ok {
		return nil, nil
	}
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Price != nil {
		c.Price = *u.Price
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	c.UpdatedAt = time.Now()
	clone := *c
	return &clone, nil
}

func (r *fakeCourseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	delete(r.courses, courseID)
	r.deleted = append(r.deleted, courseID)
	return nil
}

func (r *fakeCourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]model.Course, error) {
	return r.ListCourses(ctx, repository.CourseFilter{InstructorID: instructorID})
}

func (r *fakeCourseRepo) ListEnrolledByStudent(ctx context.Context, studentID string) ([]model.Course, error) {
	return []model.Course{}, nil
}

type fakeMaterialRepo struct {
	materials map[string]*model.CourseMaterial
	nextID    int
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: map[string]*model.CourseMaterial{}}
}

func (r *fakeMaterialRepo) CreateMaterial(ctx context.Context, m *model.CourseMaterial) error {
	r.nextID++
	m.ID = fmt.Sprintf("material-%d", r.nextID)
	m.CreatedAt = time.Now()
	clone := *m
	r.materials[m.ID] = &clone
	return nil
}

func (r *fakeMaterialRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseMaterial, error) {
	out := []model.CourseMaterial{}
	for _, m := range r.materials {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) GetByID(ctx context.Context, materialID string) (*model.CourseMaterial, error) {
	m, ok := r.materials[materialID]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMaterialRepo) Delete(ctx context.Context, materialID string) error {
	delete(r.materials, materialID)
	return nil
}

func (r *fakeMaterialRepo) ListKeysByCourse(ctx context.Context, courseID string) ([]string, error) {
	keys := []string{}
	for _, m := range r.materials {
		if m.CourseID == courseID {
			keys = append(keys, m.StorageKey)
		}
	}
	return keys, nil
}

type fakeEnrollmentRepo struct {
	enrollments []*model.Enrollment
}

func (r *fakeEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeEnrollmentRepo) GetWithCompletedPayment(ctx context.Context, studentID, courseID string) (*model.Enrollment, error) {
	return r.GetByStudentAndCourse(ctx, studentID, courseID)
}

type fakePaymentRepo struct {
	payments        map[string]*model.Payment // keyed by session id
	processedEvents map[string]bool
	completions     int
	failedSessions  []string
	failedIntents   []string
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[string]*model.Payment{}, processedEvents: map[string]bool{}}
}

func (r *fakePaymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	clone := *p
	r.payments[p.StripeSessionID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetBySessionID(ctx context.Context, sessionID, studentID string) (*model.Payment, error) {
	p, ok := r.payments[sessionID]
	if !ok || p.StudentID != studentID {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaymentRepo) CompleteCheckout(ctx context.Context, eventID, sessionID, paymentIntentID, studentID, courseID string) error {
	if r.processedEvents[eventID] {
		return nil
	}
	r.processedEvents[eventID] = true
	p, ok := r.payments[sessionID]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	p.Status = model.PaymentStatusCompleted
	r.completions++
	return nil
}

func (r *fakePaymentRepo) MarkFailedBySession(ctx context.Context, sessionID string) error {
	r.failedSessions = append(r.failedSessions, sessionID)
	return nil
}

func (r *fakePaymentRepo) MarkFailedByIntent(ctx context.Context, paymentIntentID string) error {
	r.failedIntents = append(r.failedIntents, paymentIntentID)
	return nil
}

// fakeStore records object operations instead of talking to S3.
type fakeStore struct {
	objects      map[string][]byte
	batchDeletes [][]string
	putErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) DeleteBatch(ctx context.Context, keys []string) error {
	s.batchDeletes = append(s.batchDeletes, keys)
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *fakeStore) SignedGetURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}
