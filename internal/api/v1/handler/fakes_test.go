package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"time"

	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/service"
	"coursehub/internal/util"

	"github.com/stripe/stripe-go/v82"
)

// Stub services for handler tests. Each embeds canned results and records
// the calls it receives.

type fakeAuthService struct {
	registerErr error
	loginUser   *model.User
	loginTokens *service.TokenPair
	loginErr    error
	refreshUser *model.User
	refreshTok  string
	refreshErr  error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*model.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &model.User{ID: "user-1", Email: email, FirstName: firstName, LastName: lastName, Role: role}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*model.User, *service.TokenPair, error) {
	return f.loginUser, f.loginTokens, f.loginErr
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, string, error) {
	return f.refreshUser, f.refreshTok, f.refreshErr
}

type fakeCourseService struct {
	courses       map[string]*model.Course
	enrollment    *service.EnrollmentStatus
	enrollmentErr error
	deleteCalled  bool
}

func (f *fakeCourseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	if c.Price < 0 {
		return nil, service.ErrNegativePrice
	}
	c.ID = "course-1"
	if c.Currency == "" {
		c.Currency = "USD"
	}
	return c, nil
}

func (f *fakeCourseService) ListCourses(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCourseService) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	return f.GetCourseRow(ctx, courseID)
}

func (f *fakeCourseService) GetCourseRow(ctx context.Context, courseID string) (*model.Course, error) {
	c, ok := f.courses[courseID]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCourseService) UpdateCourse(ctx context.Context, courseID, instructorID string, u model.CourseUpdate) (*model.Course, error) {
	c, ok := f.courses[courseID]
	if !ok {
		return nil, service.ErrCourseNotFound
	}
	if c.InstructorID != instructorID {
		return nil, service.ErrNotCourseOwner
	}
	if u.Empty() {
		return nil, service.ErrNoFields
	}
	if u.Title != nil {
		c.Title = *u.Title
	}
	return c, nil
}

func (f *fakeCourseService) DeleteCourse(ctx context.Context, courseID, instructorID string) (*model.Course, error) {
	c, ok := f.courses[courseID]
	if !ok {
		return nil, service.ErrCourseNotFound
	}
	if c.InstructorID != instructorID {
		return nil, service.ErrNotCourseOwner
	}
	f.deleteCalled = true
	delete(f.courses, courseID)
	return c, nil
}

func (f *fakeCourseService) ListMine(ctx context.Context, userID, role string) ([]model.Course, error) {
	return []model.Course{}, nil
}

func (f *fakeCourseService) CheckEnrollment(ctx context.Context, courseID, userID string) (*service.EnrollmentStatus, error) {
	if f.enrollmentErr != nil {
		return nil, f.enrollmentErr
	}
	return f.enrollment, nil
}

type fakeMaterialService struct {
	uploaded  []model.CourseMaterial
	uploadErr error
	deleteErr error
	deleted   []string
}

func (f *fakeMaterialService) findMaterial(materialID string) *model.CourseMaterial {
	for i := range f.uploaded {
		if f.uploaded[i].ID == materialID {
			return &f.uploaded[i]
		}
	}
	return nil
}

func (f *fakeMaterialService) Upload(ctx context.Context, courseID string, files []service.UploadFile) ([]model.CourseMaterial, error) {
	return f.uploaded, f.uploadErr
}

func (f *fakeMaterialService) List(ctx context.Context, courseID string) ([]model.CourseMaterial, []string, error) {
	urls := make([]string, len(f.uploaded))
	for i, m := range f.uploaded {
		urls[i] = "https://signed.example.com/" + m.StorageKey
	}
	return f.uploaded, urls, nil
}

func (f *fakeMaterialService) Delete(ctx context.Context, courseID, materialID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	m := f.findMaterial(materialID)
	if m == nil || m.CourseID != courseID {
		return service.ErrMaterialNotFound
	}
	f.deleted = append(f.deleted, materialID)
	return nil
}

type fakePaymentService struct {
	checkoutResult  *service.CheckoutResult
	checkoutErr     error
	completedEvents []string
	expiredSessions []string
	failedIntents   []string
	statusPayment   *model.Payment
	statusSession   *stripe.CheckoutSession
	statusErr       error
	accessReport    *service.AccessReport
	accessErr       error
}

func (f *fakePaymentService) CreateCheckout(ctx context.Context, studentID, courseID string) (*service.CheckoutResult, error) {
	return f.checkoutResult, f.checkoutErr
}

func (f *fakePaymentService) HandleCheckoutCompleted(ctx context.Context, eventID string, session *stripe.CheckoutSession) error {
	f.completedEvents = append(f.completedEvents, eventID)
	return nil
}

func (f *fakePaymentService) HandleCheckoutExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	f.expiredSessions = append(f.expiredSessions, session.ID)
	return nil
}

func (f *fakePaymentService) HandleIntentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	f.failedIntents = append(f.failedIntents, intent.ID)
	return nil
}

func (f *fakePaymentService) GetPaymentStatus(ctx context.Context, sessionID, studentID string) (*model.Payment, *stripe.CheckoutSession, error) {
	return f.statusPayment, f.statusSession, f.statusErr
}

func (f *fakePaymentService) VerifyAccess(ctx context.Context, courseID, userID string) (*service.AccessReport, error) {
	return f.accessReport, f.accessErr
}

const testAccessSecret = "test-access-secret"

// bearer returns an Authorization header value for the given subject.
func bearer(t testingT, userID, role string) string {
	token, err := util.GenerateToken(userID, role, testAccessSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return "Bearer " + token
}

type testingT interface {
	Fatalf(format string, args ...any)
}

// multipartBody builds a single-file multipart request body.
func multipartBody(t testingT, field, filename, contentType, content string) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write multipart content: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return buf, w.FormDataContentType()
}
