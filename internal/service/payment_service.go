package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/model"
	"coursehub/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

var (
	// ErrAlreadyEnrolled rejects checkout for a course the student already
	// has an enrollment row for.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrOwnCourse rejects an instructor buying their own course.
	ErrOwnCourse = errors.New("cannot purchase your own course")
	// ErrPaymentNotFound mirrors the repository sentinel for handlers.
	ErrPaymentNotFound = repository.ErrPaymentNotFound
)

// checkoutExpiry is how long a hosted checkout session stays open.
const checkoutExpiry = 30 * time.Minute

// CheckoutResult is returned to the client after a session is created.
type CheckoutResult struct {
	SessionID   string
	CheckoutURL string
	CourseID    string
	CourseName  string
	Amount      float64
	Currency    string
	ExpiresAt   time.Time
}

// AccessReport is the result of verifying course access.
type AccessReport struct {
	HasAccess        bool
	AccessType       string // "instructor", "student" or "none"
	EnrollmentStatus string
	EnrollmentDate   *time.Time
}

// PaymentService manages Stripe checkout sessions and webhook side effects.
type PaymentService interface {
	// CreateCheckout validates the purchase and opens a hosted checkout
	// session, persisting a pending payment row keyed by the session id.
	CreateCheckout(ctx context.Context, studentID, courseID string) (*CheckoutResult, error)
	// HandleCheckoutCompleted transitions the payment to completed and
	// creates or reactivates the enrollment in one transaction.
	HandleCheckoutCompleted(ctx context.Context, eventID string, session *stripe.CheckoutSession) error
	HandleCheckoutExpired(ctx context.Context, session *stripe.CheckoutSession) error
	HandleIntentFailed(ctx context.Context, intent *stripe.PaymentIntent) error
	// GetPaymentStatus returns the payment row together with the live
	// Stripe session state.
	GetPaymentStatus(ctx context.Context, sessionID, studentID string) (*model.Payment, *stripe.CheckoutSession, error)
	// VerifyAccess is the stricter enrollment check joining payment status,
	// used before handing out signed material URLs.
	VerifyAccess(ctx context.Context, courseID, userID string) (*AccessReport, error)
}

type paymentService struct {
	cfg            *config.Config
	paymentRepo    repository.PaymentRepository
	courseRepo     repository.CourseRepository
	enrollmentRepo repository.EnrollmentRepository
	userRepo       repository.UserRepository
	logger         zerolog.Logger
}

// NewPaymentService initializes the Stripe key and returns the service with
// a scoped logger.
func NewPaymentService(
	cfg *config.Config,
	paymentRepo repository.PaymentRepository,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	userRepo repository.UserRepository,
	logger zerolog.Logger,
) PaymentService {
	stripe.Key = cfg.StripeSecretKey
	return &paymentService{
		cfg:            cfg,
		paymentRepo:    paymentRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		logger:         logger.With().Str("service", "PaymentService").Logger(),
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, studentID, courseID string) (*CheckoutResult, error) {
	course, err := s.courseRepo.GetCourseRow(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil || course.Status != model.CourseStatusPublished {
		return nil, ErrCourseNotFound
	}

	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrollment: %w", err)
	}
	if enrollment != nil {
		return nil, ErrAlreadyEnrolled
	}
	if course.InstructorID == studentID {
		return nil, ErrOwnCourse
	}

	student, err := s.userRepo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("fetch student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student not found: %s", studentID)
	}

	expiresAt := time.Now().Add(checkoutExpiry)
	images := []*string{}
	if course.ThumbnailURL != nil {
		images = append(images, course.ThumbnailURL)
	}
	description := course.Description
	if description == "" {
		description = "Online Course"
	}
	sessParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(course.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(course.Title),
					Description: stripe.String(description),
					Images:      images,
				},
				// Stripe amounts are in the smallest currency unit.
				UnitAmount: stripe.Int64(int64(math.Round(course.Price * 100))),
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/courses/%s/success?session_id={CHECKOUT_SESSION_ID}", s.cfg.FrontendURL, courseID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/courses/%s?cancelled=true", s.cfg.FrontendURL, courseID)),
		CustomerEmail:     stripe.String(student.Email),
		ClientReferenceID: stripe.String(studentID),
		Metadata: map[string]string{
			"courseId":     courseID,
			"studentId":    studentID,
			"courseName":   course.Title,
			"instructorId": course.InstructorID,
		},
		ExpiresAt: stripe.Int64(expiresAt.Unix()),
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to create Stripe checkout session")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	payment := &model.Payment{
		StudentID:       studentID,
		CourseID:        courseID,
		StripeSessionID: sess.ID,
		Amount:          course.Price,
		Currency:        course.Currency,
		Status:          model.PaymentStatusPending,
		Metadata: map[string]string{
			"sessionId":   sess.ID,
			"courseTitle": course.Title,
			"createdAt":   time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.paymentRepo.CreatePayment(ctx, payment); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to persist pending payment")
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	return &CheckoutResult{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
		CourseID:    courseID,
		CourseName:  course.Title,
		Amount:      course.Price,
		Currency:    course.Currency,
		ExpiresAt:   time.Unix(sess.ExpiresAt, 0),
	}, nil
}

func (s *paymentService) HandleCheckoutCompleted(ctx context.Context, eventID string, session *stripe.CheckoutSession) error {
	courseID := session.Metadata["courseId"]
	studentID := session.Metadata["studentId"]
	if courseID == "" || studentID == "" {
		return fmt.Errorf("checkout session %s missing course/student metadata", session.ID)
	}
	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}
	if err := s.paymentRepo.CompleteCheckout(ctx, eventID, session.ID, paymentIntentID, studentID, courseID); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to process completed checkout")
		return err
	}
	s.logger.Info().Str("session_id", session.ID).Str("student_id", studentID).Str("course_id", courseID).
		Msg("Payment completed and enrollment active")
	return nil
}

func (s *paymentService) HandleCheckoutExpired(ctx context.Context, session *stripe.CheckoutSession) error {
	if err := s.paymentRepo.MarkFailedBySession(ctx, session.ID); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("Failed to mark payment expired")
		return err
	}
	s.logger.Info().Str("session_id", session.ID).Msg("Payment marked as expired")
	return nil
}

func (s *paymentService) HandleIntentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	if err := s.paymentRepo.MarkFailedByIntent(ctx, intent.ID); err != nil {
		s.logger.Error().Err(err).Str("payment_intent_id", intent.ID).Msg("Failed to mark payment failed")
		return err
	}
	s.logger.Info().Str("payment_intent_id", intent.ID).Msg("Payment marked as failed")
	return nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, sessionID, studentID string) (*model.Payment, *stripe.CheckoutSession, error) {
	payment, err := s.paymentRepo.GetBySessionID(ctx, sessionID, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch payment: %w", err)
	}
	if payment == nil {
		return nil, nil, ErrPaymentNotFound
	}
	sess, err := checkoutsession.Get(sessionID, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to retrieve Stripe session")
		return nil, nil, fmt.Errorf("retrieve stripe session: %w", err)
	}
	return payment, sess, nil
}

func (s *paymentService) VerifyAccess(ctx context.Context, courseID, userID string) (*AccessReport, error) {
	course, err := s.courseRepo.GetCourseRow(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.InstructorID == userID {
		return &AccessReport{HasAccess: true, AccessType: "instructor"}, nil
	}

	enrollment, err := s.enrollmentRepo.GetWithCompletedPayment(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrollment: %w", err)
	}
	if enrollment == nil {
		return &AccessReport{HasAccess: false, AccessType: "none"}, nil
	}
	return &AccessReport{
		HasAccess:        enrollment.Status == model.EnrollmentStatusActive,
		AccessType:       "student",
		EnrollmentStatus: enrollment.Status,
		EnrollmentDate:   &enrollment.EnrollmentDate,
	}, nil
}
