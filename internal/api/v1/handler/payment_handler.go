package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/middleware"
	"coursehub/internal/policy"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentHandler handles checkout, webhook and access endpoints
type PaymentHandler struct {
	paymentService service.PaymentService
	validate       *validator.Validate
	webhookSecret  string
	logger         zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, validate *validator.Validate, webhookSecret string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
		webhookSecret:  webhookSecret,
		logger:         logger.With().Str("handler", "PaymentHandler").Logger(),
	}
}

// RegisterRoutes mounts payment routes. The webhook is signature-verified
// by Stripe, not bearer-authenticated, so it stays outside the auth
// middleware.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/payments/stripe-webhook", http.HandlerFunc(h.stripeWebhook))
	mux.Handle("/payments/create-checkout-session", authMw(http.HandlerFunc(h.createCheckoutSession)))
	mux.Handle("/payments/payment-status/", authMw(http.HandlerFunc(h.paymentStatus)))
	mux.Handle("/payments/verify-access/", authMw(http.HandlerFunc(h.verifyAccess)))
}

func (h *PaymentHandler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !policy.Allow(policy.Subject(user), policy.ActionCheckout, policy.Resource{Type: "payment"}) {
		writeError(w, http.StatusForbidden, "Forbidden: Only students can create payments")
		return
	}
	var req dto.CheckoutCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Course ID is required")
		return
	}

	result, err := h.paymentService.CreateCheckout(r.Context(), user.UserID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, "Course not found or not available for purchase")
		case errors.Is(err, service.ErrAlreadyEnrolled):
			writeError(w, http.StatusBadRequest, "You are already enrolled in this course")
		case errors.Is(err, service.ErrOwnCourse):
			writeError(w, http.StatusBadRequest, "You cannot purchase your own course")
		default:
			h.logger.Error().Err(err).Str("course_id", req.CourseID).Msg("Failed to create checkout session")
			writeError(w, http.StatusInternalServerError, "Failed to create payment session")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckoutResponseDTO{
		Success:     true,
		SessionID:   result.SessionID,
		CheckoutURL: result.CheckoutURL,
		SessionDetails: dto.CheckoutSessionDetailsDTO{
			CourseID:   result.CourseID,
			CourseName: result.CourseName,
			Amount:     result.Amount,
			Currency:   result.Currency,
			ExpiresAt:  result.ExpiresAt,
		},
	})
}

// stripeWebhook is the single asynchronous entry point. Events are
// dispatched by kind; unknown kinds are logged and acknowledged.
func (h *PaymentHandler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		writeError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Error().Err(err).Msg("Webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}
	h.logger.Info().Str("event_type", string(event.Type)).Str("event_id", event.ID).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			h.logger.Error().Err(err).Msg("Invalid checkout.session payload")
			writeError(w, http.StatusBadRequest, "Invalid checkout.session data")
			return
		}
		if err := h.paymentService.HandleCheckoutCompleted(ctx, event.ID, &cs); err != nil {
			writeError(w, http.StatusInternalServerError, "Webhook processing failed")
			return
		}
	case "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			h.logger.Error().Err(err).Msg("Invalid checkout.session payload")
			writeError(w, http.StatusBadRequest, "Invalid checkout.session data")
			return
		}
		if err := h.paymentService.HandleCheckoutExpired(ctx, &cs); err != nil {
			writeError(w, http.StatusInternalServerError, "Webhook processing failed")
			return
		}
	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.logger.Error().Err(err).Msg("Invalid payment_intent payload")
			writeError(w, http.StatusBadRequest, "Invalid payment_intent data")
			return
		}
		if err := h.paymentService.HandleIntentFailed(ctx, &intent); err != nil {
			writeError(w, http.StatusInternalServerError, "Webhook processing failed")
			return
		}
	default:
		h.logger.Warn().Str("event_type", string(event.Type)).Msg("Unhandled webhook event type")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHandler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/payments/payment-status/")
	payment, sess, err := h.paymentService.GetPaymentStatus(r.Context(), sessionID, user.UserID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "Payment session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to get payment status")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve payment status")
		return
	}
	resp := dto.PaymentStatusResponseDTO{
		Success: true,
		Payment: dto.PaymentDetailDTO{
			ID:          payment.ID,
			CourseID:    payment.CourseID,
			CourseTitle: payment.CourseTitle,
			Amount:      payment.Amount,
			Currency:    payment.Currency,
			Status:      payment.Status,
			CreatedAt:   payment.CreatedAt,
			CompletedAt: payment.CompletedAt,
		},
	}
	if sess != nil {
		resp.StripeSession = dto.StripeSessionDTO{
			ID:            sess.ID,
			PaymentStatus: string(sess.PaymentStatus),
			CustomerEmail: sess.CustomerEmail,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) verifyAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	courseID := strings.TrimPrefix(r.URL.Path, "/payments/verify-access/")
	report, err := h.paymentService.VerifyAccess(r.Context(), courseID, user.UserID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		h.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to verify course access")
		writeError(w, http.StatusInternalServerError, "Failed to verify course access")
		return
	}
	resp := dto.AccessResponseDTO{
		Success:    true,
		HasAccess:  report.HasAccess,
		AccessType: report.AccessType,
	}
	if report.AccessType == "student" {
		resp.EnrollmentDetails = &dto.EnrollmentDetailsDTO{
			Status:         report.EnrollmentStatus,
			EnrollmentDate: report.EnrollmentDate,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
