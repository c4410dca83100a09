package dto

import "time"

// CheckoutCreateDTO is the body of a checkout-session request.
type CheckoutCreateDTO struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// CheckoutSessionDetailsDTO summarizes the created session.
type CheckoutSessionDetailsDTO struct {
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"courseName"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// CheckoutResponseDTO is returned after creating a checkout session.
type CheckoutResponseDTO struct {
	Success        bool                      `json:"success"`
	SessionID      string                    `json:"sessionId"`
	CheckoutURL    string                    `json:"checkoutUrl"`
	SessionDetails CheckoutSessionDetailsDTO `json:"sessionDetails"`
}

// PaymentStatusResponseDTO reports a payment's current state.
type PaymentStatusResponseDTO struct {
	Success       bool             `json:"success"`
	Payment       PaymentDetailDTO `json:"payment"`
	StripeSession StripeSessionDTO `json:"stripeSession"`
}

// StripeSessionDTO is the live provider-side view of a checkout session.
type StripeSessionDTO struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"paymentStatus"`
	CustomerEmail string `json:"customerEmail"`
}

// PaymentDetailDTO is the payment shape in status responses.
type PaymentDetailDTO struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	CourseTitle string     `json:"courseTitle"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AccessResponseDTO reports whether the caller may access a course.
type AccessResponseDTO struct {
	Success           bool                  `json:"success"`
	HasAccess         bool                  `json:"hasAccess"`
	AccessType        string                `json:"accessType"`
	EnrollmentDetails *EnrollmentDetailsDTO `json:"enrollmentDetails,omitempty"`
}

// EnrollmentDetailsDTO carries enrollment specifics for student access.
type EnrollmentDetailsDTO struct {
	Status         string     `json:"status"`
	EnrollmentDate *time.Time `json:"enrollmentDate,omitempty"`
}
