package model

import "time"

// Payment status values. Pending transitions to completed or failed; failed
// is reachable via session expiry or payment-intent failure. Rows are never
// deleted.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment tracks a Stripe checkout session for a course purchase.
type Payment struct {
	ID                    string            `db:"id" json:"id"`
	StudentID             string            `db:"student_id" json:"student_id"`
	CourseID              string            `db:"course_id" json:"course_id"`
	StripeSessionID       string            `db:"stripe_session_id" json:"stripe_session_id"`
	StripePaymentIntentID *string           `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	Amount                float64           `db:"amount" json:"amount"`
	Currency              string            `db:"currency" json:"currency"`
	Status                string            `db:"status" json:"status"`
	Metadata              map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	CompletedAt           *time.Time        `db:"completed_at" json:"completed_at,omitempty"`

	// CourseTitle is joined in on reads for status responses.
	CourseTitle string `db:"course_title" json:"course_title,omitempty"`
}
