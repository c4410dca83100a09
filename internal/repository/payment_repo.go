package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"coursehub/internal/model"

	"github.com/rs/zerolog"
)

// ErrPaymentNotFound is returned when no payment row matches the given
// session or payment-intent id.
var ErrPaymentNotFound = errors.New("payment record not found")

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	// GetBySessionID returns the payment joined with the course title,
	// scoped to the given student.
	GetBySessionID(ctx context.Context, sessionID, studentID string) (*model.Payment, error)
	// CompleteCheckout marks the payment completed and inserts or
	// reactivates the enrollment, all within one transaction. The webhook
	// event id is recorded in a ledger first; a redelivered event is a
	// no-op.
	CompleteCheckout(ctx context.Context, eventID, sessionID, paymentIntentID, studentID, courseID string) error
	MarkFailedBySession(ctx context.Context, sessionID string) error
	MarkFailedByIntent(ctx context.Context, paymentIntentID string) error
}

type paymentRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPaymentRepo(db *sql.DB, logger zerolog.Logger) PaymentRepository {
	return &paymentRepo{db: db, logger: logger.With().Str("repository", "PaymentRepository").Logger()}
}

func (r *paymentRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshal payment metadata: %w", err)
	}
	query := `
		INSERT INTO payments (student_id, course_id, stripe_session_id, amount, currency, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		p.StudentID, p.CourseID, p.StripeSessionID, p.Amount, p.Currency, p.Status, metadata,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *paymentRepo) GetBySessionID(ctx context.Context, sessionID, studentID string) (*model.Payment, error) {
	var p model.Payment
	var metadata []byte
	query := `
		SELECT p.id, p.student_id, p.course_id, p.stripe_session_id, p.stripe_payment_intent_id,
		       p.amount, p.currency, p.status, p.metadata, p.created_at, p.completed_at,
		       c.title AS course_title
		FROM payments p
		JOIN courses c ON p.course_id = c.id
		WHERE p.stripe_session_id = $1 AND p.student_id = $2
	`
	err := r.db.QueryRowContext(ctx, query, sessionID, studentID).Scan(
		&p.ID, &p.StudentID, &p.CourseID, &p.StripeSessionID, &p.StripePaymentIntentID,
		&p.Amount, &p.Currency, &p.Status, &metadata, &p.CreatedAt, &p.CompletedAt,
		&p.CourseTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal payment metadata: %w", err)
		}
	}
	return &p, nil
}

func (r *paymentRepo) CompleteCheckout(ctx context.Context, eventID, sessionID, paymentIntentID, studentID, courseID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Record the webhook event first. A conflict means this event has
	// already been processed, so the redelivery is a no-op.
	res, err := tx.ExecContext(ctx,
		`INSERT INTO webhook_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.Info().Str("event_id", eventID).Msg("Webhook event already processed, skipping")
		return tx.Commit()
	}

	// The intent id column is unique, so intent-less completions must be
	// stored as NULL rather than colliding on the empty string.
	intentID := nullIfEmpty(paymentIntentID)
	res, err = tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', stripe_payment_intent_id = $1, completed_at = CURRENT_TIMESTAMP,
		    metadata = jsonb_set(metadata, '{completedAt}', to_jsonb(CURRENT_TIMESTAMP::text))
		WHERE stripe_session_id = $2
	`, intentID, sessionID)
	if err != nil {
		return fmt.Errorf("mark payment completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPaymentNotFound
	}

	var enrollmentID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM enrollments WHERE student_id = $1 AND course_id = $2`, studentID, courseID,
	).Scan(&enrollmentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO enrollments (student_id, course_id, enrollment_date, status)
			VALUES ($1, $2, CURRENT_TIMESTAMP, 'active')
		`, studentID, courseID)
		if err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		r.logger.Info().Str("student_id", studentID).Str("course_id", courseID).Msg("Student enrolled in course")
	case err != nil:
		return fmt.Errorf("check existing enrollment: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE enrollments SET status = 'active', enrollment_date = CURRENT_TIMESTAMP
			WHERE id = $1
		`, enrollmentID)
		if err != nil {
			return fmt.Errorf("reactivate enrollment: %w", err)
		}
		r.logger.Info().Str("student_id", studentID).Str("course_id", courseID).Msg("Enrollment reactivated")
	}

	return tx.Commit()
}

func (r *paymentRepo) MarkFailedBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'failed',
		    metadata = jsonb_set(metadata, '{expiredAt}', to_jsonb(CURRENT_TIMESTAMP::text))
		WHERE stripe_session_id = $1
	`, sessionID)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *paymentRepo) MarkFailedByIntent(ctx context.Context, paymentIntentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'failed',
		    metadata = jsonb_set(metadata, '{failedAt}', to_jsonb(CURRENT_TIMESTAMP::text))
		WHERE stripe_payment_intent_id = $1
	`, paymentIntentID)
	return err
}
