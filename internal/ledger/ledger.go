package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	ErrInFlight = errors.New("submission already in flight")
	ErrNotFound = errors.New("submission not found")
)

// Submission is one idempotent order attempt.
type Submission struct {
	Key       string
	SessionID string
	Status    Status
	OrderID   int64
	Message   string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Ledger struct {
	db         *sql.DB
	driver     string
	staleAfter time.Duration
	now        func() time.Time
}

// New wraps an open database. A pending submission older than staleAfter is
// assumed abandoned and may be retaken.
func New(db *sql.DB, driver string, staleAfter time.Duration) *Ledger {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	return &Ledger{db: db, driver: driver, staleAfter: staleAfter, now: time.Now}
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) q(query string) string {
	return rebind(l.driver, query)
}

// Begin claims key for sessionID. It returns a pending submission when the
// caller should go ahead and submit, or the succeeded submission to replay.
// A fresh pending submission held by someone else yields ErrInFlight.
func (l *Ledger) Begin(ctx context.Context, key, sessionID string) (*Submission, error) {
	now := l.now().UTC()
	res, err := l.db.ExecContext(ctx, l.q(`
		INSERT INTO order_submissions (idempotency_key, session_id, status, message, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING`),
		key, sessionID, string(StatusPending), "", 1, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return &Submission{Key: key, SessionID: sessionID, Status: StatusPending, Attempts: 1, CreatedAt: now, UpdatedAt: now}, nil
	}

	existing, err := l.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case StatusSucceeded:
		return existing, nil
	case StatusPending:
		if now.Sub(existing.UpdatedAt) < l.staleAfter {
			return nil, ErrInFlight
		}
	}

	// Failed or abandoned: retake it, guarded by the attempts counter.
	res, err = l.db.ExecContext(ctx, l.q(`
		UPDATE order_submissions
		SET status = $1, message = $2, attempts = $3, updated_at = $4
		WHERE idempotency_key = $5 AND attempts = $6`),
		string(StatusPending), "", existing.Attempts+1, now, key, existing.Attempts)
	if err != nil {
		return nil, fmt.Errorf("failed to retake submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrInFlight
	}
	existing.Status = StatusPending
	existing.Message = ""
	existing.Attempts++
	existing.UpdatedAt = now
	return existing, nil
}

func (l *Ledger) Get(ctx context.Context, key string) (*Submission, error) {
	var (
		s       Submission
		status  string
		orderID sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx, l.q(`
		SELECT idempotency_key, session_id, status, order_id, message, attempts, created_at, updated_at
		FROM order_submissions
		WHERE idempotency_key = $1`), key).
		Scan(&s.Key, &s.SessionID, &status, &orderID, &s.Message, &s.Attempts, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	s.Status = Status(status)
	s.OrderID = orderID.Int64
	return &s, nil
}

// MarkSucceeded records the placed order and queues event in the outbox, atomically.
func (l *Ledger) MarkSucceeded(ctx context.Context, key string, orderID int64, message string, event OutboxEvent) error {
	now := l.now().UTC()
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, l.q(`
		UPDATE order_submissions
		SET status = $1, order_id = $2, message = $3, updated_at = $4
		WHERE idempotency_key = $5`),
		string(StatusSucceeded), orderID, message, now, key)
	if err != nil {
		return fmt.Errorf("failed to mark submission succeeded: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, l.q(`
		INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`),
		event.AggregateID, event.EventType, string(event.Payload), now); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (l *Ledger) MarkFailed(ctx context.Context, key, message string) error {
	res, err := l.db.ExecContext(ctx, l.q(`
		UPDATE order_submissions
		SET status = $1, message = $2, updated_at = $3
		WHERE idempotency_key = $4`),
		string(StatusFailed), message, l.now().UTC(), key)
	if err != nil {
		return fmt.Errorf("failed to mark submission failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUnprocessedEvents returns up to limit outbox events in insertion order.
func (l *Ledger) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := l.db.QueryContext(ctx, l.q(`
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (l *Ledger) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx, l.q(`
		UPDATE outbox_events SET processed_at = $1 WHERE id = $2`),
		l.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}
