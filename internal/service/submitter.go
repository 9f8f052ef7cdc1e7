package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fjod/furstore/internal/checkout"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/ledger"
	"github.com/fjod/furstore/internal/publisher"
)

// Ledger records submissions so a repeated submit replays instead of ordering twice.
type Ledger interface {
	Begin(ctx context.Context, key, sessionID string) (*ledger.Submission, error)
	MarkSucceeded(ctx context.Context, key string, orderID int64, message string, event ledger.OutboxEvent) error
	MarkFailed(ctx context.Context, key, message string) error
}

// OrderPlacedEvent is the outbox payload published for every placed order.
type OrderPlacedEvent struct {
	OrderID        int64                 `json:"orderId"`
	SessionID      string                `json:"sessionId"`
	CustomerID     int64                 `json:"customerId"`
	DeliveryMethod domain.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod"`
	SubTotal       string                `json:"subTotal"`
	ShippingCost   string                `json:"shippingCost"`
	GrandTotal     string                `json:"grandTotal"`
	Products       []domain.OrderProduct `json:"products"`
	PlacedAt       time.Time             `json:"placedAt"`
}

// idempotentSubmitter guards one session's checkout submission with the ledger.
type idempotentSubmitter struct {
	next      checkout.OrderSubmitter
	ledger    Ledger
	sessionID string
	token     string
	now       func() time.Time
	log       zerolog.Logger
}

func (s *idempotentSubmitter) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	key, err := idempotencyKey(s.sessionID, s.token, req)
	if err != nil {
		return domain.OrderResult{}, err
	}
	log := s.log.With().Str("session_id", s.sessionID).Str("idempotency_key", key).Logger()

	sub, err := s.ledger.Begin(ctx, key, s.sessionID)
	if errors.Is(err, ledger.ErrInFlight) {
		return domain.OrderResult{}, checkout.ErrSubmissionInFlight
	}
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("failed to begin submission: %w", err)
	}
	if sub.Status == ledger.StatusSucceeded {
		log.Info().Int64("order_id", sub.OrderID).Msg("replaying placed order")
		return domain.OrderResult{Success: true, Message: sub.Message, OrderID: sub.OrderID}, nil
	}

	res, err := s.next.CreateOrder(ctx, req)
	if err != nil {
		s.markFailed(key, err.Error(), log)
		return res, err
	}
	if !res.Success {
		s.markFailed(key, res.Message, log)
		return res, nil
	}

	event, err := orderPlacedEvent(res.OrderID, s.sessionID, req, s.now())
	if err == nil {
		err = s.ledger.MarkSucceeded(ctx, key, res.OrderID, res.Message, event)
	}
	if err != nil {
		// The order exists in the backend; the shopper must still see it as placed.
		log.Error().Err(err).Int64("order_id", res.OrderID).Msg("failed to record placed order")
	}
	return res, nil
}

func (s *idempotentSubmitter) markFailed(key, message string, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.ledger.MarkFailed(ctx, key, message); err != nil {
		log.Error().Err(err).Msg("failed to record failed submission")
	}
}

// idempotencyKey hashes the session, its checkout token and the canonical payload.
func idempotencyKey(sessionID, token string, req domain.OrderRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode order request: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(token))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func orderPlacedEvent(orderID int64, sessionID string, req domain.OrderRequest, now time.Time) (ledger.OutboxEvent, error) {
	payload, err := json.Marshal(OrderPlacedEvent{
		OrderID:        orderID,
		SessionID:      sessionID,
		CustomerID:     req.CustomerID,
		DeliveryMethod: req.DeliveryMethod,
		PaymentMethod:  req.PaymentMethod,
		SubTotal:       req.SubTotal.StringFixed(2),
		ShippingCost:   req.ShippingCost.StringFixed(2),
		GrandTotal:     req.GrandTotal.StringFixed(2),
		Products:       req.Products,
		PlacedAt:       now.UTC(),
	})
	if err != nil {
		return ledger.OutboxEvent{}, fmt.Errorf("failed to encode order event: %w", err)
	}
	return ledger.OutboxEvent{
		AggregateID: strconv.FormatInt(orderID, 10),
		EventType:   publisher.EventOrderPlaced,
		Payload:     payload,
	}, nil
}
