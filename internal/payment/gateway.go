// Package payment talks to the external payment provider.
package payment

import (
	"context"
	"errors"

	"grocerystore/internal/domain/model"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type SessionRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	// 自前の照合用ID（ユーザーと冪等キーなど）
	ClientReference string
	Description     string
}

type Session struct {
	ID     string
	URL    string
	Status model.PaymentStatus
}

// Event is a provider callback reduced to what reconciliation needs.
// Known is false for event types the service does not act on.
type Event struct {
	ID        string
	Type      string
	Reference string
	Status    model.PaymentStatus
	Known     bool
}

type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	// 注文として残せなかったセッションを支払い不能にする
	ExpireSession(ctx context.Context, sessionID string) error
	ParseWebhook(payload []byte, signature string) (Event, error)
}
