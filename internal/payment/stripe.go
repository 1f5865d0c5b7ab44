package payment

import (
	"context"
	"encoding/json"
	"strings"

	"grocerystore/internal/domain/model"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	eventSessionCompleted      = "checkout.session.completed"
	eventSessionAsyncSucceeded = "checkout.session.async_payment_succeeded"
	eventSessionAsyncFailed    = "checkout.session.async_payment_failed"
	eventSessionExpired        = "checkout.session.expired"
)

var minorUnits = decimal.NewFromInt(100)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway creates Checkout Sessions and verifies Stripe webhooks.
type StripeGateway struct {
	api *client.API
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	return &StripeGateway{api: client.New(cfg.SecretKey, nil), cfg: cfg}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	//金額は最小通貨単位の整数で渡す
	unitAmount := req.Amount.Mul(minorUnits).Round(0).IntPart()

	name := req.Description
	if name == "" {
		name = "Grocery order"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
					UnitAmount: stripe.Int64(unitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, errors.Wrap(err, "create checkout session")
	}

	return Session{
		ID:     s.ID,
		URL:    s.URL,
		Status: sessionPaymentStatus(s),
	}, nil
}

func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return errors.Wrap(err, "expire checkout session")
	}
	return nil
}

// イベントのapi_versionがSDKの固定版と違っても受け付ける。
// 読むのは checkout.session の id と payment_status だけで、どの版でも形は同じ
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, errors.Wrap(ErrInvalidSignature, err.Error())
		}
		return Event{}, errors.Wrap(err, "decode webhook event")
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}

	switch out.Type {
	case eventSessionCompleted, eventSessionAsyncSucceeded, eventSessionAsyncFailed, eventSessionExpired:
	default:
		return out, nil
	}

	var s stripe.CheckoutSession
	if ev.Data == nil {
		return Event{}, errors.New("webhook event has no data")
	}
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return Event{}, errors.Wrap(err, "decode checkout session")
	}

	out.Reference = s.ID
	out.Known = true

	switch out.Type {
	case eventSessionCompleted:
		//遅延決済はcompletedの時点ではまだunpaid
		out.Status = sessionPaymentStatus(&s)
	case eventSessionAsyncSucceeded:
		out.Status = model.PaymentStatusCompleted
	default:
		out.Status = model.PaymentStatusFailed
	}
	return out, nil
}

func isSignatureError(err error) bool {
	for _, target := range []error{
		webhook.ErrNotSigned,
		webhook.ErrInvalidHeader,
		webhook.ErrNoValidSignature,
		webhook.ErrTooOld,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func sessionPaymentStatus(s *stripe.CheckoutSession) model.PaymentStatus {
	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return model.PaymentStatusCompleted
	default:
		return model.PaymentStatusPending
	}
}
