package payment

import (
	"encoding/json"
	"testing"
	"time"

	"grocerystore/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedEvent(t *testing.T, id string, typ string, session map[string]interface{}) ([]byte, string) {
	t.Helper()
	return signedEventVersion(t, id, typ, stripe.APIVersion, session)
}

func signedEventVersion(t *testing.T, id string, typ string, apiVersion string, session map[string]interface{}) ([]byte, string) {
	t.Helper()

	body := map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        typ,
		"api_version": apiVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": session},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func newTestGateway() *StripeGateway {
	return NewStripeGateway(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret})
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	g := newTestGateway()

	tests := []struct {
		name       string
		typ        string
		payStatus  string
		wantStatus model.PaymentStatus
		wantKnown  bool
	}{
		{"completed and paid", "checkout.session.completed", "paid", model.PaymentStatusCompleted, true},
		{"completed but unpaid", "checkout.session.completed", "unpaid", model.PaymentStatusPending, true},
		{"async succeeded", "checkout.session.async_payment_succeeded", "paid", model.PaymentStatusCompleted, true},
		{"async failed", "checkout.session.async_payment_failed", "unpaid", model.PaymentStatusFailed, true},
		{"expired", "checkout.session.expired", "unpaid", model.PaymentStatusFailed, true},
		{"unknown type", "customer.created", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, sig := signedEvent(t, "evt_1", tt.typ, map[string]interface{}{
				"id":             "cs_test_1",
				"object":         "checkout.session",
				"payment_status": tt.payStatus,
			})

			ev, err := g.ParseWebhook(payload, sig)
			require.NoError(t, err)
			assert.Equal(t, "evt_1", ev.ID)
			assert.Equal(t, tt.typ, ev.Type)
			assert.Equal(t, tt.wantKnown, ev.Known)
			assert.Equal(t, tt.wantStatus, ev.Status)
			if tt.wantKnown {
				assert.Equal(t, "cs_test_1", ev.Reference)
			}
		})
	}
}

func TestStripeGateway_ParseWebhook_BadSignature(t *testing.T) {
	g := newTestGateway()
	payload, _ := signedEvent(t, "evt_1", "checkout.session.completed", map[string]interface{}{"id": "cs_1"})

	_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeGateway_ParseWebhook_OtherAPIVersion(t *testing.T) {
	g := newTestGateway()
	payload, sig := signedEventVersion(t, "evt_old", "checkout.session.completed", "2020-08-27", map[string]interface{}{
		"id":             "cs_old",
		"object":         "checkout.session",
		"payment_status": "paid",
	})

	ev, err := g.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.True(t, ev.Known)
	assert.Equal(t, "cs_old", ev.Reference)
	assert.Equal(t, model.PaymentStatusCompleted, ev.Status)
}

func TestStripeGateway_ParseWebhook_MalformedIsNotSignatureError(t *testing.T) {
	g := newTestGateway()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte("{not json"),
		Secret:  testWebhookSecret,
	})

	_, err := g.ParseWebhook(signed.Payload, signed.Header)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}
