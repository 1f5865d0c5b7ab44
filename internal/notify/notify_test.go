package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
	gate chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_SendsQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop(), 2, 10, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 5; i++ {
		assert.True(t, d.Enqueue(Message{ID: "m", To: "a@example.com"}))
	}

	assert.Eventually(t, func() bool { return sender.count() == 5 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop(), 1, 1, time.Second)

	//workerが動いていないのでキューは1件で埋まる
	assert.True(t, d.Enqueue(Message{ID: "1"}))
	assert.False(t, d.Enqueue(Message{ID: "2"}))
	assert.Equal(t, 1, d.QueueLen())
}

func TestDispatcher_SendErrorDoesNotStopWorkers(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, zap.NewNop(), 1, 10, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Enqueue(Message{ID: "1"})
	d.Enqueue(Message{ID: "2"})
	assert.Eventually(t, func() bool { return sender.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestDispatcher_FlushesOnShutdown(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop(), 1, 10, time.Second)

	d.Enqueue(Message{ID: "1"})
	d.Enqueue(Message{ID: "2"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 2, sender.count())
}

func TestRenderOrderConfirmation(t *testing.T) {
	html, err := RenderOrderConfirmation(OrderConfirmation{
		OrderID:  7,
		Username: "<alice>",
		Lines: []OrderLine{{
			Title:     "Apples",
			Quantity:  5,
			UnitPrice: decimal.NewFromInt(10),
			LineTotal: decimal.NewFromInt(50),
		}},
		Subtotal:   decimal.NewFromInt(50),
		Discount:   decimal.NewFromInt(5),
		Total:      decimal.NewFromInt(45),
		Currency:   "inr",
		CouponCode: "SAVE10",
		PaymentURL: "https://pay.example.com/cs_1",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Order #7")
	assert.Contains(t, html, "&lt;alice&gt;")
	assert.Contains(t, html, "<td>Apples</td><td>5</td><td>10.00</td><td>50.00</td>")
	assert.Contains(t, html, "Discount (SAVE10): -5.00 inr")
	assert.Contains(t, html, "Amount payable: 45.00 inr")
	assert.Contains(t, html, `href="https://pay.example.com/cs_1"`)
}
