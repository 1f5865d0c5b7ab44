package usecase

import (
	"context"
	"errors"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/payment"
	repo "grocerystore/internal/repository"

	"go.uber.org/zap"
)

// WebhookUsecase は決済プロバイダからの通知を注文に反映する
type WebhookUsecase struct {
	tx      repo.TransactionManager
	gateway payment.Gateway
	lg      *zap.Logger
}

func NewWebhookUsecase(tx repo.TransactionManager, gateway payment.Gateway, lg *zap.Logger) *WebhookUsecase {
	return &WebhookUsecase{tx: tx, gateway: gateway, lg: lg}
}

// WebhookResult tells the caller what happened to an accepted event.
type WebhookResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Ignored   bool   `json:"ignored"`
	Updated   int64  `json:"updated"`
}

// ReceivePaymentWebhook は署名を検証してからイベントを適用する。
// 署名が不正なら何も変えない
func (u *WebhookUsecase) ReceivePaymentWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		return WebhookResult{}, NewError(KindInvalidInput, "invalid_signature", "invalid webhook signature")
	}
	if err != nil {
		return WebhookResult{}, invalidInput("malformed webhook payload")
	}
	return u.HandlePaymentEvent(ctx, ev)
}

// HandlePaymentEvent は検証済みイベントを1回だけ適用する。
// 状態は前にしか進まないので、順序が入れ替わっても戻らない
func (u *WebhookUsecase) HandlePaymentEvent(ctx context.Context, ev payment.Event) (WebhookResult, error) {
	res := WebhookResult{EventID: ev.ID}

	if !ev.Known {
		u.lg.Info("ignoring payment event", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		res.Ignored = true
		return res, nil
	}
	if ev.ID == "" || ev.Reference == "" || ev.Status.Rank() < 0 {
		return WebhookResult{}, invalidInput("incomplete payment event")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		fresh, err := r.PaymentEvents().Record(ctx, model.PaymentEvent{
			EventID:          ev.ID,
			Type:             ev.Type,
			PaymentReference: ev.Reference,
			Status:           ev.Status,
		})
		if err != nil {
			return internalError(err, "record payment event")
		}
		if !fresh {
			res.Duplicate = true
			return nil
		}

		n, err := r.Orders().UpdatePaymentStatus(ctx, ev.Reference, ev.Status)
		if err != nil {
			return internalError(err, "update payment status")
		}
		res.Updated = n
		if n > 0 {
			return nil
		}

		cnt, err := r.Orders().CountByPaymentReference(ctx, ev.Reference)
		if err != nil {
			return internalError(err, "count orders by reference")
		}
		if cnt == 0 {
			u.lg.Warn("payment event for unknown reference",
				zap.String("event_id", ev.ID),
				zap.String("payment_reference", ev.Reference),
			)
		}
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}

	u.lg.Info("payment event applied",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("status", string(ev.Status)),
		zap.Bool("duplicate", res.Duplicate),
		zap.Int64("updated", res.Updated),
	)
	return res, nil
}
