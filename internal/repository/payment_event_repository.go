package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

type PaymentEventRepository interface {
	// 初めて見たイベントならtrue。処理済みならfalse
	Record(ctx context.Context, ev model.PaymentEvent) (bool, error)
}
