package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) ListOrders(ctx context.Context, actor Actor, f repo.AdminOrderListFilter) (OrderPage, error) {
	if err := requireAdmin(actor); err != nil {
		return OrderPage{}, err
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Page < 1 {
		return OrderPage{}, invalidInput("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderPage{}, invalidInput("invalid limit")
	}
	if f.OrderStatus != "" && !model.OrderStatus(f.OrderStatus).Valid() {
		return OrderPage{}, invalidInput("invalid order_status")
	}
	if f.PaymentStatus != "" && model.PaymentStatus(f.PaymentStatus).Rank() < 0 {
		return OrderPage{}, invalidInput("invalid payment_status")
	}

	var out OrderPage
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return internalError(err, "list admin orders")
		}
		out = OrderPage{Items: orders, Total: total, Page: f.Page, Limit: f.Limit}
		return nil
	})
	if err != nil {
		return OrderPage{}, err
	}
	return out, nil
}

// AdvanceOrderStatus は配送ステータスを前にだけ進める。
// 読んだ時点のステータスを条件に更新し、同時更新は ErrOrderChanged にする
func (u *AdminOrderUsecase) AdvanceOrderStatus(ctx context.Context, actor Actor, orderID int64, status string) (model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Order{}, err
	}
	if orderID <= 0 {
		return model.Order{}, invalidInput("invalid order id")
	}

	next := model.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return model.Order{}, invalidInput("invalid status")
	}

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return internalError(err, "find order")
		}

		if next.Position() <= o.OrderStatus.Position() {
			return ErrInvalidTransition
		}

		ok, err := r.Orders().AdvanceStatus(ctx, orderID, o.OrderStatus, next)
		if err != nil {
			return internalError(err, "advance order status")
		}
		if !ok {
			return ErrOrderChanged
		}

		if err := writeAudit(ctx, r, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   fmt.Sprintf(`{"order_status":%q}`, o.OrderStatus),
			AfterJSON:    fmt.Sprintf(`{"order_status":%q}`, next),
		}); err != nil {
			return err
		}

		o.OrderStatus = next
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

// 監査ログ一覧
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, actor Actor, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 200 {
		return nil, invalidInput("invalid limit")
	}
	if f.Offset < 0 {
		return nil, invalidInput("invalid offset")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, internalError(err, "list audit logs")
	}
	return logs, nil
}
