package repository

import (
	"context"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"gorm.io/gorm"
)

// OrderGormRepository は注文ヘッダの保存先。明細は OrderItemGormRepository
type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) orders(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Order{})
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.orders(ctx).Where("id = ?", orderID).Take(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return pagedOrders(r.orders(ctx).Where("user_id = ?", userID), page, limit)
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return order, nil
}

// 同じキーの再送では既存の注文を返すため、未登録は(false, nil)
func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var found []model.Order
	err := r.orders(ctx).
		Where(map[string]interface{}{"user_id": userID, "idempotency_key": key}).
		Limit(1).
		Find(&found).Error
	if err != nil || len(found) == 0 {
		return model.Order{}, false, err
	}
	return found[0], true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return pagedOrders(r.orders(ctx).Scopes(adminOrderFilter(f)), f.Page, f.Limit)
}

func adminOrderFilter(f repo.AdminOrderListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		eq := map[string]interface{}{}
		if f.OrderStatus != "" {
			eq["order_status"] = f.OrderStatus
		}
		if f.PaymentStatus != "" {
			eq["payment_status"] = f.PaymentStatus
		}
		if f.UserID != nil {
			eq["user_id"] = *f.UserID
		}
		if len(eq) > 0 {
			q = q.Where(eq)
		}
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at <= ?", *f.To)
		}
		return q
	}
}

// 総件数と1ページ分。並びは id の降順
func pagedOrders(q *gorm.DB, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := []model.Order{}
	err := q.Session(&gorm.Session{}).
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// from のままの行だけ動かす。先を越されたら false
func (r *OrderGormRepository) AdvanceStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	res := r.orders(ctx).
		Where("id = ? AND order_status = ?", orderID, from).
		UpdateColumn("order_status", to)
	return res.RowsAffected == 1, res.Error
}

// 返金済みの行は条件で外れるので、二重返金は false になる
func (r *OrderGormRepository) MarkRefunded(ctx context.Context, orderID int64, userID int64) (bool, error) {
	res := r.orders(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		Where("payment_status <> ?", model.PaymentStatusRefunded).
		UpdateColumns(map[string]interface{}{
			"payment_status": model.PaymentStatusRefunded,
			"order_status":   model.OrderStatusReturned,
		})
	return res.RowsAffected == 1, res.Error
}

// status より低い段階の行だけを上げる。戻す方向の更新は0件になる
func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, reference string, status model.PaymentStatus) (int64, error) {
	below := status.Below()
	if len(below) == 0 {
		return 0, nil
	}
	res := r.orders(ctx).
		Where("payment_reference = ?", reference).
		Where("payment_status IN ?", below).
		UpdateColumn("payment_status", status)
	return res.RowsAffected, res.Error
}

func (r *OrderGormRepository) CountByPaymentReference(ctx context.Context, reference string) (int64, error) {
	var n int64
	err := r.orders(ctx).Where("payment_reference = ?", reference).Count(&n).Error
	return n, err
}

// OrderItemGormRepository は注文時点の価格と数量を残す
type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		rows[i] = it
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error
	return items, err
}
