package repository

import (
	"context"
	"strings"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"gorm.io/gorm"
)

// ProductGormRepository は商品カタログ。stock はここでは書き換えない
type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

var productOrders = map[string][]string{
	"price_asc":  {"price ASC", "id ASC"},
	"price_desc": {"price DESC", "id DESC"},
	"":           {"created_at DESC", "id DESC"},
}

// 公開中の商品を検索する。件数はページング前の総数
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(publicProducts(q))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orders, ok := productOrders[q.Sort]
	if !ok {
		orders = productOrders[""]
	}
	list := base.Session(&gorm.Session{})
	for _, o := range orders {
		list = list.Order(o)
	}

	products := []model.Product{}
	if err := list.Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func publicProducts(q repo.ProductListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_active = ?", true)
		//タイトル部分一致、大文字小文字は区別しない
		if kw := strings.ToLower(strings.TrimSpace(q.Q)); kw != "" {
			db = db.Where("LOWER(title) LIKE ?", "%"+kw+"%")
		}
		if q.ProductType != "" {
			db = db.Where("product_type = ?", q.ProductType)
		}
		if q.MinPrice != nil {
			db = db.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price <= ?", *q.MaxPrice)
		}
		return db
	}
}

// 論理削除済みはErrNotFound
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translate(err)
	}
	return p, nil
}

// カタログ項目だけ。stock は Select に含めない
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{ID: p.ID}).
		Select("title", "description", "product_type", "price", "is_active").
		Updates(&p)
	return affectedOne(res)
}

// 非公開化してから論理削除。呼び出し側のトランザクション内で使う
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := affectedOne(db.Model(&model.Product{ID: id}).UpdateColumn("is_active", false)); err != nil {
		return err
	}
	return affectedOne(db.Delete(&model.Product{}, id))
}
