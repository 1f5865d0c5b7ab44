package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx    repo.TransactionManager
	repos repo.TxRepos
}

func NewProductUsecase(tx repo.TransactionManager, repos repo.TxRepos) *ProductUsecase {
	return &ProductUsecase{tx: tx, repos: repos}
}

type ListProductsInput struct {
	Page        int
	Limit       int
	Q           string
	ProductType string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ListProducts は公開中の商品だけ返す
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if in.Page < 1 {
		return ProductListOutput{}, invalidInput("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, invalidInput("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, invalidInput("q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, invalidInput("min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, invalidInput("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, invalidInput("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, invalidInput("invalid sort")
	}

	items, total, err := u.repos.Products().ListPublic(ctx, repo.ProductListQuery{
		Page:        in.Page,
		Limit:       in.Limit,
		Q:           strings.TrimSpace(in.Q),
		ProductType: strings.TrimSpace(in.ProductType),
		MinPrice:    in.MinPrice,
		MaxPrice:    in.MaxPrice,
		Sort:        in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, internalError(err, "list products")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, invalidInput("invalid product id")
	}

	p, err := u.repos.Products().FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, internalError(err, "find product")
	}
	//非公開は存在しない扱い
	if !p.IsActive {
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

type ProductInput struct {
	Title       string
	Description string
	ProductType string
	Price       decimal.Decimal
	// 作成時の初期在庫。更新では無視する
	Stock    int64
	IsActive bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidInput("title required")
	}
	if strings.TrimSpace(in.ProductType) == "" {
		return invalidInput("product_type required")
	}
	if in.Price.IsNegative() {
		return invalidInput("price must be >= 0")
	}
	if in.Stock < 0 {
		return invalidInput("stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Product{}, err
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.repos.Products().Create(ctx, model.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ProductType: strings.TrimSpace(in.ProductType),
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, internalError(err, "create product")
	}
	return p, nil
}

// UpdateProduct は在庫以外を更新する
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actor Actor, productID int64, in ProductInput) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if productID <= 0 {
		return invalidInput("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	err := u.repos.Products().Update(ctx, model.Product{
		ID:          productID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ProductType: strings.TrimSpace(in.ProductType),
		Price:       in.Price.Round(2),
		IsActive:    in.IsActive,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return internalError(err, "update product")
	}
	return nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, actor Actor, productID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if productID <= 0 {
		return invalidInput("invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.Products().SoftDelete(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return internalError(err, "delete product")
		}
		return nil
	})
	return err
}

// UpdateInventory は在庫を指定値にし、調整履歴と監査ログを同じトランザクションで残す
func (u *ProductUsecase) UpdateInventory(ctx context.Context, actor Actor, productID int64, newStock int64, reason string) (model.InventoryAdjustment, error) {
	if err := requireAdmin(actor); err != nil {
		return model.InventoryAdjustment{}, err
	}
	if productID <= 0 {
		return model.InventoryAdjustment{}, invalidInput("invalid product id")
	}
	if newStock < 0 {
		return model.InventoryAdjustment{}, invalidInput("stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.InventoryAdjustment{}, invalidInput("reason required")
	}

	var adj model.InventoryAdjustment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（行ロック）
		before, err := r.Inventory().LockStock(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return internalError(err, "lock stock")
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return internalError(err, "set stock")
		}

		adj = model.NewStockAdjustment(productID, actor.UserID, before, newStock, reason)
		if err := r.Inventory().CreateAdjustment(ctx, &adj); err != nil {
			return internalError(err, "create inventory adjustment")
		}

		//誰が、どの商品の在庫を、どう変えたか
		return writeAudit(ctx, r, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before),
			AfterJSON:    fmt.Sprintf(`{"stock":%d,"reason":%q}`, newStock, reason),
		})
	})
	if err != nil {
		return model.InventoryAdjustment{}, err
	}
	return adj, nil
}

func writeAudit(ctx context.Context, r repo.TxRepos, log model.AuditLog) error {
	if err := r.AuditLogs().Create(ctx, log); err != nil {
		return internalError(err, "create audit log")
	}
	return nil
}
