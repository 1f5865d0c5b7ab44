package usecase

import (
	"context"
	"errors"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック
type CartUsecase struct {
	tx    repo.TransactionManager
	repos repo.TxRepos
}

func NewCartUsecase(tx repo.TransactionManager, repos repo.TxRepos) *CartUsecase {
	return &CartUsecase{tx: tx, repos: repos}
}

type CartLineView struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	Title       string          `json:"title"`
	ProductType string          `json:"product_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Items []CartLineView  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// ViewCart は明細を追加順で返す。空でもエラーにしない
func (u *CartUsecase) ViewCart(ctx context.Context, actor Actor) (CartView, error) {
	if err := requireCustomer(actor); err != nil {
		return CartView{}, err
	}

	lines, err := loadCartLines(ctx, u.repos, actor.UserID)
	if err != nil {
		return CartView{}, err
	}
	return buildCartView(lines), nil
}

// AddOrMergeItem は同じ商品なら数量を足し、なければ追加時点の価格で明細を作る。
// 在庫は確認するだけで減らさない
func (u *CartUsecase) AddOrMergeItem(ctx context.Context, actor Actor, in AddCartInput) (CartView, error) {
	if err := requireCustomer(actor); err != nil {
		return CartView{}, err
	}
	if in.ProductID <= 0 {
		return CartView{}, invalidInput("invalid product_id")
	}
	if in.Quantity < 1 {
		return CartView{}, invalidInput("quantity must be at least 1")
	}

	var lines []PricedLine
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return internalError(err, "find product")
		}
		if !p.IsActive {
			return ErrProductNotFound
		}

		cart, err := r.Carts().GetOrCreateByUserID(ctx, actor.UserID)
		if err != nil {
			return internalError(err, "get cart")
		}

		item, err := r.CartItems().FindByCartAndProductForUpdate(ctx, cart.ID, p.ID)
		switch {
		case err == nil:
			newQty := item.Quantity + in.Quantity
			if newQty > p.Stock {
				return ErrInsufficientStock
			}
			//単価は最初に入れた時点のまま
			item.Quantity = newQty
			item.Recalculate()
			if err := r.CartItems().UpdateQuantity(ctx, item); err != nil {
				return internalError(err, "update cart item")
			}
		case errors.Is(err, repo.ErrNotFound):
			if in.Quantity > p.Stock {
				return ErrInsufficientStock
			}
			item = model.CartItem{
				CartID:            cart.ID,
				ProductID:         p.ID,
				Quantity:          in.Quantity,
				UnitPriceSnapshot: p.Price,
			}
			item.Recalculate()
			if _, err := r.CartItems().Create(ctx, item); err != nil {
				return internalError(err, "create cart item")
			}
		default:
			return internalError(err, "find cart item")
		}

		lines, err = loadCartLines(ctx, r, actor.UserID)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return buildCartView(lines), nil
}

// RemoveItem は商品IDで明細を消す
func (u *CartUsecase) RemoveItem(ctx context.Context, actor Actor, productID int64) error {
	if err := requireCustomer(actor); err != nil {
		return err
	}
	if productID <= 0 {
		return invalidInput("invalid product_id")
	}

	cart, err := u.repos.Carts().FindByUserID(ctx, actor.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return internalError(err, "find cart")
	}

	err = u.repos.CartItems().DeleteByCartAndProduct(ctx, cart.ID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return internalError(err, "delete cart item")
	}
	return nil
}

// loadCartLines はカート明細に商品情報を付けて返す。カートが無ければ空
func loadCartLines(ctx context.Context, r repo.TxRepos, userID int64) ([]PricedLine, error) {
	cart, err := r.Carts().FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return []PricedLine{}, nil
	}
	if err != nil {
		return nil, internalError(err, "find cart")
	}

	items, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, internalError(err, "list cart items")
	}

	lines := make([]PricedLine, 0, len(items))
	for _, it := range items {
		//削除済み商品の明細も表示はする（注文時に弾く）
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, internalError(err, "find product")
		}
		lines = append(lines, PricedLine{
			Available:   err == nil && p.IsActive,
			CartItemID:  it.ID,
			ProductID:   it.ProductID,
			Title:       p.Title,
			ProductType: p.ProductType,
			UnitPrice:   it.UnitPriceSnapshot,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return lines, nil
}

func buildCartView(lines []PricedLine) CartView {
	out := CartView{Items: make([]CartLineView, 0, len(lines)), Total: decimal.Zero}
	for _, ln := range lines {
		out.Items = append(out.Items, CartLineView{
			ID:          ln.CartItemID,
			ProductID:   ln.ProductID,
			Title:       ln.Title,
			ProductType: ln.ProductType,
			UnitPrice:   ln.UnitPrice,
			Quantity:    ln.Quantity,
			LineTotal:   ln.LineTotal,
		})
	}
	out.Total = cartTotal(lines)
	return out
}
