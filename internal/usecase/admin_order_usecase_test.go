package usecase_test

import (
	"context"
	"testing"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"
	"grocerystore/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// txManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type txManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

// 使わないrepoは埋め込みのnil interfaceのまま
type adminTxReposMock struct {
	repo.TxRepos
	orders repo.OrderRepository
	audit  repo.AuditLogRepository
}

func (r *adminTxReposMock) Orders() repo.OrderRepository       { return r.orders }
func (r *adminTxReposMock) AuditLogs() repo.AuditLogRepository { return r.audit }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct {
	repo.OrderRepository
	mock.Mock
}

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) AdvanceStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Get(1).(int64), args.Error(2)
}

type auditRepoMock struct{ mock.Mock }

func (m *auditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *auditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	l, _ := args.Get(0).([]model.AuditLog)
	return l, args.Error(1)
}

func newAdminOrderFixture() (*usecase.AdminOrderUsecase, *txManagerMock, *orderRepoMock, *auditRepoMock) {
	orders := new(orderRepoMock)
	audit := new(auditRepoMock)
	tx := &txManagerMock{Repos: &adminTxReposMock{orders: orders, audit: audit}}
	return usecase.NewAdminOrderUsecase(tx, audit), tx, orders, audit
}

var adminActor = usecase.Actor{UserID: 1, Role: model.RoleAdmin}

// =====================
// AdvanceOrderStatus tests
// =====================

func TestAdvanceOrderStatus_NotAdmin(t *testing.T) {
	uc, tx, _, _ := newAdminOrderFixture()

	_, err := uc.AdvanceOrderStatus(context.Background(), usecase.Actor{UserID: 2, Role: model.RoleUser}, 1, "packed")
	assert.ErrorIs(t, err, usecase.ErrAdminOnly)
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdvanceOrderStatus_InvalidStatus(t *testing.T) {
	uc, tx, _, _ := newAdminOrderFixture()

	_, err := uc.AdvanceOrderStatus(context.Background(), adminActor, 1, "teleported")
	ue, ok := usecase.AsError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.KindInvalidInput, ue.Kind)
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdvanceOrderStatus_NotFound(t *testing.T) {
	uc, tx, orders, _ := newAdminOrderFixture()
	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.AdvanceOrderStatus(context.Background(), adminActor, 99, "packed")
	assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
	orders.AssertExpectations(t)
}

func TestAdvanceOrderStatus_EveryPair(t *testing.T) {
	ladder := []model.OrderStatus{
		model.OrderStatusReceived,
		model.OrderStatusPacked,
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
		model.OrderStatusReturned,
	}

	for i, current := range ladder {
		for j, next := range ladder {
			forward := j > i
			t.Run(string(current)+"->"+string(next), func(t *testing.T) {
				uc, tx, orders, audit := newAdminOrderFixture()
				tx.On("WithinTx", mock.Anything).Return(nil)
				orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, OrderStatus: current}, nil)

				if !forward {
					_, err := uc.AdvanceOrderStatus(context.Background(), adminActor, 5, string(next))
					assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
					orders.AssertNotCalled(t, "AdvanceStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
					audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
					return
				}

				orders.On("AdvanceStatus", mock.Anything, int64(5), current, next).Return(true, nil).Once()
				audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
					return l.ResourceID == 5 && l.Action == model.AuditActionUpdateOrderStatus
				})).Return(nil).Once()

				out, err := uc.AdvanceOrderStatus(context.Background(), adminActor, 5, string(next))
				require.NoError(t, err)
				assert.Equal(t, next, out.OrderStatus)
				orders.AssertExpectations(t)
				audit.AssertExpectations(t)
			})
		}
	}
}

func TestAdvanceOrderStatus_SkipsAheadAndAudits(t *testing.T) {
	ctx := context.Background()
	uc, tx, orders, audit := newAdminOrderFixture()
	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, OrderStatus: model.OrderStatusReceived}, nil)
	orders.On("AdvanceStatus", mock.Anything, int64(5), model.OrderStatusReceived, model.OrderStatusShipped).Return(true, nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceID == 5 &&
			l.ActorUserID == 1 &&
			l.BeforeJSON == `{"order_status":"received"}` &&
			l.AfterJSON == `{"order_status":"shipped"}`
	})).Return(nil)

	out, err := uc.AdvanceOrderStatus(ctx, adminActor, 5, " SHIPPED ")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, out.OrderStatus)

	tx.AssertExpectations(t)
	orders.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAdvanceOrderStatus_ConcurrentChange(t *testing.T) {
	uc, tx, orders, audit := newAdminOrderFixture()
	tx.On("WithinTx", mock.Anything).Return(nil)
	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, OrderStatus: model.OrderStatusPacked}, nil)
	orders.On("AdvanceStatus", mock.Anything, int64(5), model.OrderStatusPacked, model.OrderStatusDelivered).Return(false, nil)

	_, err := uc.AdvanceOrderStatus(context.Background(), adminActor, 5, "delivered")
	assert.ErrorIs(t, err, usecase.ErrOrderChanged)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// =====================
// ListOrders tests
// =====================

func TestListOrders_Validation(t *testing.T) {
	uc, tx, _, _ := newAdminOrderFixture()

	tests := []struct {
		name string
		f    repo.AdminOrderListFilter
	}{
		{"negative page", repo.AdminOrderListFilter{Page: -1}},
		{"limit too big", repo.AdminOrderListFilter{Limit: 101}},
		{"bad order status", repo.AdminOrderListFilter{OrderStatus: "lost"}},
		{"bad payment status", repo.AdminOrderListFilter{PaymentStatus: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ListOrders(context.Background(), adminActor, tt.f)
			ue, ok := usecase.AsError(err)
			require.True(t, ok)
			assert.Equal(t, usecase.KindInvalidInput, ue.Kind)
		})
	}
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestListOrders_Defaults(t *testing.T) {
	uc, tx, orders, _ := newAdminOrderFixture()
	tx.On("WithinTx", mock.Anything).Return(nil)

	want := repo.AdminOrderListFilter{Page: 1, Limit: 50, PaymentStatus: "completed"}
	orders.On("ListAdmin", mock.Anything, want).
		Return([]model.Order{{ID: 10}, {ID: 11}}, int64(2), nil)

	page, err := uc.ListOrders(context.Background(), adminActor, repo.AdminOrderListFilter{PaymentStatus: "completed"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 50, page.Limit)
	orders.AssertExpectations(t)
}

func TestListAuditLogs_AdminOnly(t *testing.T) {
	uc, _, _, audit := newAdminOrderFixture()

	_, err := uc.ListAuditLogs(context.Background(), usecase.Actor{UserID: 3, Role: model.RoleUser}, repo.AuditLogFilter{})
	assert.ErrorIs(t, err, usecase.ErrAdminOnly)

	audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool { return f.Limit == 50 })).
		Return([]model.AuditLog{{ID: 1}}, nil)
	logs, err := uc.ListAuditLogs(context.Background(), adminActor, repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
