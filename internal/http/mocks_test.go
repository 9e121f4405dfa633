package http

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/athometyre/internal/booking"
	"github.com/fjod/athometyre/internal/catalog"
	"github.com/fjod/athometyre/internal/checkout"
	"github.com/fjod/athometyre/internal/dashboard"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/inventory"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockCatalog struct {
	filter catalog.Filter
	finder catalog.Finder
	err    error
	review *domain.Review
}

func (m *mockCatalog) ListTyres(_ context.Context, f catalog.Filter) (*catalog.Page, error) {
	m.filter = f
	if m.err != nil {
		return nil, m.err
	}
	return &catalog.Page{Items: []domain.Tyre{{ID: 5, Name: "Pilot Sport 4"}}, Total: 1, Page: 1, PageSize: 12}, nil
}

func (m *mockCatalog) GetTyre(_ context.Context, id int64) (*domain.Tyre, error) {
	if id != 5 {
		return nil, repository.ErrProductNotFound
	}
	return &domain.Tyre{ID: 5, Name: "Pilot Sport 4"}, nil
}

func (m *mockCatalog) FindTyres(_ context.Context, q catalog.Finder) ([]domain.Tyre, error) {
	m.finder = q
	if q.Make == "" && q.Width == 0 {
		return nil, catalog.ErrInvalidFinder
	}
	return nil, nil
}

func (m *mockCatalog) ListBrands(context.Context) ([]domain.Brand, error) { return nil, nil }

func (m *mockCatalog) ListReviews(context.Context, int64) ([]domain.Review, error) { return nil, nil }

func (m *mockCatalog) AddReview(_ context.Context, r *domain.Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return catalog.ErrInvalidRating
	}
	m.review = r
	return nil
}

type mockCart struct {
	mu    sync.Mutex
	items map[int64]int
	err   error
}

func newMockCart() *mockCart { return &mockCart{items: map[int64]int{}} }

func (m *mockCart) GetCart(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &domain.Cart{UserID: userID, Lines: []domain.CartLine{}}
	for id, q := range m.items {
		c.Lines = append(c.Lines, domain.CartLine{TyreID: id, Quantity: q, UnitPrice: decimal.NewFromInt(2500)})
	}
	c.Recalculate()
	return c, nil
}

func (m *mockCart) AddItem(_ context.Context, _, tyreID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[tyreID] += quantity
	return nil
}

func (m *mockCart) UpdateQuantity(_ context.Context, _, tyreID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[tyreID]; !ok {
		return repository.ErrCartItemNotFound
	}
	m.items[tyreID] = quantity
	return nil
}

func (m *mockCart) RemoveItem(_ context.Context, _, tyreID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, tyreID)
	return nil
}

func (m *mockCart) Clear(context.Context, int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[int64]int{}
	return nil
}

type mockWishlist struct {
	ids map[int64]bool
}

func (m *mockWishlist) List(context.Context, int64) ([]domain.WishlistItem, error) {
	out := []domain.WishlistItem{}
	for id := range m.ids {
		out = append(out, domain.WishlistItem{TyreID: id})
	}
	return out, nil
}

func (m *mockWishlist) Add(_ context.Context, _, tyreID int64) (bool, error) {
	if m.ids[tyreID] {
		return false, nil
	}
	m.ids[tyreID] = true
	return true, nil
}

func (m *mockWishlist) Remove(_ context.Context, _, tyreID int64) error {
	if !m.ids[tyreID] {
		return repository.ErrNotFound
	}
	delete(m.ids, tyreID)
	return nil
}

type mockCheckout struct {
	req    checkout.Request
	userID int64
	result *checkout.Result
	err    error
}

func (m *mockCheckout) PlaceOrder(_ context.Context, userID int64, req checkout.Request) (*checkout.Result, error) {
	m.userID = userID
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockOrders struct {
	order     *domain.Order
	updateErr error
}

func (m *mockOrders) GetOrder(_ context.Context, who domain.Identity, id uuid.UUID) (*domain.Order, error) {
	if m.order == nil || m.order.ID != id || (m.order.UserID != who.UserID && !who.IsAdmin()) {
		return nil, repository.ErrOrderNotFound
	}
	return m.order, nil
}

func (m *mockOrders) ListOrders(_ context.Context, who domain.Identity, _ int) ([]domain.Order, error) {
	if m.order != nil && m.order.UserID == who.UserID {
		return []domain.Order{*m.order}, nil
	}
	return []domain.Order{}, nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, _ domain.Identity, id uuid.UUID, status string) (*domain.Order, error) {
	if m.order == nil || m.order.ID != id {
		return nil, repository.ErrOrderNotFound
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	next := domain.OrderStatus(status)
	if !m.order.Status.CanTransitionTo(next) {
		return nil, repository.ErrIllegalTransition
	}
	m.order.Status = next
	return m.order, nil
}

type mockInventory struct {
	last inventory.Adjustment
}

func (m *mockInventory) AdjustStock(_ context.Context, a inventory.Adjustment) (*inventory.Result, error) {
	m.last = a
	if a.Reason == "" {
		return nil, inventory.ErrReasonRequired
	}
	n, clamped := inventory.Apply(45, a.Type, a.Quantity)
	return &inventory.Result{
		Adjustment: &domain.StockAdjustment{TyreID: a.ProductID, PreviousStock: 45, NewStock: n, Clamped: clamped},
		Status:     inventory.StockStatus(n, 10, 200),
	}, nil
}

func (m *mockInventory) Overview(_ context.Context, status domain.StockStatus) (*inventory.Overview, error) {
	return &inventory.Overview{Items: []domain.StockLevel{}}, nil
}

func (m *mockInventory) History(context.Context, int64, int) ([]domain.StockAdjustment, error) {
	return nil, nil
}

type mockDashboard struct {
	tierActor int64
}

func (m *mockDashboard) DealerStats(_ context.Context, userID int64) (*dashboard.DealerStats, error) {
	st := dashboard.ComputeDealerStats(nil, &domain.Dealer{UserID: userID, TierLevel: 3})
	return &st, nil
}

func (m *mockDashboard) CustomerStats(context.Context, int64) (*dashboard.CustomerStats, error) {
	st := dashboard.ComputeCustomerStats(nil, 2, 1)
	return &st, nil
}

func (m *mockDashboard) SetTier(_ context.Context, _ int64, level int, actorID int64) (domain.Tier, error) {
	if !domain.ValidTierLevel(level) {
		return domain.Tier{}, dashboard.ErrInvalidTier
	}
	m.tierActor = actorID
	return domain.TierFor(level), nil
}

type mockBookings struct {
	created *domain.ServiceBooking
}

func (m *mockBookings) Create(_ context.Context, userID int64, req booking.Request) (*domain.ServiceBooking, error) {
	if req.ServiceType == "" {
		return nil, booking.ErrInvalidServiceType
	}
	m.created = &domain.ServiceBooking{ID: uuid.New(), UserID: userID, ServiceType: domain.ServiceType(req.ServiceType), Status: domain.BookingRequested}
	return m.created, nil
}

func (m *mockBookings) List(context.Context, int64) ([]domain.ServiceBooking, error) {
	return []domain.ServiceBooking{}, nil
}

func (m *mockBookings) Cancel(context.Context, int64, uuid.UUID) (*domain.ServiceBooking, error) {
	return nil, booking.ErrNotCancellable
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

var errDatabaseDown = errors.New("dial tcp: connection refused")
