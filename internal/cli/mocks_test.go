package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/spf13/cobra"
)

type mockStore struct {
	version    uint
	dirty      bool
	migrateErr error
	downSteps  int
	closed     bool

	tyres   map[int64]*domain.Tyre
	audit   []domain.StockAdjustment
	levels  []domain.StockLevel
	dealers map[int64]*domain.Dealer

	reconcile []*domain.CheckoutSession

	brands       []domain.Brand
	created      []domain.Tyre
	existing     map[string]bool
	users        []domain.User
	savedDealers []domain.Dealer
	coupons      []domain.Coupon
}

func newMockStore() *mockStore {
	return &mockStore{
		version: 3,
		tyres: map[int64]*domain.Tyre{
			7: {ID: 7, Name: "Apollo Alnac 4G", Stock: 45, ReorderPoint: 10, MaxStock: 200},
		},
		dealers:  map[int64]*domain.Dealer{12: {UserID: 12, BusinessName: "Ravi Tyres", TierLevel: 1}},
		existing: map[string]bool{},
	}
}

func (m *mockStore) RunMigrations() error {
	if m.migrateErr != nil {
		return m.migrateErr
	}
	m.version = 3
	return nil
}

func (m *mockStore) MigrateDown(steps int) error {
	m.downSteps = steps
	m.version -= uint(steps)
	return nil
}

func (m *mockStore) MigrationVersion() (uint, bool, error) {
	return m.version, m.dirty, nil
}

func (m *mockStore) AdjustStock(_ context.Context, id int64, apply func(int) domain.StockAdjustment) (*domain.StockAdjustment, *domain.Tyre, error) {
	t, ok := m.tyres[id]
	if !ok {
		return nil, nil, repository.ErrProductNotFound
	}
	adj := apply(t.Stock)
	adj.TyreID = id
	adj.PreviousStock = t.Stock
	t.Stock = adj.NewStock
	m.audit = append(m.audit, adj)
	cp := *t
	return &adj, &cp, nil
}

func (m *mockStore) ListStockLevels(context.Context) ([]domain.StockLevel, error) {
	return m.levels, nil
}

func (m *mockStore) ListAdjustments(context.Context, int64, int) ([]domain.StockAdjustment, error) {
	return m.audit, nil
}

func (m *mockStore) GetDealer(_ context.Context, userID int64) (*domain.Dealer, error) {
	d, ok := m.dealers[userID]
	if !ok {
		return nil, repository.ErrDealerNotFound
	}
	return d, nil
}

func (m *mockStore) SetDealerTier(_ context.Context, userID int64, level int) error {
	d, ok := m.dealers[userID]
	if !ok {
		return repository.ErrDealerNotFound
	}
	d.TierLevel = level
	return nil
}

func (m *mockStore) ListOrdersByUser(context.Context, int64, int) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockStore) CountWishlist(context.Context, int64) (int, error) {
	return 0, nil
}

func (m *mockStore) CountUpcomingBookings(context.Context, int64, time.Time) (int, error) {
	return 0, nil
}

func (m *mockStore) ListReconcileSessions(context.Context) ([]*domain.CheckoutSession, error) {
	return m.reconcile, nil
}

func (m *mockStore) CreateBrand(_ context.Context, b *domain.Brand) error {
	b.ID = int64(len(m.brands) + 1)
	m.brands = append(m.brands, *b)
	return nil
}

func (m *mockStore) CreateTyre(_ context.Context, t *domain.Tyre) error {
	if m.existing[t.Name] {
		return fmt.Errorf("tyre %q: %w", t.Name, repository.ErrAlreadyExists)
	}
	t.ID = int64(len(m.created) + 1)
	m.created = append(m.created, *t)
	return nil
}

func (m *mockStore) CreateUser(_ context.Context, u *domain.User) error {
	u.ID = int64(100 + len(m.users))
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) UpsertDealer(_ context.Context, d *domain.Dealer) error {
	m.savedDealers = append(m.savedDealers, *d)
	return nil
}

func (m *mockStore) CreateCoupon(_ context.Context, c *domain.Coupon) error {
	m.coupons = append(m.coupons, *c)
	return nil
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func testOptions(store *mockStore, format string) *RootOptions {
	return &RootOptions{
		Format:  format,
		Timeout: 5 * time.Second,
		Connect: func() (Store, error) { return store, nil },
	}
}
