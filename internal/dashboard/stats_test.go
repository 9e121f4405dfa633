package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orders(statuses ...domain.OrderStatus) []domain.Order {
	out := make([]domain.Order, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, domain.Order{
			ID:          uuid.New(),
			OrderNumber: "ATT-20260101-" + string(rune('A'+i%26)) + "AAAAA",
			Status:      s,
			TotalAmount: decimal.NewFromInt(1000),
		})
	}
	return out
}

func repeat(s domain.OrderStatus, n int) []domain.OrderStatus {
	out := make([]domain.OrderStatus, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestDiscountRate(t *testing.T) {
	tests := []struct {
		orders int
		want   string
	}{
		{0, "0.05"},
		{20, "0.05"},
		{21, "0.10"},
		{50, "0.10"},
		{51, "0.15"},
	}
	for _, tt := range tests {
		assert.True(t, DiscountRate(tt.orders).Equal(decimal.RequireFromString(tt.want)), "orders=%d", tt.orders)
	}
}

func TestComputeDealerStats(t *testing.T) {
	list := orders(
		domain.OrderStatusDelivered,
		domain.OrderStatusPending,
		domain.OrderStatusShipped,
		domain.OrderStatusCancelled,
		domain.OrderStatusDelivered,
		domain.OrderStatusConfirmed,
	)
	list[0].TotalAmount = decimal.RequireFromString("2500.50")

	st := ComputeDealerStats(list, &domain.Dealer{TierLevel: 4})
	assert.Equal(t, 6, st.TotalOrders)
	assert.Equal(t, 2, st.DeliveredOrders)
	assert.Equal(t, 3, st.PendingOrders)
	assert.True(t, st.TotalRevenue.Equal(decimal.RequireFromString("6500.50")))
	assert.True(t, st.AverageOrderValue.Equal(decimal.RequireFromString("1300.10")))
	assert.Equal(t, domain.Tier{Level: 4, Name: "Platinum"}, st.Tier)
	assert.True(t, st.VolumeDiscountRate.Equal(decimal.RequireFromString("0.05")))
	assert.Len(t, st.RecentOrders, 5)
	assert.Equal(t, list[0].ID, st.RecentOrders[0].ID)
}

func TestComputeDealerStats_TierIndependentOfVolume(t *testing.T) {
	st := ComputeDealerStats(orders(repeat(domain.OrderStatusDelivered, 60)...), &domain.Dealer{TierLevel: 1})
	assert.Equal(t, "Bronze", st.Tier.Name)
	assert.True(t, st.VolumeDiscountRate.Equal(decimal.RequireFromString("0.15")))
}

func TestComputeDealerStats_NoOrders(t *testing.T) {
	st := ComputeDealerStats(nil, nil)
	assert.Zero(t, st.TotalOrders)
	assert.True(t, st.AverageOrderValue.IsZero())
	assert.NotNil(t, st.RecentOrders)
	assert.Equal(t, "Bronze", st.Tier.Name)
}

func TestComputeCustomerStats(t *testing.T) {
	st := ComputeCustomerStats(orders(
		domain.OrderStatusProcessing,
		domain.OrderStatusCancelled,
		domain.OrderStatusDelivered,
	), 4, 1)
	assert.Equal(t, 3, st.TotalOrders)
	assert.Equal(t, 1, st.ActiveOrders)
	assert.True(t, st.TotalSpent.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 4, st.WishlistCount)
	assert.Equal(t, 1, st.UpcomingBookings)
	assert.Len(t, st.RecentOrders, 3)
}

type mockDashboardRepo struct {
	dealer  *domain.Dealer
	orders  []domain.Order
	tierSet int
	since   time.Time
}

func (m *mockDashboardRepo) GetDealer(context.Context, int64) (*domain.Dealer, error) {
	if m.dealer == nil {
		return nil, repository.ErrDealerNotFound
	}
	return m.dealer, nil
}

func (m *mockDashboardRepo) SetDealerTier(_ context.Context, _ int64, level int) error {
	if m.dealer == nil {
		return repository.ErrDealerNotFound
	}
	m.tierSet = level
	return nil
}

func (m *mockDashboardRepo) ListOrdersByUser(context.Context, int64, int) ([]domain.Order, error) {
	return m.orders, nil
}

func (m *mockDashboardRepo) CountWishlist(context.Context, int64) (int, error) { return 2, nil }

func (m *mockDashboardRepo) CountUpcomingBookings(_ context.Context, _ int64, now time.Time) (int, error) {
	m.since = now
	return 1, nil
}

func TestService(t *testing.T) {
	repo := &mockDashboardRepo{orders: orders(domain.OrderStatusPending)}
	svc := NewService(repo, nil)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	_, err := svc.DealerStats(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrDealerNotFound)

	cs, err := svc.CustomerStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cs.WishlistCount)
	assert.Equal(t, fixed, repo.since)

	_, err = svc.SetTier(ctx, 1, 6, 99)
	assert.ErrorIs(t, err, ErrInvalidTier)
	_, err = svc.SetTier(ctx, 1, 3, 99)
	assert.ErrorIs(t, err, repository.ErrDealerNotFound)

	repo.dealer = &domain.Dealer{UserID: 1, TierLevel: 1}
	tier, err := svc.SetTier(ctx, 1, 3, 99)
	require.NoError(t, err)
	assert.Equal(t, "Gold", tier.Name)
	assert.Equal(t, 3, repo.tierSet)

	ds, err := svc.DealerStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.PendingOrders)
}
