package dashboard

import (
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const recentOrderCount = 5

var (
	rateHigh = decimal.RequireFromString("0.15")
	rateMid  = decimal.RequireFromString("0.10")
	rateBase = decimal.RequireFromString("0.05")
)

// DiscountRate is the dealer volume discount for a lifetime order count.
// It is reported on the dashboard only and is independent of the tier.
func DiscountRate(totalOrders int) decimal.Decimal {
	switch {
	case totalOrders > 50:
		return rateHigh
	case totalOrders > 20:
		return rateMid
	default:
		return rateBase
	}
}

type RecentOrder struct {
	ID          uuid.UUID          `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type DealerStats struct {
	TotalOrders        int             `json:"totalOrders"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	PendingOrders      int             `json:"pendingOrders"`
	DeliveredOrders    int             `json:"deliveredOrders"`
	AverageOrderValue  decimal.Decimal `json:"averageOrderValue"`
	Tier               domain.Tier     `json:"tier"`
	VolumeDiscountRate decimal.Decimal `json:"volumeDiscountRate"`
	RecentOrders       []RecentOrder   `json:"recentOrders"`
}

type CustomerStats struct {
	TotalOrders      int             `json:"totalOrders"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	ActiveOrders     int             `json:"activeOrders"`
	WishlistCount    int             `json:"wishlistCount"`
	UpcomingBookings int             `json:"upcomingBookings"`
	RecentOrders     []RecentOrder   `json:"recentOrders"`
}

// ComputeDealerStats summarises a dealer's orders, newest first. Cancelled
// orders count towards the order total but not towards revenue.
func ComputeDealerStats(orders []domain.Order, dealer *domain.Dealer) DealerStats {
	st := DealerStats{
		TotalOrders:        len(orders),
		TotalRevenue:       decimal.Zero,
		AverageOrderValue:  decimal.Zero,
		Tier:               domain.TierFor(1),
		VolumeDiscountRate: DiscountRate(len(orders)),
		RecentOrders:       recent(orders),
	}
	if dealer != nil {
		st.Tier = domain.TierFor(dealer.TierLevel)
	}

	billed := 0
	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusCancelled:
			continue
		case domain.OrderStatusDelivered:
			st.DeliveredOrders++
		default:
			st.PendingOrders++
		}
		billed++
		st.TotalRevenue = st.TotalRevenue.Add(o.TotalAmount)
	}
	if billed > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(int64(billed))).Round(2)
	}
	return st
}

func ComputeCustomerStats(orders []domain.Order, wishlistCount, upcomingBookings int) CustomerStats {
	st := CustomerStats{
		TotalOrders:      len(orders),
		TotalSpent:       decimal.Zero,
		WishlistCount:    wishlistCount,
		UpcomingBookings: upcomingBookings,
		RecentOrders:     recent(orders),
	}
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		if o.Status.IsActive() {
			st.ActiveOrders++
		}
		st.TotalSpent = st.TotalSpent.Add(o.TotalAmount)
	}
	return st
}

func recent(orders []domain.Order) []RecentOrder {
	n := min(len(orders), recentOrderCount)
	out := make([]RecentOrder, 0, n)
	for _, o := range orders[:n] {
		out = append(out, RecentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
		})
	}
	return out
}
