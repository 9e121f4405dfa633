package repository

import (
	"context"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TyreSort string

const (
	SortPriceAsc  TyreSort = "price_asc"
	SortPriceDesc TyreSort = "price_desc"
	SortName      TyreSort = "name"
	SortNewest    TyreSort = "newest"
	SortRating    TyreSort = "rating"
)

type TyreFilter struct {
	BrandID     int64
	Season      domain.Season
	VehicleType domain.VehicleType
	Width       int
	AspectRatio int
	RimDiameter int
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStock     bool
	Query       string
	Sort        TyreSort
	Limit       int
	Offset      int
}

type VehicleQuery struct {
	Make  string
	Model string
	Year  int
}

type CatalogRepository interface {
	ListTyres(ctx context.Context, f TyreFilter) ([]domain.Tyre, int, error)
	GetTyre(ctx context.Context, id int64) (*domain.Tyre, error)
	FindTyresForVehicle(ctx context.Context, q VehicleQuery) ([]domain.Tyre, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	ListReviews(ctx context.Context, tyreID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) error
}

type CartRepository interface {
	GetCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	AddCartItem(ctx context.Context, userID, tyreID int64, quantity int) error
	UpdateCartItem(ctx context.Context, userID, tyreID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, tyreID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type WishlistRepository interface {
	ListWishlist(ctx context.Context, userID int64) ([]domain.WishlistItem, error)
	AddWishlistItem(ctx context.Context, userID, tyreID int64) (bool, error)
	RemoveWishlistItem(ctx context.Context, userID, tyreID int64) error
}

// CheckoutTx is the write set of one order placement. Every method runs
// inside the same database transaction.
type CheckoutTx interface {
	LockCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	InsertOrder(ctx context.Context, order *domain.Order) error
	DecrementStock(ctx context.Context, tyreID int64, quantity int) error
	ClearCartLines(ctx context.Context, userID int64, tyreIDs []int64) error
	CompleteCheckoutSession(ctx context.Context, sessionID, orderID uuid.UUID) error
	AppendOutbox(ctx context.Context, aggregateID, eventType string, payload any) error
}

type CheckoutRepository interface {
	// ClaimCheckoutSession inserts the session, or returns the stored one
	// when the (user, key) pair was already claimed. The bool is true when
	// the session was created by this call.
	ClaimCheckoutSession(ctx context.Context, s *domain.CheckoutSession) (*domain.CheckoutSession, bool, error)
	ReleaseCheckoutSession(ctx context.Context, id uuid.UUID) error
	RecordSessionCharge(ctx context.Context, id uuid.UUID, transactionID string) error
	MarkSessionReconcile(ctx context.Context, id uuid.UUID, reason string) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	InCheckoutTx(ctx context.Context, fn func(tx CheckoutTx) error) error
}

type OrderRepository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus, refund Refunder) (*domain.Order, error)
}

type InventoryRepository interface {
	// AdjustStock locks the tyre row, lets apply compute the new level and
	// stores it together with the audit row.
	AdjustStock(ctx context.Context, tyreID int64, apply func(current int) domain.StockAdjustment) (*domain.StockAdjustment, *domain.Tyre, error)
	ListStockLevels(ctx context.Context) ([]domain.StockLevel, error)
	ListAdjustments(ctx context.Context, tyreID int64, limit int) ([]domain.StockAdjustment, error)
}

type DashboardRepository interface {
	GetDealer(ctx context.Context, userID int64) (*domain.Dealer, error)
	SetDealerTier(ctx context.Context, userID int64, level int) error
	ListOrdersByUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
	CountWishlist(ctx context.Context, userID int64) (int, error)
	CountUpcomingBookings(ctx context.Context, userID int64, now time.Time) (int, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b *domain.ServiceBooking) error
	ListBookings(ctx context.Context, userID int64) ([]domain.ServiceBooking, error)
	CancelBooking(ctx context.Context, userID int64, id uuid.UUID) (*domain.ServiceBooking, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	GetStuckSessions(ctx context.Context, olderThan time.Duration) ([]*domain.CheckoutSession, error)
	MarkSessionReconcile(ctx context.Context, id uuid.UUID, reason string) error
	ListReconcileSessions(ctx context.Context) ([]*domain.CheckoutSession, error)
}

var (
	_ CatalogRepository   = (*Repository)(nil)
	_ CartRepository      = (*Repository)(nil)
	_ WishlistRepository  = (*Repository)(nil)
	_ CheckoutRepository  = (*Repository)(nil)
	_ OrderRepository     = (*Repository)(nil)
	_ InventoryRepository = (*Repository)(nil)
	_ DashboardRepository = (*Repository)(nil)
	_ BookingRepository   = (*Repository)(nil)
	_ OutboxRepository    = (*Repository)(nil)
)
