package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
)

var ErrInvalidTier = errors.New("tier level must be between 1 and 5")

type Service struct {
	repo repository.DashboardRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo repository.DashboardRepository, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) DealerStats(ctx context.Context, userID int64) (*DealerStats, error) {
	dealer, err := s.repo.GetDealer(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrdersByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load dealer orders: %w", err)
	}
	st := ComputeDealerStats(orders, dealer)
	return &st, nil
}

func (s *Service) CustomerStats(ctx context.Context, userID int64) (*CustomerStats, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	wishlist, err := s.repo.CountWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count wishlist: %w", err)
	}
	bookings, err := s.repo.CountUpcomingBookings(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	st := ComputeCustomerStats(orders, wishlist, bookings)
	return &st, nil
}

// SetTier changes a dealer's tier. Tiers are set by staff only.
func (s *Service) SetTier(ctx context.Context, dealerID int64, level int, actorID int64) (domain.Tier, error) {
	if !domain.ValidTierLevel(level) {
		return domain.Tier{}, ErrInvalidTier
	}
	if err := s.repo.SetDealerTier(ctx, dealerID, level); err != nil {
		return domain.Tier{}, err
	}
	tier := domain.TierFor(level)
	s.log.InfoContext(ctx, "dealer tier changed",
		slog.Int64("dealer_id", dealerID),
		slog.Int64("actor_id", actorID),
		slog.String("tier", tier.Name))
	return tier, nil
}
