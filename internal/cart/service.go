package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fjod/athometyre/internal/cache"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", domain.MaxCartQuantity)

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo repository.CartRepository, c cache.CartCache, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:  repo,
		cache: c,
		log:   log,
		now:   time.Now,
	}
}

// GetCart returns the cart with current prices. Concurrent misses for the
// same user share one database read.
func (s *Service) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		if s.cache != nil {
			cart, err := s.cache.Get(ctx, userID)
			if err == nil {
				return cart, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				s.log.WarnContext(ctx, "cache get error", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}

		lines, err := s.repo.GetCartLines(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}
		cart := &domain.Cart{
			UserID:    userID,
			Lines:     lines,
			UpdatedAt: s.now().UTC(),
		}
		if cart.Lines == nil {
			cart.Lines = []domain.CartLine{}
		}
		cart.Recalculate()

		if s.cache != nil {
			go func() {
				if err := s.cache.Set(context.Background(), userID, cart); err != nil {
					s.log.Warn("cache set error", slog.Int64("user_id", userID), slog.Any("error", err))
				}
			}()
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem adds quantity to the line for tyreID, creating it if needed.
// The stored quantity never exceeds the cart maximum.
func (s *Service) AddItem(ctx context.Context, userID, tyreID int64, quantity int) error {
	if quantity < 1 || quantity > domain.MaxCartQuantity {
		return ErrInvalidQuantity
	}
	if err := s.repo.AddCartItem(ctx, userID, tyreID, quantity); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, tyreID int64, quantity int) error {
	if quantity < 1 || quantity > domain.MaxCartQuantity {
		return ErrInvalidQuantity
	}
	if err := s.repo.UpdateCartItem(ctx, userID, tyreID, quantity); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, tyreID int64) error {
	if err := s.repo.RemoveCartItem(ctx, userID, tyreID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached cart. Failures are logged; the entry then
// expires on its TTL.
func (s *Service) Invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		s.log.WarnContext(ctx, "cache invalidate error", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}
