package cart

import (
	"context"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
)

type Wishlist struct {
	repo repository.WishlistRepository
}

func NewWishlist(repo repository.WishlistRepository) *Wishlist {
	return &Wishlist{repo: repo}
}

func (w *Wishlist) List(ctx context.Context, userID int64) ([]domain.WishlistItem, error) {
	items, err := w.repo.ListWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return items, nil
}

// Add is a no-op when the tyre is already on the list; the bool reports
// whether a row was created.
func (w *Wishlist) Add(ctx context.Context, userID, tyreID int64) (bool, error) {
	return w.repo.AddWishlistItem(ctx, userID, tyreID)
}

func (w *Wishlist) Remove(ctx context.Context, userID, tyreID int64) error {
	return w.repo.RemoveWishlistItem(ctx, userID, tyreID)
}
