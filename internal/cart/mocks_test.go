package cart

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/athometyre/internal/cache"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
)

type mockRepository struct {
	m      sync.Mutex
	lines  map[int64]domain.CartLine
	prices map[int64]string
	reads  atomic.Int32
	err    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{lines: map[int64]domain.CartLine{}}
}

func (m *mockRepository) GetCartLines(context.Context, int64) ([]domain.CartLine, error) {
	m.reads.Add(1)
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CartLine
	for _, l := range m.lines {
		out = append(out, l)
	}
	return out, nil
}

func (m *mockRepository) AddCartItem(_ context.Context, _, tyreID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if tyreID == 404 {
		return repository.ErrProductNotFound
	}
	l := m.lines[tyreID]
	l.TyreID = tyreID
	l.Quantity = min(l.Quantity+quantity, domain.MaxCartQuantity)
	m.lines[tyreID] = l
	return nil
}

func (m *mockRepository) UpdateCartItem(_ context.Context, _, tyreID int64, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	l, ok := m.lines[tyreID]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	l.Quantity = quantity
	m.lines[tyreID] = l
	return nil
}

func (m *mockRepository) RemoveCartItem(_ context.Context, _, tyreID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.lines[tyreID]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(m.lines, tyreID)
	return nil
}

func (m *mockRepository) ClearCart(context.Context, int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.lines = map[int64]domain.CartLine{}
	return nil
}

type mockCache struct {
	m       sync.RWMutex
	carts   map[int64]*domain.Cart
	deletes int
	err     error
	setDone chan struct{}
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[int64]*domain.Cart{}, setDone: make(chan struct{}, 16)}
}

func (c *mockCache) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	cart, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mockCache) Set(_ context.Context, userID int64, cart *domain.Cart) error {
	c.m.Lock()
	c.carts[userID] = cart
	c.m.Unlock()
	c.setDone <- struct{}{}
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.deletes++
	delete(c.carts, userID)
	return c.err
}

func (c *mockCache) cached(userID int64) *domain.Cart {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.carts[userID]
}

type mockWishlistRepository struct {
	items map[int64]bool
}

func (m *mockWishlistRepository) ListWishlist(context.Context, int64) ([]domain.WishlistItem, error) {
	var out []domain.WishlistItem
	for id := range m.items {
		out = append(out, domain.WishlistItem{TyreID: id})
	}
	return out, nil
}

func (m *mockWishlistRepository) AddWishlistItem(_ context.Context, _, tyreID int64) (bool, error) {
	if m.items[tyreID] {
		return false, nil
	}
	m.items[tyreID] = true
	return true, nil
}

func (m *mockWishlistRepository) RemoveWishlistItem(_ context.Context, _, tyreID int64) error {
	if !m.items[tyreID] {
		return repository.ErrNotFound
	}
	delete(m.items, tyreID)
	return nil
}
