package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/athometyre/internal/domain"
	r "github.com/fjod/athometyre/internal/repository"
	"github.com/google/uuid"
)

// mockRepository is an in-memory CheckoutRepository. Writes made through
// the CheckoutTx are applied only when fn returns nil and commitErr is nil.
type mockRepository struct {
	mu   sync.Mutex
	txMu sync.Mutex

	user      *domain.User
	cart      []domain.CartLine
	stock     map[int64]int
	coupons   map[string]domain.Coupon
	numbers   map[string]bool
	orders    map[uuid.UUID]*domain.Order
	sessions  map[string]*domain.CheckoutSession
	outbox    []any
	released  []uuid.UUID
	insertErr error
	commitErr error
}

func newMockRepository(lines ...domain.CartLine) *mockRepository {
	m := &mockRepository{
		user:     &domain.User{ID: 7, Email: "asha@example.com", Name: "Asha Rao", Role: domain.RoleCustomer},
		stock:    map[int64]int{},
		coupons:  map[string]domain.Coupon{},
		numbers:  map[string]bool{},
		orders:   map[uuid.UUID]*domain.Order{},
		sessions: map[string]*domain.CheckoutSession{},
	}
	for _, l := range lines {
		m.stock[l.TyreID] = l.Stock
		m.cart = append(m.cart, l)
	}
	return m
}

func sessionKey(userID int64, key string) string {
	return fmt.Sprintf("%d/%s", userID, key)
}

func (m *mockRepository) ClaimCheckoutSession(_ context.Context, s *domain.CheckoutSession) (*domain.CheckoutSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := sessionKey(s.UserID, s.IdempotencyKey)
	if existing, ok := m.sessions[k]; ok {
		cp := *existing
		return &cp, false, nil
	}
	stored := *s
	stored.ID = uuid.New()
	stored.Status = domain.CheckoutStatusInProgress
	m.sessions[k] = &stored
	cp := stored
	return &cp, true, nil
}

func (m *mockRepository) sessionByID(id uuid.UUID) (string, *domain.CheckoutSession) {
	for k, s := range m.sessions {
		if s.ID == id {
			return k, s
		}
	}
	return "", nil
}

func (m *mockRepository) ReleaseCheckoutSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, s := m.sessionByID(id); s != nil && s.Status == domain.CheckoutStatusInProgress {
		delete(m.sessions, k)
		m.released = append(m.released, id)
	}
	return nil
}

func (m *mockRepository) RecordSessionCharge(_ context.Context, id uuid.UUID, txn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, s := m.sessionByID(id); s != nil {
		s.TransactionID = txn
	}
	return nil
}

func (m *mockRepository) MarkSessionReconcile(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, s := m.sessionByID(id); s != nil {
		s.Status = domain.CheckoutStatusReconcile
		s.FailureReason = reason
	}
	return nil
}

func (m *mockRepository) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, r.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockRepository) GetUser(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || m.user.ID != id {
		return nil, r.ErrUserNotFound
	}
	return m.user, nil
}

func (m *mockRepository) InCheckoutTx(_ context.Context, fn func(tx r.CheckoutTx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &mockTx{m: m, decrements: map[int64]int{}}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}

	for id, q := range tx.decrements {
		m.stock[id] -= q
	}
	if tx.order != nil {
		m.orders[tx.order.ID] = tx.order
		m.numbers[tx.order.OrderNumber] = true
	}
	if tx.cleared != nil {
		keep := m.cart[:0]
		for _, l := range m.cart {
			if !tx.cleared[l.TyreID] {
				keep = append(keep, l)
			}
		}
		m.cart = keep
	}
	m.outbox = append(m.outbox, tx.outbox...)
	if tx.completed != uuid.Nil {
		_, s := m.sessionByID(tx.completed)
		s.Status = domain.CheckoutStatusCompleted
		id := tx.order.ID
		s.OrderID = &id
	}
	return nil
}

func (m *mockRepository) sessionStatus(userID int64, key string) (domain.CheckoutStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey(userID, key)]
	if !ok {
		return "", false
	}
	return s.Status, true
}

type mockTx struct {
	m          *mockRepository
	decrements map[int64]int
	order      *domain.Order
	cleared    map[int64]bool
	outbox     []any
	completed  uuid.UUID
}

func (t *mockTx) LockCartLines(context.Context, int64) ([]domain.CartLine, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	out := make([]domain.CartLine, 0, len(t.m.cart))
	for _, l := range t.m.cart {
		l.Stock = t.m.stock[l.TyreID]
		out = append(out, l)
	}
	return out, nil
}

func (t *mockTx) GetCoupon(_ context.Context, code string) (*domain.Coupon, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	c, ok := t.m.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, r.ErrCouponNotFound
	}
	return &c, nil
}

func (t *mockTx) OrderNumberExists(_ context.Context, n string) (bool, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	return t.m.numbers[n], nil
}

func (t *mockTx) InsertOrder(_ context.Context, o *domain.Order) error {
	if t.m.insertErr != nil {
		return t.m.insertErr
	}
	t.order = o
	return nil
}

func (t *mockTx) DecrementStock(_ context.Context, id int64, q int) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.m.stock[id]-t.decrements[id] < q {
		return r.ErrInsufficientStock
	}
	t.decrements[id] += q
	return nil
}

func (t *mockTx) ClearCartLines(_ context.Context, _ int64, ids []int64) error {
	t.cleared = map[int64]bool{}
	for _, id := range ids {
		t.cleared[id] = true
	}
	return nil
}

func (t *mockTx) CompleteCheckoutSession(_ context.Context, sessionID, _ uuid.UUID) error {
	t.completed = sessionID
	return nil
}

func (t *mockTx) AppendOutbox(_ context.Context, _, _ string, payload any) error {
	t.outbox = append(t.outbox, payload)
	return nil
}

type mockCarts struct {
	mu          sync.Mutex
	invalidated []int64
}

func (c *mockCarts) Invalidate(_ context.Context, userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
}
