package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type mockRepository struct {
	mu            sync.Mutex
	events        []*domain.OutboxEvent
	fetchErr      error
	markErr       error
	processed     []int64
	stuck         []*domain.CheckoutSession
	stuckErr      error
	stuckAfter    time.Duration
	reconciled    []uuid.UUID
	reconcileErrs map[uuid.UUID]error
}

func (m *mockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !m.isProcessed(e.ID) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) isProcessed(id int64) bool {
	for _, p := range m.processed {
		if p == id {
			return true
		}
	}
	return false
}

func (m *mockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockRepository) GetStuckSessions(_ context.Context, olderThan time.Duration) ([]*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stuckAfter = olderThan
	if m.stuckErr != nil {
		return nil, m.stuckErr
	}
	return m.stuck, nil
}

func (m *mockRepository) MarkSessionReconcile(_ context.Context, id uuid.UUID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reconcileErrs[id]; err != nil {
		return err
	}
	m.reconciled = append(m.reconciled, id)
	return nil
}

func (m *mockRepository) ListReconcileSessions(context.Context) ([]*domain.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (m *mockRepository) processedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.processed...)
}

type mockWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	failOn   string
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == w.failOn {
			return errors.New("broker not available")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}
