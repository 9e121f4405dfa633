package notifier

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

// mockReader hands out queued messages and stops the run once drained.
type mockReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	stop      context.CancelFunc
	closed    bool
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		m.stop()
		return kafka.Message{}, context.Canceled
	}
	msg := m.queue[0]
	m.queue = m.queue[1:]
	return msg, nil
}

func (m *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockReader) Close() error {
	m.closed = true
	return nil
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []Email
	failures int
	calls    int
}

func (m *mockMailer) Send(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp relay unavailable")
	}
	m.sent = append(m.sent, e)
	return nil
}
