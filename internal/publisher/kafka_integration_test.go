package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "athometyre-orders-test"

func setupKafka(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestOutboxPoller_PublishesToKafka(t *testing.T) {
	broker := setupKafka(t)
	createTopic(t, broker, testTopic)

	payload, err := json.Marshal(domain.OrderPlacedEvent{OrderID: "order-123", OrderNumber: "ATT-20260315-ABCDEF", UserID: 7})
	require.NoError(t, err)
	repo := &mockRepository{events: []*domain.OutboxEvent{{
		ID: 1, AggregateID: "order-123", EventType: domain.EventOrderPlaced, Payload: payload, CreatedAt: time.Now(),
	}}}

	writer := NewKafkaWriter(testTopic, broker)
	writer.WriteTimeout = 10 * time.Second
	defer writer.Close()

	p := NewOutboxPoller(repo, writer, Config{EventTick: 500 * time.Millisecond}, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go p.Run(ctx)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    testTopic,
		GroupID:  "publisher-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-123", string(msg.Key))

	var got domain.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "ATT-20260315-ABCDEF", got.OrderNumber)

	require.Eventually(t, func() bool { return len(repo.processedIDs()) == 1 }, 5*time.Second, 100*time.Millisecond)
}
