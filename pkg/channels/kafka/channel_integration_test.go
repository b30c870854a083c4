//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestCreateChannel_Kafka(t *testing.T) {
	ctx := context.Background()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	pub, sub, err := CreateChannel(watermill.NopLogger{}, "weatherflow-test", brokers)
	require.NoError(t, err)

	defer func() {
		_ = pub.Close()
		_ = sub.Close()
	}()

	const topic = "weatherflow.node.formatter.input"

	subCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	messages, err := sub.Subscribe(subCtx, topic)
	require.NoError(t, err)

	// the consumer group joins asynchronously, so keep publishing until one arrives
	payload := []byte(`{"_msgid":"m1","payload":12}`)

	for {
		require.NoError(t, pub.Publish(topic, message.NewMessage(watermill.NewULID(), payload)))

		select {
		case msg := <-messages:
			assert.JSONEq(t, string(payload), string(msg.Payload))
			msg.Ack()

			return
		case <-time.After(2 * time.Second):
		case <-subCtx.Done():
			t.Fatal("no message consumed from kafka")
		}
	}
}
