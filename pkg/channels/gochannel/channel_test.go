package gochannel

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannel_PreservesOrder(t *testing.T) {
	pub, sub, err := CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)
	assert.Same(t, pub, sub)

	defer func() { _ = pub.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const topic = "weatherflow.node.merge.input"

	messages, err := sub.Subscribe(ctx, topic)
	require.NoError(t, err)

	received := make(chan string, 20)

	go func() {
		for msg := range messages {
			received <- string(msg.Payload)
			msg.Ack()
		}
	}()

	for i := range 20 {
		require.NoError(t, pub.Publish(topic, message.NewMessage(watermill.NewULID(), []byte(strconv.Itoa(i)))))
	}

	for i := range 20 {
		select {
		case payload := <-received:
			assert.Equal(t, strconv.Itoa(i), payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}
}

func TestCreateEventChannel_DoesNotBlock(t *testing.T) {
	pub, sub, err := CreateEventChannel(watermill.NopLogger{})
	require.NoError(t, err)

	defer func() { _ = pub.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := sub.Subscribe(ctx, "weatherflow.events")
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for range 5 {
			_ = pub.Publish("weatherflow.events", message.NewMessage(watermill.NewULID(), []byte("e")))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked without acks")
	}

	msg := <-messages
	msg.Ack()
}
