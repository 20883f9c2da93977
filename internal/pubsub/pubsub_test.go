package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectBatch(t *testing.T) {
	msgs := make(chan amqp091.Delivery, 5)
	for i := 2; i <= 5; i++ {
		msgs <- amqp091.Delivery{DeliveryTag: uint64(i)}
	}

	batch := collectBatch(amqp091.Delivery{DeliveryTag: 1}, msgs, 3)
	require.Len(t, batch, 3)
	assert.Equal(t, uint64(1), batch[0].DeliveryTag)
	assert.Equal(t, uint64(3), batch[2].DeliveryTag)

	batch = collectBatch(<-msgs, msgs, 3)
	assert.Len(t, batch, 2, "only what is already waiting")
}

func TestToRecords(t *testing.T) {
	records := toRecords([]amqp091.Delivery{
		{MessageId: "m1", Body: []byte("a")},
		{DeliveryTag: 7, Body: []byte("b")},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].ID)
	assert.Equal(t, "tag-7", records[1].ID)
	assert.Equal(t, []byte("b"), records[1].Body)
}

func TestInlinePublisher(t *testing.T) {
	got := make(chan []byte, 1)
	p := NewInlinePublisher(func(ctx context.Context, body []byte) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got <- body
	}, time.Minute)

	body := []byte(`{"object":"whatsapp_business_account"}`)
	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Publish(reqCtx, body))
	cancel()
	body[0] = 'X'

	select {
	case b := <-got:
		assert.Equal(t, `{"object":"whatsapp_business_account"}`, string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	assert.NoError(t, p.Close())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, maxDelay, backoff(time.Second, 10))
}
