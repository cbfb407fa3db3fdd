package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Publish(context.Background(), Event{Type: EventCommentPending}))

	assert.NoError(t, NewNotifier(nil).Publish(context.Background(), Event{Type: EventCommentPending}))
}

func TestNotifier_LocalDeliveryWithoutRedis(t *testing.T) {
	n := NewNotifier(nil)
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(7, nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), Event{Type: EventPostStatusChanged, Payload: map[string]any{"postId": 3}}))

	select {
	case raw := <-client.Send:
		var got Event
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, EventPostStatusChanged, got.Type)
		assert.False(t, got.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNotifier_RedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 1)
	require.NoError(t, n.StartSubscriber(ctx, func(p string) { payloads <- p }))
	require.NoError(t, n.Publish(context.Background(), Event{Type: EventCommentPending, Payload: map[string]any{"commentId": 9}}))

	select {
	case p := <-payloads:
		assert.Contains(t, p, `"type":"comment.pending"`)
		assert.Contains(t, p, `"commentId":9`)
	case <-time.After(2 * time.Second):
		t.Fatal("no message from redis")
	}
}

func TestHub_LimitsAndUnregister(t *testing.T) {
	hub := NewHub()
	var clients []*Client
	for i := 0; i < maxConnsPerUser; i++ {
		c, err := hub.Register(1, nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrConnectionLimit)

	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.Count())

	hub.Unregister(clients[0])
	hub.Unregister(clients[0])
	assert.Equal(t, maxConnsPerUser, hub.Count())

	_, open := <-clients[0].Send
	assert.False(t, open)

	hub.Broadcast("hello")
	assert.Equal(t, []byte("hello"), <-other.Send)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())
	assert.False(t, clients[1].TrySend([]byte("late")))
}
