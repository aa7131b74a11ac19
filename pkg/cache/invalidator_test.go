package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisInvalidator_Publishes(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "church-ops:invalidate")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	inv := NewRedisInvalidator(client, "church-ops:invalidate", zap.NewNop())
	inv.Invalidate(ctx, EventTag("evt-1"), AssignmentTag("asg-1"))

	select {
	case msg := <-sub.Channel():
		var got Invalidation
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, []string{"event:evt-1", "assignment:asg-1"}, got.Tags)
		assert.False(t, got.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation received")
	}
}

func TestRedisInvalidator_ServerDownIsSwallowed(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	inv := NewRedisInvalidator(client, "ch", zap.NewNop())
	assert.NotPanics(t, func() {
		inv.Invalidate(context.Background(), ProfileTag("p"))
	})
}

func TestConnect(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := Connect(context.Background(), server.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()
}
