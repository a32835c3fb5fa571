package tracker_test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2beens/jogtracker/internal/telemetry/metrics"
	"github.com/2beens/jogtracker/internal/tracker"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, client *tracker.StreamClient) []byte {
	t.Helper()
	select {
	case msg, ok := <-client.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for a stream message")
		return nil
	}
}

func assertNothingReceived(t *testing.T, client *tracker.StreamClient) {
	t.Helper()
	select {
	case msg := <-client.Send:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_LocalBroadcast(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	hub, err := tracker.NewHub(context.Background(), nil, metricsManager)
	require.NoError(t, err)
	defer hub.Close()

	alice1 := hub.Register("alice")
	alice2 := hub.Register("alice")
	bob := hub.Register("bob")

	assert.Equal(t, 2, hub.ClientsCount("alice"))
	assert.Equal(t, 1, hub.ClientsCount("bob"))
	assert.Equal(t, float64(3), testutil.ToFloat64(metricsManager.GaugeStreamClients))

	hub.Broadcast("alice", []byte(`{"type":"jogs"}`))

	assert.Equal(t, `{"type":"jogs"}`, string(receive(t, alice1)))
	assert.Equal(t, `{"type":"jogs"}`, string(receive(t, alice2)))
	assertNothingReceived(t, bob)
}

func TestHub_UnregisterTwice(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	hub, err := tracker.NewHub(context.Background(), nil, metricsManager)
	require.NoError(t, err)
	defer hub.Close()

	client := hub.Register("alice")
	hub.Unregister(client)
	hub.Unregister(client)

	_, open := <-client.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientsCount("alice"))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeStreamClients))

	// nobody left to deliver to
	hub.Broadcast("alice", []byte("x"))
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub, err := tracker.NewHub(context.Background(), nil, nil)
	require.NoError(t, err)
	defer hub.Close()

	client := hub.Register("alice")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast("alice", []byte("update"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	assert.Equal(t, "update", string(receive(t, client)))
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, err := tracker.NewHub(context.Background(), nil, nil)
	require.NoError(t, err)

	client := hub.Register("alice")
	hub.Close()

	_, open := <-client.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientsCount("alice"))
}

func TestHub_RegisterAfterClose(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	hub, err := tracker.NewHub(context.Background(), nil, metricsManager)
	require.NoError(t, err)
	hub.Close()

	client := hub.Register("alice")
	_, open := <-client.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientsCount("alice"))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeStreamClients))

	hub.Unregister(client)
	hub.Close()
}

// unresponsiveRedis accepts connections and never answers.
func unresponsiveRedis(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		_ = l.Close()
		<-done
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return l.Addr().String()
}

func TestHub_BroadcastDoesNotWaitForRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	stuckAddr := unresponsiveRedis(t)

	// the subscription gets the first connection, publishes end up on a redis that never answers
	var dials atomic.Int32
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			if dials.Add(1) == 1 {
				return d.DialContext(ctx, network, addr)
			}
			return d.DialContext(ctx, network, stuckAddr)
		},
	})
	defer rdb.Close()

	hub, err := tracker.NewHub(context.Background(), rdb, nil)
	require.NoError(t, err)
	client := hub.Register("alice")

	start := time.Now()
	for i := 0; i < 3; i++ {
		hub.Broadcast("alice", []byte("update"))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "update", string(receive(t, client)))
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		hub.Close()
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("hub close waited on redis")
	}
}

func TestHub_RelayBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdbA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdbB.Close()

	hubA, err := tracker.NewHub(ctx, rdbA, nil)
	require.NoError(t, err)
	defer hubA.Close()
	hubB, err := tracker.NewHub(ctx, rdbB, nil)
	require.NoError(t, err)
	defer hubB.Close()

	onA := hubA.Register("alice")
	onB := hubB.Register("alice")
	bobOnB := hubB.Register("bob")

	hubA.Broadcast("alice", []byte(`{"n":1}`))

	assert.JSONEq(t, `{"n":1}`, string(receive(t, onA)))
	assert.JSONEq(t, `{"n":1}`, string(receive(t, onB)))

	// the relayed copy of its own message is skipped by hub A
	assertNothingReceived(t, onA)
	assertNothingReceived(t, bobOnB)
}
