package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/2beens/jogtracker/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	streamChannelPrefix  = "jogtracker:jogs:"
	streamChannelPattern = streamChannelPrefix + "*"
	streamClientBuffer   = 16

	relayQueueSize      = 64
	relayPublishTimeout = 2 * time.Second
)

// StreamClient is one websocket connection waiting for jog updates of a user.
type StreamClient struct {
	UserID string
	Send   chan []byte

	closeOnce sync.Once
}

// Hub fans jog updates out to the stream clients of a user. With a redis
// client, updates are also relayed to the other service instances.
type Hub struct {
	redis      *redis.Client
	pubsub     *redis.PubSub
	instanceID string
	metrics    *metrics.Manager

	// updates waiting to be published, drained by publishToRedis
	relayQueue  chan relayPublish
	relayCtx    context.Context
	relayCancel context.CancelFunc

	mu      sync.RWMutex
	clients map[string]map[*StreamClient]struct{}
	closed  bool

	wg sync.WaitGroup
}

type relayPublish struct {
	channel string
	msg     []byte
}

type relayedMessage struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// NewHub creates the hub; redisClient and metricsManager may be nil.
func NewHub(ctx context.Context, redisClient *redis.Client, metricsManager *metrics.Manager) (*Hub, error) {
	h := &Hub{
		redis:      redisClient,
		instanceID: uuid.NewString(),
		metrics:    metricsManager,
		clients:    map[string]map[*StreamClient]struct{}{},
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(ctx, streamChannelPattern)
		// wait for the subscription to be confirmed
		if _, err := h.pubsub.Receive(ctx); err != nil {
			_ = h.pubsub.Close()
			return nil, err
		}

		h.relayQueue = make(chan relayPublish, relayQueueSize)
		h.relayCtx, h.relayCancel = context.WithCancel(context.Background())

		h.wg.Add(2)
		go func() {
			defer h.wg.Done()
			h.relayFromRedis()
		}()
		go func() {
			defer h.wg.Done()
			h.publishToRedis()
		}()
	}

	return h, nil
}

// Register adds a stream client for userID. Once the hub is closed the
// returned client is not registered and its Send channel is already closed.
func (h *Hub) Register(userID string) *StreamClient {
	client := &StreamClient{
		UserID: userID,
		Send:   make(chan []byte, streamClientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		client.closeOnce.Do(func() {
			close(client.Send)
		})
		return client
	}
	if h.clients[userID] == nil {
		h.clients[userID] = map[*StreamClient]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	if h.metrics != nil {
		h.metrics.GaugeStreamClients.Inc()
	}

	return client
}

// Unregister removes the client and closes its Send channel. Safe to call twice.
func (h *Hub) Unregister(client *StreamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		if _, registered := userClients[client]; registered {
			delete(userClients, client)
			if h.metrics != nil {
				h.metrics.GaugeStreamClients.Dec()
			}
		}
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	client.closeOnce.Do(func() {
		close(client.Send)
	})
}

func (h *Hub) ClientsCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast delivers payload to the local clients of userID and queues it
// for the other instances. It never waits on redis.
func (h *Hub) Broadcast(userID string, payload []byte) {
	h.deliver(userID, payload)

	if h.relayQueue == nil {
		return
	}

	msg, err := json.Marshal(relayedMessage{Origin: h.instanceID, Payload: payload})
	if err != nil {
		log.Errorf("stream hub, marshal relayed message: %s", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.relayQueue <- relayPublish{channel: streamChannelPrefix + userID, msg: msg}:
	default:
		log.Warnf("stream hub, relay queue full, update for user [%s] not relayed", userID)
	}
}

func (h *Hub) publishToRedis() {
	for p := range h.relayQueue {
		if h.relayCtx.Err() != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(h.relayCtx, relayPublishTimeout)
		if err := h.redis.Publish(ctx, p.channel, p.msg).Err(); err != nil {
			log.Errorf("stream hub, redis publish: %s", err)
		}
		cancel()
	}
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			log.Warnf("stream hub, client of user [%s] is too slow, dropping update", userID)
		}
	}
}

func (h *Hub) relayFromRedis() {
	for msg := range h.pubsub.Channel() {
		userID := strings.TrimPrefix(msg.Channel, streamChannelPrefix)
		if userID == "" || userID == msg.Channel {
			continue
		}

		var relayed relayedMessage
		if err := json.Unmarshal([]byte(msg.Payload), &relayed); err != nil {
			log.Errorf("stream hub, unmarshal relayed message: %s", err)
			continue
		}
		// own messages were delivered locally already
		if relayed.Origin == h.instanceID {
			continue
		}
		h.deliver(userID, relayed.Payload)
	}
}

// Close stops relaying from redis and disconnects all clients. Clients
// registering afterwards are disconnected right away.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	if h.relayQueue != nil {
		h.relayCancel()
		close(h.relayQueue)
	}
	if h.pubsub != nil {
		if err := h.pubsub.Close(); err != nil {
			log.Errorf("stream hub, close pubsub: %s", err)
		}
	}
	h.wg.Wait()

	h.mu.Lock()
	var all []*StreamClient
	for _, userClients := range h.clients {
		for c := range userClients {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
