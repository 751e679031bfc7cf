package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"backend-fittrack/internal/workout"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub fans snapshots out to websocket clients watching a workout session.
// With redis configured, every broadcast goes through redis pub/sub so that
// clients connected to other instances receive it too.
type Hub struct {
	redis          *redis.Client
	logger         *zap.Logger
	publishTimeout time.Duration
	clients        map[string]map[*Client]struct{}
	mu             sync.RWMutex

	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}
}

const defaultPublishTimeout = 2 * time.Second

type Client struct {
	SessionID string
	Send      chan []byte
}

// Message is the payload written to websocket clients.
type Message struct {
	Snapshot workout.Snapshot `json:"snapshot"`
	Display  workout.Display  `json:"display"`
}

func NewHub(redisClient *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		redis:          redisClient,
		logger:         logger,
		publishTimeout: defaultPublishTimeout,
		clients:        map[string]map[*Client]struct{}{},
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}

	if redisClient == nil {
		close(h.ready)
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.subscribeRedis(ctx)
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[client]; !ok {
		return
	}
	delete(sessionClients, client)
	if len(sessionClients) == 0 {
		delete(h.clients, client.SessionID)
	}
	close(client.Send)
}

// Publish encodes a snapshot and broadcasts it to the session's watchers.
func (h *Hub) Publish(s workout.Snapshot) {
	payload, err := json.Marshal(Message{Snapshot: s, Display: s.Display()})
	if err != nil {
		h.logger.Error("encode snapshot", zap.String("session_id", s.SessionID), zap.Error(err))
		return
	}
	h.Broadcast(s.SessionID, payload)
}

func (h *Hub) Broadcast(sessionID string, payload []byte) {
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
		err := h.redis.Publish(ctx, redisChannel(sessionID), payload).Err()
		cancel()
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	h.deliver(sessionID, payload)
}

// deliver never blocks: slow clients drop messages.
func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Close stops the redis subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	defer close(h.done)

	pubsub := h.redis.PSubscribe(ctx, redisChannel("*"))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Warn("redis subscribe failed", zap.Error(err))
		close(h.ready)
		return
	}
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.deliver(sessionIDFromChannel(msg.Channel), []byte(msg.Payload))
		}
	}
}

func redisChannel(sessionID string) string {
	return "workout:" + sessionID + ":snapshots"
}

func sessionIDFromChannel(ch string) string {
	// workout:{session}:snapshots
	const prefix = "workout:"
	const suffix = ":snapshots"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
