package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventResultsUpdated carries a fresh ResultSummary after a vote.
	EventResultsUpdated = "results_updated"
	// EventPong answers a client ping.
	EventPong = "pong"
)

// Hub maintains election_id -> set of connections and broadcasts messages.
// With a Redis bridge, events are published once and every instance delivers
// them to its own clients from the subscription.
type Hub struct {
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per election
	pending  map[uuid.UUID]bool   // subscription in flight
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes election events for cross-instance broadcast.
type RedisPublisher interface {
	PublishElectionEvent(electionID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to election channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeElection(electionID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Both Redis arguments may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		pending:  make(map[uuid.UUID]bool),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an election room. The first client of a room, or the
// first one after a failed attempt, starts the Redis subscription outside the lock.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.ElectionID] == nil {
		h.rooms[c.ElectionID] = make(map[string]*Client)
	}
	h.rooms[c.ElectionID][c.ID] = c
	subscribe := h.redisSub != nil && h.subs[c.ElectionID] == nil && !h.pending[c.ElectionID]
	if subscribe {
		h.pending[c.ElectionID] = true
	}
	h.mu.Unlock()
	h.logger.Debug("client joined election", zap.String("client_id", c.ID), zap.String("election_id", c.ElectionID.String()))

	if subscribe {
		h.subscribe(c.ElectionID)
	}
}

func (h *Hub) subscribe(electionID uuid.UUID) {
	cancel, err := h.redisSub.SubscribeElection(electionID, func(event string, payload []byte) {
		h.Broadcast(electionID, event, json.RawMessage(payload))
	})

	h.mu.Lock()
	delete(h.pending, electionID)
	if err != nil {
		h.mu.Unlock()
		h.logger.Warn("redis subscribe failed", zap.String("election_id", electionID.String()), zap.Error(err))
		return
	}
	if _, ok := h.rooms[electionID]; !ok {
		// room emptied while subscribing
		h.mu.Unlock()
		cancel()
		return
	}
	h.subs[electionID] = cancel
	h.mu.Unlock()
}

// Unregister removes a client from its room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	var cancel func()
	h.mu.Lock()
	if m, ok := h.rooms[c.ElectionID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.rooms, c.ElectionID)
			cancel = h.subs[c.ElectionID]
			delete(h.subs, c.ElectionID)
		}
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("client left election", zap.String("client_id", c.ID), zap.String("election_id", c.ElectionID.String()))
}

// bridged reports whether local clients of the election receive Redis events.
func (h *Hub) bridged(electionID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subs[electionID] != nil
}

// Broadcast sends a message to all local clients watching an election.
func (h *Hub) Broadcast(electionID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[electionID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every instance. Without Redis it broadcasts locally;
// with Redis the subscription performs the local broadcast, so clients see it once.
// Rooms whose subscription failed are served locally.
func (h *Hub) Publish(electionID uuid.UUID, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(electionID, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishElectionEvent(electionID, event, data); err != nil {
		h.logger.Warn("redis publish failed, broadcasting locally", zap.Error(err))
		h.Broadcast(electionID, event, json.RawMessage(data))
		return
	}
	if !h.bridged(electionID) {
		h.Broadcast(electionID, event, json.RawMessage(data))
	}
}

// PublishResults pushes a results snapshot to everyone watching the election.
func (h *Hub) PublishResults(summary *models.ResultSummary) {
	h.Publish(summary.ElectionID, EventResultsUpdated, summary)
}

// Watchers returns the number of local clients watching an election.
func (h *Hub) Watchers(electionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[electionID])
}
