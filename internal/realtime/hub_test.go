package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-elections/backend/internal/models"
)

// loopback is an in-process stand-in for the Redis bridge.
type loopback struct {
	mu          sync.Mutex
	handlers    map[uuid.UUID]func(string, []byte)
	published   int
	cancelled   int
	subscribed  int
	fail        bool
	subFail     bool
	onSubscribe func()
}

func newLoopback() *loopback {
	return &loopback{handlers: make(map[uuid.UUID]func(string, []byte))}
}

func (l *loopback) PublishElectionEvent(id uuid.UUID, event string, payload []byte) error {
	l.mu.Lock()
	l.published++
	h := l.handlers[id]
	fail := l.fail
	l.mu.Unlock()
	if fail {
		return errors.New("redis down")
	}
	if h != nil {
		h(event, payload)
	}
	return nil
}

func (l *loopback) SubscribeElection(id uuid.UUID, handler func(string, []byte)) (func(), error) {
	if l.onSubscribe != nil {
		l.onSubscribe()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribed++
	if l.subFail {
		return nil, errors.New("subscribe failed")
	}
	l.handlers[id] = handler
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers, id)
		l.cancelled++
	}, nil
}

func newTestClient(h *Hub, electionID uuid.UUID) *Client {
	return &Client{
		ID:         uuid.NewString(),
		ElectionID: electionID,
		hub:        h,
		send:       make(chan WSMessage, 8),
	}
}

func TestHubBroadcastIsPerElection(t *testing.T) {
	h := NewHub(nil, nil, nil)
	a, b := uuid.New(), uuid.New()
	ca, cb := newTestClient(h, a), newTestClient(h, b)
	h.Register(ca)
	h.Register(cb)

	h.Broadcast(a, "hello", map[string]int{"n": 1})

	require.Len(t, ca.send, 1)
	assert.Empty(t, cb.send)
	msg := <-ca.send
	assert.Equal(t, "hello", msg.Event)
	assert.JSONEq(t, `{"n":1}`, string(msg.Data))
}

func TestHubPublishResultsDeliversOnceThroughRedis(t *testing.T) {
	bridge := newLoopback()
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	c := newTestClient(h, id)
	h.Register(c)

	h.PublishResults(&models.ResultSummary{ElectionID: id, Total: 3, Counts: map[int]int{0: 2, 1: 1}})

	require.Len(t, c.send, 1)
	msg := <-c.send
	assert.Equal(t, EventResultsUpdated, msg.Event)
	var s models.ResultSummary
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, bridge.published)
}

func TestHubPublishFallsBackToLocal(t *testing.T) {
	bridge := newLoopback()
	bridge.fail = true
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	c := newTestClient(h, id)
	h.Register(c)

	h.Publish(id, "x", "payload")
	assert.Len(t, c.send, 1)
}

func TestHubUnregister(t *testing.T) {
	bridge := newLoopback()
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	c1, c2 := newTestClient(h, id), newTestClient(h, id)
	h.Register(c1)
	h.Register(c2)
	assert.Equal(t, 2, h.Watchers(id))

	h.Unregister(c1)
	assert.Equal(t, 1, h.Watchers(id))
	_, open := <-c1.send
	assert.False(t, open)
	assert.Zero(t, bridge.cancelled)

	h.Unregister(c2)
	assert.Zero(t, h.Watchers(id))
	assert.Equal(t, 1, bridge.cancelled)

	// a second unregister must not close the channel twice
	assert.NotPanics(t, func() { h.Unregister(c2) })
}

func TestHubSubscribeFailureServesLocalClients(t *testing.T) {
	bridge := newLoopback()
	bridge.subFail = true
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	c1 := newTestClient(h, id)
	h.Register(c1)
	assert.Equal(t, 1, bridge.subscribed)

	h.PublishResults(&models.ResultSummary{ElectionID: id, Total: 1})
	require.Len(t, c1.send, 1)
	msg := <-c1.send
	assert.Equal(t, EventResultsUpdated, msg.Event)
	assert.Equal(t, 1, bridge.published)

	// the next client retries the subscription
	bridge.mu.Lock()
	bridge.subFail = false
	bridge.mu.Unlock()
	c2 := newTestClient(h, id)
	h.Register(c2)
	assert.Equal(t, 2, bridge.subscribed)

	h.PublishResults(&models.ResultSummary{ElectionID: id, Total: 2})
	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 1)

	// later clients reuse the live subscription
	h.Register(newTestClient(h, id))
	assert.Equal(t, 2, bridge.subscribed)
}

func TestHubSubscribesWithoutHoldingLock(t *testing.T) {
	bridge := newLoopback()
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	other := uuid.New()
	otherClient := newTestClient(h, other)
	h.Register(otherClient)

	bridge.onSubscribe = func() {
		// a slow subscribe must not block traffic for other rooms
		h.Broadcast(other, "tick", 1)
		assert.Equal(t, 1, h.Watchers(id))
	}

	done := make(chan struct{})
	go func() {
		h.Register(newTestClient(h, id))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked while subscribing")
	}
	assert.Len(t, otherClient.send, 1)
}

func TestHubCancelsSubscriptionWhenRoomEmptiesMidSubscribe(t *testing.T) {
	bridge := newLoopback()
	h := NewHub(nil, bridge, bridge)
	id := uuid.New()
	c := newTestClient(h, id)
	bridge.onSubscribe = func() { h.Unregister(c) }

	h.Register(c)

	assert.Zero(t, h.Watchers(id))
	assert.Equal(t, 1, bridge.cancelled)
	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Empty(t, h.subs)
	assert.Empty(t, h.pending)
}
