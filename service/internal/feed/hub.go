// internal/feed/hub.go

// Package feed streams results and game events to websocket subscribers.
// A Hub is a store.Sink, so a simulation run can publish every finished
// game next to its other sinks.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jgwest/fridai/service/internal/game"
	"github.com/jgwest/fridai/service/internal/store"
	"github.com/sirupsen/logrus"
)

// Message types sent to subscribers.
const (
	TypeResult = "result"
	TypeGame   = "game"
)

// DefaultBuffer is the number of messages queued per subscriber before it
// is dropped as too slow.
const DefaultBuffer = 64

const writeTimeout = 5 * time.Second

// ResultView is a finished game as sent to subscribers.
type ResultView struct {
	RunID      uuid.UUID `json:"runId"`
	Worker     int       `json:"worker"`
	Seed       uint64    `json:"seed"`
	Finished   time.Time `json:"finished"`
	Result     string    `json:"result"`
	Life       int       `json:"life"`
	PhaseScore int       `json:"phaseScore"`
	Steps      int       `json:"steps"`
	Searches   int       `json:"searches"`
	Nodes      int       `json:"nodes"`
	ElapsedMS  int64     `json:"elapsedMs"`
}

// Message is the envelope of everything written to a subscriber.
type Message struct {
	Type   string          `json:"type"`
	Result *ResultView     `json:"result,omitempty"`
	Game   *game.GameEvent `json:"game,omitempty"`
}

func resultView(rec store.Record) *ResultView {
	return &ResultView{
		RunID:      rec.RunID,
		Worker:     rec.Worker,
		Seed:       rec.Seed,
		Finished:   rec.Finished,
		Result:     rec.Result(),
		Life:       rec.Life,
		PhaseScore: rec.PhaseScore,
		Steps:      rec.Steps,
		Searches:   rec.Searches,
		Nodes:      rec.Nodes,
		ElapsedMS:  rec.Elapsed.Milliseconds(),
	}
}

type subscriber struct {
	subject   string
	msgs      chan []byte
	closeSlow func()
}

// Hub fans messages out to websocket subscribers. When a secret is set,
// subscribers must present an HS256 token signed with it.
type Hub struct {
	secret string
	log    *logrus.Entry

	// Buffer is the per-subscriber queue length.
	Buffer int

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub returns a hub. An empty secret accepts every subscriber.
func NewHub(secret string, log *logrus.Entry) *Hub {
	if secret == "" {
		log.Warn("Feed has no JWT secret; subscribers are not authenticated")
	}
	return &Hub{
		secret: secret,
		log:    log,
		Buffer: DefaultBuffer,
		subs:   make(map[*subscriber]struct{}),
	}
}

// ServeHTTP authenticates the request, upgrades it and streams messages
// until the client goes away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject := "anonymous"
	if h.secret != "" {
		sub, err := ParseToken(h.secret, tokenFrom(r))
		if err != nil {
			h.log.WithError(err).WithField("remote", r.RemoteAddr).Warn("Feed subscriber rejected")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		subject = sub
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Feed websocket accept failed")
		return
	}
	defer c.CloseNow()

	// Subscribers only listen; CloseRead handles their control frames.
	ctx := c.CloseRead(r.Context())

	s := &subscriber{
		subject: subject,
		msgs:    make(chan []byte, h.Buffer),
		closeSlow: func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		},
	}
	if !h.addSubscriber(s) {
		c.Close(websocket.StatusGoingAway, "feed closed")
		return
	}
	defer h.deleteSubscriber(s)
	log := h.log.WithField("subscriber", subject)
	log.Info("Feed subscriber connected")

	for {
		select {
		case msg, ok := <-s.msgs:
			if !ok {
				c.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := writeMessage(ctx, c, msg); err != nil {
				log.WithError(err).Debug("Feed subscriber write failed")
				return
			}
		case <-ctx.Done():
			log.Info("Feed subscriber disconnected")
			return
		}
	}
}

func writeMessage(ctx context.Context, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}

func (h *Hub) addSubscriber(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	return true
}

func (h *Hub) deleteSubscriber(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish queues msg for every subscriber. A subscriber whose queue is
// full is disconnected.
func (h *Hub) publish(m Message) error {
	msg, err := json.Marshal(m)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHubClosed
	}
	for s := range h.subs {
		select {
		case s.msgs <- msg:
		default:
			go s.closeSlow()
		}
	}
	return nil
}

var errHubClosed = errors.New("feed hub closed")

// Write implements store.Sink.
func (h *Hub) Write(_ context.Context, rec store.Record) error {
	return h.publish(Message{Type: TypeResult, Result: resultView(rec)})
}

// PublishGame sends an interactive game event. It has the signature of
// game.FridayGame.BroadcastFn.
func (h *Hub) PublishGame(ev game.GameEvent) {
	if err := h.publish(Message{Type: TypeGame, Game: &ev}); err != nil && !errors.Is(err, errHubClosed) {
		h.log.WithError(err).Error("Failed to publish game event")
	}
}

// Close disconnects every subscriber. Later writes fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for s := range h.subs {
		close(s.msgs)
		delete(h.subs, s)
	}
	return nil
}

var _ store.Sink = (*Hub)(nil)
