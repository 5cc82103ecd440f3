package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"memory-service/pkg/logger"

	"go.uber.org/zap"
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// Runtime binds a Session to its player and fans its events out to the
// subscribed connections.
type Runtime struct {
	session    *Session
	playerID   string
	playerName string
	startedAt  time.Time

	mu          sync.Mutex
	seq         int64
	nextSubID   uint64
	subscribers map[uint64]chan OutgoingMessage
	closed      bool

	// onFinish runs under the session lock and must hand off slow work.
	onFinish func(*Runtime, Result)
}

type runtimeParams struct {
	Options
	PlayerID   string
	PlayerName string
	OnFinish   func(*Runtime, Result)
}

func newRuntime(p runtimeParams) (*Runtime, error) {
	rt := &Runtime{
		playerID:    p.PlayerID,
		playerName:  p.PlayerName,
		startedAt:   time.Now(),
		subscribers: make(map[uint64]chan OutgoingMessage),
		onFinish:    p.OnFinish,
	}
	opts := p.Options
	opts.OnEvent = rt.handleEvent

	session, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	rt.session = session
	return rt, nil
}

func (rt *Runtime) ID() string         { return rt.session.ID() }
func (rt *Runtime) PlayerID() string   { return rt.playerID }
func (rt *Runtime) PlayerName() string { return rt.playerName }
func (rt *Runtime) Session() *Session  { return rt.session }

func (rt *Runtime) Snapshot() Snapshot {
	return rt.session.Snapshot()
}

func (rt *Runtime) Subscribe() (uint64, <-chan OutgoingMessage) {
	ch := make(chan OutgoingMessage, 16)
	var id uint64

	rt.session.observe(func(snap Snapshot) {
		rt.mu.Lock()
		defer rt.mu.Unlock()

		rt.nextSubID++
		id = rt.nextSubID
		if rt.closed {
			close(ch)
			return
		}
		rt.subscribers[id] = ch
		rt.pushLocked(id, OutgoingMessage{Type: "state", Seq: rt.nextSeqLocked(), Data: snap})
	})
	return id, ch
}

func (rt *Runtime) Unsubscribe(id uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[id]; ok {
		delete(rt.subscribers, id)
		close(ch)
	}
}

type flipPayload struct {
	Slot *int `json:"slot"`
}

// HandleAction dispatches a client action received on subscription subID.
func (rt *Runtime) HandleAction(subID uint64, action string, data json.RawMessage) error {
	switch action {
	case "flip":
		var payload flipPayload
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("invalid flip payload: %w", err)
			}
		}
		if payload.Slot == nil {
			return fmt.Errorf("slot required")
		}
		return rt.session.FlipCard(*payload.Slot)
	case "clue":
		_, err := rt.session.UseClue()
		return err
	case "rejoin", "state":
		rt.session.observe(func(snap Snapshot) {
			rt.mu.Lock()
			defer rt.mu.Unlock()
			rt.pushLocked(subID, OutgoingMessage{Type: "state", Seq: rt.nextSeqLocked(), Data: snap})
		})
		return nil
	case "ping":
		rt.mu.Lock()
		rt.pushLocked(subID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked(), Data: map[string]interface{}{"message": "pong"}})
		rt.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("unsupported action")
	}
}

// SendError reports a rejected action to one subscriber only.
func (rt *Runtime) SendError(subID uint64, message string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pushLocked(subID, OutgoingMessage{Type: "error", Seq: rt.nextSeqLocked(), Data: map[string]interface{}{"message": message}})
}

// handleEvent runs under the session lock.
func (rt *Runtime) handleEvent(ev Event) {
	rt.mu.Lock()
	rt.broadcastLocked(OutgoingMessage{Type: string(ev.Type), Seq: rt.nextSeqLocked(), Data: ev})
	rt.mu.Unlock()

	if ev.Type == EventCompleted && ev.Snapshot.Result != nil && rt.onFinish != nil {
		rt.onFinish(rt, *ev.Snapshot.Result)
	}
}

func (rt *Runtime) broadcastLocked(msg OutgoingMessage) {
	for id, ch := range rt.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full",
				zap.Uint64("subscription", id),
				zap.String("sessionID", rt.session.id),
			)
		}
	}
}

func (rt *Runtime) pushLocked(id uint64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[id]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full",
				zap.Uint64("subscription", id),
				zap.String("sessionID", rt.session.id),
			)
		}
	}
}

func (rt *Runtime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

// close tears the session down and disconnects every subscriber.
func (rt *Runtime) close() {
	rt.session.Close()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return
	}
	rt.closed = true
	for id, ch := range rt.subscribers {
		delete(rt.subscribers, id)
		close(ch)
	}
}
