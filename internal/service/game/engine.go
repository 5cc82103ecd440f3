package game

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	appErr "memory-service/pkg/errors"
)

type State string

const (
	StateIdle       State = "idle"
	StateOneFlipped State = "one_flipped"
	StateChecking   State = "checking"
	StateCompleted  State = "completed"
)

type EventType string

const (
	EventFlip           EventType = "flip"
	EventMatch          EventType = "match"
	EventMismatch       EventType = "mismatch"
	EventClue           EventType = "clue"
	EventClueCleared    EventType = "clue_cleared"
	EventShuffled       EventType = "shuffled"
	EventShuffleSettled EventType = "shuffle_settled"
	EventTick           EventType = "tick"
	EventCompleted      EventType = "completed"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Slots     []int     `json:"slots,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
}

type Result struct {
	Pairs       int         `json:"pairs"`
	Seconds     int         `json:"time"`
	Moves       int         `json:"moves"`
	Score       int         `json:"score"`
	Difficulty  Difficulty  `json:"difficulty"`
	Performance Performance `json:"performance"`
	Feedback    Feedback    `json:"feedback"`
}

// CardView is a card as a client may see it; face-down cards hide their icon.
type CardView struct {
	ID            int     `json:"id"`
	FaceUp        bool    `json:"faceUp"`
	PairKey       PairKey `json:"pairKey,omitempty"`
	Color         string  `json:"color,omitempty"`
	IsMatched     bool    `json:"isMatched"`
	IsHighlighted bool    `json:"isHighlighted"`
}

type Snapshot struct {
	SessionID      string     `json:"sessionId"`
	State          State      `json:"state"`
	Difficulty     Difficulty `json:"difficulty"`
	Pairs          int        `json:"pairs"`
	Cards          []CardView `json:"cards"`
	Flipped        []int      `json:"flipped"`
	MatchCount     int        `json:"matchCount"`
	MoveCount      int        `json:"moveCount"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	CluesRemaining int        `json:"cluesRemaining"`
	IsShuffling    bool       `json:"isShuffling"`
	Result         *Result    `json:"result,omitempty"`
}

type Timings struct {
	MatchDelay        time.Duration
	MismatchDelay     time.Duration
	ClueDuration      time.Duration
	ReshuffleInterval time.Duration
	ReshuffleRetry    time.Duration
	ShuffleDisplay    time.Duration
	ClockTick         time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		MatchDelay:        500 * time.Millisecond,
		MismatchDelay:     1000 * time.Millisecond,
		ClueDuration:      1000 * time.Millisecond,
		ReshuffleInterval: 60 * time.Second,
		ReshuffleRetry:    1000 * time.Millisecond,
		ShuffleDisplay:    1000 * time.Millisecond,
		ClockTick:         time.Second,
	}
}

type Options struct {
	ID           string
	Pairs        int
	Difficulty   Difficulty
	Timings      Timings
	InitialClues int
	Tasks        *TaskRegistry
	Shuffler     Shuffler
	// OnEvent runs with the session lock held and must not call back into
	// the session.
	OnEvent func(Event)
}

// Session is the match engine for one game. Every mutation, including the
// scheduled ones, runs under mu.
type Session struct {
	mu sync.Mutex

	id             string
	difficulty     Difficulty
	pairs          int
	deck           Deck
	flipped        []int
	state          State
	matchCount     int
	moveCount      int
	elapsed        int
	cluesRemaining int
	shuffling      bool
	started        bool
	closed         bool
	result         *Result

	timings  Timings
	tasks    *TaskRegistry
	shuffler Shuffler
	onEvent  func(Event)
}

func NewSession(opts Options) (*Session, error) {
	if !opts.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", appErr.ErrInvalidDifficulty, opts.Difficulty)
	}
	if opts.ID == "" {
		return nil, fmt.Errorf("%w: session id required", appErr.ErrInvalidConfiguration)
	}
	if opts.Shuffler == nil {
		opts.Shuffler = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Tasks == nil {
		opts.Tasks = NewTaskRegistry(nil)
	}
	if opts.InitialClues < 0 {
		opts.InitialClues = 0
	}

	deck, err := NewDeck(opts.Pairs, opts.Shuffler)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:             opts.ID,
		difficulty:     opts.Difficulty,
		pairs:          opts.Pairs,
		deck:           deck,
		state:          StateIdle,
		cluesRemaining: opts.InitialClues,
		timings:        opts.Timings,
		tasks:          opts.Tasks,
		shuffler:       opts.Shuffler,
		onEvent:        opts.OnEvent,
	}, nil
}

// Start runs the elapsed-time clock and, for shuffling difficulties, the
// reshuffle cycle. Calling it twice is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed {
		return
	}
	s.started = true
	s.scheduleClockLocked()
	s.scheduleReshuffleLocked()
}

// Close tears the session down; no scheduled callback mutates it afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.tasks.CancelAll(s.id)
}

func (s *Session) FlipCard(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return appErr.ErrSessionClosed
	case s.state == StateCompleted:
		return appErr.ErrGameCompleted
	case s.state == StateChecking:
		return appErr.ErrCheckingInProgress
	case slot < 0 || slot >= len(s.deck):
		return fmt.Errorf("%w: %d", appErr.ErrSlotOutOfRange, slot)
	case s.deck[slot].IsMatched:
		return appErr.ErrCardMatched
	case slices.Contains(s.flipped, slot):
		return appErr.ErrCardAlreadyFlipped
	}

	s.flipped = append(s.flipped, slot)
	s.moveCount++

	if len(s.flipped) == 1 {
		s.state = StateOneFlipped
		s.emitLocked(EventFlip, []int{slot})
		return nil
	}

	s.state = StateChecking
	s.emitLocked(EventFlip, []int{slot})

	first, second := s.flipped[0], s.flipped[1]
	if s.deck[first].PairKey == s.deck[second].PairKey {
		s.tasks.Schedule(s.id, s.timings.MatchDelay, func() { s.resolveMatch(first, second) })
	} else {
		s.tasks.Schedule(s.id, s.timings.MismatchDelay, func() { s.resolveMismatch(first, second) })
	}
	return nil
}

func (s *Session) resolveMatch(first, second int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateChecking {
		return
	}

	s.deck[first].IsMatched = true
	s.deck[second].IsMatched = true
	s.flipped = nil
	s.matchCount++

	if s.matchCount < s.pairs {
		s.state = StateIdle
		s.emitLocked(EventMatch, []int{first, second})
		return
	}

	s.state = StateCompleted
	s.emitLocked(EventMatch, []int{first, second})
	s.completeLocked()
}

func (s *Session) resolveMismatch(first, second int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateChecking {
		return
	}
	s.flipped = nil
	s.state = StateIdle
	s.emitLocked(EventMismatch, []int{first, second})
}

// completeLocked emits the completion event exactly once.
func (s *Session) completeLocked() {
	if s.result != nil {
		return
	}
	perf := ClassifyPerformance(s.pairs, s.elapsed, s.moveCount)
	s.result = &Result{
		Pairs:       s.pairs,
		Seconds:     s.elapsed,
		Moves:       s.moveCount,
		Score:       CalculateScore(s.pairs, s.elapsed, s.moveCount, s.difficulty),
		Difficulty:  s.difficulty,
		Performance: perf,
		Feedback:    FeedbackFor(perf),
	}
	s.emitLocked(EventCompleted, nil)
}

type ClueReason string

const (
	ClueNoCluesLeft     ClueReason = "no clues left"
	ClueNoCardSelected  ClueReason = "no card selected"
	ClueAlreadyChecking ClueReason = "already checking"
)

type ClueUnavailableError struct {
	Reason ClueReason
}

func (e *ClueUnavailableError) Error() string {
	return fmt.Sprintf("clue unavailable: %s", e.Reason)
}

func (e *ClueUnavailableError) Unwrap() error {
	return appErr.ErrClueUnavailable
}

// UseClue highlights the partner of the single face-up card and spends the
// clue. It returns the highlighted slot, or -1 when the partner is already
// matched or highlighted.
func (s *Session) UseClue() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return -1, appErr.ErrSessionClosed
	}
	switch {
	case s.cluesRemaining <= 0:
		return -1, &ClueUnavailableError{Reason: ClueNoCluesLeft}
	case len(s.flipped) == 0:
		return -1, &ClueUnavailableError{Reason: ClueNoCardSelected}
	case len(s.flipped) >= 2:
		return -1, &ClueUnavailableError{Reason: ClueAlreadyChecking}
	}

	partner := s.deck.partnerOf(s.flipped[0])
	s.cluesRemaining = 0

	if partner < 0 {
		s.emitLocked(EventClue, nil)
		return -1, nil
	}

	s.deck[partner].IsHighlighted = true
	cardID := s.deck[partner].ID
	s.emitLocked(EventClue, []int{partner})

	s.tasks.Schedule(s.id, s.timings.ClueDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		// The card may have moved slots in a reshuffle.
		slot := s.deck.slotOf(cardID)
		if slot < 0 {
			return
		}
		s.deck[slot].IsHighlighted = false
		s.emitLocked(EventClueCleared, []int{slot})
	})
	return partner, nil
}

func (s *Session) scheduleClockLocked() {
	if s.timings.ClockTick <= 0 {
		return
	}
	s.tasks.Schedule(s.id, s.timings.ClockTick, s.clockTick)
}

func (s *Session) clockTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateCompleted {
		return
	}
	s.elapsed++
	s.emitLocked(EventTick, nil)
	s.scheduleClockLocked()
}

func (s *Session) emitLocked(t EventType, slots []int) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(Event{
		Type:      t,
		SessionID: s.id,
		Slots:     slots,
		Snapshot:  s.snapshotLocked(),
	})
}

func (s *Session) ID() string {
	return s.id
}

// observe runs fn with the current snapshot while holding the session lock,
// so no event is emitted between the snapshot and whatever fn does with it.
func (s *Session) observe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snapshotLocked())
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Deck returns a copy of the full deck, face-down icons included.
func (s *Session) Deck() Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Clone()
}

func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	res := *s.result
	return &res
}

func (s *Session) snapshotLocked() Snapshot {
	cards := make([]CardView, len(s.deck))
	for slot, card := range s.deck {
		faceUp := card.IsMatched || card.IsHighlighted || slices.Contains(s.flipped, slot)
		view := CardView{
			ID:            card.ID,
			FaceUp:        faceUp,
			IsMatched:     card.IsMatched,
			IsHighlighted: card.IsHighlighted,
		}
		if faceUp {
			view.PairKey = card.PairKey
			view.Color = card.Color
		}
		cards[slot] = view
	}

	snap := Snapshot{
		SessionID:      s.id,
		State:          s.state,
		Difficulty:     s.difficulty,
		Pairs:          s.pairs,
		Cards:          cards,
		Flipped:        append([]int{}, s.flipped...),
		MatchCount:     s.matchCount,
		MoveCount:      s.moveCount,
		ElapsedSeconds: s.elapsed,
		CluesRemaining: s.cluesRemaining,
		IsShuffling:    s.shuffling,
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}
