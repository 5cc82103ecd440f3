package game

// ReshuffleUnmatched permutes the cards that are neither matched nor frozen
// among their own slots. Matched cards and frozen slots keep their place and
// card objects travel with their ids.
func ReshuffleUnmatched(deck Deck, frozen []int, shuffler Shuffler) Deck {
	out := deck.Clone()

	pinned := make(map[int]bool, len(frozen))
	for _, slot := range frozen {
		pinned[slot] = true
	}

	slots := make([]int, 0, len(out))
	for slot, card := range out {
		if card.IsMatched || pinned[slot] {
			continue
		}
		slots = append(slots, slot)
	}

	shuffler.Shuffle(len(slots), func(i, j int) {
		a, b := slots[i], slots[j]
		out[a], out[b] = out[b], out[a]
	})
	return out
}

func (s *Session) scheduleReshuffleLocked() {
	if !s.difficulty.ShufflesCards() || s.timings.ReshuffleInterval <= 0 {
		return
	}
	s.tasks.Schedule(s.id, s.timings.ReshuffleInterval, s.reshuffleTick)
}

func (s *Session) reshuffleTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateCompleted {
		return
	}
	if s.state == StateChecking {
		s.tasks.Schedule(s.id, s.timings.ReshuffleRetry, s.reshuffleTick)
		return
	}

	s.deck = ReshuffleUnmatched(s.deck, s.flipped, s.shuffler)
	s.shuffling = true
	s.emitLocked(EventShuffled, nil)

	s.tasks.Schedule(s.id, s.timings.ShuffleDisplay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		s.shuffling = false
		s.emitLocked(EventShuffleSettled, nil)
		if s.state != StateCompleted {
			s.scheduleReshuffleLocked()
		}
	})
}
