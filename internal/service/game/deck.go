package game

import (
	"fmt"

	appErr "memory-service/pkg/errors"
)

// PairKey identifies the icon shared by exactly two cards of a deck.
type PairKey string

type Icon struct {
	Key   PairKey
	Color string
}

// iconSet bounds the number of pairs a deck can hold.
var iconSet = []Icon{
	{Key: "heart", Color: "rose-500"},
	{Key: "star", Color: "amber-500"},
	{Key: "sun", Color: "yellow-500"},
	{Key: "moon", Color: "purple-500"},
	{Key: "cloud", Color: "sky-500"},
	{Key: "flower", Color: "pink-500"},
	{Key: "music", Color: "blue-500"},
	{Key: "zap", Color: "yellow-400"},
	{Key: "umbrella", Color: "cyan-500"},
	{Key: "rocket", Color: "orange-500"},
	{Key: "gift", Color: "red-500"},
	{Key: "cake", Color: "rose-400"},
	{Key: "pizza", Color: "amber-400"},
	{Key: "crown", Color: "yellow-300"},
	{Key: "diamond", Color: "blue-400"},
	{Key: "bird", Color: "teal-400"},
}

// MaxPairs is the largest deck the icon set can build.
func MaxPairs() int {
	return len(iconSet)
}

type Card struct {
	ID            int     `json:"id"`
	PairKey       PairKey `json:"pairKey"`
	Color         string  `json:"color"`
	IsMatched     bool    `json:"isMatched"`
	IsHighlighted bool    `json:"isHighlighted"`
}

// Deck is the ordered slot layout of one game.
type Deck []Card

// Shuffler is satisfied by *math/rand.Rand.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewDeck builds 2*pairs cards, two per icon, in Fisher-Yates order.
func NewDeck(pairs int, shuffler Shuffler) (Deck, error) {
	if pairs <= 0 || pairs > len(iconSet) {
		return nil, fmt.Errorf("%w: pairs must be between 1 and %d, got %d",
			appErr.ErrInvalidConfiguration, len(iconSet), pairs)
	}

	deck := make(Deck, 0, pairs*2)
	for idx, icon := range iconSet[:pairs] {
		deck = append(deck,
			Card{ID: idx * 2, PairKey: icon.Key, Color: icon.Color},
			Card{ID: idx*2 + 1, PairKey: icon.Key, Color: icon.Color},
		)
	}
	shuffler.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}

func (d Deck) Clone() Deck {
	return append(Deck(nil), d...)
}

// slotOf returns the slot currently holding card id, or -1.
func (d Deck) slotOf(id int) int {
	for slot, card := range d {
		if card.ID == id {
			return slot
		}
	}
	return -1
}

// partnerOf returns the slot of the unmatched, non-highlighted card sharing
// the pair key of the card at slot, or -1.
func (d Deck) partnerOf(slot int) int {
	selected := d[slot]
	for idx, card := range d {
		if idx == slot || card.IsMatched || card.IsHighlighted {
			continue
		}
		if card.ID != selected.ID && card.PairKey == selected.PairKey {
			return idx
		}
	}
	return -1
}
