// Package store holds the in-memory state of the lane board: the active query, the
// cards it returned and their grouping into lanes. Columns are rebuilt on every change
// so readers never see a stale grouping.
package store

import (
	"errors"
	"sort"

	"github.com/h0rv/flowcanvas/internal/domain"
)

var (
	// ErrNoQuery indicates no query has been set in the store.
	ErrNoQuery = errors.New("no query set")
	// ErrCardNotFound indicates the requested card does not exist.
	ErrCardNotFound = errors.New("card not found")
)

// Query is the board's active query.
type Query struct {
	// ViewName is the saved view the query came from, empty for ad hoc queries.
	ViewName   string
	JQL        string
	TimeWindow string
}

// Card is one issue on the board.
type Card struct {
	Key      string
	Summary  string
	Status   string
	Priority string
	Lane     domain.Lane
	AgeDays  float64
}

// CardsFromCanvas converts canvas points into cards.
func CardsFromCanvas(points []domain.CanvasPoint) []*Card {
	cards := make([]*Card, 0, len(points))
	for _, p := range points {
		cards = append(cards, &Card{
			Key:      p.IssueKey,
			Summary:  p.Summary,
			Status:   p.Status,
			Priority: p.Priority,
			Lane:     p.Lane,
			AgeDays:  p.AgeDays,
		})
	}
	return cards
}

// Store manages the board state.
type Store struct {
	query *Query

	// Card storage
	cards map[string]*Card // Key -> Card

	// Lane -> card keys, oldest first
	columns map[domain.Lane][]string

	meta domain.AggregateMeta
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		cards:   make(map[string]*Card),
		columns: make(map[domain.Lane][]string),
	}
}

// SetQuery sets the active query.
func (s *Store) SetQuery(q Query) {
	s.query = &q
}

// GetQuery returns the active query, or ErrNoQuery if none is set.
func (s *Store) GetQuery() (Query, error) {
	if s.query == nil {
		return Query{}, ErrNoQuery
	}
	return *s.query, nil
}

// SetMeta records how the loaded cards were produced.
func (s *Store) SetMeta(meta domain.AggregateMeta) {
	s.meta = meta
}

// GetMeta returns the metadata of the last load.
func (s *Store) GetMeta() domain.AggregateMeta {
	return s.meta
}

// UpsertCards adds or updates multiple cards in the store.
// After upserting, lanes are rebuilt.
func (s *Store) UpsertCards(cards []*Card) {
	for _, card := range cards {
		s.cards[card.Key] = card
	}
	s.rebuildColumns()
}

// GetCard retrieves a card by key, returning ErrCardNotFound if not found.
func (s *Store) GetCard(key string) (*Card, error) {
	card, exists := s.cards[key]
	if !exists {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// GetAllCards returns all cards ordered by key.
func (s *Store) GetAllCards() []*Card {
	cards := make([]*Card, 0, len(s.cards))
	for _, card := range s.cards {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Key < cards[j].Key })
	return cards
}

// Len returns the number of cards.
func (s *Store) Len() int {
	return len(s.cards)
}

// GetColumns returns a copy of the lane mapping. Every lane is present, possibly empty.
func (s *Store) GetColumns() map[domain.Lane][]string {
	result := make(map[domain.Lane][]string, len(domain.Lanes))
	for _, lane := range domain.Lanes {
		result[lane] = s.GetColumnCardKeys(lane)
	}
	return result
}

// GetColumnCardKeys returns the card keys of one lane, oldest first.
func (s *Store) GetColumnCardKeys(lane domain.Lane) []string {
	keys := s.columns[lane]
	result := make([]string, len(keys))
	copy(result, keys)
	return result
}

// rebuildColumns groups cards by lane and orders each lane oldest first, ties by key.
// Cards with an unknown lane go to LaneOther.
func (s *Store) rebuildColumns() {
	s.columns = make(map[domain.Lane][]string, len(domain.Lanes))

	for key, card := range s.cards {
		lane := card.Lane
		if !knownLane(lane) {
			lane = domain.LaneOther
		}
		s.columns[lane] = append(s.columns[lane], key)
	}

	for _, keys := range s.columns {
		sort.Slice(keys, func(i, j int) bool {
			a, b := s.cards[keys[i]], s.cards[keys[j]]
			if a.AgeDays != b.AgeDays {
				return a.AgeDays > b.AgeDays
			}
			return a.Key < b.Key
		})
	}
}

func knownLane(lane domain.Lane) bool {
	for _, l := range domain.Lanes {
		if l == lane {
			return true
		}
	}
	return false
}

// Clear drops all cards, preserving the query.
func (s *Store) Clear() {
	s.cards = make(map[string]*Card)
	s.columns = make(map[domain.Lane][]string)
	s.meta = domain.AggregateMeta{}
}

// Reset completely resets the store to initial state.
func (s *Store) Reset() {
	s.query = nil
	s.Clear()
}
