// Package memstore is an in-memory catalog.Store. It backs the "memory"
// store driver for local runs and the handler and service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// Store keeps sets and cards in maps guarded by a mutex.
type Store struct {
	// InsertHook, if set, runs before every InsertCards call. A non-nil
	// error fails the batch without storing it.
	InsertHook func(ctx context.Context, batch []catalog.NewCard) error

	mu      sync.RWMutex
	sets    map[uuid.UUID]catalog.Set
	cards   map[uuid.UUID]catalog.Card
	batches [][]catalog.NewCard
	now     func() time.Time
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		sets:  make(map[uuid.UUID]catalog.Set),
		cards: make(map[uuid.UUID]catalog.Card),
		now:   time.Now,
	}
}

// tick returns strictly increasing timestamps so ordering by creation time
// is stable even within one clock tick.
func (s *Store) tick(last time.Time) time.Time {
	t := s.now().UTC()
	if !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	return t
}

func (s *Store) latest() time.Time {
	var last time.Time
	for _, set := range s.sets {
		if set.CreatedAt.After(last) {
			last = set.CreatedAt
		}
	}
	for _, c := range s.cards {
		if c.CreatedAt.After(last) {
			last = c.CreatedAt
		}
	}
	return last
}

func (s *Store) ListSets(ctx context.Context, order catalog.SetOrder) ([]catalog.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sets := make([]catalog.Set, 0, len(s.sets))
	for _, set := range s.sets {
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool {
		if order == catalog.SetsByName {
			return sets[i].Name < sets[j].Name
		}
		return sets[i].CreatedAt.After(sets[j].CreatedAt)
	})
	return sets, nil
}

func (s *Store) GetSet(ctx context.Context, id uuid.UUID) (catalog.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[id]
	if !ok {
		return catalog.Set{}, fmt.Errorf("get set %s: %w", id, catalog.ErrNotFound)
	}
	return set, nil
}

func (s *Store) CreateSet(ctx context.Context, in catalog.SetInput) (catalog.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := catalog.Set{ID: uuid.New(), CreatedAt: s.tick(s.latest())}
	applyInput(&set, in)
	s.sets[set.ID] = set
	return set, nil
}

func (s *Store) UpdateSet(ctx context.Context, id uuid.UUID, in catalog.SetInput) (catalog.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return catalog.Set{}, fmt.Errorf("update set %s: %w", id, catalog.ErrNotFound)
	}
	applyInput(&set, in)
	s.sets[id] = set
	return set, nil
}

func (s *Store) DeleteSet(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[id]; !ok {
		return fmt.Errorf("delete set %s: %w", id, catalog.ErrNotFound)
	}
	delete(s.sets, id)
	return nil
}

// InsertCards stores the whole batch or nothing.
func (s *Store) InsertCards(ctx context.Context, batch []catalog.NewCard) error {
	if s.InsertHook != nil {
		if err := s.InsertHook(ctx, batch); err != nil {
			return fmt.Errorf("insert %d cards: %w", len(batch), err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert %d cards: %w", len(batch), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.latest()
	for _, nc := range batch {
		last = s.tick(last)
		c := catalog.Card{ID: uuid.New(), NewCard: nc, CreatedAt: last, UpdatedAt: last}
		s.cards[c.ID] = c
	}
	s.batches = append(s.batches, append([]catalog.NewCard(nil), batch...))
	return nil
}

// Batches returns every committed InsertCards batch in call order.
func (s *Store) Batches() [][]catalog.NewCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([][]catalog.NewCard(nil), s.batches...)
}

func (s *Store) ListCards(ctx context.Context, q catalog.CardQuery) ([]catalog.CardWithSet, error) {
	q = q.Normalize()
	term := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.CardWithSet
	for _, c := range s.cards {
		if q.SetID != uuid.Nil && c.SetID != q.SetID {
			continue
		}
		if term != "" && !matches(c, term) {
			continue
		}
		out = append(out, s.withSet(c))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i].Card, out[j].Card, q.Sort, q.Desc)
	})
	if out == nil {
		out = []catalog.CardWithSet{}
	}
	return out, nil
}

func (s *Store) GetCard(ctx context.Context, id uuid.UUID) (catalog.CardWithSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[id]
	if !ok {
		return catalog.CardWithSet{}, fmt.Errorf("get card %s: %w", id, catalog.ErrNotFound)
	}
	return s.withSet(c), nil
}

func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[id]; !ok {
		return fmt.Errorf("delete card %s: %w", id, catalog.ErrNotFound)
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) CountSets(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sets)), nil
}

func (s *Store) CountCards(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.cards)), nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) withSet(c catalog.Card) catalog.CardWithSet {
	out := catalog.CardWithSet{Card: c}
	if set, ok := s.sets[c.SetID]; ok {
		out.SetName = set.Name
		out.SetSeries = set.Series
	}
	return out
}

func applyInput(set *catalog.Set, in catalog.SetInput) {
	set.Name = in.Name
	set.Series = in.Series
	set.CardAmount = in.CardAmount
	set.ReleaseDate = in.ReleaseDate
	set.LogoURL = in.LogoURL
	set.BackgroundURL = in.BackgroundURL
}

func matches(c catalog.Card, term string) bool {
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Number), term) ||
		strings.Contains(strings.ToLower(c.Rarity), term)
}

// less orders by field with missing values last in both directions, then
// by ID.
func less(a, b catalog.Card, field catalog.CardSortField, desc bool) bool {
	cmp := compare(a, b, field)
	switch {
	case cmp == nullsLast:
		return false
	case cmp == nullsFirst:
		return true
	case cmp != 0:
		if desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.ID.String() < b.ID.String()
}

const (
	nullsFirst = -2 // a has a value, b does not
	nullsLast  = 2  // b has a value, a does not
)

func compare(a, b catalog.Card, field catalog.CardSortField) int {
	switch field {
	case catalog.SortName:
		return strings.Compare(a.Name, b.Name)
	case catalog.SortNumber:
		return strings.Compare(a.Number, b.Number)
	case catalog.SortRarity:
		return strings.Compare(a.Rarity, b.Rarity)
	case catalog.SortHP:
		return comparePtr(a.HP, b.HP)
	case catalog.SortEURPrice:
		return comparePtr(a.EURPrice, b.EURPrice)
	case catalog.SortUSDPrice:
		return comparePtr(a.USDPrice, b.USDPrice)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func comparePtr[T int | float64](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nullsLast
	case b == nil:
		return nullsFirst
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
