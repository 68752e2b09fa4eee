package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// Seed is stored when the catalog loads empty.
var Seed = Fields{
	Title:     "Don Quijote de la Mancha",
	Author:    "Miguel de Cervantes",
	Year:      "1605",
	CoverID:   "8463501",
	CoverSize: CoverSmall,
	Genre:     "Non-fiction",
}

// Store owns the ordered collection, newest first, and mirrors it to a Slot
// after every mutation. A mutation is committed to memory only after the
// snapshot write succeeded.
type Store struct {
	slot    Slot
	log     *zap.Logger
	metrics *Metrics
	newID   func() string

	mu    sync.RWMutex
	books []Book
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:  slot,
		log:   zap.NewNop(),
		newID: NewID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.slot.Ping(ctx)
}

// Load replaces the in-memory collection with the persisted snapshot.
// Unreadable snapshots reset to empty; an empty catalog gets the seed record.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.slot.Read(ctx)
	if err != nil && !errors.Is(err, ErrSlotEmpty) {
		return fmt.Errorf("read snapshot: %w", err)
	}

	books, err := s.decodeSnapshot(raw)
	if err != nil {
		s.log.Warn("snapshot reset to empty", zap.Error(err))
		books = nil
	}
	books = s.sanitize(books)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(books) == 0 {
		b := Book{ID: s.newID()}
		b.apply(Seed.normalize())
		books = []Book{b}

		if err := s.persist(ctx, books); err != nil {
			return err
		}
		s.log.Info("catalog seeded", zap.String("id", b.ID))
	}

	s.commit(books)
	s.log.Info("catalog loaded", zap.Int("books", len(books)))
	return nil
}

func (s *Store) Add(ctx context.Context, f Fields) (Book, error) {
	f = f.normalize()
	if err := f.validate(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := Book{ID: s.newID()}
	b.apply(f)

	next := make([]Book, 0, len(s.books)+1)
	next = append(next, b)
	next = append(next, s.books...)

	if err := s.persist(ctx, next); err != nil {
		return Book{}, err
	}
	s.commit(next)
	return b, nil
}

func (s *Store) Update(ctx context.Context, id string, f Fields) (Book, error) {
	f = f.normalize()
	if err := f.validate(); err != nil {
		return Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := s.clone()
	next[i].apply(f)

	if err := s.persist(ctx, next); err != nil {
		return Book{}, err
	}
	s.commit(next)
	return next[i], nil
}

// Remove deletes the record if present. Confirmation is the caller's job.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]Book, 0, len(s.books)-1)
	next = append(next, s.books[:i]...)
	next = append(next, s.books[i+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *Store) SetCoverSize(ctx context.Context, id string, size CoverSize) (Book, error) {
	cs, ok := ParseCoverSize(string(size))
	if !ok {
		return Book{}, validationErr("cover_size must be one of S, M, L")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := s.clone()
	next[i].CoverSize = cs

	if err := s.persist(ctx, next); err != nil {
		return Book{}, err
	}
	s.commit(next)
	return next[i], nil
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone()
}

func (s *Store) Get(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Book{}, false
	}
	return s.books[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

func (s *Store) indexOf(id string) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clone() []Book {
	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *Store) commit(books []Book) {
	s.books = books
	if s.metrics != nil {
		s.metrics.Books.Set(float64(len(books)))
	}
}

// persist writes the snapshot. The write is detached from the caller's
// cancellation: once a slot may have accepted the value, memory must follow.
func (s *Store) persist(ctx context.Context, books []Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err = s.slot.Write(ctx, raw)
	if s.metrics != nil {
		s.metrics.observeWrite(err)
	}
	if err != nil {
		s.log.Error("snapshot write failed", zap.Error(err), zap.Int("books", len(books)))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// sanitize drops records that break the id/title invariants and assigns ids
// to records stored without one.
func (s *Store) sanitize(in []Book) []Book {
	out := make([]Book, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	dropped := 0

	for _, b := range in {
		b.Title = strings.TrimSpace(b.Title)
		if b.Title == "" {
			dropped++
			continue
		}
		if b.ID == "" {
			b.ID = s.newID()
		}
		if _, dup := seen[b.ID]; dup {
			dropped++
			continue
		}
		seen[b.ID] = struct{}{}

		if cs, ok := ParseCoverSize(string(b.CoverSize)); ok {
			b.CoverSize = cs
		} else {
			b.CoverSize = CoverSmall
		}
		out = append(out, b)
	}

	if dropped > 0 {
		s.log.Warn("snapshot records dropped", zap.Int("dropped", dropped))
	}
	return out
}

// decodeSnapshot decodes the slot value record by record, so one record of an
// unexpected shape costs that record only. A value that is not a JSON array
// is ErrSnapshotDecode.
func (s *Store) decodeSnapshot(raw []byte) ([]Book, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotDecode, err)
	}

	books := make([]Book, 0, len(items))
	for i, item := range items {
		var b Book
		if err := json.Unmarshal(item, &b); err != nil {
			s.log.Warn("snapshot record dropped", zap.Int("index", i), zap.Error(err))
			continue
		}
		books = append(books, b)
	}
	return books, nil
}
