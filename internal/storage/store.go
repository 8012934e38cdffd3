package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/meltforce/mapty/internal/models"
)

// ErrDuplicateID is returned by Add when the workout id is already stored.
var ErrDuplicateID = errors.New("duplicate workout id")

// CorruptStateError reports a persisted blob that cannot be decoded into workouts.
type CorruptStateError struct {
	Err error
}

func (e *CorruptStateError) Error() string {
	return "corrupt persisted state: " + e.Err.Error()
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// Store is the ordered in-memory collection of workouts, oldest first.
// It never persists on its own; callers use Persist or AddAndPersist.
type Store struct {
	mu       sync.RWMutex
	workouts []models.Workout
	index    map[string]int
	kv       KV
	key      string
}

// NewStore creates an empty store persisting under key in kv. kv may be nil
// for a purely in-memory store.
func NewStore(kv KV, key string) *Store {
	return &Store{
		index: make(map[string]int),
		kv:    kv,
		key:   key,
	}
}

// Add appends a workout.
func (s *Store) Add(w models.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(w)
}

func (s *Store) addLocked(w models.Workout) error {
	if _, ok := s.index[w.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, w.ID())
	}
	s.index[w.ID()] = len(s.workouts)
	s.workouts = append(s.workouts, w)
	return nil
}

// FindByID returns the workout with the given id.
func (s *Store) FindByID(id string) (models.Workout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Workout{}, false
	}
	return s.workouts[i], true
}

// Len returns the number of stored workouts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workouts)
}

// List returns a copy of the workouts in insertion order.
func (s *Store) List() []models.Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Workout, len(s.workouts))
	copy(out, s.workouts)
	return out
}

// All iterates the workouts in insertion order. Each range over the
// returned sequence starts from a fresh snapshot.
func (s *Store) All() iter.Seq[models.Workout] {
	return func(yield func(models.Workout) bool) {
		for _, w := range s.List() {
			if !yield(w) {
				return
			}
		}
	}
}

// Serialize encodes the store as a JSON array of workout records.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encodeWorkouts(s.workouts)
}

func encodeWorkouts(workouts []models.Workout) ([]byte, error) {
	records := make([]models.Record, len(workouts))
	for i, w := range workouts {
		records[i] = w.Record()
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding workouts: %w", err)
	}
	return data, nil
}

func decodeWorkouts(blob []byte) ([]models.Workout, map[string]int, error) {
	var records []models.Record
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, nil, &CorruptStateError{Err: fmt.Errorf("decoding workouts: %w", err)}
	}

	workouts := make([]models.Workout, 0, len(records))
	index := make(map[string]int, len(records))
	for i, r := range records {
		w, err := models.Restore(r)
		if err != nil {
			return nil, nil, &CorruptStateError{Err: fmt.Errorf("record %d: %w", i, err)}
		}
		if _, dup := index[w.ID()]; dup {
			return nil, nil, &CorruptStateError{Err: fmt.Errorf("record %d: %w: %s", i, ErrDuplicateID, w.ID())}
		}
		index[w.ID()] = len(workouts)
		workouts = append(workouts, w)
	}
	return workouts, index, nil
}

// Deserialize replaces the contents with the workouts decoded from blob,
// keeping their order. On error the current contents are left untouched.
func (s *Store) Deserialize(blob []byte) error {
	workouts, index, err := decodeWorkouts(blob)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = workouts
	s.index = index
	return nil
}

// Persist overwrites the persisted record with the store's contents.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.kv == nil {
		return nil
	}
	data, err := encodeWorkouts(s.workouts)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("persisting workouts: %w", err)
	}
	return nil
}

// maxSaveAttempts bounds the retries of AddAndPersist when other writers
// keep changing the persisted record.
const maxSaveAttempts = 10

// AddAndPersist appends w to the persisted record and then to memory. The
// record is re-read before every write, so workouts saved by another process
// sharing the backend are kept, and the write only lands if nobody changed
// the record in between. On failure memory and the backend are unchanged.
func (s *Store) AddAndPersist(ctx context.Context, w models.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv == nil {
		return s.addLocked(w)
	}
	for range maxSaveAttempts {
		old, current, err := s.loadLocked(ctx)
		if err != nil {
			return err
		}
		for _, c := range current {
			if c.ID() == w.ID() {
				return fmt.Errorf("%w: %s", ErrDuplicateID, w.ID())
			}
		}
		next := append(current[:len(current):len(current)], w)
		data, err := encodeWorkouts(next)
		if err != nil {
			return err
		}

		err = s.kv.CompareAndSwap(ctx, s.key, old, data)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("persisting workouts: %w", err)
		}
		s.workouts = next
		s.index = make(map[string]int, len(next))
		for i, x := range next {
			s.index[x.ID()] = i
		}
		return nil
	}
	return fmt.Errorf("persisting workouts after %d attempts: %w", maxSaveAttempts, ErrConflict)
}

// loadLocked returns the raw persisted record (nil when absent) and the
// workouts to build on. A corrupt record is replaced by what is in memory.
func (s *Store) loadLocked(ctx context.Context) ([]byte, []models.Workout, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading persisted workouts: %w", err)
	}
	workouts, _, err := decodeWorkouts(data)
	if err != nil {
		return data, slices.Clone(s.workouts), nil
	}
	return data, workouts, nil
}

// Restore loads the persisted blob, if any. A missing key leaves the store
// as it is; a malformed blob returns a *CorruptStateError.
func (s *Store) Restore(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading persisted workouts: %w", err)
	}
	return s.Deserialize(data)
}

// Clear removes the persisted record and then empties the store. If the
// delete fails nothing is cleared.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("removing persisted workouts: %w", err)
		}
	}
	s.workouts = nil
	s.index = make(map[string]int)
	return nil
}
