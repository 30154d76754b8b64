package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted blob keys.
const (
	KeyContent = "content"
	KeyPins    = "pins"
)

// Backend is a key-value blob store scoped to one client profile.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Store persists the layout content and pin list of a session.
// While incognito, Load and Save do nothing.
type Store struct {
	backend   Backend
	incognito bool
}

func NewStore(b Backend) *Store {
	return &Store{backend: b}
}

func (s *Store) SetIncognito(on bool) { s.incognito = on }

func (s *Store) Incognito() bool { return s.incognito }

// Load returns the persisted state. found is false when nothing is stored or
// the store is incognito. Malformed blobs yield a *DeserializationError and an
// empty state.
func (s *Store) Load(ctx context.Context) (st State, found bool, err error) {
	if s.incognito {
		return State{}, false, nil
	}
	rawContent, okContent, err := s.backend.Get(ctx, KeyContent)
	if err != nil {
		return State{}, false, fmt.Errorf("load %s: %w", KeyContent, err)
	}
	rawPins, okPins, err := s.backend.Get(ctx, KeyPins)
	if err != nil {
		return State{}, false, fmt.Errorf("load %s: %w", KeyPins, err)
	}
	if okContent {
		if err := json.Unmarshal(rawContent, &st.LayoutContent); err != nil {
			return State{}, false, &DeserializationError{Key: KeyContent, Err: err}
		}
	}
	if okPins {
		pins, err := decodePins(rawPins)
		if err != nil {
			return State{}, false, &DeserializationError{Key: KeyPins, Err: err}
		}
		st.Pins = pins
	}
	return st, okContent || okPins, nil
}

func decodePins(raw []byte) ([]Pin, error) {
	var pins []Pin
	if err := json.Unmarshal(raw, &pins); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(pins))
	for _, p := range pins {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pin id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return pins, nil
}

// Save writes content and pins as two independent blobs. A failure on one
// key does not prevent the other write; failures come back as *PersistError.
func (s *Store) Save(ctx context.Context, st State) error {
	if s.incognito {
		return nil
	}
	content, err := json.Marshal(st.LayoutContent)
	if err != nil {
		return &PersistError{Keys: []string{KeyContent}, Err: err}
	}
	pins := st.Pins
	if pins == nil {
		pins = []Pin{}
	}
	pinsRaw, err := json.Marshal(pins)
	if err != nil {
		return &PersistError{Keys: []string{KeyPins}, Err: err}
	}

	var failed []string
	var errs []error
	if err := s.backend.Put(ctx, KeyContent, content); err != nil {
		failed = append(failed, KeyContent)
		errs = append(errs, err)
	}
	if err := s.backend.Put(ctx, KeyPins, pinsRaw); err != nil {
		failed = append(failed, KeyPins)
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &PersistError{Keys: failed, Err: errors.Join(errs...)}
	}
	return nil
}

// Clear removes the persisted snapshot. It runs regardless of incognito so
// that turning incognito on can wipe what was stored before.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyContent, KeyPins); err != nil {
		return &PersistError{Keys: []string{KeyContent, KeyPins}, Err: err}
	}
	return nil
}
