package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/attr"
	"github.com/aretw0/stash/pkg/ports"
)

// Store is one session: an attribute tree bound to an ID and a handler.
// It is not safe for concurrent use.
type Store struct {
	name      string
	id        string
	handler   ports.Handler
	attrs     *attr.Map
	started   bool
	existence ports.Existence
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store for the session id. An invalid or empty id is replaced
// by a freshly generated one.
func New(name string, handler ports.Handler, id string, opts ...Option) *Store {
	s := &Store{
		name:    name,
		handler: handler,
		attrs:   attr.New(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetID(id)
	return s
}

func (s *Store) ledger() flashLedger {
	return flashLedger{attrs: s.attrs}
}

// Start loads the persisted attributes. Calling it again before Save re-reads.
// On error the store stays unstarted and keeps its current attributes.
func (s *Store) Start(ctx context.Context) error {
	res, err := s.handler.Read(ctx, s.id)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if res.Attributes != nil {
		s.attrs = attr.From(res.Attributes)
	}
	s.existence = res.Existence()
	s.started = true
	return nil
}

// Save ages the flash data and writes the attributes. It is a no-op unless the
// store was started. The store is unstarted afterwards, even on failure, so
// that a retried Save never ages the flash data twice.
func (s *Store) Save(ctx context.Context) error {
	if !s.started {
		return nil
	}

	s.ledger().age()
	err := s.handler.Write(ctx, s.id, s.attrs.All(), s.existence)
	s.started = false
	if err != nil {
		s.logger.Warn("session save failed", "name", s.name, "error", err)
		return fmt.Errorf("save session: %w", err)
	}

	s.existence = ports.ExistencePresent
	return nil
}

// IsStarted reports whether Start has run since the last Save.
func (s *Store) IsStarted() bool {
	return s.started
}

// ID returns the session ID.
func (s *Store) ID() string {
	return s.id
}

// SetID sets the session ID, generating a new one when id is invalid.
func (s *Store) SetID(id string) {
	if !IsValidID(id) {
		if id != "" {
			s.logger.Debug("replacing invalid session id")
		}
		id = GenerateID()
	}
	s.id = id
	s.existence = ports.ExistenceUnknown
}

// Name returns the session name.
func (s *Store) Name() string {
	return s.name
}

// SetName sets the session name.
func (s *Store) SetName(name string) {
	s.name = name
}

// Handler returns the persistence handler.
func (s *Store) Handler() ports.Handler {
	return s.handler
}

// Regenerate assigns a fresh ID, destroying the old record first when destroy
// is set. The new ID is assigned even if the destroy fails.
func (s *Store) Regenerate(ctx context.Context, destroy bool) (string, error) {
	var err error
	if destroy {
		if derr := s.handler.Destroy(ctx, s.id); derr != nil {
			err = fmt.Errorf("regenerate session: %w", derr)
		}
	}

	s.id = GenerateID()
	s.existence = ports.ExistenceAbsent
	return s.id, err
}

// Invalidate removes every attribute and regenerates the ID, destroying the
// old record.
func (s *Store) Invalidate(ctx context.Context) error {
	s.Flush()
	_, err := s.Regenerate(ctx, true)
	return err
}

// All returns the attribute tree. Callers must not mutate it.
func (s *Store) All() map[string]any { return s.attrs.All() }

// Len returns the number of top-level attributes.
func (s *Store) Len() int { return s.attrs.Len() }

// Exists reports whether every path resolves, nil values included.
func (s *Store) Exists(paths ...string) bool { return s.attrs.Exists(paths...) }

// Has reports whether every path resolves to a non-nil value.
func (s *Store) Has(paths ...string) bool { return s.attrs.Has(paths...) }

// Get returns the value at path, or def.
func (s *Store) Get(path string, def any) any { return s.attrs.Get(path, def) }

// Put stores value at path.
func (s *Store) Put(path string, value any) { s.attrs.Put(path, value) }

// PutAll stores every path/value pair.
func (s *Store) PutAll(values map[string]any) { s.attrs.PutAll(values) }

// Push appends value to the sequence at path.
func (s *Store) Push(path string, value any) { s.attrs.Push(path, value) }

// Increment adds amount to the number at path.
func (s *Store) Increment(path string, amount int64) (any, error) {
	return s.attrs.Increment(path, amount)
}

// Decrement subtracts amount from the number at path.
func (s *Store) Decrement(path string, amount int64) (any, error) {
	return s.attrs.Decrement(path, amount)
}

// Pull returns the value at path, or def, and removes it.
func (s *Store) Pull(path string, def any) any { return s.attrs.Pull(path, def) }

// Remove deletes path and returns its previous value.
func (s *Store) Remove(path string) any { return s.attrs.Remove(path) }

// Forget removes every given path.
func (s *Store) Forget(paths ...string) { s.attrs.Forget(paths...) }

// Replace merges values into the attributes.
func (s *Store) Replace(values map[string]any) { s.attrs.Replace(values) }

// Flush removes every attribute, flash bookkeeping included.
func (s *Store) Flush() { s.attrs.Flush() }

// Flash stores value at key for this cycle and the next one.
func (s *Store) Flash(key string, value any) { s.ledger().flash(key, value) }

// Now stores value at key for the current cycle only.
func (s *Store) Now(key string, value any) { s.ledger().now(key, value) }

// Reflash keeps all current flash data for one more cycle.
func (s *Store) Reflash() { s.ledger().reflash() }

// Keep keeps the given flash keys for one more cycle.
func (s *Store) Keep(keys ...string) { s.ledger().keep(keys...) }

// FlashInput flashes a set of submitted form values.
func (s *Store) FlashInput(input map[string]any) {
	s.Flash(oldInputKey, input)
}

// OldInput returns the flashed input value at key, or def.
// An empty key returns the whole input map.
func (s *Store) OldInput(key string, def any) any {
	input := s.oldInput()
	if key == "" {
		return input.All()
	}
	return input.Get(key, def)
}

// HasOldInput reports whether the flashed input holds a non-nil value at key.
// An empty key reports whether any input was flashed.
func (s *Store) HasOldInput(key string) bool {
	input := s.oldInput()
	if key == "" {
		return input.Len() > 0
	}
	return input.Get(key, nil) != nil
}

func (s *Store) oldInput() *attr.Map {
	input, ok := s.attrs.Get(oldInputKey, nil).(map[string]any)
	if !ok {
		return attr.New()
	}
	return attr.From(input)
}
