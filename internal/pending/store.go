package pending

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of a staged operation.
type Kind string

const (
	KindSendEmail   Kind = "send_email"
	KindShareFile   Kind = "share_file"
	KindCreateEvent Kind = "create_event"
)

var (
	// ErrNoPending means nothing is staged, or the presented token
	// does not match the staged operation.
	ErrNoPending = errors.New("no matching pending operation")
	// ErrExpired means the staged operation outlived its TTL.
	ErrExpired = errors.New("pending operation has expired")
)

// Operation is a staged action awaiting confirmation.
type Operation struct {
	Kind      Kind
	Token     string
	CreatedAt time.Time
	Params    any
}

// Store is a single-slot holder for the operation awaiting
// confirmation. Safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	op  *Operation
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a store. A zero ttl means staged operations never
// expire.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now}
}

// Put stages an operation, replacing any previously staged one, and
// returns its confirmation token.
func (s *Store) Put(kind Kind, params any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.New().String()
	s.op = &Operation{
		Kind:      kind,
		Token:     token,
		CreatedAt: s.now(),
		Params:    params,
	}
	return token
}

// Peek returns the staged operation matching token without clearing
// it. Returns ErrNoPending when nothing matches and ErrExpired (also
// clearing the slot) when the operation is stale.
func (s *Store) Peek(token string) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(token)
}

// Take returns the staged operation matching token and clears the
// slot.
func (s *Store) Take(token string) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.matchLocked(token)
	if err != nil {
		return nil, err
	}
	s.op = nil
	return op, nil
}

// Clear drops whatever is staged. Clearing an empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op = nil
}

// Current returns the staged operation, if any, regardless of token.
func (s *Store) Current() *Operation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op == nil {
		return nil
	}
	if s.expiredLocked() {
		s.op = nil
		return nil
	}
	op := *s.op
	return &op
}

func (s *Store) matchLocked(token string) (*Operation, error) {
	if s.op == nil || s.op.Token != token {
		return nil, ErrNoPending
	}
	if s.expiredLocked() {
		s.op = nil
		return nil, ErrExpired
	}
	op := *s.op
	return &op, nil
}

func (s *Store) expiredLocked() bool {
	return s.ttl > 0 && s.now().Sub(s.op.CreatedAt) > s.ttl
}
