package credential

import (
	"context"
	"sync"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// Record is the unit of durable credential state. Credential and identity
// cache always travel together so a replacement lands atomically.
type Record struct {
	Credential domain.DeviceCredential  `json:"credential"`
	Identity   *domain.IdentitySnapshot `json:"identity,omitempty"`
}

// Store persists the device credential record. Implementations must make
// Save atomic with respect to Load: a reader never observes a new credential
// paired with the old identity cache.
type Store interface {
	// Load returns the stored record, or (nil, nil) when none exists.
	Load(ctx context.Context) (*Record, error)

	// Save replaces the stored record in one step.
	Save(ctx context.Context, record Record) error
}

// InMemoryStore keeps the record in process memory. Used by tests and the
// dev harness.
type InMemoryStore struct {
	mu     sync.Mutex
	record *Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(ctx context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil, nil
	}
	copied := *s.record
	return &copied, nil
}

func (s *InMemoryStore) Save(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &record
	return nil
}

var _ Store = (*InMemoryStore)(nil)
