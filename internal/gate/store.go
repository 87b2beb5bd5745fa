package gate

import (
	"fmt"
	"sync"
	"time"
)

const purchaseKeyPrefix = "albumPurchaseToken-"

// PurchaseKey returns the storage key for an album's purchase record.
func PurchaseKey(albumID string) string {
	return purchaseKeyPrefix + albumID
}

// PurchaseToken builds the opaque record value written on unlock.
func PurchaseToken(at time.Time) string {
	return fmt.Sprintf("purchased-%d", at.UnixMilli())
}

// PurchaseStore persists purchase records. Any non-empty token means purchased.
type PurchaseStore interface {
	Purchased(albumID string) (bool, error) // Purchased reports whether a truthy record exists
	Record(albumID, token string) error     // Record writes (or overwrites) the record for albumID
	Clear(albumID string) error             // Clear removes the record; a missing record is not an error
}

// MemoryStore is a [PurchaseStore] backed by a map, keyed exactly like the persistent store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]string
	reads   int
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (s *MemoryStore) Purchased(albumID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.records[PurchaseKey(albumID)] != "", nil
}

func (s *MemoryStore) Record(albumID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[PurchaseKey(albumID)] = token
	return nil
}

func (s *MemoryStore) Clear(albumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, PurchaseKey(albumID))
	return nil
}

// Token returns the raw value stored for albumID.
func (s *MemoryStore) Token(albumID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[PurchaseKey(albumID)]
}

// Len returns how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Reads returns how many times Purchased was called.
func (s *MemoryStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
