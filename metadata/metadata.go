// Package metadata maps sent response messages to the parameters that
// produced them
package metadata

import "sync"

// Response types recorded in the store.
const (
	TypeGeneration = "generation"
	TypeImg2Img    = "img2img"
	TypeMerge      = "merge"
	TypeBatchEdit  = "batch_edit"
)

// Entry holds the generation parameters behind one sent response.
type Entry struct {
	Prompt         string
	Seed           int
	HasSeed        bool
	Type           string
	SourceImages   []string
	ReferenceImage string
	AIParams       map[string]string
	TotalImages    int
	FailedCount    int
}

// Store is an in-memory write-once mapping from sent-message ID to
// its metadata entry.
type Store struct {
	mutex   sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Record stores the entry for a sent message. The first write wins;
// repeated writes for the same message ID are ignored.
func (s *Store) Record(messageID string, entry Entry) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.entries[messageID]; ok {
		return
	}
	s.entries[messageID] = entry
}

// Get returns the entry for a sent message, if recorded.
func (s *Store) Get(messageID string) (Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	entry, ok := s.entries[messageID]
	return entry, ok
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}
