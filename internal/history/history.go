package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// Entry is one finished screenshot
type Entry struct {
	ID   string    `json:"id"`
	Path string    `json:"path,omitempty"`
	URL  string    `json:"url,omitempty"`
	Time time.Time `json:"time"`
}

// Store persists history entries
type Store interface {
	Save(entry *Entry) error
	// Recent returns up to n entries, newest first
	Recent(n int) ([]Entry, error)
}

// Listener is called with every entry added to a Model
type Listener func(Entry)

// Model is the in-memory history list, oldest first
type Model struct {
	mu        sync.RWMutex
	entries   []Entry
	listeners []Listener
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{}
}

// Load seeds the model from a store, keeping up to n entries
func (m *Model) Load(store Store, n int) error {
	recent, err := store.Recent(n)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make([]Entry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		m.entries = append(m.entries, recent[i])
	}
	return nil
}

// Add appends an entry and notifies listeners
func (m *Model) Add(entry Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l(entry)
	}
}

// Record persists the entry, when a store is given, then adds it
func (m *Model) Record(store Store, entry Entry) error {
	if store != nil {
		if err := store.Save(&entry); err != nil {
			return fmt.Errorf("record history entry: %w", err)
		}
	}
	m.Add(entry)

	logger.WithComponent("history").Debug().
		Str("id", entry.ID).
		Str("path", entry.Path).
		Msg("History entry recorded")
	return nil
}

// Entries returns a copy of the entries, oldest first
func (m *Model) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Latest returns the newest entry
func (m *Model) Latest() (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// Subscribe registers a listener for new entries
func (m *Model) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}
