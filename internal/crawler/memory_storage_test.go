package crawler

import (
	"sync"
	"time"

	"github.com/masahif/focuscrawl/internal/stats"
)

// memoryStorage is a Storage kept in maps, for tests
type memoryStorage struct {
	mu      sync.Mutex
	queue   []*URLItem
	claimed map[int]*URLItem
	seen    map[string]bool
	nextID  int

	pages  map[string]*PageData
	errors map[string]string
	state  stats.State
	saves  int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		claimed: make(map[int]*URLItem),
		seen:    make(map[string]bool),
		pages:   make(map[string]*PageData),
		errors:  make(map[string]string),
	}
}

func (m *memoryStorage) Enqueue(urls []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, url := range urls {
		if m.seen[url] {
			continue
		}
		m.seen[url] = true
		m.nextID++
		m.queue = append(m.queue, &URLItem{ID: m.nextID, URL: url})
		added++
	}
	return added, nil
}

func (m *memoryStorage) Claim() (*URLItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return nil, nil
	}
	item := m.queue[0]
	m.queue = m.queue[1:]
	m.claimed[item.ID] = item
	return item, nil
}

func (m *memoryStorage) Complete(id int, page *PageData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.claimed[id]; ok {
		m.pages[item.URL] = page
		delete(m.claimed, id)
	}
	return nil
}

func (m *memoryStorage) Fail(id int, errorType, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.claimed[id]; ok {
		m.errors[item.URL] = errorType
		delete(m.claimed, id)
	}
	return nil
}

func (m *memoryStorage) QueueStatus() (QueueStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return QueueStatus{
		Queued:     len(m.queue),
		Processing: len(m.claimed),
		Completed:  len(m.pages),
		Errors:     len(m.errors),
	}, nil
}

func (m *memoryStorage) HasPending() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)+len(m.claimed) > 0, nil
}

// RequeueStale ignores olderThan: every claimed item is stale
func (m *memoryStorage) RequeueStale(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.claimed)
	for id, item := range m.claimed {
		m.queue = append(m.queue, item)
		delete(m.claimed, id)
	}
	return n, nil
}

func (m *memoryStorage) SaveState(state stats.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.saves++
	return nil
}

func (m *memoryStorage) LoadState() (stats.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memoryStorage) Close() error {
	return nil
}

func (m *memoryStorage) page(url string) *PageData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pages[url]
}

func (m *memoryStorage) errorType(url string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[url]
}
