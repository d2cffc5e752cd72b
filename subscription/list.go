package subscription

import (
	"sync"
	"sync/atomic"
	"time"

	"webshield/rules"
)

// List is one registered subscription and its compiled rule set.
// The set is replaced wholesale by pointer swap on successful refresh;
// a concurrent query never observes a half-updated set.
type List struct {
	Config ListConfig

	enabled atomic.Bool
	set     atomic.Pointer[rules.Set]

	mu           sync.Mutex // guards fetch metadata below
	cacheFile    string
	etag         string
	lastModified string
	lastUpdate   time.Time
	lastError    string
	failCount    int
	status       string // active | failed | bad
}

// ListStatus is the read-only view of a list exposed to the API.
type ListStatus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Enabled     bool      `json:"enabled"`
	RuleCount   int       `json:"rule_count"`
	Status      string    `json:"status"`
	LastUpdate  time.Time `json:"last_update"`
	LastError   string    `json:"last_error"`
}

// Enabled reports whether the list is currently consulted by queries.
func (l *List) Enabled() bool {
	return l.enabled.Load()
}

// Set returns the current compiled rule set, possibly nil.
func (l *List) Set() *rules.Set {
	return l.set.Load()
}

func (l *List) snapshot() ListStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ListStatus{
		ID:          l.Config.ID,
		Name:        l.Config.Name,
		Description: l.Config.Description,
		Category:    l.Config.Category,
		Priority:    l.Config.Priority,
		Enabled:     l.enabled.Load(),
		RuleCount:   l.set.Load().Len(),
		Status:      l.status,
		LastUpdate:  l.lastUpdate,
		LastError:   l.lastError,
	}
}

func (l *List) recordSuccess(etag, lastModified string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.etag = etag
	l.lastModified = lastModified
	l.lastUpdate = time.Now()
	l.lastError = ""
	l.failCount = 0
	l.status = "active"
}

func (l *List) recordFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUpdate = time.Now()
	l.lastError = err.Error()
	l.failCount++
	l.status = "failed"
	if l.failCount >= 3 {
		l.status = "bad"
	}
}

func (l *List) fetchState() (url, cacheFile, etag, lastModified string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Config.URL, l.cacheFile, l.etag, l.lastModified
}
