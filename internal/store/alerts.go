// ABOUTME: AlertStore keeps a bounded, newest-first in-memory alert log.
// ABOUTME: Assigns monotonic ids, evicts oldest beyond capacity, supports ack.

package store

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAlertNotFound indicates the referenced alert does not exist or has
// been evicted.
var ErrAlertNotFound = errors.New("alert not found")

// DefaultAlertCapacity bounds the alert log when no capacity is configured.
const DefaultAlertCapacity = 100

// DefaultListLimit caps List results when the caller does not set one.
const DefaultListLimit = 50

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category classifies what subsystem an alert concerns.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryCompliance  Category = "compliance"
	CategorySystem      Category = "system"
)

// Alert is one entry in the alert log. Only AlertStore mutates it, and
// only the Acknowledged flag ever changes after creation.
type Alert struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Severity     Severity  `json:"severity"`
	Category     Category  `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

// CreateAlert carries the caller-supplied fields for a new alert.
type CreateAlert struct {
	Title    string
	Message  string
	Severity Severity
	Category Category
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Severity     Severity
	Category     Category
	Acknowledged *bool
	Limit        int
}

// AlertStore owns the bounded alert log. Entries are kept newest-first;
// creating beyond capacity evicts the oldest entries.
type AlertStore struct {
	mu       sync.Mutex
	alerts   []*Alert // index 0 is the newest
	nextID   uint64
	capacity int
	onCreate func(Alert)
}

// NewAlertStore creates a store with the given capacity.
// Non-positive capacity falls back to DefaultAlertCapacity.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	return &AlertStore{capacity: capacity}
}

// SetOnCreate registers a hook invoked (outside the store lock) with a
// copy of every newly created alert. Used by the broadcast engine to
// fan new alerts out to live connections.
func (s *AlertStore) SetOnCreate(fn func(Alert)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCreate = fn
}

// Create assigns an id and timestamp, inserts the alert at the front,
// and evicts the oldest entries beyond capacity. Ids are strictly
// increasing even under concurrent callers.
func (s *AlertStore) Create(req CreateAlert) Alert {
	s.mu.Lock()
	s.nextID++
	a := &Alert{
		ID:        fmt.Sprintf("alert-%d", s.nextID),
		Title:     req.Title,
		Message:   req.Message,
		Severity:  req.Severity,
		Category:  req.Category,
		Timestamp: time.Now(),
	}
	s.alerts = append([]*Alert{a}, s.alerts...)
	if len(s.alerts) > s.capacity {
		s.alerts = s.alerts[:s.capacity]
	}
	created := *a
	hook := s.onCreate
	s.mu.Unlock()

	if hook != nil {
		hook(created)
	}
	return created
}

// List returns copies of matching alerts, newest first, capped by the
// filter limit (DefaultListLimit when unset).
func (s *AlertStore) List(f ListFilter) []Alert {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, 0, min(limit, len(s.alerts)))
	for _, a := range s.alerts {
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged {
			continue
		}
		out = append(out, *a)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Acknowledge flips the acknowledged flag and returns the updated
// alert. Acknowledging twice is a no-op that returns the same alert.
// Returns ErrAlertNotFound for unknown or evicted ids.
func (s *AlertStore) Acknowledge(id string) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts {
		if a.ID == id {
			a.Acknowledged = true
			return *a, nil
		}
	}
	return Alert{}, ErrAlertNotFound
}

// UnacknowledgedCount returns how many live alerts are unacknowledged.
func (s *AlertStore) UnacknowledgedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.alerts {
		if !a.Acknowledged {
			n++
		}
	}
	return n
}

// ClearAll drops every alert. Ids keep increasing afterwards.
func (s *AlertStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
}
