package quota

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrUserIDRequired = errors.New("user id is required")

// Entry is one user's consumption for a single calendar day.
type Entry struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Store persists quota entries. Implementations only need durable get/put;
// the check-and-increment discipline lives in the Service, under one lock.
type Store interface {
	Get(userID string) (Entry, bool, error)
	Put(userID string, e Entry) error
}

// Service tracks per-user daily AI usage against a fixed ceiling.
type Service struct {
	mu      sync.Mutex
	store   Store
	ceiling int
	now     func() time.Time
}

// NewService creates a quota tracker. ceiling <= 0 falls back to 5.
func NewService(store Store, ceiling int) *Service {
	if ceiling <= 0 {
		ceiling = 5
	}
	return &Service{
		store:   store,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// TryConsume admits the call and increments the counter if the user is under
// today's ceiling. At the ceiling it refuses without mutation. The check and
// the increment happen under one lock, so two racing calls with one slot
// remaining admit exactly one.
func (s *Service) TryConsume(userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format("2006-01-02")

	entry, ok, err := s.store.Get(userID)
	if err != nil {
		return false, err
	}
	if !ok || entry.Date != today {
		entry = Entry{Date: today}
	}

	if entry.Count >= s.ceiling {
		return false, nil
	}

	entry.Count++
	if err := s.store.Put(userID, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Remaining reports how many calls the user has left today.
func (s *Service) Remaining(userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok, err := s.store.Get(userID)
	if err != nil {
		return 0, err
	}
	if !ok || entry.Date != s.now().Format("2006-01-02") {
		return s.ceiling, nil
	}
	left := s.ceiling - entry.Count
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Ceiling returns the configured daily limit.
func (s *Service) Ceiling() int { return s.ceiling }
