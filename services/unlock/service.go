package unlock

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome reports what a tap on an unlock button did.
type Outcome int

const (
	// OutcomeScheduled means this tap started a new wait cycle.
	OutcomeScheduled Outcome = iota
	// OutcomePending means a cycle for this key is already counting down;
	// the tap was absorbed without restarting the timer.
	OutcomePending
	// OutcomeRedelivered means the cycle already resolved and the content
	// was handed over again immediately, with no new wait.
	OutcomeRedelivered
)

// cycle is one in-flight or resolved unlock for a single key.
type cycle struct {
	id          string
	requestedAt time.Time
	resolvedAt  time.Time
	resolved    bool
	timer       *time.Timer
}

// Service gates content reveals behind a fixed, non-cancellable delay.
// Keys are the encoded unlock tokens themselves, so the same title tapped
// by the same path always lands on the same cycle.
type Service struct {
	mu        sync.Mutex
	cycles    map[string]*cycle
	delay     time.Duration
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewService creates the gate and starts its cleanup loop. delay <= 0 falls
// back to 5 seconds.
func NewService(delay time.Duration) *Service {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	s := &Service{
		cycles:    make(map[string]*cycle),
		delay:     delay,
		retention: time.Hour,
		stop:      make(chan struct{}),
		now:       time.Now,
	}
	go s.cleanupLoop()
	return s
}

// Delay returns the configured wait.
func (s *Service) Delay() time.Duration { return s.delay }

// Request handles one tap for key. On the first tap it schedules deliver to
// run exactly once after the delay. Taps during the countdown are absorbed.
// Taps after resolution call deliver immediately, once per tap.
func (s *Service) Request(key string, deliver func()) Outcome {
	s.mu.Lock()

	if c, ok := s.cycles[key]; ok {
		if !c.resolved {
			s.mu.Unlock()
			return OutcomePending
		}
		s.mu.Unlock()
		deliver()
		return OutcomeRedelivered
	}

	c := &cycle{
		id:          uuid.NewString(),
		requestedAt: s.now(),
	}
	c.timer = time.AfterFunc(s.delay, func() {
		s.resolve(key, c, deliver)
	})
	s.cycles[key] = c
	s.mu.Unlock()

	log.Printf("[unlock] cycle %s scheduled for %q (delay %s)", c.id, key, s.delay)
	return OutcomeScheduled
}

func (s *Service) resolve(key string, c *cycle, deliver func()) {
	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		return
	default:
	}
	c.resolved = true
	c.resolvedAt = s.now()
	s.mu.Unlock()

	log.Printf("[unlock] cycle %s resolved for %q", c.id, key)
	deliver()
}

// Shutdown cancels pending timers and stops the cleanup loop. Pending cycles
// never resolve after shutdown.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cycles {
		if c.timer != nil {
			c.timer.Stop()
		}
	}
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.retireExpired()
		}
	}
}

// retireExpired drops resolved cycles past the retention window. The next
// tap on a retired key starts a fresh countdown, which is acceptable for a
// stale conversation.
func (s *Service) retireExpired() {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.cycles {
		if c.resolved && c.resolvedAt.Before(cutoff) {
			delete(s.cycles, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[unlock] retired %d resolved cycles", removed)
	}
}
