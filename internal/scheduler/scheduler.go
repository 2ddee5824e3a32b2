// Package scheduler drives the periodic refresh of preview sessions.
//
// Each session owns a goroutine ticking at the profile's refresh rate.
// Captures run asynchronously off the tick so a slow screenshot never
// stalls the loop: at most one capture per session is in flight, ticks
// that land during one are dropped, and a sequence guard discards results
// that finish out of order or after the session was removed.
package scheduler

import (
	"context"
	"fmt"
	"image"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/AreteDriver/EVE-Overview/internal/capture"
	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// Capturer produces a screenshot of one window. *capture.Chain satisfies it.
type Capturer interface {
	Capture(ctx context.Context, id uint32) (image.Image, error)
}

// Sink receives the scheduler's output. Implementations must not block for
// long; they are called from per-session capture goroutines.
type Sink interface {
	// PublishFrame delivers a freshly captured, scaled frame.
	PublishFrame(sessionID string, frame *image.RGBA)

	// PublishDegraded signals that captures for the session have been
	// failing persistently. Fired once per failure streak.
	PublishDegraded(sessionID string)
}

// DefaultFailureThreshold is how many consecutive capture failures mark a
// session degraded.
const DefaultFailureThreshold = 3

const (
	minRefreshRate = 1
	maxRefreshRate = 60
)

// Status is a point-in-time snapshot of one session, for status reporting.
type Status struct {
	ID          string        `json:"id"`
	Window      window.Handle `json:"window"`
	Scale       float64       `json:"scale"`
	RefreshRate int           `json:"refresh_rate"`
	Paused      bool          `json:"paused"`
	Degraded    bool          `json:"degraded"`
	LastUpdated time.Time     `json:"last_updated,omitzero"`
}

type session struct {
	id       string
	handle   window.Handle
	scale    float64
	rate     int
	interval time.Duration

	paused   atomic.Bool
	inFlight atomic.Bool
	stop     chan struct{}

	mu          sync.Mutex
	removed     bool
	seq         uint64
	lastApplied uint64
	failures    int
	degraded    bool
	lastUpdated time.Time
}

// Scheduler manages the refresh loops for all active preview sessions.
type Scheduler struct {
	capturer         Capturer
	sink             Sink
	failureThreshold int
	log              *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a scheduler publishing into sink.
func New(capturer Capturer, sink Sink) *Scheduler {
	return &Scheduler{
		capturer:         capturer,
		sink:             sink,
		failureThreshold: DefaultFailureThreshold,
		log:              logger.WithComponent("scheduler"),
		sessions:         make(map[string]*session),
	}
}

// Add starts a refresh loop for the window under the given session id.
// The refresh rate is clamped to [1, 60] frames per second and the scale
// to (0, 1]. Adding an id that is already active is an error.
func (s *Scheduler) Add(id string, handle window.Handle, scale float64, refreshRate int) error {
	if refreshRate < minRefreshRate {
		refreshRate = minRefreshRate
	}
	if refreshRate > maxRefreshRate {
		refreshRate = maxRefreshRate
	}
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	sess := &session{
		id:       id,
		handle:   handle,
		scale:    scale,
		rate:     refreshRate,
		interval: time.Duration(1000/refreshRate) * time.Millisecond,
		stop:     make(chan struct{}),
	}

	s.mu.Lock()
	if _, exists := s.sessions[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("session %q already active", id)
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info().
		Str("session", id).
		Str("window", window.FormatHex(handle.ID)).
		Int("refresh_rate", refreshRate).
		Msg("Session started")

	go s.run(sess)
	return nil
}

// Remove stops the session's refresh loop and discards any capture still
// in flight. Removing an unknown id is a no-op.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.removed = true
	sess.mu.Unlock()
	close(sess.stop)

	s.log.Info().Str("session", id).Msg("Session stopped")
}

// Pause suspends captures for the session without tearing down its loop.
// The last published frame stays on screen. Unknown ids are ignored.
func (s *Scheduler) Pause(id string) {
	if sess := s.lookup(id); sess != nil {
		sess.paused.Store(true)
	}
}

// Resume restarts captures for a paused session. Unknown ids are ignored.
func (s *Scheduler) Resume(id string) {
	if sess := s.lookup(id); sess != nil {
		sess.paused.Store(false)
	}
}

// Stop removes every active session.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Remove(id)
	}
}

// Sessions returns a snapshot of all active sessions, ordered by id.
func (s *Scheduler) Sessions() []Status {
	s.mu.Lock()
	active := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		active = append(active, sess)
	}
	s.mu.Unlock()

	statuses := make([]Status, 0, len(active))
	for _, sess := range active {
		sess.mu.Lock()
		st := Status{
			ID:          sess.id,
			Window:      sess.handle,
			Scale:       sess.scale,
			RefreshRate: sess.rate,
			Paused:      sess.paused.Load(),
			Degraded:    sess.degraded,
			LastUpdated: sess.lastUpdated,
		}
		sess.mu.Unlock()
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

func (s *Scheduler) lookup(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Scheduler) run(sess *session) {
	ticker := time.NewTicker(sess.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			if sess.paused.Load() {
				continue
			}
			// Drop the tick if the previous capture is still running.
			if !sess.inFlight.CompareAndSwap(false, true) {
				continue
			}
			sess.mu.Lock()
			sess.seq++
			seq := sess.seq
			sess.mu.Unlock()
			go s.capture(sess, seq)
		}
	}
}

func (s *Scheduler) capture(sess *session, seq uint64) {
	defer sess.inFlight.Store(false)

	img, err := s.capturer.Capture(context.Background(), sess.handle.ID)

	sess.mu.Lock()
	if sess.removed || seq <= sess.lastApplied {
		sess.mu.Unlock()
		return
	}
	sess.lastApplied = seq

	if err != nil {
		sess.failures++
		degradeNow := !sess.degraded && sess.failures >= s.failureThreshold
		if degradeNow {
			sess.degraded = true
		}
		sess.mu.Unlock()
		if degradeNow {
			s.log.Warn().
				Str("session", sess.id).
				Str("window", window.FormatHex(sess.handle.ID)).
				Err(err).
				Msg("Session degraded after repeated capture failures")
			s.sink.PublishDegraded(sess.id)
		}
		return
	}

	sess.failures = 0
	recovered := sess.degraded
	sess.degraded = false
	sess.lastUpdated = time.Now()
	scale := sess.scale
	sess.mu.Unlock()

	if recovered {
		s.log.Info().Str("session", sess.id).Msg("Session recovered")
	}
	s.sink.PublishFrame(sess.id, capture.Scale(img, scale))
}
