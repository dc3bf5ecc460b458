package monitoring

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/navalhub/internal/game/events"
)

// SessionMonitor aggregates session events into counters and logs them
// periodically
type SessionMonitor struct {
	mu            sync.RWMutex
	logger        zerolog.Logger
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once

	started  int
	finished int
	failed   int
	shots    int
	rehits   int
	sinks    int
	turns    int
	wins     [2]int
	failures map[string]int
}

// NewSessionMonitor creates a monitor that logs every interval once started
func NewSessionMonitor(logger zerolog.Logger, interval time.Duration) *SessionMonitor {
	return &SessionMonitor{
		logger:        logger.With().Str("component", "session_monitor").Logger(),
		checkInterval: interval,
		stopChan:      make(chan struct{}),
		failures:      make(map[string]int),
	}
}

// ID implements events.Subscriber
func (sm *SessionMonitor) ID() string {
	return "session_monitor"
}

// InterestedIn implements events.Subscriber
func (sm *SessionMonitor) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeSessionStarted, events.TypeShotResolved, events.TypeShotRepeated,
		events.TypeGameEnded, events.TypeSessionFailed:
		return true
	}
	return false
}

// HandleEvent implements events.Subscriber
func (sm *SessionMonitor) HandleEvent(event events.Event) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch e := event.(type) {
	case *events.SessionStartedEvent:
		sm.started++
	case *events.ShotResolvedEvent:
		sm.shots++
		if e.Result == "SUNK" {
			sm.sinks++
		}
	case *events.ShotRepeatedEvent:
		sm.rehits++
	case *events.GameEndedEvent:
		sm.finished++
		sm.turns += e.Turns
		if e.Winner == 1 || e.Winner == 2 {
			sm.wins[e.Winner-1]++
		}
	case *events.SessionFailedEvent:
		sm.failed++
		sm.failures[e.Code]++
	}
}

// Start begins periodic logging. A non-positive interval disables it.
func (sm *SessionMonitor) Start() {
	if sm.checkInterval <= 0 {
		return
	}
	go sm.monitor()
	sm.logger.Info().
		Dur("interval", sm.checkInterval).
		Msg("Started session monitoring")
}

// Stop stops periodic logging and logs the final metrics
func (sm *SessionMonitor) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
		sm.report(zerolog.InfoLevel, "Final session metrics")
	})
}

func (sm *SessionMonitor) monitor() {
	defer func() {
		if r := recover(); r != nil {
			sm.logger.Error().
				Interface("panic", r).
				Msg("Session monitor panicked")
		}
	}()

	ticker := time.NewTicker(sm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.report(zerolog.DebugLevel, "Session metrics")
		case <-sm.stopChan:
			return
		}
	}
}

func (sm *SessionMonitor) report(level zerolog.Level, msg string) {
	m := sm.GetMetrics()
	sm.logger.WithLevel(level).
		Int("started", m.Started).
		Int("finished", m.Finished).
		Int("failed", m.Failed).
		Int("shots", m.Shots).
		Int("rehits", m.Rehits).
		Int("sinks", m.Sinks).
		Float64("avg_turns", m.AverageTurns).
		Ints("wins", m.Wins[:]).
		Msg(msg)
}

// GetMetrics returns a snapshot of the counters
func (sm *SessionMonitor) GetMetrics() SessionMetrics {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	m := SessionMetrics{
		Started:  sm.started,
		Finished: sm.finished,
		Failed:   sm.failed,
		Shots:    sm.shots,
		Rehits:   sm.rehits,
		Sinks:    sm.sinks,
		Wins:     sm.wins,
		Failures: copyMap(sm.failures),
	}
	if sm.finished > 0 {
		m.AverageTurns = float64(sm.turns) / float64(sm.finished)
	}
	return m
}

// SessionMetrics contains session statistics
type SessionMetrics struct {
	Started      int            `json:"started"`
	Finished     int            `json:"finished"`
	Failed       int            `json:"failed"`
	Shots        int            `json:"shots"`
	Rehits       int            `json:"rehits"`
	Sinks        int            `json:"sinks"`
	AverageTurns float64        `json:"avg_turns"`
	Wins         [2]int         `json:"wins"`
	Failures     map[string]int `json:"failures"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
