package export

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionExists is returned by Begin when the job already has a
// running session.
var ErrSessionExists = errors.New("an export is already running for this job")

// Session is an observable snapshot of a running export.
type Session struct {
	JobID     string    `json:"job_id"`
	Step      Status    `json:"step"`
	Percent   float64   `json:"percent"`
	Frame     int       `json:"frame,omitempty"`
	FPS       float64   `json:"fps,omitempty"`
	Bitrate   float64   `json:"bitrate,omitempty"`
	Remaining float64   `json:"remaining,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

type session struct {
	snapshot Session
	cancel   context.CancelFunc
}

// SessionManager tracks running exports and their cancellation handles.
// All methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*session)}
}

// Begin registers a session for jobID and returns a derived context that
// Cancel and End release. A second Begin for the same job fails with
// ErrSessionExists.
func (m *SessionManager) Begin(ctx context.Context, jobID string) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[jobID]; ok {
		return nil, ErrSessionExists
	}

	ctx, cancel := context.WithCancel(ctx)
	m.sessions[jobID] = &session{
		snapshot: Session{JobID: jobID, Step: StatusIdle, StartedAt: time.Now()},
		cancel:   cancel,
	}
	return ctx, nil
}

// Update merges a progress event into the session snapshot. Telemetry
// fields only overwrite when the event carries them, so a sparse ffmpeg
// line does not blank out the last known values.
func (m *SessionManager) Update(jobID string, ev ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[jobID]
	if !ok {
		return
	}
	if ev.Step != "" {
		s.snapshot.Step = ev.Step
	}
	s.snapshot.Percent = ev.Percent
	if ev.Frame > 0 {
		s.snapshot.Frame = ev.Frame
	}
	if ev.FPS > 0 {
		s.snapshot.FPS = ev.FPS
	}
	if ev.Bitrate > 0 {
		s.snapshot.Bitrate = ev.Bitrate
	}
	if ev.Remaining > 0 {
		s.snapshot.Remaining = ev.Remaining
	}
}

// Cancel cancels the session's context so the export goroutine winds
// down. Returns false when no session is registered for jobID.
func (m *SessionManager) Cancel(jobID string) bool {
	m.mu.RLock()
	s, ok := m.sessions[jobID]
	m.mu.RUnlock()

	if !ok {
		return false
	}
	s.cancel()
	return true
}

// End removes the session and releases its context.
func (m *SessionManager) End(jobID string) {
	m.mu.Lock()
	s, ok := m.sessions[jobID]
	delete(m.sessions, jobID)
	m.mu.Unlock()

	if ok {
		s.cancel()
	}
}

// Snapshot returns a copy of the session state.
func (m *SessionManager) Snapshot(jobID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[jobID]
	if !ok {
		return Session{}, false
	}
	return s.snapshot, true
}

// Active returns the number of registered sessions.
func (m *SessionManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
