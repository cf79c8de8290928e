package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/vision"
	"github.com/vbonduro/clandphoto/internal/workflow"
)

const (
	sessionCookie = "clandphoto_session"
	// subscriberBuffer bounds the messages queued for one websocket.
	subscriberBuffer = 16
)

type sessionConfig struct {
	analyzer  vision.Analyzer
	sink      workflow.RecordSink
	maxBytes  int64
	timeout   time.Duration
	scheduler workflow.Scheduler
	logger    *slog.Logger
	userID    func(context.Context) string
}

// event is pushed to websocket subscribers.
type event struct {
	Type     string             `json:"type"`
	Snapshot *workflow.Snapshot `json:"snapshot,omitempty"`
	RecordID string             `json:"recordId,omitempty"`
	Redirect string             `json:"redirect,omitempty"`
}

type subscriber struct {
	send chan []byte
}

// session owns one browser's collection workflow and its admin unlock.
type session struct {
	id     string
	wf     *workflow.Workflow
	logger *slog.Logger

	mu            sync.Mutex
	lastSeen      time.Time
	adminPassword string
	subs          map[*subscriber]struct{}
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// unlockAdmin remembers the password that unlocked the admin panel. An
// empty password locks it again.
func (s *session) unlockAdmin(password string) {
	s.mu.Lock()
	s.adminPassword = password
	s.mu.Unlock()
}

func (s *session) adminUnlocked() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminPassword, s.adminPassword != ""
}

// subscribe registers a websocket queue primed with initial.
func (s *session) subscribe(initial []byte) *subscriber {
	sub := &subscriber{send: make(chan []byte, subscriberBuffer)}
	sub.send <- initial
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *session) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()
}

func (s *session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && s.lastSeen.Before(cutoff)
}

// publish fans ev out to every subscriber. A full queue loses its oldest
// message; snapshots carry a version so clients skip stale ones.
func (s *session) publish(ev event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.send <- msg:
			continue
		default:
		}
		select {
		case <-sub.send:
		default:
		}
		select {
		case sub.send <- msg:
		default:
		}
	}
}

func (s *session) closeSubscribers() {
	s.mu.Lock()
	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()
}

type sessionManager struct {
	cfg sessionConfig

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager(cfg sessionConfig) *sessionManager {
	return &sessionManager{cfg: cfg, sessions: make(map[string]*session)}
}

// get returns the caller's session, creating it and setting the cookie when
// the request carries none or an unknown one.
func (m *sessionManager) get(w http.ResponseWriter, r *http.Request) *session {
	if s := m.lookup(r); s != nil {
		return s
	}

	id := uuid.NewString()
	s := m.newSession(id)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	m.cfg.logger.Debug("session created", "session_id", id)
	return s
}

// lookup returns the caller's existing session or nil.
func (m *sessionManager) lookup(r *http.Request) *session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	s := m.sessions[c.Value]
	m.mu.Unlock()
	if s != nil {
		s.touch()
	}
	return s
}

func (m *sessionManager) newSession(id string) *session {
	s := &session{
		id:       id,
		logger:   m.cfg.logger.With("session_id", id),
		lastSeen: time.Now(),
		subs:     make(map[*subscriber]struct{}),
	}
	s.wf = workflow.New(workflow.Options{
		Analyzer:       m.cfg.analyzer,
		Sink:           m.cfg.sink,
		UserID: func() string {
			if m.cfg.userID == nil {
				return ""
			}
			return m.cfg.userID(context.Background())
		},
		Scheduler:      m.cfg.scheduler,
		Logger:         s.logger,
		MaxBytes:       m.cfg.maxBytes,
		AnalyzeTimeout: m.cfg.timeout,
		OnChange: func(snap workflow.Snapshot) {
			s.publish(event{Type: "snapshot", Snapshot: &snap})
		},
		OnCommitted: func(rec domain.PhotoEntry) {
			s.publish(event{Type: "committed", RecordID: rec.ID, Redirect: "/reports"})
			if err := s.wf.Reset(); err != nil {
				s.logger.Warn("failed to reset after commit", "error", err)
			}
		},
	})
	return s
}

// sweep closes sessions without subscribers that have been idle for longer
// than maxIdle. It returns how many were closed.
func (m *sessionManager) sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	var stale []*session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		_ = s.wf.Close()
		m.cfg.logger.Debug("session expired", "session_id", s.id)
	}
	return len(stale)
}

func (m *sessionManager) closeAll() {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.closeSubscribers()
		_ = s.wf.Close()
	}
}

func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
