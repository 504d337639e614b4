// Package session tracks per-conversation state: the uploaded survey file,
// its analysis bundle, and any generated artifacts. All files live under a
// per-session temp directory owned by the manager.
package session

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lpcore/domain/core"
	"lpcore/domain/insight"
	"lpcore/internal"
	lperrors "lpcore/internal/errors"
)

// Session is the mutable state of one chat conversation. All access goes
// through the mutex; values returned to callers are either immutable or
// owned by the caller.
type Session struct {
	ID core.SessionID

	mu         sync.Mutex
	dir        string
	csvPath    string
	csvName    string
	bundle     *insight.Bundle
	svgCode    string
	svgPath    string
	theme      string
	planText   string
	lastAccess time.Time
}

func (s *Session) touch() {
	s.lastAccess = time.Now()
}

// SaveUpload streams an uploaded file into the session directory, replacing
// any previous upload. The size limit is enforced while copying so an
// oversized body never lands on disk in full.
func (s *Session) SaveUpload(name string, r io.Reader, maxBytes int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", lperrors.InvalidInput("upload has no usable file name")
	}
	path := filepath.Join(s.dir, base)

	f, err := os.Create(path)
	if err != nil {
		return "", lperrors.Wrap(err, "creating upload file")
	}
	written, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		os.Remove(path)
		return "", lperrors.Wrap(err, "writing upload")
	}
	if closeErr != nil {
		os.Remove(path)
		return "", lperrors.Wrap(closeErr, "closing upload file")
	}
	if written > maxBytes {
		os.Remove(path)
		return "", lperrors.InvalidInput("uploaded file exceeds the size limit")
	}

	if s.csvPath != "" && s.csvPath != path {
		os.Remove(s.csvPath)
	}
	s.csvPath = path
	s.csvName = base
	s.bundle = nil
	return path, nil
}

// UploadPath returns the stored upload's path and original name, or ok=false
// when nothing has been uploaded.
func (s *Session) UploadPath() (path, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.csvPath, s.csvName, s.csvPath != ""
}

func (s *Session) SetBundle(b *insight.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.bundle = b
}

func (s *Session) Bundle() *insight.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.bundle
}

// SetSVG stores generated SVG markup and persists it alongside the upload so
// the deck builder can embed it by path.
func (s *Session) SetSVG(code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	path := filepath.Join(s.dir, "design.svg")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", lperrors.Wrap(err, "writing svg artifact")
	}
	s.svgCode = code
	s.svgPath = path
	return path, nil
}

func (s *Session) SVG() (code, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.svgCode, s.svgPath
}

func (s *Session) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.theme = strings.TrimSpace(theme)
}

func (s *Session) SetPlanText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.planText = text
}

func (s *Session) PlanText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.planText
}

func (s *Session) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.theme
}

// Clear drops all state and removes the session's files. The session stays
// usable for a fresh upload.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.csvPath != "" {
		os.Remove(s.csvPath)
	}
	if s.svgPath != "" {
		os.Remove(s.svgPath)
	}
	s.csvPath = ""
	s.csvName = ""
	s.bundle = nil
	s.svgCode = ""
	s.svgPath = ""
	s.theme = ""
	s.planText = ""
}

// Manager owns all sessions and their temp directories.
type Manager struct {
	mu       sync.Mutex
	sessions map[core.SessionID]*Session
	baseDir  string
	ttl      time.Duration
	log      *internal.Logger
}

func NewManager(baseDir string, ttl time.Duration) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, lperrors.Wrap(err, "creating session base directory")
	}
	return &Manager{
		sessions: make(map[core.SessionID]*Session),
		baseDir:  baseDir,
		ttl:      ttl,
		log:      internal.DefaultLogger,
	}, nil
}

// GetOrCreate returns the session for id, creating it and its directory on
// first use. An empty id allocates a new session.
func (m *Manager) GetOrCreate(id core.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = core.NewSessionID()
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	dir := filepath.Join(m.baseDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, lperrors.Wrap(err, "creating session directory")
	}
	s := &Session{ID: id, dir: dir, lastAccess: time.Now()}
	m.sessions[id] = s
	return s, nil
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id core.SessionID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove deletes a session and its directory.
func (m *Manager) Remove(id core.SessionID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		if err := os.RemoveAll(s.dir); err != nil {
			m.log.Warn("removing session dir %s: %v", s.dir, err)
		}
	}
}

// CleanupExpired removes sessions idle longer than the TTL and returns how
// many were dropped. A zero TTL disables expiry.
func (m *Manager) CleanupExpired() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastAccess.Before(cutoff)
		s.mu.Unlock()
		if idle {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		if err := os.RemoveAll(s.dir); err != nil {
			m.log.Warn("removing expired session dir %s: %v", s.dir, err)
		}
	}
	if len(expired) > 0 {
		m.log.Info("cleaned up %d expired sessions", len(expired))
	}
	return len(expired)
}

// StartJanitor runs CleanupExpired on the given interval until stop is
// closed.
func (m *Manager) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanupExpired()
			case <-stop:
				return
			}
		}
	}()
}
