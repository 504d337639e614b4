package session

import (
	"os"
	"strings"
	"testing"
	"time"

	"lpcore/domain/core"
	"lpcore/domain/insight"
	lperrors "lpcore/internal/errors"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestGetOrCreateAllocatesID(t *testing.T) {
	m := newTestManager(t, 0)
	s, err := m.GetOrCreate("")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if s.ID == "" {
		t.Error("expected an allocated session id")
	}
	again, err := m.GetOrCreate(s.ID)
	if err != nil {
		t.Fatalf("GetOrCreate existing: %v", err)
	}
	if again != s {
		t.Error("same id should return the same session")
	}
}

func TestSaveUploadAndReplace(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.GetOrCreate("")

	first, err := s.SaveUpload("survey.csv", strings.NewReader("a,b\n1,2\n"), 1024)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("upload not on disk: %v", err)
	}

	s.SetBundle(&insight.Bundle{})
	second, err := s.SaveUpload("other.csv", strings.NewReader("x,y\n3,4\n"), 1024)
	if err != nil {
		t.Fatalf("second SaveUpload: %v", err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("previous upload should be removed")
	}
	if s.Bundle() != nil {
		t.Error("new upload should invalidate the cached bundle")
	}

	path, name, ok := s.UploadPath()
	if !ok || path != second || name != "other.csv" {
		t.Errorf("UploadPath: %q %q %v", path, name, ok)
	}
}

func TestSaveUploadRejectsOversized(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.GetOrCreate("")

	_, err := s.SaveUpload("big.csv", strings.NewReader(strings.Repeat("x", 100)), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeInvalidInput) {
		t.Errorf("want INVALID_INPUT, got %v", err)
	}
	if _, _, ok := s.UploadPath(); ok {
		t.Error("oversized upload must not be kept")
	}
}

func TestSaveUploadStripsPath(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.GetOrCreate("")

	path, err := s.SaveUpload("../../etc/passwd", strings.NewReader("data"), 1024)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasSuffix(path, "passwd") || strings.Contains(path, "..") {
		t.Errorf("path traversal not stripped: %s", path)
	}
}

func TestSetSVGAndClear(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.GetOrCreate("")

	svgPath, err := s.SetSVG("<svg></svg>")
	if err != nil {
		t.Fatalf("SetSVG: %v", err)
	}
	code, path := s.SVG()
	if code != "<svg></svg>" || path != svgPath {
		t.Errorf("SVG: %q %q", code, path)
	}

	csvPath, _ := s.SaveUpload("survey.csv", strings.NewReader("a\n1\n"), 1024)
	s.SetTheme(" 新製品LP ")
	if s.Theme() != "新製品LP" {
		t.Errorf("theme not trimmed: %q", s.Theme())
	}

	s.Clear()
	if _, err := os.Stat(csvPath); !os.IsNotExist(err) {
		t.Error("csv should be removed on Clear")
	}
	if _, err := os.Stat(svgPath); !os.IsNotExist(err) {
		t.Error("svg should be removed on Clear")
	}
	if _, _, ok := s.UploadPath(); ok {
		t.Error("upload state should be reset")
	}
	if s.Theme() != "" {
		t.Error("theme should be reset")
	}
}

func TestCleanupExpired(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s, _ := m.GetOrCreate(core.NewSessionID())
	s.mu.Lock()
	s.lastAccess = time.Now().Add(-2 * time.Minute)
	dir := s.dir
	s.mu.Unlock()

	fresh, _ := m.GetOrCreate(core.NewSessionID())

	if n := m.CleanupExpired(); n != 1 {
		t.Fatalf("CleanupExpired: got %d, want 1", n)
	}
	if _, ok := m.Lookup(s.ID); ok {
		t.Error("expired session still registered")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("expired session dir still on disk")
	}
	if _, ok := m.Lookup(fresh.ID); !ok {
		t.Error("fresh session should survive cleanup")
	}
}

func TestCleanupDisabledWithZeroTTL(t *testing.T) {
	m := newTestManager(t, 0)
	s, _ := m.GetOrCreate("")
	s.mu.Lock()
	s.lastAccess = time.Time{}
	s.mu.Unlock()
	if n := m.CleanupExpired(); n != 0 {
		t.Errorf("zero TTL should disable expiry, cleaned %d", n)
	}
}
