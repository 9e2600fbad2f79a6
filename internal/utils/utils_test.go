package utils

import (
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		if err := SetLogLevel(tt.in); err != nil {
			t.Fatalf("SetLogLevel(%q): %v", tt.in, err)
		}
		if Log.GetLevel() != tt.want {
			t.Fatalf("SetLogLevel(%q): expected %v, got %v", tt.in, tt.want, Log.GetLevel())
		}
	}
	if err := SetLogLevel("verbose"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	SetLogLevel("info")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"summary text here", 10, "summary..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestDBLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "PROJ.db")
	l, err := NewDBLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	other := flock.New(dbPath + lockFileSuffix)
	locked, err := other.TryLock()
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Fatal("expected the store to be locked")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	locked, err = other.TryLock()
	if err != nil || !locked {
		t.Fatalf("expected the lock to be free after Unlock, got %v, %v", locked, err)
	}
	other.Unlock()
}

func TestGetAbsDBPath(t *testing.T) {
	p, err := GetAbsDBPath("")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(p) || filepath.Base(p) != "jira.db" {
		t.Fatalf("expected an absolute jira.db path, got %s", p)
	}
}
