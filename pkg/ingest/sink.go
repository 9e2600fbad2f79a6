package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sw33tLie/jirascope/pkg/storage"
	"github.com/sw33tLie/jirascope/pkg/ticket"
)

// FileSink writes each ticket to Dir/KEY.json and the run index to
// Dir/_index.json.
type FileSink struct {
	Dir string
}

func (s *FileSink) Put(_ context.Context, t *ticket.Ticket) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := fileName(t.Key) + ".json"
	if err := writeJSON(filepath.Join(s.Dir, name), t); err != nil {
		return "", err
	}
	return name, nil
}

func (s *FileSink) Finish(_ context.Context, idx *Index) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.Dir, IndexFile), idx)
}

func (s *FileSink) Close() error { return nil }

func fileName(key string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, key)
}

func writeJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Locker guards a store against concurrent writers.
type Locker interface {
	Lock() error
	Unlock() error
}

// DBSink upserts tickets into the store at Path. The store is opened, and
// the lock taken, on the first Put, so a run without results leaves no
// file behind.
type DBSink struct {
	Path    string
	NewLock func(path string) (Locker, error) // optional

	db   *storage.DB
	lock Locker
}

func (s *DBSink) open() error {
	if s.NewLock != nil {
		lock, err := s.NewLock(s.Path)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		s.lock = lock
	}
	db, err := storage.Open(s.Path)
	if err != nil {
		s.unlock()
		return fmt.Errorf("opening %s: %w", s.Path, err)
	}
	s.db = db
	return nil
}

func (s *DBSink) Put(ctx context.Context, t *ticket.Ticket) (string, error) {
	if s.db == nil {
		if err := s.open(); err != nil {
			return "", err
		}
	}
	if err := s.db.UpsertTicket(ctx, t); err != nil {
		return "", err
	}
	return s.Path, nil
}

func (s *DBSink) Finish(context.Context, *Index) error { return nil }

// Stats reports the store's counts, or nil when nothing was written.
func (s *DBSink) Stats(ctx context.Context) (*storage.Stats, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.GetStats(ctx)
}

func (s *DBSink) Close() error {
	err := s.db.Close()
	s.db = nil
	s.unlock()
	return err
}

func (s *DBSink) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
		s.lock = nil
	}
}
