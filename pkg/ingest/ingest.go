// Package ingest pulls issues from Jira, normalizes them and hands them to a
// sink, one ticket at a time.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/sw33tLie/jirascope/pkg/jira"
	"github.com/sw33tLie/jirascope/pkg/ticket"
	"github.com/tidwall/gjson"
)

// Logger is the logging interface shared with the jira client.
type Logger = jira.Logger

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Source is where raw issues come from. *jira.Client implements it.
type Source interface {
	SearchIssues(ctx context.Context, jql string, onPage jira.PageFunc) (*jira.Collection, error)
	IssueComments(ctx context.Context, key string) ([]gjson.Result, error)
}

// Sink receives normalized tickets.
type Sink interface {
	// Put stores one ticket and returns where it went.
	Put(ctx context.Context, t *ticket.Ticket) (string, error)
	// Finish is called once after every ticket of a successful run.
	Finish(ctx context.Context, idx *Index) error
	Close() error
}

// Config holds everything Run needs for one query.
type Config struct {
	Source     Source
	Sink       Sink
	Normalizer *ticket.Normalizer // optional
	Log        Logger             // optional; nil = no logging

	// OnTicketDone is called after each ticket is stored. Nil = no callback.
	OnTicketDone func(done, total int, t *ticket.Ticket)
}

// Result holds the outcome of one run.
type Result struct {
	Index    *Index
	Warnings []string // non-fatal problems such as partial pagination
}

// Run fetches every issue matching jql and stores each one before moving
// to the next. A failure stops the run; tickets stored before it stay
// stored, and the partial result is returned along with the error.
func Run(ctx context.Context, cfg Config, jql string) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = &ticket.Normalizer{}
	}

	log.Infof("Searching for issues with JQL: %s", jql)
	col, err := cfg.Source.SearchIssues(ctx, jql, func(fetched int) {
		log.Debugf("Fetched %d issues so far", fetched)
	})
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	log.Infof("Found %d issues", len(col.Items))

	idx := NewIndex(jql)
	result := &Result{Index: idx, Warnings: append([]string(nil), col.Warnings...)}
	total := len(col.Items)

	for i, raw := range col.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := raw.Get("key").String()
		log.Debugf("Processing %d/%d: %s", i+1, total, key)

		comments, err := cfg.Source.IssueComments(ctx, key)
		if err != nil {
			return result, fmt.Errorf("fetching comments for %s: %w", key, err)
		}

		t := normalizer.Normalize(raw, comments)
		location, err := cfg.Sink.Put(ctx, t)
		if err != nil {
			return result, fmt.Errorf("storing %s: %w", key, err)
		}
		idx.Add(t, location)

		if cfg.OnTicketDone != nil {
			cfg.OnTicketDone(i+1, total, t)
		}
	}

	if err := cfg.Sink.Finish(ctx, idx); err != nil {
		return result, err
	}
	return result, nil
}

// ProjectJQL builds the per-project query, newest tickets first. since is
// passed through to Jira unchanged and may be empty.
func ProjectJQL(project, since string) string {
	jql := `project = "` + strings.ReplaceAll(project, `"`, `\"`) + `"`
	if since != "" {
		jql += " AND created >= '" + strings.ReplaceAll(since, "'", `\'`) + "'"
	}
	return jql + " ORDER BY created DESC"
}

// DefaultDBPath is the store used for a plain query when no file is named.
const DefaultDBPath = "jira.db"

// DBPath picks the store file for one project. When several projects are
// exported, or no file was named, each project gets KEY.db.
func DBPath(named, project string, multiple bool) string {
	if project == "" {
		if named == "" {
			return DefaultDBPath
		}
		return named
	}
	if named == "" || multiple {
		return project + ".db"
	}
	return named
}
