// Package federated answers queries over several ticket stores as if they
// were one.
package federated

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sw33tLie/jirascope/pkg/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultPageSize is used when a Query leaves PageSize unset.
const DefaultPageSize = 50

var ErrNoStores = errors.New("no ticket stores available")

// Store is the read side of one ticket store. *storage.DB implements it.
type Store interface {
	Search(ctx context.Context, f storage.Filter) ([]storage.TicketSummary, error)
	GetTicket(ctx context.Context, key string) (*storage.TicketDetail, error)
	GetStats(ctx context.Context) (*storage.Stats, error)
	GetFilterOptions(ctx context.Context) (*storage.FilterOptions, error)
	ProjectKeys(ctx context.Context) ([]string, error)
	Path() string
	Close() error
}

// Logger receives warnings about stores that could not be used.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type Federation struct {
	stores []Store
}

func New(stores ...Store) *Federation {
	return &Federation{stores: stores}
}

// OpenPaths opens every existing store read-only. Missing or unreadable
// files are skipped with a warning; ErrNoStores is returned when nothing
// could be opened.
func OpenPaths(paths []string, log Logger) (*Federation, error) {
	var stores []Store
	for _, p := range paths {
		db, err := storage.OpenReadOnly(p)
		if err != nil {
			if log != nil {
				if os.IsNotExist(err) {
					log.Warnf("Database not found, skipping: %s", p)
				} else {
					log.Warnf("Could not open %s, skipping: %v", p, err)
				}
			}
			continue
		}
		stores = append(stores, db)
	}
	if len(stores) == 0 {
		return nil, ErrNoStores
	}
	return New(stores...), nil
}

// Len returns the number of stores.
func (f *Federation) Len() int { return len(f.stores) }

// Paths returns the store paths in query order.
func (f *Federation) Paths() []string {
	out := make([]string, len(f.stores))
	for i, s := range f.stores {
		out[i] = s.Path()
	}
	return out
}

func (f *Federation) Close() error {
	var errs []error
	for _, s := range f.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Query struct {
	Text      string
	Status    string
	Project   string
	IssueType string
	Page      int
	PageSize  int
}

type Page struct {
	Tickets    []storage.TicketSummary `json:"tickets"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"totalPages"`
}

// Search runs q against every store, merges the hits newest first and
// returns the requested page. Hits with equal update times keep store order.
func (f *Federation) Search(ctx context.Context, q Query) (*Page, error) {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	filter := storage.Filter{Text: q.Text, Status: q.Status, Project: q.Project, IssueType: q.IssueType}

	results := make([][]storage.TicketSummary, len(f.stores))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range f.stores {
		i, s := i, s
		g.Go(func() error {
			hits, err := s.Search(gctx, filter)
			if err != nil {
				return fmt.Errorf("searching %s: %w", s.Path(), err)
			}
			name := filepath.Base(s.Path())
			for j := range hits {
				hits[j].Store = name
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := []storage.TicketSummary{}
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Updated > merged[b].Updated
	})

	out := &Page{
		Tickets:    []storage.TicketSummary{},
		Page:       page,
		PageSize:   size,
		Total:      len(merged),
		TotalPages: (len(merged) + size - 1) / size,
	}
	start := (page - 1) * size
	if start < len(merged) {
		end := start + size
		if end > len(merged) {
			end = len(merged)
		}
		out.Tickets = merged[start:end]
	}
	return out, nil
}

// Ticket returns the first store's copy of key, probing stores in order.
func (f *Federation) Ticket(ctx context.Context, key string) (*storage.TicketDetail, error) {
	for _, s := range f.stores {
		detail, err := s.GetTicket(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", key, s.Path(), err)
		}
		detail.Store = filepath.Base(s.Path())
		return detail, nil
	}
	return nil, storage.ErrNotFound
}

// Stats sums the per-store counts. Projects counts distinct project keys
// across all stores.
func (f *Federation) Stats(ctx context.Context) (*storage.Stats, error) {
	total := &storage.Stats{}
	projects := map[string]struct{}{}
	for _, s := range f.stores {
		st, err := s.GetStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", s.Path(), err)
		}
		total.Tickets += st.Tickets
		total.Comments += st.Comments
		total.ChangelogEntries += st.ChangelogEntries

		keys, err := s.ProjectKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("projects for %s: %w", s.Path(), err)
		}
		for _, k := range keys {
			projects[k] = struct{}{}
		}
	}
	total.Projects = len(projects)
	return total, nil
}

// FilterOptions returns the sorted union of every store's filter values.
func (f *Federation) FilterOptions(ctx context.Context) (*storage.FilterOptions, error) {
	statuses, projects, types := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	for _, s := range f.stores {
		opts, err := s.GetFilterOptions(ctx)
		if err != nil {
			return nil, fmt.Errorf("filter options for %s: %w", s.Path(), err)
		}
		addAll(statuses, opts.Statuses)
		addAll(projects, opts.Projects)
		addAll(types, opts.IssueTypes)
	}
	return &storage.FilterOptions{
		Statuses:   sorted(statuses),
		Projects:   sorted(projects),
		IssueTypes: sorted(types),
	}, nil
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range values {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
