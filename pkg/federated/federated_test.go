package federated

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sw33tLie/jirascope/pkg/storage"
	"github.com/sw33tLie/jirascope/pkg/ticket"
)

func str(s string) *string { return &s }

func newTicket(key, summary, project, status, updated string) *ticket.Ticket {
	return &ticket.Ticket{
		Key:             key,
		Summary:         str(summary),
		Description:     summary + " description",
		Status:          str(status),
		IssueType:       str("Task"),
		ProjectKey:      str(project),
		Updated:         str(updated),
		Labels:          []string{},
		Components:      []string{},
		FixVersions:     []string{},
		AffectsVersions: []string{},
		Comments:        []ticket.Comment{{ID: key + "-c", Body: "note"}},
		Changelog:       []ticket.ChangeEvent{},
		Links:           []ticket.Link{},
		Subtasks:        []ticket.Subtask{},
	}
}

// writeStore creates a store file holding tickets and returns its path.
func writeStore(t *testing.T, dir, name string, tickets ...*ticket.Ticket) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, tk := range tickets {
		if err := db.UpsertTicket(context.Background(), tk); err != nil {
			t.Fatalf("UpsertTicket(%s): %v", tk.Key, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

type warnings []string

func (w *warnings) Warnf(format string, args ...interface{}) {
	*w = append(*w, fmt.Sprintf(format, args...))
}

func openFederation(t *testing.T, paths ...string) *Federation {
	t.Helper()
	fed, err := OpenPaths(paths, nil)
	if err != nil {
		t.Fatalf("OpenPaths: %v", err)
	}
	t.Cleanup(func() { fed.Close() })
	return fed
}

func keys(p *Page) []string {
	out := []string{}
	for _, tk := range p.Tickets {
		out = append(out, tk.Key)
	}
	return out
}

func TestSearchMergesNewestFirst(t *testing.T) {
	dir := t.TempDir()
	a := writeStore(t, dir, "a.db", newTicket("PROJ-1", "login widget", "PROJ", "Open", "2024-01-01T00:00:00.000+0000"))
	b := writeStore(t, dir, "b.db", newTicket("OTHER-1", "widget crash", "OTHER", "Done", "2024-06-01T00:00:00.000+0000"))
	fed := openFederation(t, a, b)

	page, err := fed.Search(context.Background(), Query{Text: "widget"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := keys(page); !reflect.DeepEqual(got, []string{"OTHER-1", "PROJ-1"}) {
		t.Fatalf("expected [OTHER-1 PROJ-1], got %v", got)
	}
	if page.Tickets[0].Store != "b.db" || page.Tickets[1].Store != "a.db" {
		t.Fatalf("unexpected store attribution %+v", page.Tickets)
	}
	if page.Total != 2 || page.TotalPages != 1 || page.Page != 1 || page.PageSize != DefaultPageSize {
		t.Fatalf("unexpected page metadata %+v", page)
	}

	page, err = fed.Search(context.Background(), Query{Text: "widget", Project: "PROJ"})
	if err != nil {
		t.Fatal(err)
	}
	if got := keys(page); !reflect.DeepEqual(got, []string{"PROJ-1"}) {
		t.Fatalf("expected project filter to apply across stores, got %v", got)
	}
}

type fakeStore struct {
	path string
	hits []storage.TicketSummary
	err  error
}

func (f *fakeStore) Search(context.Context, storage.Filter) ([]storage.TicketSummary, error) {
	return append([]storage.TicketSummary(nil), f.hits...), f.err
}
func (f *fakeStore) GetTicket(context.Context, string) (*storage.TicketDetail, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeStore) GetStats(context.Context) (*storage.Stats, error) { return &storage.Stats{}, nil }
func (f *fakeStore) GetFilterOptions(context.Context) (*storage.FilterOptions, error) {
	return &storage.FilterOptions{}, nil
}
func (f *fakeStore) ProjectKeys(context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) Path() string                                 { return f.path }
func (f *fakeStore) Close() error                                 { return nil }

func summaries(prefix string, n int, updated string) []storage.TicketSummary {
	out := make([]storage.TicketSummary, n)
	for i := range out {
		out[i] = storage.TicketSummary{Key: fmt.Sprintf("%s-%d", prefix, i+1), Updated: updated}
	}
	return out
}

func TestSearchPagination(t *testing.T) {
	fed := New(&fakeStore{path: "x.db", hits: summaries("X", 120, "2024-01-01")})

	tests := []struct {
		page, wantPage, wantLen int
		wantFirst              string
	}{
		{1, 1, 50, "X-1"},
		{0, 1, 50, "X-1"},
		{-3, 1, 50, "X-1"},
		{3, 3, 20, "X-101"},
		{4, 4, 0, ""},
	}
	for _, tt := range tests {
		page, err := fed.Search(context.Background(), Query{Page: tt.page})
		if err != nil {
			t.Fatalf("page %d: %v", tt.page, err)
		}
		if page.Page != tt.wantPage || len(page.Tickets) != tt.wantLen {
			t.Fatalf("page %d: expected page %d with %d tickets, got page %d with %d", tt.page, tt.wantPage, tt.wantLen, page.Page, len(page.Tickets))
		}
		if tt.wantLen > 0 && page.Tickets[0].Key != tt.wantFirst {
			t.Fatalf("page %d: expected first %s, got %s", tt.page, tt.wantFirst, page.Tickets[0].Key)
		}
		if page.Total != 120 || page.TotalPages != 3 {
			t.Fatalf("page %d: expected 120 hits over 3 pages, got %d over %d", tt.page, page.Total, page.TotalPages)
		}
	}

	page, err := fed.Search(context.Background(), Query{PageSize: 7})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalPages != 18 || len(page.Tickets) != 7 {
		t.Fatalf("expected 18 pages of 7, got %d pages and %d tickets", page.TotalPages, len(page.Tickets))
	}
}

func TestSearchTiesKeepStoreOrder(t *testing.T) {
	fed := New(
		&fakeStore{path: "/data/first.db", hits: summaries("A", 2, "2024-03-01")},
		&fakeStore{path: "/data/second.db", hits: append(summaries("B", 1, "2024-03-01"), storage.TicketSummary{Key: "B-new", Updated: "2024-09-01"})},
		&fakeStore{path: "/data/third.db", hits: []storage.TicketSummary{{Key: "C-undated"}}},
	)
	page, err := fed.Search(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"B-new", "A-1", "A-2", "B-1", "C-undated"}
	if got := keys(page); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if page.Tickets[0].Store != "second.db" {
		t.Fatalf("expected base name of store path, got %q", page.Tickets[0].Store)
	}
}

func TestSearchWithoutStores(t *testing.T) {
	page, err := New().Search(context.Background(), Query{Text: "anything", Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 || page.TotalPages != 0 || page.Tickets == nil || len(page.Tickets) != 0 {
		t.Fatalf("expected an empty page, got %+v", page)
	}
}

func TestSearchPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	fed := New(&fakeStore{path: "ok.db"}, &fakeStore{path: "bad.db", err: boom})
	if _, err := fed.Search(context.Background(), Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestTicketFirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	a := writeStore(t, dir, "a.db", newTicket("PROJ-1", "from a", "PROJ", "Open", "2024-01-01"))
	b := writeStore(t, dir, "b.db",
		newTicket("PROJ-1", "from b", "PROJ", "Open", "2024-09-01"),
		newTicket("PROJ-2", "only in b", "PROJ", "Open", "2024-09-01"))
	fed := openFederation(t, a, b)
	ctx := context.Background()

	detail, err := fed.Ticket(ctx, "PROJ-1")
	if err != nil {
		t.Fatal(err)
	}
	if detail.Summary != "from a" || detail.Store != "a.db" {
		t.Fatalf("expected the first store's copy, got %q from %q", detail.Summary, detail.Store)
	}

	detail, err = fed.Ticket(ctx, "PROJ-2")
	if err != nil || detail.Summary != "only in b" || len(detail.Comments) != 1 {
		t.Fatalf("unexpected PROJ-2 lookup: %+v, %v", detail, err)
	}

	if _, err := fed.Ticket(ctx, "NOPE-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsAndFilterOptions(t *testing.T) {
	dir := t.TempDir()
	a := writeStore(t, dir, "a.db",
		newTicket("PROJ-1", "one", "PROJ", "Open", "2024-01-01"),
		newTicket("PROJ-2", "two", "PROJ", "Done", "2024-01-02"))
	b := writeStore(t, dir, "b.db",
		newTicket("PROJ-3", "three", "PROJ", "Open", "2024-01-03"),
		newTicket("OPS-1", "four", "OPS", "Blocked", "2024-01-04"))
	fed := openFederation(t, a, b)
	ctx := context.Background()

	stats, err := fed.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Tickets != 4 || stats.Comments != 4 || stats.ChangelogEntries != 0 || stats.Projects != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	opts, err := fed.FilterOptions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.Statuses, []string{"Blocked", "Done", "Open"}) ||
		!reflect.DeepEqual(opts.Projects, []string{"OPS", "PROJ"}) ||
		!reflect.DeepEqual(opts.IssueTypes, []string{"Task"}) {
		t.Fatalf("unexpected filter options %+v", opts)
	}
}

func TestOpenPaths(t *testing.T) {
	dir := t.TempDir()
	a := writeStore(t, dir, "a.db", newTicket("PROJ-1", "one", "PROJ", "Open", "2024-01-01"))
	missing := filepath.Join(dir, "missing.db")

	var warned warnings
	fed, err := OpenPaths([]string{missing, a}, &warned)
	if err != nil {
		t.Fatalf("OpenPaths: %v", err)
	}
	defer fed.Close()
	if fed.Len() != 1 || !reflect.DeepEqual(fed.Paths(), []string{a}) {
		t.Fatalf("expected only %s, got %v", a, fed.Paths())
	}
	if len(warned) != 1 {
		t.Fatalf("expected one warning, got %v", warned)
	}

	if _, err := OpenPaths([]string{missing}, nil); !errors.Is(err, ErrNoStores) {
		t.Fatalf("expected ErrNoStores, got %v", err)
	}
	if _, err := OpenPaths(nil, nil); !errors.Is(err, ErrNoStores) {
		t.Fatalf("expected ErrNoStores for no paths, got %v", err)
	}
}
