package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sw33tLie/jirascope/pkg/ticket"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("ticket not found")

// DB is one ticket store. Each store is written by a single process at a
// time; readers may share it.
type DB struct {
	sql  *sql.DB
	path string
}

// Open opens or creates the store at path and ensures its schema. A store
// whose search index is empty while tickets exist gets the index rebuilt.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}

	d := &DB{sql: db, path: path}
	var tickets, indexed int
	if err := db.QueryRow("SELECT (SELECT COUNT(*) FROM tickets), (SELECT COUNT(*) FROM " + ftsTable + ")").Scan(&tickets, &indexed); err != nil {
		db.Close()
		return nil, err
	}
	if tickets > 0 && indexed == 0 {
		if err := d.RebuildIndex(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}
	return d, nil
}

// OpenReadOnly opens an existing store for queries. The schema is left
// untouched, so stores without a search index stay that way.
func OpenReadOnly(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	dsn := "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Path is the file the store was opened from.
func (d *DB) Path() string { return d.path }

func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpsertTicket replaces everything stored for t.Key in one transaction: the
// ticket row, its search index entry and all child rows. On error nothing
// changes.
func (d *DB) UpsertTicket(ctx context.Context, t *ticket.Ticket) error {
	if t == nil || t.Key == "" {
		return errors.New("ticket has no key")
	}
	row, err := ticketRow(t)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", t.Key, err)
	}

	return d.withTx(ctx, func(tx *sql.Tx) error {
		var oldRowID int64
		err := tx.QueryRowContext(ctx, "SELECT rowid FROM tickets WHERE key = ?", t.Key).Scan(&oldRowID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+ftsTable+" WHERE rowid = ?", oldRowID); err != nil {
				return err
			}
		}

		for _, table := range childTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE ticket_key = ?", t.Key); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO tickets (
  key, id, summary, description, description_raw, status, status_category, priority, issue_type, is_subtask,
  project_key, project_name, creator_id, creator_name, creator_email, reporter_id, reporter_name, reporter_email,
  assignee_id, assignee_name, assignee_email, created, updated, resolved, resolution,
  labels, components, fix_versions, affects_versions, parent_key, parent_summary, custom_fields, raw_json, exported_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, row...)
		if err != nil {
			return err
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO "+ftsTable+"(rowid, key, summary, description) VALUES (?,?,?,?)", rowID, t.Key, nullable(t.Summary), t.Description); err != nil {
			return err
		}

		return insertChildren(ctx, tx, t)
	})
}

func insertChildren(ctx context.Context, tx *sql.Tx, t *ticket.Ticket) error {
	for _, c := range t.Comments {
		id, name, email := userCols(c.Author)
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO comments (id, ticket_key, author_id, author_name, author_email, body, body_raw, created, updated) VALUES (?,?,?,?,?,?,?,?,?)`,
			c.ID, t.Key, id, name, email, c.Body, rawText(c.BodyRaw), nullable(c.Created), nullable(c.Updated)); err != nil {
			return err
		}
	}
	for _, ev := range t.Changelog {
		id, name, email := userCols(ev.Author)
		if _, err := tx.ExecContext(ctx, `INSERT INTO changelog (ticket_key, field, field_type, from_value, to_value, author_id, author_name, author_email, created) VALUES (?,?,?,?,?,?,?,?,?)`,
			t.Key, nullable(ev.Field), nullable(ev.FieldType), nullable(ev.From), nullable(ev.To), id, name, email, nullable(ev.Created)); err != nil {
			return err
		}
	}
	for _, l := range t.Links {
		if _, err := tx.ExecContext(ctx, `INSERT INTO issue_links (ticket_key, link_type, inward_key, outward_key) VALUES (?,?,?,?)`,
			t.Key, nullable(l.Type), nullable(l.Inward), nullable(l.Outward)); err != nil {
			return err
		}
	}
	for _, s := range t.Subtasks {
		if _, err := tx.ExecContext(ctx, `INSERT INTO subtasks (ticket_key, subtask_key, subtask_summary) VALUES (?,?,?)`,
			t.Key, s.Key, nullable(s.Summary)); err != nil {
			return err
		}
	}
	return nil
}

func ticketRow(t *ticket.Ticket) ([]interface{}, error) {
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return nil, err
	}
	components, err := json.Marshal(t.Components)
	if err != nil {
		return nil, err
	}
	fixVersions, err := json.Marshal(t.FixVersions)
	if err != nil {
		return nil, err
	}
	affectsVersions, err := json.Marshal(t.AffectsVersions)
	if err != nil {
		return nil, err
	}
	custom, err := json.Marshal(t.CustomFields)
	if err != nil {
		return nil, err
	}

	creatorID, creatorName, creatorEmail := userCols(t.Creator)
	reporterID, reporterName, reporterEmail := userCols(t.Reporter)
	assigneeID, assigneeName, assigneeEmail := userCols(t.Assignee)

	var parentKey, parentSummary interface{}
	if t.Parent != nil {
		parentKey, parentSummary = t.Parent.Key, nullable(t.Parent.Summary)
	}

	return []interface{}{
		t.Key, nullable(t.ID), nullable(t.Summary), t.Description, rawText(t.DescriptionRaw),
		nullable(t.Status), nullable(t.StatusCategory), nullable(t.Priority), nullable(t.IssueType), boolToInt(t.IsSubtask),
		nullable(t.ProjectKey), nullable(t.ProjectName),
		creatorID, creatorName, creatorEmail,
		reporterID, reporterName, reporterEmail,
		assigneeID, assigneeName, assigneeEmail,
		nullable(t.Created), nullable(t.Updated), nullable(t.Resolved), nullable(t.Resolution),
		string(labels), string(components), string(fixVersions), string(affectsVersions),
		parentKey, parentSummary, string(custom), rawText(t.Raw), t.ExportedAt,
	}, nil
}

// RebuildIndex repopulates the search index from the tickets table.
func (d *DB) RebuildIndex(ctx context.Context) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+ftsTable); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO "+ftsTable+"(rowid, key, summary, description) SELECT rowid, key, summary, description FROM tickets")
		return err
	})
}

// Optimize rebuilds the search index, refreshes planner statistics and
// reclaims free pages.
func (d *DB) Optimize(ctx context.Context) error {
	if err := d.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuilding search index: %w", err)
	}
	if _, err := d.sql.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if _, err := d.sql.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// GetStats counts what the store holds.
func (d *DB) GetStats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := d.sql.QueryRowContext(ctx, `SELECT
  (SELECT COUNT(*) FROM tickets),
  (SELECT COUNT(*) FROM comments),
  (SELECT COUNT(*) FROM changelog),
  (SELECT COUNT(DISTINCT project_key) FROM tickets WHERE project_key IS NOT NULL)`).Scan(&s.Tickets, &s.Comments, &s.ChangelogEntries, &s.Projects)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
