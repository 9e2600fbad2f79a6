package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"github.com/sw33tLie/jirascope/pkg/ticket"
)

const summaryColumns = `t.key, COALESCE(t.summary,''), COALESCE(t.status,''), COALESCE(t.status_category,''),
  COALESCE(t.issue_type,''), COALESCE(t.project_key,''), COALESCE(t.assignee_name,''),
  COALESCE(t.created,''), COALESCE(t.updated,'')`

// HasFullTextIndex reports whether the store carries the search index.
func (d *DB) HasFullTextIndex(ctx context.Context) (bool, error) {
	var name string
	err := d.sql.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", ftsTable).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FTSQuery turns free text into a match expression: a quoted phrase when
// the text contains whitespace, a quoted prefix token otherwise.
func FTSQuery(text string) string {
	text = strings.TrimSpace(text)
	quoted := `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
	if strings.IndexFunc(text, unicode.IsSpace) >= 0 {
		return quoted
	}
	return quoted + "*"
}

// Search returns every ticket matching f, unordered and unpaginated. Text
// goes through the search index when the store has one and through a
// case-insensitive substring match otherwise.
func (d *DB) Search(ctx context.Context, f Filter) ([]TicketSummary, error) {
	text := strings.TrimSpace(f.Text)
	useIndex := false
	if text != "" {
		has, err := d.HasFullTextIndex(ctx)
		if err != nil {
			return nil, err
		}
		useIndex = has
	}

	query := "SELECT " + summaryColumns + " FROM tickets t"
	where := " WHERE 1=1"
	var args []interface{}

	switch {
	case useIndex:
		query += " JOIN " + ftsTable + " ON " + ftsTable + ".rowid = t.rowid"
		where += " AND " + ftsTable + " MATCH ?"
		args = append(args, FTSQuery(text))
	case text != "":
		like := "%" + text + "%"
		where += " AND (t.key LIKE ? OR t.summary LIKE ? OR t.description LIKE ?)"
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		where += " AND t.status = ?"
		args = append(args, f.Status)
	}
	if f.Project != "" {
		where += " AND t.project_key = ?"
		args = append(args, f.Project)
	}
	if f.IssueType != "" {
		where += " AND t.issue_type = ?"
		args = append(args, f.IssueType)
	}

	rows, err := d.sql.QueryContext(ctx, query+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TicketSummary{}
	for rows.Next() {
		var s TicketSummary
		if err := rows.Scan(&s.Key, &s.Summary, &s.Status, &s.StatusCategory, &s.IssueType, &s.ProjectKey, &s.AssigneeName, &s.Created, &s.Updated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTicket loads one ticket with its comments, changelog, links and
// subtasks. It returns ErrNotFound when the key is not stored.
func (d *DB) GetTicket(ctx context.Context, key string) (*TicketDetail, error) {
	var t TicketDetail
	var description, descRaw, priority, projectName, exportedAt sql.NullString
	var creatorID, creatorName, creatorMail, reporterID, reporterName, reporterMail sql.NullString
	var assigneeID, assigneeMail, resolved, resolution sql.NullString
	var labels, components, fixV, affectsV, parentKey, parentSummary, custom sql.NullString
	var isSubtask int
	err := d.sql.QueryRowContext(ctx, "SELECT "+summaryColumns+`,
  t.description, t.description_raw, t.priority, t.is_subtask, t.project_name,
  t.creator_id, t.creator_name, t.creator_email, t.reporter_id, t.reporter_name, t.reporter_email,
  t.assignee_id, t.assignee_email, t.resolved, t.resolution,
  t.labels, t.components, t.fix_versions, t.affects_versions, t.parent_key, t.parent_summary, t.custom_fields, t.exported_at
FROM tickets t WHERE t.key = ?`, key).Scan(
		&t.Key, &t.Summary, &t.Status, &t.StatusCategory, &t.IssueType, &t.ProjectKey, &t.AssigneeName, &t.Created, &t.Updated,
		&description, &descRaw, &priority, &isSubtask, &projectName,
		&creatorID, &creatorName, &creatorMail, &reporterID, &reporterName, &reporterMail,
		&assigneeID, &assigneeMail, &resolved, &resolution,
		&labels, &components, &fixV, &affectsV, &parentKey, &parentSummary, &custom, &exportedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	if descRaw.Valid {
		t.DescriptionRaw = json.RawMessage(descRaw.String)
	}
	t.Priority = priority.String
	t.IsSubtask = isSubtask == 1
	t.ProjectName = projectName.String
	t.Creator = userFrom(creatorID, creatorName, creatorMail)
	t.Reporter = userFrom(reporterID, reporterName, reporterMail)
	assigneeName := sql.NullString{String: t.AssigneeName, Valid: t.AssigneeName != ""}
	t.Assignee = userFrom(assigneeID, assigneeName, assigneeMail)
	t.Resolved = resolved.String
	t.Resolution = resolution.String
	t.Labels = decodeList(labels)
	t.Components = decodeList(components)
	t.FixVersions = decodeList(fixV)
	t.AffectsVersions = decodeList(affectsV)
	if parentKey.Valid {
		t.Parent = &ticket.Parent{Key: parentKey.String, Summary: ptr(parentSummary)}
	}
	if custom.Valid {
		t.CustomFields = json.RawMessage(custom.String)
	}
	t.ExportedAt = exportedAt.String

	if t.Comments, err = d.comments(ctx, key); err != nil {
		return nil, err
	}
	if t.Changelog, err = d.changelog(ctx, key); err != nil {
		return nil, err
	}
	if t.Links, err = d.links(ctx, key); err != nil {
		return nil, err
	}
	if t.Subtasks, err = d.subtasks(ctx, key); err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeList(ns sql.NullString) []string {
	out := []string{}
	if ns.Valid {
		_ = json.Unmarshal([]byte(ns.String), &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (d *DB) comments(ctx context.Context, key string) ([]ticket.Comment, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, author_id, author_name, author_email, COALESCE(body,''), body_raw, created, updated
FROM comments WHERE ticket_key = ? ORDER BY created ASC, rowid ASC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ticket.Comment{}
	for rows.Next() {
		var c ticket.Comment
		var authorID, authorName, authorEmail, bodyRaw, created, updated sql.NullString
		if err := rows.Scan(&c.ID, &authorID, &authorName, &authorEmail, &c.Body, &bodyRaw, &created, &updated); err != nil {
			return nil, err
		}
		c.Author = userFrom(authorID, authorName, authorEmail)
		if bodyRaw.Valid {
			c.BodyRaw = json.RawMessage(bodyRaw.String)
		}
		c.Created, c.Updated = ptr(created), ptr(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) changelog(ctx context.Context, key string) ([]ticket.ChangeEvent, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT field, field_type, from_value, to_value, author_id, author_name, author_email, created
FROM changelog WHERE ticket_key = ? ORDER BY created DESC, id ASC`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ticket.ChangeEvent{}
	for rows.Next() {
		var field, fieldType, from, to, authorID, authorName, authorEmail, created sql.NullString
		if err := rows.Scan(&field, &fieldType, &from, &to, &authorID, &authorName, &authorEmail, &created); err != nil {
			return nil, err
		}
		out = append(out, ticket.ChangeEvent{
			Field:     ptr(field),
			FieldType: ptr(fieldType),
			From:      ptr(from),
			To:        ptr(to),
			Author:    userFrom(authorID, authorName, authorEmail),
			Created:   ptr(created),
		})
	}
	return out, rows.Err()
}

func (d *DB) links(ctx context.Context, key string) ([]ticket.Link, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT link_type, inward_key, outward_key FROM issue_links WHERE ticket_key = ? ORDER BY id", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ticket.Link{}
	for rows.Next() {
		var typ, inward, outward sql.NullString
		if err := rows.Scan(&typ, &inward, &outward); err != nil {
			return nil, err
		}
		out = append(out, ticket.Link{Type: ptr(typ), Inward: ptr(inward), Outward: ptr(outward)})
	}
	return out, rows.Err()
}

func (d *DB) subtasks(ctx context.Context, key string) ([]ticket.Subtask, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT COALESCE(subtask_key,''), subtask_summary FROM subtasks WHERE ticket_key = ? ORDER BY id", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ticket.Subtask{}
	for rows.Next() {
		var s ticket.Subtask
		var summary sql.NullString
		if err := rows.Scan(&s.Key, &summary); err != nil {
			return nil, err
		}
		s.Summary = ptr(summary)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetFilterOptions lists the distinct statuses, projects and issue types.
func (d *DB) GetFilterOptions(ctx context.Context) (*FilterOptions, error) {
	var opts FilterOptions
	var err error
	if opts.Statuses, err = d.distinct(ctx, "status"); err != nil {
		return nil, err
	}
	if opts.Projects, err = d.distinct(ctx, "project_key"); err != nil {
		return nil, err
	}
	if opts.IssueTypes, err = d.distinct(ctx, "issue_type"); err != nil {
		return nil, err
	}
	return &opts, nil
}

// ProjectKeys lists the distinct project keys in the store.
func (d *DB) ProjectKeys(ctx context.Context) ([]string, error) {
	return d.distinct(ctx, "project_key")
}

// distinct is only called with fixed column names.
func (d *DB) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT DISTINCT "+column+" FROM tickets WHERE "+column+" IS NOT NULL ORDER BY "+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
