package storage

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
  key              TEXT PRIMARY KEY,
  id               TEXT,
  summary          TEXT,
  description      TEXT,
  description_raw  TEXT,
  status           TEXT,
  status_category  TEXT,
  priority         TEXT,
  issue_type       TEXT,
  is_subtask       INTEGER NOT NULL DEFAULT 0 CHECK (is_subtask IN (0,1)),
  project_key      TEXT,
  project_name     TEXT,
  creator_id       TEXT,
  creator_name     TEXT,
  creator_email    TEXT,
  reporter_id      TEXT,
  reporter_name    TEXT,
  reporter_email   TEXT,
  assignee_id      TEXT,
  assignee_name    TEXT,
  assignee_email   TEXT,
  created          TEXT,
  updated          TEXT,
  resolved         TEXT,
  resolution       TEXT,
  labels           TEXT,
  components       TEXT,
  fix_versions     TEXT,
  affects_versions TEXT,
  parent_key       TEXT,
  parent_summary   TEXT,
  custom_fields    TEXT,
  raw_json         TEXT,
  exported_at      TEXT
);
CREATE TABLE IF NOT EXISTS comments (
  id           TEXT PRIMARY KEY,
  ticket_key   TEXT NOT NULL REFERENCES tickets(key),
  author_id    TEXT,
  author_name  TEXT,
  author_email TEXT,
  body         TEXT,
  body_raw     TEXT,
  created      TEXT,
  updated      TEXT
);
CREATE TABLE IF NOT EXISTS changelog (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  ticket_key   TEXT NOT NULL REFERENCES tickets(key),
  field        TEXT,
  field_type   TEXT,
  from_value   TEXT,
  to_value     TEXT,
  author_id    TEXT,
  author_name  TEXT,
  author_email TEXT,
  created      TEXT
);
CREATE TABLE IF NOT EXISTS issue_links (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  ticket_key  TEXT NOT NULL REFERENCES tickets(key),
  link_type   TEXT,
  inward_key  TEXT,
  outward_key TEXT
);
CREATE TABLE IF NOT EXISTS subtasks (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  ticket_key      TEXT NOT NULL REFERENCES tickets(key),
  subtask_key     TEXT,
  subtask_summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_tickets_project ON tickets(project_key);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_tickets_assignee ON tickets(assignee_name);
CREATE INDEX IF NOT EXISTS idx_tickets_reporter ON tickets(reporter_name);
CREATE INDEX IF NOT EXISTS idx_tickets_created ON tickets(created);
CREATE INDEX IF NOT EXISTS idx_tickets_updated ON tickets(updated);
CREATE INDEX IF NOT EXISTS idx_tickets_issue_type ON tickets(issue_type);
CREATE INDEX IF NOT EXISTS idx_tickets_priority ON tickets(priority);
CREATE INDEX IF NOT EXISTS idx_tickets_project_status ON tickets(project_key, status);
CREATE INDEX IF NOT EXISTS idx_tickets_project_updated ON tickets(project_key, updated DESC);
CREATE INDEX IF NOT EXISTS idx_comments_ticket ON comments(ticket_key);
CREATE INDEX IF NOT EXISTS idx_changelog_ticket ON changelog(ticket_key);
CREATE INDEX IF NOT EXISTS idx_links_ticket ON issue_links(ticket_key);
CREATE INDEX IF NOT EXISTS idx_subtasks_ticket ON subtasks(ticket_key);
CREATE VIRTUAL TABLE IF NOT EXISTS tickets_fts USING fts5(key, summary, description);
`

// childTables hold rows owned by a ticket and replaced with it.
var childTables = []string{"comments", "changelog", "issue_links", "subtasks"}

// ftsTable mirrors tickets(key, summary, description); its rowid equals the
// ticket's rowid.
const ftsTable = "tickets_fts"
