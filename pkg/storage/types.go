package storage

import (
	"encoding/json"

	"github.com/sw33tLie/jirascope/pkg/ticket"
)

// Filter selects tickets. Empty fields match everything.
type Filter struct {
	Text      string
	Status    string
	Project   string
	IssueType string
}

// TicketSummary is one search hit.
type TicketSummary struct {
	Key            string `json:"key"`
	Summary        string `json:"summary"`
	Status         string `json:"status"`
	StatusCategory string `json:"statusCategory"`
	IssueType      string `json:"issueType"`
	ProjectKey     string `json:"projectKey"`
	AssigneeName   string `json:"assigneeName"`
	Created        string `json:"created"`
	Updated        string `json:"updated"`

	// Store is set by callers that query more than one store.
	Store string `json:"store,omitempty"`
}

// TicketDetail is a full ticket with its history. Comments are oldest
// first, changelog newest first.
type TicketDetail struct {
	TicketSummary

	Description     string          `json:"description"`
	DescriptionRaw  json.RawMessage `json:"descriptionRaw,omitempty"`
	Priority        string          `json:"priority"`
	IsSubtask       bool            `json:"isSubtask"`
	ProjectName     string          `json:"projectName"`
	Creator         *ticket.User    `json:"creator"`
	Reporter        *ticket.User    `json:"reporter"`
	Assignee        *ticket.User    `json:"assignee"`
	Resolved        string          `json:"resolved"`
	Resolution      string          `json:"resolution"`
	Labels          []string        `json:"labels"`
	Components      []string        `json:"components"`
	FixVersions     []string        `json:"fixVersions"`
	AffectsVersions []string        `json:"affectsVersions"`
	Parent          *ticket.Parent  `json:"parent"`
	CustomFields    json.RawMessage `json:"customFields,omitempty"`
	ExportedAt      string          `json:"exportedAt"`

	Comments  []ticket.Comment     `json:"comments"`
	Changelog []ticket.ChangeEvent `json:"changelog"`
	Links     []ticket.Link        `json:"links"`
	Subtasks  []ticket.Subtask     `json:"subtasks"`
}

// Stats counts the contents of a store.
type Stats struct {
	Tickets          int `json:"tickets"`
	Comments         int `json:"comments"`
	ChangelogEntries int `json:"changelogEntries"`
	Projects         int `json:"projects"`
}

// FilterOptions lists the distinct values usable in a Filter, sorted.
type FilterOptions struct {
	Statuses   []string `json:"statuses"`
	Projects   []string `json:"projects"`
	IssueTypes []string `json:"issueTypes"`
}
