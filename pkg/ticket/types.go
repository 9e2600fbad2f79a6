// Package ticket defines the flat ticket record and builds it from raw Jira
// issue payloads.
package ticket

import "encoding/json"

// CustomFieldPrefix marks deployment-defined fields in an issue's field set.
const CustomFieldPrefix = "customfield_"

// User is a person reference. All three members are always serialized,
// absent ones as null.
type User struct {
	ID          *string `json:"accountId"`
	DisplayName *string `json:"displayName"`
	Email       *string `json:"emailAddress"`
}

// Comment is one comment on a ticket.
type Comment struct {
	ID      string          `json:"id"`
	Author  *User           `json:"author"`
	Body    string          `json:"body"`
	BodyRaw json.RawMessage `json:"bodyRaw"`
	Created *string         `json:"created"`
	Updated *string         `json:"updated"`
}

// ChangeEvent is a single field change from the issue history. It has no
// identity of its own; its position within the ticket is what identifies it.
type ChangeEvent struct {
	Field     *string `json:"field"`
	FieldType *string `json:"fieldtype"`
	From      *string `json:"from"`
	To        *string `json:"to"`
	Author    *User   `json:"author"`
	Created   *string `json:"created"`
}

// Link points at another ticket. Exactly one of Inward and Outward is set.
type Link struct {
	Type    *string `json:"type"`
	Inward  *string `json:"inward"`
	Outward *string `json:"outward"`
}

type Subtask struct {
	Key     string  `json:"key"`
	Summary *string `json:"summary"`
}

type Parent struct {
	Key     string  `json:"key"`
	Summary *string `json:"summary"`
}

// Ticket is the normalized form of one Jira issue. Nil pointers mean the
// source did not carry the value; list fields are never nil.
type Ticket struct {
	Key            string          `json:"key"`
	ID             *string         `json:"id"`
	Self           *string         `json:"self"`
	Summary        *string         `json:"summary"`
	Description    string          `json:"description"`
	DescriptionRaw json.RawMessage `json:"descriptionRaw"`

	Status         *string `json:"status"`
	StatusCategory *string `json:"statusCategory"`
	Priority       *string `json:"priority"`
	IssueType      *string `json:"issueType"`
	IsSubtask      bool    `json:"isSubtask"`
	ProjectKey     *string `json:"projectKey"`
	ProjectName    *string `json:"projectName"`

	Creator  *User `json:"creator"`
	Reporter *User `json:"reporter"`
	Assignee *User `json:"assignee"`

	Created    *string `json:"created"`
	Updated    *string `json:"updated"`
	Resolved   *string `json:"resolved"`
	Resolution *string `json:"resolution"`

	Labels          []string `json:"labels"`
	Components      []string `json:"components"`
	FixVersions     []string `json:"fixVersions"`
	AffectsVersions []string `json:"affectsVersions"`

	Comments  []Comment     `json:"comments"`
	Changelog []ChangeEvent `json:"changelog"`
	Subtasks  []Subtask     `json:"subtasks"`
	Parent    *Parent       `json:"parent"`
	Links     []Link        `json:"links"`

	// CustomFields holds projected custom field values: strings, bools,
	// json.Number, []any or json.RawMessage for objects kept whole.
	CustomFields map[string]any `json:"customFields"`

	Raw        json.RawMessage `json:"raw"`
	ExportedAt string          `json:"exportedAt"`
}

// Name returns the display name of u, or "" when u or its name is absent.
func (u *User) Name() string {
	if u == nil || u.DisplayName == nil {
		return ""
	}
	return *u.DisplayName
}
