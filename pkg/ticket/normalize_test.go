package ticket

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

const sampleIssue = `{
  "id": "10001",
  "key": "PROJ-1",
  "self": "https://example.atlassian.net/rest/api/3/issue/10001",
  "fields": {
    "summary": "Login fails",
    "description": {"type": "doc", "version": 1, "content": [{"type": "paragraph", "content": [{"type": "text", "text": "Steps"}, {"type": "hardBreak"}, {"type": "mention", "attrs": {"text": "Ada"}}]}]},
    "status": {"name": "In Progress", "statusCategory": {"name": "In Progress"}},
    "priority": null,
    "issuetype": {"name": "Sub-task", "subtask": true},
    "project": {"key": "PROJ", "name": "Project"},
    "creator": {"accountId": "u1", "displayName": "Ada"},
    "reporter": null,
    "created": "2024-01-01T10:00:00.000+0000",
    "updated": "2024-01-02T10:00:00.000+0000",
    "resolution": null,
    "labels": ["auth", "web"],
    "components": [{"name": "api"}],
    "fixVersions": [{"name": "1.0"}, {"name": "1.1"}],
    "versions": [],
    "parent": {"key": "PROJ-0", "fields": {"summary": "Epic"}},
    "subtasks": [{"key": "PROJ-2", "fields": {"summary": "Child"}}],
    "issuelinks": [{"type": {"name": "Blocks"}, "outwardIssue": {"key": "PROJ-9"}}],
    "customfield_100": {"value": "High"},
    "customfield_101": {"name": "Gold"},
    "customfield_102": [{"value": "A"}, {"value": "B"}],
    "customfield_103": null,
    "customfield_104": 3.50,
    "customfield_105": {"id": "x"},
    "customfield_106": ["p", "q"]
  },
  "changelog": {"histories": [
    {"author": {"accountId": "u2", "displayName": "Bob"}, "created": "2024-01-01T11:00:00.000+0000",
     "items": [{"field": "status", "fieldtype": "jira", "fromString": "To Do", "toString": "In Progress"},
               {"field": "assignee", "fieldtype": "jira", "fromString": null, "toString": "Ada"}]}
  ]}
}`

const sampleComment = `{"id": "500", "author": {"accountId": "u2", "displayName": "Bob", "emailAddress": "bob@example.com"},
  "body": {"type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "looks good"}]}]},
  "created": "2024-01-03T00:00:00.000+0000", "updated": "2024-01-03T00:00:00.000+0000"}`

func fixedNormalizer() *Normalizer {
	return &Normalizer{Now: func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func TestNormalizeScalars(t *testing.T) {
	tk := fixedNormalizer().Normalize(gjson.Parse(sampleIssue), nil)

	if tk.Key != "PROJ-1" {
		t.Fatalf("expected key PROJ-1, got %q", tk.Key)
	}
	if tk.Summary == nil || *tk.Summary != "Login fails" {
		t.Fatalf("unexpected summary: %v", tk.Summary)
	}
	if tk.Description != "Steps\n@Ada" {
		t.Fatalf("expected flattened description, got %q", tk.Description)
	}
	if tk.Priority != nil {
		t.Fatalf("expected nil priority, got %q", *tk.Priority)
	}
	if tk.Resolution != nil {
		t.Fatalf("expected nil resolution, got %q", *tk.Resolution)
	}
	if !tk.IsSubtask {
		t.Fatalf("expected subtask flag to be set")
	}
	if tk.StatusCategory == nil || *tk.StatusCategory != "In Progress" {
		t.Fatalf("unexpected status category: %v", tk.StatusCategory)
	}
	if tk.ExportedAt != "2024-05-01T12:00:00.000000Z" {
		t.Fatalf("unexpected export time %q", tk.ExportedAt)
	}
}

func TestNormalizeUsers(t *testing.T) {
	tk := fixedNormalizer().Normalize(gjson.Parse(sampleIssue), nil)

	if tk.Reporter != nil {
		t.Fatalf("expected nil reporter for null user, got %+v", tk.Reporter)
	}
	if tk.Assignee != nil {
		t.Fatalf("expected nil assignee for missing user, got %+v", tk.Assignee)
	}
	if tk.Creator == nil || tk.Creator.Name() != "Ada" {
		t.Fatalf("unexpected creator %+v", tk.Creator)
	}
	if tk.Creator.Email != nil {
		t.Fatalf("expected nil email, got %q", *tk.Creator.Email)
	}

	b, err := json.Marshal(tk.Creator)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"accountId":"u1","displayName":"Ada","emailAddress":null}`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, b)
	}
}

func TestNormalizeCollections(t *testing.T) {
	tk := fixedNormalizer().Normalize(gjson.Parse(sampleIssue), []gjson.Result{gjson.Parse(sampleComment)})

	if !reflect.DeepEqual(tk.Labels, []string{"auth", "web"}) {
		t.Fatalf("unexpected labels %v", tk.Labels)
	}
	if !reflect.DeepEqual(tk.FixVersions, []string{"1.0", "1.1"}) {
		t.Fatalf("unexpected fix versions %v", tk.FixVersions)
	}
	if tk.AffectsVersions == nil || len(tk.AffectsVersions) != 0 {
		t.Fatalf("expected empty non-nil affects versions, got %#v", tk.AffectsVersions)
	}
	if len(tk.Changelog) != 2 {
		t.Fatalf("expected 2 changelog events, got %d", len(tk.Changelog))
	}
	if ev := tk.Changelog[1]; ev.From != nil || ev.To == nil || *ev.To != "Ada" || ev.Author.Name() != "Bob" {
		t.Fatalf("unexpected changelog event %+v", ev)
	}
	if len(tk.Links) != 1 || tk.Links[0].Inward != nil || *tk.Links[0].Outward != "PROJ-9" {
		t.Fatalf("unexpected links %+v", tk.Links)
	}
	if len(tk.Subtasks) != 1 || tk.Subtasks[0].Key != "PROJ-2" {
		t.Fatalf("unexpected subtasks %+v", tk.Subtasks)
	}
	if tk.Parent == nil || tk.Parent.Key != "PROJ-0" || *tk.Parent.Summary != "Epic" {
		t.Fatalf("unexpected parent %+v", tk.Parent)
	}
	if len(tk.Comments) != 1 || tk.Comments[0].Body != "looks good" {
		t.Fatalf("unexpected comments %+v", tk.Comments)
	}
}

func TestNormalizeEmptyIssue(t *testing.T) {
	tk := fixedNormalizer().Normalize(gjson.Parse(`{"key":"X-1"}`), nil)

	if tk.Summary != nil || tk.Status != nil || tk.Parent != nil {
		t.Fatalf("expected nil scalars, got %+v", tk)
	}
	if tk.Description != "" {
		t.Fatalf("expected empty description, got %q", tk.Description)
	}
	if string(tk.DescriptionRaw) != "null" {
		t.Fatalf("expected null raw description, got %s", tk.DescriptionRaw)
	}
	if tk.Labels == nil || tk.Comments == nil || tk.Links == nil || tk.CustomFields == nil {
		t.Fatalf("expected non-nil collections")
	}
}

func TestNormalizeRenderedFallback(t *testing.T) {
	raw := `{"key":"X-2","fields":{"description":null},"renderedFields":{"description":"<p>from html</p>"}}`
	tk := fixedNormalizer().Normalize(gjson.Parse(raw), nil)
	if tk.Description != "from html" {
		t.Fatalf("expected rendered fallback, got %q", tk.Description)
	}
}

func TestCustomFieldProjection(t *testing.T) {
	tk := fixedNormalizer().Normalize(gjson.Parse(sampleIssue), nil)
	cf := tk.CustomFields

	if cf["customfield_100"] != "High" {
		t.Fatalf("expected High, got %#v", cf["customfield_100"])
	}
	if cf["customfield_101"] != "Gold" {
		t.Fatalf("expected Gold, got %#v", cf["customfield_101"])
	}
	if !reflect.DeepEqual(cf["customfield_102"], []any{"A", "B"}) {
		t.Fatalf("expected [A B], got %#v", cf["customfield_102"])
	}
	if _, ok := cf["customfield_103"]; ok {
		t.Fatalf("expected null custom field to be omitted")
	}
	if cf["customfield_104"] != json.Number("3.50") {
		t.Fatalf("expected exact number, got %#v", cf["customfield_104"])
	}
	if got, ok := cf["customfield_105"].(json.RawMessage); !ok || string(got) != `{"id": "x"}` {
		t.Fatalf("expected whole object, got %#v", cf["customfield_105"])
	}
	if got, ok := cf["customfield_106"].(json.RawMessage); !ok || string(got) != `["p", "q"]` {
		t.Fatalf("expected scalar array to pass through, got %#v", cf["customfield_106"])
	}
}

func TestRawPreservation(t *testing.T) {
	issue := gjson.Parse(sampleIssue)
	comment := gjson.Parse(sampleComment)
	tk := fixedNormalizer().Normalize(issue, []gjson.Result{comment})

	checks := []struct {
		name     string
		got      json.RawMessage
		original string
	}{
		{"description", tk.DescriptionRaw, issue.Get("fields.description").Raw},
		{"comment body", tk.Comments[0].BodyRaw, comment.Get("body").Raw},
		{"payload", tk.Raw, sampleIssue},
	}
	for _, c := range checks {
		out, err := json.Marshal(c.got)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		var want bytes.Buffer
		if err := json.Compact(&want, []byte(c.original)); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !bytes.Equal(out, want.Bytes()) {
			t.Fatalf("%s: expected %s, got %s", c.name, want.Bytes(), out)
		}
	}
}
