package ticket

import (
	"strings"
	"time"

	"github.com/sw33tLie/jirascope/pkg/adf"
	"github.com/tidwall/gjson"
)

// ExportTimeFormat is the layout of Ticket.ExportedAt.
const ExportTimeFormat = "2006-01-02T15:04:05.000000Z"

// Normalizer turns raw issues into Tickets. The zero value is ready to use.
type Normalizer struct {
	// Now overrides the clock used for ExportedAt.
	Now func() time.Time
}

// Normalize builds a Ticket from a raw issue and the comments fetched for it.
// It never fails: anything missing from the payload becomes nil or empty.
func (n *Normalizer) Normalize(raw gjson.Result, comments []gjson.Result) *Ticket {
	f := raw.Get("fields")

	t := &Ticket{
		Key:            stringAt(raw, "key"),
		ID:             optString(raw, "id"),
		Self:           optString(raw, "self"),
		Summary:        optString(f, "summary"),
		Description:    bodyText(f.Get("description"), raw.Get("renderedFields.description")),
		DescriptionRaw: rawAt(f, "description"),

		Status:         optString(f, "status.name"),
		StatusCategory: optString(f, "status.statusCategory.name"),
		Priority:       optString(f, "priority.name"),
		IssueType:      optString(f, "issuetype.name"),
		IsSubtask:      f.Get("issuetype.subtask").Bool(),
		ProjectKey:     optString(f, "project.key"),
		ProjectName:    optString(f, "project.name"),

		Creator:  userAt(f, "creator"),
		Reporter: userAt(f, "reporter"),
		Assignee: userAt(f, "assignee"),

		Created:    optString(f, "created"),
		Updated:    optString(f, "updated"),
		Resolved:   optString(f, "resolutiondate"),
		Resolution: optString(f, "resolution.name"),

		Labels:          listAt(f, "labels", ""),
		Components:      listAt(f, "components", "name"),
		FixVersions:     listAt(f, "fixVersions", "name"),
		AffectsVersions: listAt(f, "versions", "name"),

		Comments:     make([]Comment, 0, len(comments)),
		Changelog:    changelog(raw),
		Subtasks:     []Subtask{},
		Links:        []Link{},
		CustomFields: CustomFields(f),

		Raw:        rawOf(raw),
		ExportedAt: n.now().UTC().Format(ExportTimeFormat),
	}

	for _, c := range comments {
		t.Comments = append(t.Comments, Comment{
			ID:      stringAt(c, "id"),
			Author:  userAt(c, "author"),
			Body:    bodyText(c.Get("body"), c.Get("renderedBody")),
			BodyRaw: rawAt(c, "body"),
			Created: optString(c, "created"),
			Updated: optString(c, "updated"),
		})
	}

	f.Get("subtasks").ForEach(func(_, st gjson.Result) bool {
		t.Subtasks = append(t.Subtasks, Subtask{
			Key:     stringAt(st, "key"),
			Summary: optString(st, "fields.summary"),
		})
		return true
	})

	if p := f.Get("parent"); p.IsObject() {
		t.Parent = &Parent{
			Key:     stringAt(p, "key"),
			Summary: optString(p, "fields.summary"),
		}
	}

	f.Get("issuelinks").ForEach(func(_, l gjson.Result) bool {
		t.Links = append(t.Links, Link{
			Type:    optString(l, "type.name"),
			Inward:  optString(l, "inwardIssue.key"),
			Outward: optString(l, "outwardIssue.key"),
		})
		return true
	})

	return t
}

func (n *Normalizer) now() time.Time {
	if n == nil || n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// bodyText renders a description or comment body. Documents are flattened,
// strings kept as they are. When the body is null the rendered HTML, if
// any, is used instead.
func bodyText(body, rendered gjson.Result) string {
	switch {
	case body.IsObject(), body.IsArray():
		return adf.Flatten(body)
	case present(body):
		return body.String()
	case rendered.Type == gjson.String:
		return adf.FlattenHTML(rendered.Str)
	}
	return ""
}

func changelog(raw gjson.Result) []ChangeEvent {
	out := []ChangeEvent{}
	raw.Get("changelog.histories").ForEach(func(_, h gjson.Result) bool {
		author := userAt(h, "author")
		created := optString(h, "created")
		h.Get("items").ForEach(func(_, it gjson.Result) bool {
			out = append(out, ChangeEvent{
				Field:     optString(it, "field"),
				FieldType: optString(it, "fieldtype"),
				From:      optString(it, "fromString"),
				To:        optString(it, "toString"),
				Author:    author,
				Created:   created,
			})
			return true
		})
		return true
	})
	return out
}

// CustomFields projects every non-null custom field of an issue's field set.
// Objects reduce to their value member, else their name member, else stay
// whole. Arrays of objects reduce element-wise. Everything else passes
// through.
func CustomFields(fields gjson.Result) map[string]any {
	out := map[string]any{}
	fields.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if !strings.HasPrefix(key, CustomFieldPrefix) || !present(v) {
			return true
		}
		out[key] = projectCustom(v)
		return true
	})
	return out
}

func projectCustom(v gjson.Result) any {
	switch {
	case v.IsObject():
		return projectObject(v)
	case v.IsArray():
		elems := v.Array()
		if len(elems) == 0 || !elems[0].IsObject() {
			return plain(v)
		}
		out := make([]any, 0, len(elems))
		for _, el := range elems {
			if el.IsObject() {
				out = append(out, projectObject(el))
			} else {
				out = append(out, plain(el))
			}
		}
		return out
	}
	return plain(v)
}

func projectObject(v gjson.Result) any {
	if val := v.Get("value"); present(val) {
		return plain(val)
	}
	if name := v.Get("name"); present(name) {
		return plain(name)
	}
	return plain(v)
}
