package ticket

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// present reports whether v carries a non-null value.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// optString reads the value at path as a string. Absence or null anywhere
// along the path yields nil.
func optString(r gjson.Result, path string) *string {
	v := r.Get(path)
	if !present(v) {
		return nil
	}
	s := v.String()
	return &s
}

func stringAt(r gjson.Result, path string) string {
	return r.Get(path).String()
}

// listAt collects member from every element of the array at path. An empty
// member collects the elements themselves. Null entries are skipped.
func listAt(r gjson.Result, path, member string) []string {
	out := []string{}
	r.Get(path).ForEach(func(_, el gjson.Result) bool {
		if member != "" {
			el = el.Get(member)
		}
		if present(el) {
			out = append(out, el.String())
		}
		return true
	})
	return out
}

// userAt extracts the user object at path, nil when it is absent.
func userAt(r gjson.Result, path string) *User {
	v := r.Get(path)
	if !v.IsObject() {
		return nil
	}
	return &User{
		ID:          optString(v, "accountId"),
		DisplayName: optString(v, "displayName"),
		Email:       optString(v, "emailAddress"),
	}
}

// rawAt returns the verbatim JSON at path, or null when absent.
func rawAt(r gjson.Result, path string) json.RawMessage {
	return rawOf(r.Get(path))
}

func rawOf(v gjson.Result) json.RawMessage {
	if !v.Exists() || v.Raw == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(v.Raw)
}

// plain converts a JSON value to its Go form for the custom field map.
// Numbers keep their exact text.
func plain(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	}
	return json.RawMessage(v.Raw)
}
