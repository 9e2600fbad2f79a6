// Package adf turns Atlassian Document Format trees into plain text.
package adf

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the closed set of node shapes the flattener knows about.
type Kind int

const (
	KindScalar Kind = iota // number, bool or null
	KindLiteral
	KindSequence
	KindText
	KindHardBreak
	KindMention
	KindContainer // any other object, including unknown types
)

// Classify reports the kind of a node.
func Classify(node gjson.Result) Kind {
	switch {
	case node.Type == gjson.String:
		return KindLiteral
	case node.IsArray():
		return KindSequence
	case node.IsObject():
		switch node.Get("type").String() {
		case "text":
			return KindText
		case "hardBreak":
			return KindHardBreak
		case "mention":
			return KindMention
		}
		return KindContainer
	}
	return KindScalar
}

// Flatten returns the plain text of a document node. It never fails:
// missing fields contribute nothing.
func Flatten(node gjson.Result) string {
	var b strings.Builder
	flatten(&b, node)
	return b.String()
}

// FlattenJSON is Flatten over raw JSON bytes.
func FlattenJSON(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return Flatten(gjson.ParseBytes(raw))
}

func flatten(b *strings.Builder, node gjson.Result) {
	switch Classify(node) {
	case KindLiteral, KindScalar:
		b.WriteString(node.String())
		return
	case KindSequence:
		node.ForEach(func(_, child gjson.Result) bool {
			flatten(b, child)
			return true
		})
		return
	case KindText:
		b.WriteString(node.Get("text").String())
	case KindHardBreak:
		b.WriteByte('\n')
	case KindMention:
		b.WriteByte('@')
		if name := node.Get("attrs.text"); name.Exists() && name.Type != gjson.Null {
			b.WriteString(name.String())
		} else {
			b.WriteString("user")
		}
	}

	if content := node.Get("content"); content.Exists() {
		flatten(b, content)
	}
}
