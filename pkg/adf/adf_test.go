package adf

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "text and hard break",
			input:    `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"},{"type":"hardBreak"},{"type":"text","text":"bye"}]}]}`,
			expected: "hi\nbye",
		},
		{
			name:     "mention with display text",
			input:    `{"type":"paragraph","content":[{"type":"text","text":"ping "},{"type":"mention","attrs":{"id":"1","text":"Ada"}}]}`,
			expected: "ping @Ada",
		},
		{
			name:     "mention without text",
			input:    `{"type":"mention","attrs":{"id":"1"}}`,
			expected: "@user",
		},
		{
			name:     "mention with null text",
			input:    `{"type":"mention","attrs":{"text":null}}`,
			expected: "@user",
		},
		{
			name:     "unknown node recurses into content",
			input:    `{"type":"fancyPanel","content":[{"type":"text","text":"inside"}]}`,
			expected: "inside",
		},
		{
			name:     "empty sequence",
			input:    `[]`,
			expected: "",
		},
		{
			name:     "object without type or content",
			input:    `{"attrs":{"x":1}}`,
			expected: "",
		},
		{
			name:     "bare string",
			input:    `"plain"`,
			expected: "plain",
		},
		{
			name:     "scalars in sequence",
			input:    `["a", 1, true, null, "b"]`,
			expected: "a1trueb",
		},
		{
			name:     "text node missing text",
			input:    `{"type":"text"}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(gjson.Parse(tt.input))
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFlattenDeepNesting(t *testing.T) {
	const depth = 150
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString(`{"type":"bulletList","content":[`)
	}
	b.WriteString(`{"type":"text","text":"deep"}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}`)
	}

	if got := FlattenJSON([]byte(b.String())); got != "deep" {
		t.Fatalf("expected %q, got %q", "deep", got)
	}
}

func TestFlattenJSONEmpty(t *testing.T) {
	if got := FlattenJSON(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		`"s"`:                    KindLiteral,
		`42`:                     KindScalar,
		`null`:                   KindScalar,
		`[1]`:                    KindSequence,
		`{"type":"text"}`:        KindText,
		`{"type":"hardBreak"}`:   KindHardBreak,
		`{"type":"mention"}`:     KindMention,
		`{"type":"codeBlock"}`:   KindContainer,
		`{"content":[]}`:         KindContainer,
	}
	for input, want := range tests {
		if got := Classify(gjson.Parse(input)); got != want {
			t.Errorf("Classify(%s) = %d, want %d", input, got, want)
		}
	}
}

func TestFlattenHTML(t *testing.T) {
	got := FlattenHTML(`<p>First line<br/>second</p><ul><li>one</li><li>two</li></ul>`)
	want := "First line\nsecond\none\ntwo"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := FlattenHTML("   "); got != "" {
		t.Fatalf("expected empty string for blank input, got %q", got)
	}
}
