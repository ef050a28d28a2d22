package epub

import (
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		want  string
	}{
		{
			name: "paragraphs become lines",
			html: `<html><body><p>one</p><p>two</p><p>three</p></body></html>`,
			want: "one\ntwo\nthree",
		},
		{
			name: "script and style discarded",
			html: `<html><body><p>kept</p><script>var x = "dropped";</script><style>p { color: red }</style></body></html>`,
			want: "kept",
		},
		{
			name: "head content discarded",
			html: `<html><head><title>Book Title</title></head><body><p>body text</p></body></html>`,
			want: "body text",
		},
		{
			name: "whitespace runs collapse",
			html: "<html><body><p>spaced   \n\t   out</p></body></html>",
			want: "spaced out",
		},
		{
			name: "inline tags keep spacing",
			html: `<html><body><p>an <em>emphasized</em> word</p></body></html>`,
			want: "an emphasized word",
		},
		{
			name: "headings break lines",
			html: `<html><body><h1>Title</h1><p>after</p></body></html>`,
			want: "Title\nafter",
		},
		{
			name: "br breaks lines",
			html: `<html><body><p>line one<br/>line two</p></body></html>`,
			want: "line one\nline two",
		},
		{
			name: "empty body",
			html: `<html><body></body></html>`,
			want: "",
		},
		{
			name: "unclosed tags tolerated",
			html: `<html><body><p>broken markup<div>still extracted`,
			want: "broken markup\nstill extracted",
		},
		{
			name: "self-closing head keeps body",
			html: `<html><head/><body><p>hello world</p></body></html>`,
			want: "hello world",
		},
		{
			name: "self-closing script keeps following text",
			html: `<html><body><script src="a.js"/><p>after the script</p></body></html>`,
			want: "after the script",
		},
		{
			name: "self-closing style keeps following text",
			html: `<html><body><style/><p>after the style</p></body></html>`,
			want: "after the style",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.html))
			if err != nil {
				t.Fatalf("ExtractText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"  leading", " leading"},
		{"trailing  ", "trailing "},
		{"a \t\n b", "a b"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := collapseWhitespace(tt.in); got != tt.want {
			t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractText_LargeDocument(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 500; i++ {
		b.WriteString("<p>paragraph content repeated for volume</p>")
	}
	b.WriteString("</body></html>")

	got, err := ExtractText([]byte(b.String()))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if lines := strings.Count(got, "\n") + 1; lines != 500 {
		t.Errorf("got %d lines, want 500", lines)
	}
}
