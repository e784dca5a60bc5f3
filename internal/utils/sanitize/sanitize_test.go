package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Groceries", "Groceries"},
		{"empty", "", ""},
		{"only markup", "<br><hr>", ""},
		{"script", `<script>alert('xss')</script>Groceries`, "Groceries"},
		{"tags keep words apart", "<b>Random</b><i>Thoughts</i>", "Random Thoughts"},
		{"event handlers", `<p onclick="steal()">School</p>`, "School"},
		{"line breaks collapse", "  Weekly\n\tplan  ", "Weekly plan"},
		{"entities", "Fish &amp; chips&nbsp;night", "Fish & chips night"},
		{"markdown survives", "**Todo** [x]", "**Todo** [x]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Line(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
		})
	}
}

func TestContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keeps indentation", "list:\n  - milk\n  - eggs", "list:\n  - milk\n  - eggs"},
		{"keeps blank lines", "a\n\nb", "a\n\nb"},
		{"strips script", "<script>alert(1)</script>plan", "plan"},
		{"drops trailing whitespace", "a  \nb\t\n\n", "a\nb"},
		{"unescapes entities", "fish &amp; chips", "fish & chips"},
		{"keeps markdown", "# Heading\n**bold** text", "# Heading\n**bold** text"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Content(tt.input))
		})
	}
}
