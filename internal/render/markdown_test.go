package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown_Emphasis(t *testing.T) {
	out := Markdown("hello *world*")

	assert.Contains(t, out, "<em>world</em>")
	assert.Contains(t, out, "<p>")
}

func TestMarkdown_StripsScript(t *testing.T) {
	out := Markdown("hi <script>alert(1)</script>")

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "alert(1)</script>")
}

func TestMarkdown_LinksAreNofollow(t *testing.T) {
	out := Markdown("[site](https://example.com)")

	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "nofollow")
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "bold", Plain("<b>bold</b>"))
}
