package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	assert.Equal(t, "", Render("   \n"))
	assert.Equal(t, "<p><strong>bold</strong> text</p>", Render("**bold** text"))
	assert.Contains(t, Render("- one\n- two"), "<li>one</li>")
}

func TestRenderEscapesRawHTML(t *testing.T) {
	out := Render(`<script>alert(1)</script>`)
	assert.NotContains(t, out, "<script>")
}

func TestRenderHardWraps(t *testing.T) {
	assert.Equal(t, "<p>line one<br />\nline two</p>", Render("line one\nline two"))
}
