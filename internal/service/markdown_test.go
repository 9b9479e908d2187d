package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageURLs(t *testing.T) {
	content := "intro ![a](/uploads/a.png) and ![b](<https://cdn.example.com/b c.jpg> \"title\")\n" +
		"again ![a2](/uploads/a.png) plus [link](/not-an-image)"

	assert.Equal(t, []string{"/uploads/a.png", "https://cdn.example.com/b c.jpg"}, ImageURLs(content))
	assert.Nil(t, ImageURLs("no images here"))
}

func TestRendererKeepsMarkdownStructure(t *testing.T) {
	html, err := NewRenderer().Render("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nvisit https://example.com")
	assert.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `href="https://example.com"`)
}
