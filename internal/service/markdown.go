package service

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer 将 Markdown 正文转换为经过清洗的 HTML。
type Renderer struct {
	engine    goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewRenderer builds a GFM renderer guarded by the UGC sanitizer policy.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render converts markdown into sanitized HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return string(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
