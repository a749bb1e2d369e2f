// Package render превращает текст постов и комментариев в безопасный HTML.
package render

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer       = bluemonday.UGCPolicy()
	sanitizerStrict = bluemonday.StrictPolicy()
)

func mdToHTML(md string) []byte {
	// парсер создаётся на каждый вызов: он хранит состояние и не потокобезопасен
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return markdown.Render(doc, renderer)
}

// Markdown рендерит markdown и вычищает из результата всё, что не
// разрешено политикой для пользовательского контента.
func Markdown(text string) string {
	return string(sanitizer.SanitizeBytes(mdToHTML(text)))
}

// Plain убирает из строки любую разметку.
func Plain(text string) string {
	return sanitizerStrict.Sanitize(text)
}
