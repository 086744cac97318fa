// Package fragment renders the small HTML snippets served under /htmx.
package fragment

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Template names.
const (
	ChatMessage = "chat_message"
	Success     = "success"
	Error       = "error"
	Notice      = "notice"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// ChatData feeds the chat_message template.
type ChatData struct {
	FromUser bool
	Body     template.HTML
}

// MessageData feeds the success, error and notice templates.
type MessageData struct {
	Message string
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// Assistant builds chat data for assistant text written in markdown.
func Assistant(text string) ChatData {
	return ChatData{Body: RenderMarkdown(text)}
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the input is
// dropped, so model output cannot inject markup into the page.
func RenderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}
