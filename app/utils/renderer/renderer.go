package renderer

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/Rakhulsr/go-portal/app/utils/format"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/render"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// PartialLayout renders a template without the surrounding page chrome.
const PartialLayout = "partial"

var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// New builds the HTML/JSON renderer. Templates are looked up under
// "templates" in the given file system.
func New(files embed.FS, development bool) *render.Render {
	return render.New(render.Options{
		Directory:     "templates",
		FileSystem:    &render.EmbedFileSystem{FS: files},
		Layout:        "layout",
		Extensions:    []string{".html"},
		IsDevelopment: development,
		Funcs:         []template.FuncMap{Funcs()},
	})
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"until": func(count int) []int {
			items := make([]int, count)
			for i := 0; i < count; i++ {
				items[i] = i
			}
			return items
		},
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"price":    format.Price,
		"markdown": Markdown,
		"derefUint": func(v *uint) uint {
			if v == nil {
				return 0
			}
			return *v
		},
	}
}

// Markdown converts post content to HTML. Raw HTML in the source is
// not passed through.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		log.Warn().Err(err).Msg("markdown conversion failed")
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
