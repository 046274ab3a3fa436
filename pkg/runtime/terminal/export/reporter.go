// Package export writes the fragment stream as plain text, for reading a
// report in the terminal before typesetting it.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render"
	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
)

type TableConfig struct {
	MaxCellWidth int
	Rule         string
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxCellWidth: 40,
		Rule:         "=",
	}
}

type Reporter struct {
	config TableConfig
	tmpl   *template.Template
}

func NewReporter() *Reporter {
	r := &Reporter{config: DefaultTableConfig()}
	r.tmpl = template.Must(template.New("report").Funcs(r.funcs()).Parse(documentTemplate))
	return r
}

func (r *Reporter) Extension() string {
	return ".txt"
}

func (r *Reporter) WriteFile(_ context.Context, doc *layout.Document, path string) error {
	return render.Atomic(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("create text report: %w", err)
		}
		if err := r.Handle(f, doc); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// Handle writes doc to w.
func (r *Reporter) Handle(w io.Writer, doc *layout.Document) error {
	if err := r.tmpl.Execute(w, doc.Fragments()); err != nil {
		return fmt.Errorf("failed to render text report: %w", err)
	}
	return nil
}

const documentTemplate = `{{range .}}{{if eq .Kind "title_page"}}{{with .Title}}{{.Title}}
{{.Subtitle}}
{{if .AsOf}}as of {{.AsOf}}
{{end}}{{if .Author}}by {{.Author}}{{if .Version}} ({{.Version}}){{end}}
{{end}}{{if .Thanks}}
{{.Thanks}}
{{end}}{{end}}
{{else if eq .Kind "section"}}
{{heading .Text}}
{{else if eq .Kind "description"}}{{.Text}}

{{else if eq .Kind "caption"}}{{plain .Text}}
{{else if eq .Kind "table"}}{{table .Table}}
{{else if eq .Kind "list"}}{{range .List}}- {{plain .Text}}{{if .Names}} ({{plain .Names}}){{end}}
{{end}}
{{else if eq .Kind "image"}}[photo: {{.Image.Caption}}]

{{end}}{{end}}`

func (r *Reporter) funcs() template.FuncMap {
	return template.FuncMap{
		"heading": func(title string) string {
			return title + "\n" + strings.Repeat(r.config.Rule, utf8.RuneCountInString(title))
		},
		"table": r.table,
		"plain": plain,
	}
}

func (r *Reporter) table(t *layout.Table) string {
	widths := make([]int, len(t.Header))
	measure := func(cells []string) {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], min(utf8.RuneCountInString(c), r.config.MaxCellWidth))
			}
		}
	}
	measure(t.Header)
	for _, row := range t.Rows {
		measure(row.Cells)
	}

	var b strings.Builder
	line := func(cells []string) {
		for i, w := range widths {
			var c string
			if i < len(cells) {
				c = truncate(plain(cells[i]), r.config.MaxCellWidth)
			}
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", w, c)
		}
		b.WriteString("\n")
	}
	separator := func() {
		total := 0
		for _, w := range widths {
			total += w
		}
		total += 2 * max(len(widths)-1, 0)
		b.WriteString(strings.Repeat("-", total))
		b.WriteString("\n")
	}

	line(t.Header)
	separator()
	for _, row := range t.Rows {
		line(row.Cells)
		if row.RuleAfter {
			separator()
		}
	}
	return b.String()
}

// plain turns the non-breaking spaces used for typesetting back into spaces.
func plain(s string) string {
	return strings.ReplaceAll(s, "\u00a0", " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "~"
}
