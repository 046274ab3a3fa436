// Package latex writes the fragment stream as a LaTeX document and can
// compile it to PDF with pdflatex.
package latex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render"
	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
)

const document = `\documentclass[10pt]{article}
\usepackage[margin=0.6in]{geometry}
\usepackage[T1]{fontenc}
\usepackage[utf8]{inputenc}
\usepackage{multicol}
\usepackage{booktabs}
\usepackage{tabularx}
\usepackage{xltabular}
\usepackage{graphicx}
\usepackage[hidelinks]{hyperref}
\setlength{\parindent}{0pt}
\begin{document}
{{range .}}{{template "fragment" .}}
{{end}}\end{document}
{{define "fragment"}}{{if eq .Kind "title_page"}}\thispagestyle{empty}
\begin{center}
{\Huge {{tex .Title.Title}}\par}
\vspace{1em}
{\Large {{tex .Title.Subtitle}}\par}
\vspace{1em}
{\large Data as of {{tex .Title.AsOf}}\par}
{{if .Title.Author}}\vspace{1em}
{{tex .Title.Author}}{{if .Title.Version}} (v{{tex .Title.Version}}){{end}}\par
{{end}}{{if .Title.Thanks}}\vspace{2em}
\begin{minipage}{0.8\textwidth}\small {{tex .Title.Thanks}}\end{minipage}\par
{{end}}\end{center}
{{else if eq .Kind "contents"}}\tableofcontents
{{else if eq .Kind "page_break"}}\newpage
{{else if eq .Kind "section"}}\section{ {{- tex .Text -}} }
{{else if eq .Kind "description"}}\begin{flushleft}
{{tex .Text}}
\vspace{1pt}
\end{flushleft}
{{else if eq .Kind "block_start"}}\begin{minipage}[t]{ {{- printf "%.3f" .Width -}} \textwidth}
{{else if eq .Kind "block_end"}}\end{minipage}
{{else if eq .Kind "caption"}}\textbf{ {{- tex .Text -}} }
{{else if eq .Kind "hspace"}}\hspace{15pt}
{{else if eq .Kind "row_break"}}\vspace{4pt}\linebreak[4]
{{else if eq .Kind "table"}}{{template "table" .Table}}
{{else if eq .Kind "list"}}\begin{multicols}{3}
{{range .List}}{{tex .Text}}\\
{{if .Names}}{\small\textit{- {{tex .Names}}}}\\
{{end}}{{end}}\end{multicols}
{{else if eq .Kind "image"}}\begin{center}
\includegraphics[width=0.6\textwidth]{ {{- .Image.Path -}} }\\
{\small {{tex .Image.Caption}}{{if .Image.Credit}} \copyright{} {{tex .Image.Credit}}{{end}}}
\end{center}
{{end}}{{end}}
{{define "table"}}\begin{ {{- env . -}} }{\linewidth}{ {{- spec .Header -}} }
\toprule
{{header .Header}} \\
\midrule
{{if .Long}}\endhead
{{end}}{{range .Rows}}{{row .}} \\
{{if .RuleAfter}}\hline
{{end}}{{end}}\bottomrule
\end{ {{- env . -}} }
{{end}}`

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	"\u00a0", `~`,
)

// Escape quotes LaTeX special characters. Non-breaking spaces become ties.
func Escape(s string) string {
	return escaper.Replace(s)
}

var urlEscaper = strings.NewReplacer(`%`, `\%`, `#`, `\#`)

var funcs = template.FuncMap{
	"tex": Escape,
	"env": func(t *layout.Table) string {
		if t.Long {
			return "xltabular"
		}
		return "tabularx"
	},
	"spec": func(header []string) string {
		cols := make([]string, len(header))
		for i := range header {
			if i == 0 {
				cols[i] = "X"
			} else {
				cols[i] = "r"
			}
		}
		return strings.Join(cols, " ")
	},
	"header": func(header []string) string {
		cells := make([]string, len(header))
		for i, h := range header {
			cells[i] = `\textbf{` + Escape(h) + `}`
		}
		return strings.Join(cells, " & ")
	},
	"row": func(r layout.Row) string {
		cells := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			cells[i] = Escape(c)
		}
		if r.Link != "" && len(cells) > 0 {
			cells[0] = `\href{` + urlEscaper.Replace(r.Link) + `}{` + cells[0] + `}`
		}
		return strings.Join(cells, " & ")
	},
}

var tmpl = template.Must(template.New("document").Funcs(funcs).Parse(document))

type Settings struct {
	// PDF runs pdflatex on the generated source.
	PDF     bool
	Command string
}

type Renderer struct {
	settings Settings
}

func NewRenderer(settings Settings) *Renderer {
	if settings.Command == "" {
		settings.Command = "pdflatex"
	}
	return &Renderer{settings: settings}
}

func (r *Renderer) Extension() string {
	if r.settings.PDF {
		return ".pdf"
	}
	return ".tex"
}

// Write renders doc as LaTeX source.
func Write(w io.Writer, doc *layout.Document) error {
	bw := bufio.NewWriter(w)
	if err := tmpl.Execute(bw, doc.Fragments()); err != nil {
		return fmt.Errorf("failed to render latex: %w", err)
	}
	return bw.Flush()
}

func (r *Renderer) WriteFile(ctx context.Context, doc *layout.Document, path string) error {
	if !r.settings.PDF {
		return render.Atomic(path, func(tmp string) error {
			return writeSource(tmp, doc)
		})
	}

	return render.Atomic(path, func(tmp string) error {
		work, err := os.MkdirTemp(filepath.Dir(tmp), ".latex-*")
		if err != nil {
			return fmt.Errorf("create latex work directory: %w", err)
		}
		defer os.RemoveAll(work)

		source := filepath.Join(work, "report.tex")
		if err := writeSource(source, doc); err != nil {
			return err
		}
		// The second pass fills in the table of contents.
		for pass := 1; pass <= 2; pass++ {
			if err := r.compile(ctx, work, source, pass); err != nil {
				return err
			}
		}
		return os.Rename(filepath.Join(work, "report.pdf"), tmp)
	})
}

func (r *Renderer) compile(ctx context.Context, dir, source string, pass int) error {
	cmd := exec.CommandContext(ctx, r.settings.Command,
		"-interaction=nonstopmode", "-halt-on-error", "-output-directory", dir, source)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().Int("pass", pass).Str("output", tail(string(out), 2000)).Msg("pdflatex failed")
		return fmt.Errorf("%s pass %d: %w", r.settings.Command, pass, err)
	}
	zerolog.Ctx(ctx).Debug().Int("pass", pass).Msg("pdflatex finished")
	return nil
}

func writeSource(path string, doc *layout.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
