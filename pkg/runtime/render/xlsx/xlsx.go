// Package xlsx writes the fragment stream as a workbook with one worksheet
// per section.
package xlsx

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render"
	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
)

const (
	firstSheet   = "Sheet1"
	coverSheet   = "Report"
	maxSheetName = 31
)

var sheetNameCleaner = strings.NewReplacer(
	":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Extension() string {
	return ".xlsx"
}

func (r *Renderer) WriteFile(_ context.Context, doc *layout.Document, path string) error {
	return render.Atomic(path, func(tmp string) error {
		f, err := Build(doc)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := f.SaveAs(tmp); err != nil {
			return fmt.Errorf("save workbook: %w", err)
		}
		return nil
	})
}

type workbook struct {
	f     *excelize.File
	bold  int
	sheet string
	row   int
	names map[string]bool
}

// Build lays the document out into a new workbook. The caller closes it.
func Build(doc *layout.Document) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	w := &workbook{f: f, bold: bold, names: map[string]bool{}}
	if err := w.start(coverSheet); err != nil {
		f.Close()
		return nil, err
	}

	for _, frag := range doc.Fragments() {
		if err := w.fragment(frag); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (w *workbook) fragment(frag layout.Fragment) error {
	switch frag.Kind {
	case layout.KindTitlePage:
		p := frag.Title
		for _, line := range []string{p.Title, p.Subtitle, "Data as of " + p.AsOf, p.Author, p.Thanks} {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := w.line(line, w.row == 1); err != nil {
				return err
			}
		}
	case layout.KindSection:
		return w.start(frag.Text)
	case layout.KindDescription:
		return w.line(frag.Text, false)
	case layout.KindCaption:
		return w.line(frag.Text, true)
	case layout.KindImage:
		return w.line(strings.TrimSpace(frag.Image.Caption+" "+frag.Image.Credit), false)
	case layout.KindTable:
		if err := w.table(frag.Table); err != nil {
			return err
		}
		w.row++
	case layout.KindList:
		for _, item := range frag.List {
			if err := w.values(false, item.Text, item.Names); err != nil {
				return err
			}
		}
	}
	return nil
}

// start begins a new worksheet named after a section.
func (w *workbook) start(title string) error {
	name := w.sheetName(title)
	if w.sheet == "" {
		if err := w.f.SetSheetName(firstSheet, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	if err := w.f.SetColWidth(name, "A", "A", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	w.sheet = name
	w.row = 1
	return nil
}

func (w *workbook) sheetName(title string) string {
	base := strings.Join(strings.Fields(sheetNameCleaner.Replace(strings.ReplaceAll(title, "\u00a0", " "))), " ")
	if base == "" {
		base = "Section"
	}
	base = truncate(base, maxSheetName)
	name := base
	for i := 2; w.names[name]; i++ {
		suffix := fmt.Sprintf(" %d", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	w.names[name] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func (w *workbook) line(text string, bold bool) error {
	return w.values(bold, text)
}

func (w *workbook) values(bold bool, values ...string) error {
	for i, v := range values {
		if v == "" {
			continue
		}
		if err := w.set(i+1, v, bold); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

func (w *workbook) table(t *layout.Table) error {
	if err := w.values(true, t.Header...); err != nil {
		return err
	}
	for _, r := range t.Rows {
		for i, c := range r.Cells {
			if err := w.set(i+1, c, false); err != nil {
				return err
			}
		}
		if r.Link != "" {
			cell, err := excelize.CoordinatesToCellName(1, w.row)
			if err != nil {
				return err
			}
			if err := w.f.SetCellHyperLink(w.sheet, cell, r.Link, "External"); err != nil {
				return fmt.Errorf("link %s: %w", cell, err)
			}
		}
		w.row++
	}
	return nil
}

// set writes one cell, as a number when the text is numeric.
func (w *workbook) set(col int, text string, bold bool) error {
	cell, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return err
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")

	var value any = text
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		value = n
	} else if f, err := strconv.ParseFloat(text, 64); err == nil && !strings.ContainsAny(text, "eEnN") {
		value = f
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", w.sheet, cell, err)
	}
	if bold {
		if err := w.f.SetCellStyle(w.sheet, cell, cell, w.bold); err != nil {
			return fmt.Errorf("style %s!%s: %w", w.sheet, cell, err)
		}
	}
	return nil
}
