// Package layout turns report tables into an ordered stream of document
// fragments. It does no I/O: renderers consume the stream.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/format"
)

var (
	ErrColumnCount = errors.New("number of columns must be 1, 2 or 3")
	ErrRowShape    = domain.ErrRowShape
	ErrRankColumn  = errors.New("rank column out of range")
)

const (
	rowFillThreshold = 0.9
	stripeEvery      = 5
	minStripeWidth   = 0.4
	urlColumn        = "_url"
	personColumn     = "Observer"
)

// NoRank disables ranking for a table group.
const NoRank = 0

// Width is the fraction of the text width given to each of n columns.
func Width(n int) (float64, error) {
	switch n {
	case 1:
		return 1.00, nil
	case 2:
		return 0.485, nil
	case 3:
		return 0.31, nil
	default:
		return 0, fmt.Errorf("%d: %w", n, ErrColumnCount)
	}
}

// Rank assigns competition ranks to already sorted values: a row equal to
// its predecessor shares its rank, otherwise the rank is the 1-based position.
func Rank(values []any) []int {
	ranks := make([]int, len(values))
	for i, v := range values {
		if i > 0 && format.Cell(v) == format.Cell(values[i-1]) {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// Document accumulates fragments in call order.
type Document struct {
	fragments []Fragment
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) Fragments() []Fragment {
	return d.fragments
}

func (d *Document) add(f Fragment) {
	d.fragments = append(d.fragments, f)
}

func (d *Document) TitlePage(p TitlePage) {
	d.add(Fragment{Kind: KindTitlePage, Title: &p})
}

func (d *Document) Contents() {
	d.add(Fragment{Kind: KindContents})
}

func (d *Document) PageBreak() {
	d.add(Fragment{Kind: KindPageBreak})
}

func (d *Document) Image(p domain.Photo) {
	d.add(Fragment{Kind: KindImage, Image: &p})
}

// Section starts a numbered section with an optional description.
func (d *Document) Section(title, description string) {
	d.add(Fragment{Kind: KindSection, Text: title})
	d.Description(description)
}

func (d *Document) Description(text string) {
	if text == "" {
		return
	}
	d.add(Fragment{Kind: KindDescription, Text: text})
}

// Options control ranking within a table group. RankBy is the visible
// column compared for ties; negative values count from the last visible
// column, so -1 is the last one. NoRank turns ranking off.
type Options struct {
	RankBy int
}

// AddTablesInColumns places tables n to a row, each 1/n of the page wide.
func (d *Document) AddTablesInColumns(tables []*domain.Table, n int, opts Options) error {
	width, err := Width(n)
	if err != nil {
		return err
	}
	for i, t := range tables {
		if err := d.block(t, width, opts); err != nil {
			return err
		}
		if i%n == n-1 {
			d.add(Fragment{Kind: KindRowBreak})
		} else {
			d.add(Fragment{Kind: KindHSpace})
		}
	}
	return nil
}

// AddTablesIn places table i in a block 1/columns[i] wide and breaks the row
// once the accumulated fill passes 0.9, so differently sized tables can
// share a row.
func (d *Document) AddTablesIn(tables []*domain.Table, columns []int, opts Options) error {
	if len(columns) != len(tables) {
		return fmt.Errorf("%d tables with %d column counts: %w", len(tables), len(columns), ErrColumnCount)
	}
	fill := 0.0
	for i, t := range tables {
		width, err := Width(columns[i])
		if err != nil {
			return err
		}
		fill += 1.0 / float64(columns[i])

		if err := d.block(t, width, opts); err != nil {
			return err
		}
		if fill > rowFillThreshold {
			d.add(Fragment{Kind: KindRowBreak})
			fill = 0
		} else {
			d.add(Fragment{Kind: KindHSpace})
		}
	}
	return nil
}

func (d *Document) block(t *domain.Table, width float64, opts Options) error {
	stripe := 0
	if width >= minStripeWidth {
		stripe = stripeEvery
	}
	rendered, err := render(t, opts.RankBy, stripe)
	if err != nil {
		return err
	}

	d.add(Fragment{Kind: KindBlockStart, Width: width})
	d.Description(t.Description)
	if t.Subtitle != "" {
		d.add(Fragment{Kind: KindCaption, Text: format.Normalize(t.Subtitle)})
	}
	d.add(Fragment{Kind: KindTable, Table: rendered})
	d.add(Fragment{Kind: KindBlockEnd})
	return nil
}

// AddTableSection gives t its own section holding one page-breakable table.
func (d *Document) AddTableSection(t *domain.Table, opts Options) error {
	rendered, err := render(t, opts.RankBy, stripeEvery)
	if err != nil {
		return err
	}
	rendered.Long = true

	d.Section(t.Title, t.Description)
	d.add(Fragment{Kind: KindTable, Table: rendered})
	return nil
}

// AddListSection gives t its own section rendered as a prose list of
// "first (second)" items. A third column, when present and not empty, is
// shown as a line of names under the item.
func (d *Document) AddListSection(t *domain.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	visible := visibleColumns(t)
	if len(visible) < 2 {
		return fmt.Errorf("list %q needs two visible columns: %w", t.Title, ErrColumnCount)
	}

	items := make([]ListItem, 0, len(t.Rows))
	for _, row := range t.Rows {
		item := ListItem{
			Text: fmt.Sprintf("%s (%s)", text(row[visible[0]]), text(row[visible[1]])),
		}
		if len(visible) > 2 {
			item.Names = nameList(row[visible[2]])
		}
		items = append(items, item)
	}

	d.Section(t.Title, t.Description)
	d.add(Fragment{Kind: KindList, List: items})
	return nil
}

// text is the printable form of a cell. Strings are reduced to Latin-1 with
// non-breaking spaces.
func text(v any) string {
	if s, ok := v.(string); ok {
		return format.Normalize(s)
	}
	return format.Cell(v)
}

// nameList normalizes each name of a ", " separated list and keeps the
// separators breakable.
func nameList(v any) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return format.Cell(v)
	}
	names := lo.FilterMap(strings.Split(s, ","), func(n string, _ int) (string, bool) {
		n = format.Normalize(n)
		return n, n != ""
	})
	return strings.Join(names, ", ")
}

func visibleColumns(t *domain.Table) []int {
	idx := lo.Range(len(t.Columns))
	return lo.Filter(idx, func(i int, _ int) bool {
		return !t.Columns[i].Private()
	})
}

// render drops private columns, formats cells and prefixes ranks when the
// first visible column is a person.
func render(t *domain.Table, rankBy, stripe int) (*Table, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	visible := visibleColumns(t)
	header := lo.Map(visible, func(i int, _ int) string {
		return t.Columns[i].Name
	})

	var ranks []int
	if rankBy != NoRank && len(header) > 0 && strings.HasPrefix(header[0], personColumn) && len(t.Rows) > 0 {
		col := rankBy
		if col < 0 {
			col += len(visible)
		}
		if col < 0 || col >= len(visible) {
			return nil, fmt.Errorf("%q rank column %d: %w", t.Title, rankBy, ErrRankColumn)
		}
		ranks = Rank(lo.Map(t.Rows, func(r domain.Row, _ int) any {
			return r[visible[col]]
		}))
	}

	link := t.ColumnIndex(urlColumn)
	out := &Table{Header: header, Rows: make([]Row, 0, len(t.Rows))}
	for i, r := range t.Rows {
		cells := lo.Map(visible, func(c int, _ int) string {
			return text(r[c])
		})
		if ranks != nil {
			cells[0] = fmt.Sprintf("%d.\u00a0%s", ranks[i], cells[0])
		}
		row := Row{Cells: cells}
		if link >= 0 {
			row.Link = format.Cell(r[link])
		}
		if stripe > 0 && i < len(t.Rows)-1 && i%stripe == stripe-1 {
			row.RuleAfter = true
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
