package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrRowShape = errors.New("row length does not match column count")

// Report represents a complete annual report, ready for layout
type Report struct {
	Title       string
	Region      Region
	Year        int
	AsOf        time.Time
	Author      string
	Version     string
	Thanks      string
	Sections    []ReportSection
	TitlePhotos []Photo
}

// ReportSection represents a logical section in the report.
// Each block is either a group of tables packed into columns, a single
// full-width table or an inline list.
type ReportSection struct {
	Title       string
	Description string
	Blocks      []SectionBlock
}

type BlockKind string

const (
	BlockColumns BlockKind = "columns"
	BlockPacked  BlockKind = "packed"
	BlockTable   BlockKind = "table"
	BlockList    BlockKind = "list"
)

// SectionBlock is one layout call over a group of tables.
type SectionBlock struct {
	Kind    BlockKind
	Tables  []*Table
	Columns []int // per-table column counts for BlockPacked, single entry for BlockColumns
	RankBy  int   // visible column index used for ties; negative counts from the end
}

// Column describes one result column. Names starting with an underscore are
// private: carried through computation but hidden at render time.
type Column struct {
	Name string
}

func (c Column) Private() bool {
	return strings.HasPrefix(c.Name, "_")
}

// Row holds normalized cell values: nil, string, int64, float64, bool or time.Time.
type Row []any

// Table is the result of one metric query.
type Table struct {
	Title       string
	Subtitle    string
	Description string
	Columns     []Column
	Rows        []Row
}

func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%q row %d has %d values for %d columns: %w",
				t.Title, i, len(row), len(t.Columns), ErrRowShape)
		}
	}
	return nil
}

// ColumnIndex returns the index of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func Columns(names ...string) []Column {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		cols = append(cols, Column{Name: n})
	}
	return cols
}

// Photo is an illustrative image placed on the title page.
type Photo struct {
	Path    string
	URL     string
	Caption string
	Credit  string
}
