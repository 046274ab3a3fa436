package layout

import "github.com/ses4j/ebird-statistical-report/pkg/models/domain"

// Kind identifies one structural command of the document stream.
type Kind string

const (
	KindTitlePage   Kind = "title_page"
	KindContents    Kind = "contents"
	KindPageBreak   Kind = "page_break"
	KindSection     Kind = "section"
	KindDescription Kind = "description"
	KindBlockStart  Kind = "block_start"
	KindBlockEnd    Kind = "block_end"
	KindCaption     Kind = "caption"
	KindTable       Kind = "table"
	KindList        Kind = "list"
	KindHSpace      Kind = "hspace"
	KindRowBreak    Kind = "row_break"
	KindImage       Kind = "image"
)

// Fragment is one positioned command. Only the fields relevant to Kind are set.
type Fragment struct {
	Kind  Kind
	Text  string
	Width float64 // fraction of the text width, KindBlockStart only
	Title *TitlePage
	Table *Table
	List  []ListItem
	Image *domain.Photo
}

type TitlePage struct {
	Title    string
	Subtitle string
	AsOf     string
	Author   string
	Version  string
	Thanks   string
}

// Table is a report table with private columns removed and every cell
// rendered to text.
type Table struct {
	Header []string
	Rows   []Row
	Long   bool // may break across pages
}

type Row struct {
	Cells     []string
	Link      string // target of the first cell, from a private _url column
	RuleAfter bool
}

// ListItem renders as "Text" followed by an optional small line of names.
type ListItem struct {
	Text  string
	Names string
}
