package layout

import (
	"fmt"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// Build lays out a whole report: title page, contents, then every section
// in order.
func Build(r *domain.Report) (*Document, error) {
	d := NewDocument()
	d.TitlePage(TitlePage{
		Title:    r.Title,
		Subtitle: r.Region.Description,
		AsOf:     r.AsOf.Format("January 2, 2006"),
		Author:   r.Author,
		Version:  r.Version,
		Thanks:   r.Thanks,
	})
	for _, p := range r.TitlePhotos {
		d.Image(p)
	}
	d.PageBreak()
	d.Contents()
	d.PageBreak()

	for _, s := range r.Sections {
		if err := d.section(s); err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Title, err)
		}
	}
	return d, nil
}

// section emits one ReportSection. An untitled section holding a single
// table or list block takes its title and description from that table.
func (d *Document) section(s domain.ReportSection) error {
	if s.Title == "" && len(s.Blocks) == 1 && len(s.Blocks[0].Tables) == 1 {
		b := s.Blocks[0]
		switch b.Kind {
		case domain.BlockTable:
			return d.AddTableSection(b.Tables[0], Options{RankBy: b.RankBy})
		case domain.BlockList:
			return d.AddListSection(b.Tables[0])
		}
	}

	d.Section(s.Title, s.Description)
	for _, b := range s.Blocks {
		opts := Options{RankBy: b.RankBy}
		var err error
		switch b.Kind {
		case domain.BlockColumns:
			n := 3
			if len(b.Columns) > 0 {
				n = b.Columns[0]
			}
			err = d.AddTablesInColumns(b.Tables, n, opts)
		case domain.BlockPacked:
			err = d.AddTablesIn(b.Tables, b.Columns, opts)
		case domain.BlockTable:
			for _, t := range b.Tables {
				if err = d.table(t, opts); err != nil {
					break
				}
			}
		case domain.BlockList:
			err = fmt.Errorf("list block must be the only block of an untitled section")
		default:
			err = fmt.Errorf("unknown block kind %q", b.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// table adds a captioned full-width table inside the current section.
func (d *Document) table(t *domain.Table, opts Options) error {
	rendered, err := render(t, opts.RankBy, stripeEvery)
	if err != nil {
		return err
	}
	rendered.Long = true
	d.Description(t.Description)
	if t.Subtitle != "" {
		d.add(Fragment{Kind: KindCaption, Text: t.Subtitle})
	}
	d.add(Fragment{Kind: KindTable, Table: rendered})
	return nil
}
