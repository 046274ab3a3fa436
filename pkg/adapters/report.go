package adapters

import (
	"time"

	"github.com/ses4j/ebird-statistical-report/pkg/models/api"
	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

const linkColumn = "_url"

func MapRegionDomainToApi(r domain.Region) api.Region {
	return api.Region{
		Code:        r.Code,
		Level:       string(r.Level),
		Description: r.Description,
	}
}

// MapTableDomainToApi drops private columns. Checklist links, when the table
// carries them, are returned alongside the rows.
func MapTableDomainToApi(t *domain.Table) api.Table {
	out := api.Table{
		Title:       t.Title,
		Subtitle:    t.Subtitle,
		Description: t.Description,
		Columns:     []string{},
		Rows:        make([][]any, 0, len(t.Rows)),
	}

	var visible []int
	for i, c := range t.Columns {
		if !c.Private() {
			visible = append(visible, i)
			out.Columns = append(out.Columns, c.Name)
		}
	}
	link := t.ColumnIndex(linkColumn)

	for _, row := range t.Rows {
		cells := make([]any, 0, len(visible))
		for _, i := range visible {
			cells = append(cells, mapCell(row[i]))
		}
		out.Rows = append(out.Rows, cells)
		if link >= 0 {
			s, _ := row[link].(string)
			out.Links = append(out.Links, s)
		}
	}
	return out
}

func mapCell(v any) any {
	if d, ok := v.(time.Time); ok {
		return d.Format("2006-01-02")
	}
	return v
}

func MapSectionDomainToApi(s domain.ReportSection) api.Section {
	out := api.Section{
		Title:       s.Title,
		Description: s.Description,
		Blocks:      make([]api.Block, 0, len(s.Blocks)),
	}
	for _, b := range s.Blocks {
		block := api.Block{Kind: string(b.Kind), Columns: b.Columns, Tables: make([]api.Table, 0, len(b.Tables))}
		for _, t := range b.Tables {
			block.Tables = append(block.Tables, MapTableDomainToApi(t))
		}
		out.Blocks = append(out.Blocks, block)
	}
	return out
}

func MapSectionsDomainToApi(sections []domain.ReportSection) []api.Section {
	out := make([]api.Section, 0, len(sections))
	for _, s := range sections {
		out = append(out, MapSectionDomainToApi(s))
	}
	return out
}
