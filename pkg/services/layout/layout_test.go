package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

func table(title, subtitle string, cols []string, rows ...domain.Row) *domain.Table {
	return &domain.Table{Title: title, Subtitle: subtitle, Columns: domain.Columns(cols...), Rows: rows}
}

func kinds(d *Document) []Kind {
	out := make([]Kind, 0, len(d.Fragments()))
	for _, f := range d.Fragments() {
		out = append(out, f.Kind)
	}
	return out
}

func tablesOf(d *Document) []*Table {
	var out []*Table
	for _, f := range d.Fragments() {
		if f.Kind == KindTable {
			out = append(out, f.Table)
		}
	}
	return out
}

func TestWidth(t *testing.T) {
	tests := []struct {
		n       int
		want    float64
		wantErr bool
	}{
		{n: 1, want: 1.00},
		{n: 2, want: 0.485},
		{n: 3, want: 0.31},
		{n: 0, wantErr: true},
		{n: 4, wantErr: true},
	}
	for _, tt := range tests {
		got, err := Width(tt.n)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrColumnCount)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRank(t *testing.T) {
	values := []any{int64(10), int64(10), int64(8), int64(8), int64(8), int64(5)}
	ranks := Rank(values)
	assert.Equal(t, []int{1, 1, 3, 3, 3, 6}, ranks)
	assert.Equal(t, ranks, Rank(values))

	assert.Empty(t, Rank(nil))
	assert.Equal(t, []int{1, 2, 3}, Rank([]any{"a", "b", "c"}))
}

func observers(n int) *domain.Table {
	tbl := table("Year List", "2020", []string{"Observer", "Species"})
	for i := 0; i < n; i++ {
		tbl.Rows = append(tbl.Rows, domain.Row{string(rune('A' + i)), int64(100 - i/2*2)})
	}
	return tbl
}

func TestAddTablesInColumns(t *testing.T) {
	t.Run("wraps every n tables", func(t *testing.T) {
		d := NewDocument()
		tables := []*domain.Table{observers(2), observers(2), observers(2), observers(2)}

		require.NoError(t, d.AddTablesInColumns(tables, 3, Options{RankBy: -1}))

		var widths []float64
		var spacing []Kind
		for _, f := range d.Fragments() {
			switch f.Kind {
			case KindBlockStart:
				widths = append(widths, f.Width)
			case KindHSpace, KindRowBreak:
				spacing = append(spacing, f.Kind)
			}
		}
		assert.Equal(t, []float64{0.31, 0.31, 0.31, 0.31}, widths)
		assert.Equal(t, []Kind{KindHSpace, KindHSpace, KindRowBreak, KindHSpace}, spacing)
	})

	t.Run("caption precedes table", func(t *testing.T) {
		d := NewDocument()
		require.NoError(t, d.AddTablesInColumns([]*domain.Table{observers(1)}, 1, Options{}))
		assert.Equal(t, []Kind{KindBlockStart, KindCaption, KindTable, KindBlockEnd, KindRowBreak}, kinds(d))
		assert.Equal(t, "2020", d.Fragments()[1].Text)
	})

	t.Run("bad column count", func(t *testing.T) {
		d := NewDocument()
		err := d.AddTablesInColumns([]*domain.Table{observers(1)}, 4, Options{})
		assert.ErrorIs(t, err, ErrColumnCount)
		assert.Empty(t, d.Fragments())
	})
}

func TestAddTablesIn(t *testing.T) {
	d := NewDocument()
	tables := []*domain.Table{observers(1), observers(1), observers(1), observers(1), observers(1)}

	// 1/2 + 1/2 breaks, then 1/3 + 1/3 + 1/3 breaks.
	require.NoError(t, d.AddTablesIn(tables, []int{2, 2, 3, 3, 3}, Options{}))

	var spacing []Kind
	for _, f := range d.Fragments() {
		if f.Kind == KindHSpace || f.Kind == KindRowBreak {
			spacing = append(spacing, f.Kind)
		}
	}
	assert.Equal(t, []Kind{KindHSpace, KindRowBreak, KindHSpace, KindHSpace, KindRowBreak}, spacing)

	err := d.AddTablesIn(tables, []int{2}, Options{})
	assert.ErrorIs(t, err, ErrColumnCount)
}

func TestRender_Ranking(t *testing.T) {
	tbl := table("Year List", "2020", []string{"Observer", "Species"},
		domain.Row{"Bob Roe", int64(10)},
		domain.Row{"Carol Diaz", int64(10)},
		domain.Row{"Alice Smith", int64(8)},
	)

	t.Run("last column", func(t *testing.T) {
		got, err := render(tbl, -1, 0)
		require.NoError(t, err)
		assert.Equal(t, "1.\u00a0Bob\u00a0Roe", got.Rows[0].Cells[0])
		assert.Equal(t, "1.\u00a0Carol\u00a0Diaz", got.Rows[1].Cells[0])
		assert.Equal(t, "3.\u00a0Alice\u00a0Smith", got.Rows[2].Cells[0])
		assert.Equal(t, "10", got.Rows[0].Cells[1])
	})

	t.Run("disabled", func(t *testing.T) {
		got, err := render(tbl, NoRank, 0)
		require.NoError(t, err)
		assert.Equal(t, "Bob\u00a0Roe", got.Rows[0].Cells[0])
	})

	t.Run("not a person table", func(t *testing.T) {
		species := table("Most Seen", "", []string{"Species", "Birders"}, domain.Row{"Blue Jay", int64(3)})
		got, err := render(species, -1, 0)
		require.NoError(t, err)
		assert.Equal(t, "Blue\u00a0Jay", got.Rows[0].Cells[0])
	})

	t.Run("rank column out of range", func(t *testing.T) {
		_, err := render(tbl, 5, 0)
		assert.ErrorIs(t, err, ErrRankColumn)
	})
}

func TestRender_PrivateColumns(t *testing.T) {
	tbl := table("Top Single List", "", []string{"Observer", "Date", "Species", "_url"},
		domain.Row{"Bob Roe", time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), int64(3), "https://ebird.org/checklist/S1"},
		domain.Row{"Carol Diaz", time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC), int64(3), "https://ebird.org/checklist/S2"},
	)

	got, err := render(tbl, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Observer", "Date", "Species"}, got.Header)
	assert.Equal(t, []string{"1.\u00a0Bob\u00a0Roe", "2020-05-01", "3"}, got.Rows[0].Cells)
	assert.Equal(t, "https://ebird.org/checklist/S2", got.Rows[1].Link)
	assert.Len(t, tbl.Columns, 4)
}

func TestTextIsNormalized(t *testing.T) {
	t.Run("ranked cells", func(t *testing.T) {
		tbl := table("Year List", " Big Year ", []string{"Observer", "Species"},
			domain.Row{"Nguyễn Văn An 🐦", int64(3)},
		)

		d := NewDocument()
		require.NoError(t, d.AddTablesInColumns([]*domain.Table{tbl}, 1, Options{RankBy: -1}))
		assert.Equal(t, "Big\u00a0Year", d.Fragments()[1].Text)
		assert.Equal(t, []string{"1.\u00a0Nguyn\u00a0Vn\u00a0An", "3"}, tablesOf(d)[0].Rows[0].Cells)
	})

	t.Run("list names", func(t *testing.T) {
		tbl := table("Closeouts", "", []string{"Species", "#", "Birders"},
			domain.Row{"Snowy\u00a0Owl ", int64(2), "Bob Roe, Carol Diaz,"},
		)

		d := NewDocument()
		require.NoError(t, d.AddListSection(tbl))
		assert.Equal(t, []ListItem{
			{Text: "Snowy\u00a0Owl (2)", Names: "Bob\u00a0Roe, Carol\u00a0Diaz"},
		}, d.Fragments()[1].List)
	})
}

func TestRender_Striping(t *testing.T) {
	got, err := render(observers(11), -1, stripeEvery)
	require.NoError(t, err)

	var rules []int
	for i, r := range got.Rows {
		if r.RuleAfter {
			rules = append(rules, i)
		}
	}
	assert.Equal(t, []int{4, 9}, rules)

	got, err = render(observers(10), -1, stripeEvery)
	require.NoError(t, err)
	assert.False(t, got.Rows[9].RuleAfter)
}

func TestStripingDependsOnWidth(t *testing.T) {
	d := NewDocument()
	require.NoError(t, d.AddTablesInColumns([]*domain.Table{observers(6)}, 3, Options{}))
	assert.False(t, tablesOf(d)[0].Rows[4].RuleAfter)

	d = NewDocument()
	require.NoError(t, d.AddTablesInColumns([]*domain.Table{observers(6)}, 2, Options{}))
	assert.True(t, tablesOf(d)[0].Rows[4].RuleAfter)
}

func TestRowShapeIsFatal(t *testing.T) {
	bad := table("Broken", "x", []string{"Observer", "Species"}, domain.Row{"Bob Roe"})

	d := NewDocument()
	assert.ErrorIs(t, d.AddTablesInColumns([]*domain.Table{bad}, 2, Options{}), ErrRowShape)
	assert.ErrorIs(t, d.AddTableSection(bad, Options{}), ErrRowShape)
	assert.ErrorIs(t, d.AddListSection(bad), ErrRowShape)
	assert.Empty(t, d.Fragments())
}

func TestAddTableSection(t *testing.T) {
	tbl := observers(3)
	tbl.Title = "Every Day is a Big Day"
	tbl.Description = "Best day on every date."

	d := NewDocument()
	require.NoError(t, d.AddTableSection(tbl, Options{RankBy: -1}))

	assert.Equal(t, []Kind{KindSection, KindDescription, KindTable}, kinds(d))
	assert.Equal(t, "Every Day is a Big Day", d.Fragments()[0].Text)
	assert.True(t, tablesOf(d)[0].Long)
}

func TestAddListSection(t *testing.T) {
	tbl := table("All Month Closeout Birds", "", []string{"Species", "#", "Birders"},
		domain.Row{"Blue Jay", int64(1), "Alice Smith"},
		domain.Row{"Northern Cardinal", int64(7), nil},
	)

	d := NewDocument()
	require.NoError(t, d.AddListSection(tbl))
	require.Equal(t, []Kind{KindSection, KindList}, kinds(d))

	items := d.Fragments()[1].List
	assert.Equal(t, []ListItem{
		{Text: "Blue\u00a0Jay (1)", Names: "Alice\u00a0Smith"},
		{Text: "Northern\u00a0Cardinal (7)"},
	}, items)

	t.Run("empty table renders an empty list", func(t *testing.T) {
		d := NewDocument()
		require.NoError(t, d.AddListSection(table("Empty", "", []string{"Species", "#"})))
		assert.Empty(t, d.Fragments()[1].List)
	})

	t.Run("one column", func(t *testing.T) {
		d := NewDocument()
		err := d.AddListSection(table("Narrow", "", []string{"Species"}))
		assert.ErrorIs(t, err, ErrColumnCount)
	})
}

func TestBuild(t *testing.T) {
	report := &domain.Report{
		Title:  "DC eBird Statistical Report",
		Region: domain.Region{Code: "US-DC", Description: "District of Columbia, United States"},
		Year:   2020,
		AsOf:   time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		Sections: []domain.ReportSection{
			{
				Title:  "Most Species Seen",
				Blocks: []domain.SectionBlock{{Kind: domain.BlockColumns, Columns: []int{2}, Tables: []*domain.Table{observers(2), observers(2)}, RankBy: -1}},
			},
			{
				Blocks: []domain.SectionBlock{{Kind: domain.BlockList, Tables: []*domain.Table{
					table("Breeding Credits", "", []string{"Species", "#"}, domain.Row{"American Robin", int64(2)}),
				}}},
			},
		},
	}

	d, err := Build(report)
	require.NoError(t, err)

	f := d.Fragments()
	require.Equal(t, KindTitlePage, f[0].Kind)
	assert.Equal(t, "December 31, 2020", f[0].Title.AsOf)
	assert.Equal(t, "District of Columbia, United States", f[0].Title.Subtitle)

	var sections []string
	for _, fr := range f {
		if fr.Kind == KindSection {
			sections = append(sections, fr.Text)
		}
	}
	assert.Equal(t, []string{"Most Species Seen", "Breeding Credits"}, sections)
	assert.Equal(t, KindList, f[len(f)-1].Kind)

	report.Sections[0].Blocks[0].Columns = []int{5}
	_, err = Build(report)
	assert.ErrorIs(t, err, ErrColumnCount)
}
