package stats

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/names"
	"github.com/ses4j/ebird-statistical-report/pkg/store/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dc = domain.Region{Code: "US-DC-001", Level: domain.RegionCounty, Predicate: "county_code = 'US-DC-001'"}

func newMockLibrary(t *testing.T, opts ...Option) (*Library, sqlmock.Sqlmock) {
	t.Helper()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exec, err := query.NewExecutor(db)
	require.NoError(t, err)

	l, err := New(exec, dc, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), opts...)
	require.NoError(t, err)
	return l, m
}

func TestNew_Validation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	exec, err := query.NewExecutor(db)
	require.NoError(t, err)

	_, err = New(nil, dc, time.Now())
	assert.Error(t, err)

	_, err = New(exec, domain.Region{Code: "US"}, time.Now())
	assert.Error(t, err)

	_, err = New(exec, dc, time.Now(), WithReviewPolicy("sometimes"))
	assert.Error(t, err)

	l, err := New(exec, dc, time.Now(), WithLimits(Limits{TopList: 50}))
	require.NoError(t, err)
	assert.Equal(t, 50, l.Limits().TopList)
	assert.Equal(t, DefaultLimits().MonthList, l.Limits().MonthList)
}

func TestEligible(t *testing.T) {
	t.Run("exclude rejected by default", func(t *testing.T) {
		l, _ := newMockLibrary(t)
		e := l.Eligible()
		assert.Contains(t, e, "(county_code = 'US-DC-001')")
		assert.Contains(t, e, "observation_date <= DATE '2020-12-31'")
		assert.Contains(t, e, "category IN ('species', 'issf', 'form') OR common_name = 'Rock Pigeon'")
		assert.Contains(t, e, "NOT (approved = false AND reviewed = true)")
	})

	t.Run("include all", func(t *testing.T) {
		l, _ := newMockLibrary(t, WithReviewPolicy(domain.ReviewIncludeAll))
		assert.NotContains(t, l.Eligible(), "approved")
	})
}

func TestScopePredicateAndLabels(t *testing.T) {
	l, _ := newMockLibrary(t)

	tests := []struct {
		name         string
		scope        domain.Scope
		wantClauses  []string
		wantTitle    string
		wantSubtitle string
	}{
		{
			name:         "life list",
			scope:        domain.Scope{},
			wantTitle:    "Life List",
			wantSubtitle: "All Time",
		},
		{
			name:         "year",
			scope:        domain.Scope{Year: 2020},
			wantClauses:  []string{"cast(extract(year from observation_date) as integer) = 2020"},
			wantTitle:    "Year List",
			wantSubtitle: "2020",
		},
		{
			name:         "last five years",
			scope:        domain.Scope{Year: 2020, LastXYears: 5},
			wantClauses:  []string{"cast(extract(year from observation_date) as integer) >= 2016"},
			wantTitle:    "Year List",
			wantSubtitle: "2016-2020",
		},
		{
			name:         "month",
			scope:        domain.Scope{Month: 3},
			wantClauses:  []string{"cast(extract(month from observation_date) as integer) = 3"},
			wantTitle:    "Month Life List (Mar)",
			wantSubtitle: "Mar",
		},
		{
			name:         "media rookies",
			scope:        domain.Scope{Year: 2020, WithMedia: true, RookiesSince: 2020},
			wantClauses:  []string{"has_media = true", "observation_date < DATE '2020-01-01'"},
			wantTitle:    "Year List w/ Photo/Audio",
			wantSubtitle: "2020 (Rookies)",
		},
		{
			name:         "sub region",
			scope:        domain.Scope{SubRegion: &domain.SubRegion{Name: "Ward 3", WKT: "POLYGON((0 0, 1 0, 1 1, 0 0))"}},
			wantClauses:  []string{"ST_Intersects(ST_GeomFromText('POLYGON((0 0, 1 0, 1 1, 0 0))'), ST_Point(longitude, latitude))"},
			wantTitle:    "Life List Ward 3",
			wantSubtitle: "Ward 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := l.scopePredicate(tt.scope)
			for _, c := range tt.wantClauses {
				assert.Contains(t, p, c)
			}
			if len(tt.wantClauses) == 0 {
				assert.Empty(t, p)
			}
			title, subtitle := scopeLabels(tt.scope)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantSubtitle, subtitle)
		})
	}
}

func TestTopLists_SQLShape(t *testing.T) {
	l, m := newMockLibrary(t, WithNames(names.Static{"obsr1": "Zed", "obsr2": "Amy", "obsr3": "Bea"}))

	m.ExpectQuery(regexp.QuoteMeta(`SELECT t.observer_id AS "Observer", t.species AS "Species"`)).
		WillReturnRows(sqlmock.NewRows([]string{"Observer", "Species"}).
			AddRow("obsr1", int64(10)).
			AddRow("obsr2", int64(10)).
			AddRow("obsr3", int64(8)))

	tbl, err := l.TopLists(context.Background(), domain.Scope{Year: 2020})
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsWereMet())

	assert.Equal(t, "Year List", tbl.Title)
	assert.Equal(t, "2020", tbl.Subtitle)
	assert.Equal(t, []domain.Column{{Name: "Observer"}, {Name: "Species"}}, tbl.Columns)
	assert.Equal(t, []domain.Row{{"Amy", int64(10)}, {"Zed", int64(10)}, {"Bea", int64(8)}}, tbl.Rows)
}

func TestTopLists_LimitKeepsBoundaryTies(t *testing.T) {
	l, m := newMockLibrary(t, WithNames(names.Static{"obsr9": "Cal", "obsr1": "Zed", "obsr2": "Amy"}))

	m.ExpectQuery(regexp.QuoteMeta(`rank() OVER (ORDER BY "Species" DESC) AS _rank`) + `(?s).*WHERE r\._rank <= 2\s+ORDER BY r\._rank`).
		WillReturnRows(sqlmock.NewRows([]string{"Observer", "Species", "_rank"}).
			AddRow("obsr9", int64(12), int64(1)).
			AddRow("obsr1", int64(10), int64(2)).
			AddRow("obsr2", int64(10), int64(2)))

	tbl, err := l.TopLists(context.Background(), domain.Scope{Year: 2020, Limit: 2})
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsWereMet())

	assert.Equal(t, []domain.Column{{Name: "Observer"}, {Name: "Species"}}, tbl.Columns)
	assert.Equal(t, []domain.Row{{"Cal", int64(12)}, {"Amy", int64(10)}}, tbl.Rows)
}

func TestTopLists_DeltaColumn(t *testing.T) {
	l, m := newMockLibrary(t)

	m.ExpectQuery(`WITH cur AS .*observation_date <= DATE '2020-12-31'.*prev AS .*observation_date <= DATE '2019-12-31'.*= 2019`).
		WillReturnRows(sqlmock.NewRows([]string{"Observer", "Species", "Change"}).
			AddRow("obsr1", int64(12), int64(3)).
			AddRow("obsr2", int64(9), int64(0)).
			AddRow("obsr3", int64(7), int64(-2)))

	tbl, err := l.TopLists(context.Background(), domain.Scope{Year: 2020, IncludeDelta: true})
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsWereMet())

	assert.Equal(t, "Change", tbl.Columns[2].Name)
	assert.Equal(t, "+3", tbl.Rows[0][2])
	assert.Equal(t, "-", tbl.Rows[1][2])
	assert.Equal(t, "-2", tbl.Rows[2][2])
}

func TestMetrics_EmptyResult(t *testing.T) {
	l, m := newMockLibrary(t)
	m.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Observer", "Species"}))

	tbl, err := l.MonthCloseouts(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
	assert.Len(t, tbl.Columns, 2)
}

func TestMetrics_QueryFailurePropagates(t *testing.T) {
	l, m := newMockLibrary(t)
	boom := errors.New("relation \"ebird\" does not exist")
	m.ExpectQuery("SELECT").WillReturnError(boom)

	_, err := l.BigDays(context.Background(), 10)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestMetrics_NameFailurePropagates(t *testing.T) {
	l, m := newMockLibrary(t, WithNames(names.Static{}))
	m.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"Observer", "Species"}).AddRow("obsr9", int64(1)))

	_, err := l.TopLists(context.Background(), domain.Scope{})
	assert.ErrorIs(t, err, names.ErrUnresolved)
}

func TestMetrics_RowShapeMismatch(t *testing.T) {
	l, _ := newMockLibrary(t)
	l.exec = stubExecutor{res: &query.Result{Columns: []string{"Observer", "Species"}, Rows: [][]any{{"obsr1"}}}}

	_, err := l.TopLists(context.Background(), domain.Scope{})
	assert.ErrorIs(t, err, domain.ErrRowShape)
}

type stubExecutor struct {
	res *query.Result
}

func (s stubExecutor) Query(context.Context, string, string) (*query.Result, error) {
	return s.res, nil
}

func TestSortTiesByName(t *testing.T) {
	rows := []domain.Row{
		{"Zed", int64(10), int64(2020)},
		{"Amy", int64(10), int64(2020)},
		{"Bea", int64(10), int64(2019)},
		{"Cal", int64(8), int64(2020)},
		{"Abe", int64(8), int64(2020)},
	}
	sortTiesByName(rows, 0, []int{1, 2})

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r[0].(string)
	}
	assert.Equal(t, []string{"Amy", "Zed", "Bea", "Abe", "Cal"}, got)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'O''Brien'", quote("O'Brien"))
}
