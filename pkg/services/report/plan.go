package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/stats"
)

// metricQuery computes one table of the report.
type metricQuery func(ctx context.Context, l *stats.Library) (*domain.Table, error)

type blockPlan struct {
	kind    domain.BlockKind
	columns []int
	rankBy  int
	queries []metricQuery
}

type sectionPlan struct {
	title       string
	description string
	blocks      []blockPlan
}

type planInput struct {
	region     domain.Region
	year       int
	limits     stats.Limits
	subRegions []domain.SubRegion
}

const rankLast = -1

func columns(n int, rankBy int, queries ...metricQuery) blockPlan {
	return blockPlan{kind: domain.BlockColumns, columns: []int{n}, rankBy: rankBy, queries: queries}
}

func packed(widths []int, rankBy int, queries ...metricQuery) blockPlan {
	return blockPlan{kind: domain.BlockPacked, columns: widths, rankBy: rankBy, queries: queries}
}

func single(kind domain.BlockKind, q metricQuery) sectionPlan {
	return sectionPlan{blocks: []blockPlan{{kind: kind, rankBy: rankLast, queries: []metricQuery{q}}}}
}

func topLists(s domain.Scope) metricQuery {
	return func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
		return l.TopLists(ctx, s)
	}
}

func mostSeen(s domain.Scope) metricQuery {
	return func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
		return l.MostSeenBirds(ctx, s)
	}
}

func repeat(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 2
	}
	return out
}

// buildPlan lays out every section of the annual report in reading order.
func buildPlan(in planInput) []sectionPlan {
	desc := in.region.Description
	year := in.year
	lim := in.limits

	plan := []sectionPlan{
		{
			title: "About this Document",
			description: fmt.Sprintf("This is a summary report of data entered into the eBird database for the %s region, "+
				"intended for the amusement of area birders. All data comes from the eBird dataset, and as such is self-reported "+
				"and only sometimes reviewed or approved, so any numbers or sightings have the potential to be incorrect.", desc),
		},
		{
			title: "Year in Review",
			description: fmt.Sprintf("First, some basic statistics from the eBird database for %s, and comparisons to recent years. "+
				"'All Time' includes all data in eBird, but since eBird is much more heavily used now than before, "+
				"older data becomes increasingly spotty.", desc),
			blocks: []blockPlan{columns(1, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.YearStats(ctx, year) },
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.NewBirds(ctx, year) },
			)},
		},
		{
			title: "Most Species Seen",
			description: "Most species seen, as reported to eBird. Only birds identified to species are counted, so a " +
				"'spuh' (Selasphorus sp.) or a 'slash' (Glossy/White-faced Ibis) is not included. " +
				"Change compares against the same list one year earlier. " +
				"Rookies are birders who never submitted a checklist in the region before the current year.",
			blocks: []blockPlan{columns(2, 1,
				topLists(domain.Scope{Limit: lim.TopList, IncludeDelta: true}),
				topLists(domain.Scope{Year: year, Limit: lim.TopList, IncludeDelta: true}),
				topLists(domain.Scope{Year: year, LastXYears: lim.LastXYears, Limit: lim.TopList}),
				topLists(domain.Scope{Year: year, RookiesSince: year, Limit: lim.TopList}),
			)},
		},
		{
			title: "Most Species Seen - All Time Bigs",
			description: "The all-time highest Big Year, Month and Day: the highest species count in a single time period. " +
				"On the left are individual records. On the right are 'team' records, combining the species lists " +
				"of all checklists posted in the region.",
			blocks: []blockPlan{packed(repeat(6), rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.BigYears(ctx, lim.AllTimeBigs) },
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.EveryoneBigYears(ctx, lim.AllTimeBigs)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.BigMonths(ctx, lim.AllTimeBigs) },
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.EveryoneBigMonths(ctx, lim.AllTimeBigs)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.BigDays(ctx, lim.AllTimeBigs) },
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.EveryoneBigDays(ctx, lim.AllTimeBigs)
				},
			)},
		},
		{
			title: "Every Day is a Big Day",
			description: "The best single-observer day ever recorded on each calendar day and in each month, " +
				"with every birder tied for the record.",
			blocks: []blockPlan{packed([]int{2, 2}, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.EveryMonthBigDay(ctx) },
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) { return l.EveryDayBigDay(ctx) },
			)},
		},
		{
			title: "Most Species Ever on One List",
			description: fmt.Sprintf("Top scores go to the longest complete stationary or traveling checklists that meet "+
				"eBird checklist guidelines (max %g hours, max %g miles).", lim.SingleListMaxHours, lim.SingleListMaxMiles),
			blocks: []blockPlan{packed([]int{1}, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.TopSingleLists(ctx, lim.SingleListMaxHours, lim.SingleListMaxMiles, lim.SingleList)
				},
			)},
		},
		single(domain.BlockTable, func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
			return l.FourSeasons(ctx, year, lim.FourSeasons)
		}),
		{
			title: "Most Species Photographed or Recorded",
			description: "Birders most avidly documenting their sightings with photos or sound recordings, " +
				"and the birds most avidly avoiding documentation.",
			blocks: []blockPlan{columns(2, rankLast,
				topLists(domain.Scope{WithMedia: true, Limit: lim.Media}),
				topLists(domain.Scope{Year: year, WithMedia: true, Limit: lim.Media}),
				mostSeen(domain.Scope{WithMedia: true, Sort: domain.SortAsc, Limit: lim.Media}),
				mostSeen(domain.Scope{Year: year, WithMedia: true, Sort: domain.SortAsc, Limit: lim.Media}),
			)},
		},
	}

	if len(in.subRegions) > 0 {
		var qs []metricQuery
		for i := range in.subRegions {
			sub := in.subRegions[i]
			qs = append(qs, topLists(domain.Scope{SubRegion: &sub, Limit: lim.SubRegionList}))
		}
		plan = append(plan, sectionPlan{
			title:  fmt.Sprintf("Top Life Lists by %s Area", in.region.Description),
			blocks: []blockPlan{columns(3, rankLast, qs...)},
		})
	}

	breeding := "Identifying breeding behaviors and coding them in eBird. 'Confirmed' breeding birds are worth 3 points, " +
		"'Probable' codes are worth 2, and 'Possible' codes are worth 1."
	if strings.HasPrefix(in.region.Code, "US-DC") || strings.HasPrefix(in.region.Code, "US-MD") {
		breeding += " Includes lists not entered in the MD/DC Breeding Bird Atlas portal, so totals may differ from final Atlas figures."
	}

	plan = append(plan,
		sectionPlan{
			title:       "Most Breeding Species Coded",
			description: breeding,
			blocks: []blockPlan{columns(2, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.BreedingScores(ctx, domain.Scope{Year: year, Limit: lim.Breeding})
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.BreedingCodedBirds(ctx, domain.Scope{Year: year, Limit: lim.Breeding})
				},
			)},
		},
		single(domain.BlockList, func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
			return l.BreedingCredits(ctx, year, lim.CreditNames, domain.SortDesc)
		}),
		sectionPlan{
			title: "Most Efficient Birder",
			description: fmt.Sprintf("The most species per hour logged, over complete stationary or traveling checklists "+
				"of at least %d minutes. Birders need at least %d checklists and %g hours logged.",
				lim.EfficiencyMinMinutes, lim.EfficiencyMinLists, lim.EfficiencyMinHours),
			blocks: []blockPlan{packed([]int{1}, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.SpeciesPerHour(ctx, year, lim.EfficiencyMinHours, lim.EfficiencyMinLists, lim.EfficiencyMinMinutes, lim.Efficiency)
				},
			)},
		},
		sectionPlan{
			title: "Most Honest Birder",
			description: "Heavy users of slashes (Cooper's/Sharp-shinned Hawk) and spuhs (gull sp.). " +
				"If you never need a slash or a spuh, you're lying either to us or to yourself.",
			blocks: []blockPlan{packed([]int{2, 2}, -2,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.HonestBirders(ctx, domain.Scope{Limit: lim.Honest})
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.HonestBirders(ctx, domain.Scope{Year: year, Limit: lim.Honest})
				},
			)},
		},
		sectionPlan{
			title: "Most Time Spent in Field",
			description: "Time eBirded in the region. 'Days' are 24 hours long. " +
				"'Waking' is a percentage of normal waking hours.",
			blocks: []blockPlan{columns(2, -2,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.TimeInField(ctx, year, 0, lim.TimeInField)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.TimeInField(ctx, year, lim.LastXYears, lim.TimeInField)
				},
			)},
		},
		sectionPlan{
			title:       "Most Effort",
			description: "Checklists submitted, distinct locations birded and miles traveled on checklists.",
			blocks: []blockPlan{columns(3, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MostChecklists(ctx, domain.Scope{Year: year, Limit: lim.Effort})
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MostLocations(ctx, domain.Scope{Year: year, Limit: lim.Effort})
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MostDistance(ctx, domain.Scope{Year: year, Limit: lim.Effort})
				},
			)},
		},
		sectionPlan{
			title:       "Month Closeouts",
			description: "A Month Closeout is a bird seen in every month of the year.",
			blocks: []blockPlan{columns(2, rankLast,
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MonthCloseouts(ctx, 0, lim.Closeouts)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MonthCloseouts(ctx, year, lim.Closeouts)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MonthCloseoutBestYears(ctx, lim.Closeouts)
				},
				func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
					return l.MonthTicks(ctx, lim.Closeouts)
				},
			)},
		},
		single(domain.BlockList, func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
			return l.MonthCloseoutBirds(ctx, lim.CreditNames)
		}),
	)

	months := make([]metricQuery, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, topLists(domain.Scope{Month: m, Limit: lim.MonthList}))
	}
	plan = append(plan,
		sectionPlan{
			title:       "Top Month Life Lists",
			description: "Top month listers for each month, all time.",
			blocks:      []blockPlan{columns(3, rankLast, months...)},
		},
		sectionPlan{
			title: "Bird's-eye View",
			description: "Birding is a two-way street. The birds themselves don't eBird, so as a surrogate " +
				"we count how many birders each species got to see.",
			blocks: []blockPlan{columns(3, rankLast,
				mostSeen(domain.Scope{Year: year, Limit: lim.MostSeen}),
				mostSeen(domain.Scope{Year: year, Sort: domain.SortAsc, Limit: lim.MostSeen}),
				mostSeen(domain.Scope{Year: year, LastXYears: lim.LastXYears, Sort: domain.SortAsc, Limit: lim.MostSeen}),
			)},
		},
		single(domain.BlockTable, func(ctx context.Context, l *stats.Library) (*domain.Table, error) {
			return l.InfrequentVisitors(ctx, year, lim.InfrequentYears, lim.InfrequentMaxYears)
		}),
	)
	return plan
}
