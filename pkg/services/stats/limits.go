package stats

// Limits are the row limits and thresholds of every metric. Zero values are
// replaced by DefaultLimits when a Library is created.
type Limits struct {
	TopList       int `mapstructure:"top_list"`
	MonthList     int `mapstructure:"month_list"`
	SubRegionList int `mapstructure:"sub_region_list"`
	AllTimeBigs   int `mapstructure:"all_time_bigs"`
	LastXYears    int `mapstructure:"last_x_years"`

	SingleList         int     `mapstructure:"single_list"`
	SingleListMaxHours float64 `mapstructure:"single_list_max_hours"`
	SingleListMaxMiles float64 `mapstructure:"single_list_max_miles"`

	FourSeasons int `mapstructure:"four_seasons"`
	MostSeen    int `mapstructure:"most_seen"`
	Media       int `mapstructure:"media"`

	Breeding    int `mapstructure:"breeding"`
	CreditNames int `mapstructure:"credit_names"`

	Efficiency           int     `mapstructure:"efficiency"`
	EfficiencyMinHours   float64 `mapstructure:"efficiency_min_hours"`
	EfficiencyMinLists   int     `mapstructure:"efficiency_min_lists"`
	EfficiencyMinMinutes int     `mapstructure:"efficiency_min_minutes"`

	Honest      int `mapstructure:"honest"`
	TimeInField int `mapstructure:"time_in_field"`
	Closeouts   int `mapstructure:"closeouts"`
	Effort      int `mapstructure:"effort"`

	InfrequentYears    int `mapstructure:"infrequent_years"`
	InfrequentMaxYears int `mapstructure:"infrequent_max_years"`
}

func DefaultLimits() Limits {
	return Limits{
		TopList:       20,
		MonthList:     10,
		SubRegionList: 10,
		AllTimeBigs:   15,
		LastXYears:    5,

		SingleList:         20,
		SingleListMaxHours: 3,
		SingleListMaxMiles: 5,

		FourSeasons: 20,
		MostSeen:    25,
		Media:       20,

		Breeding:    20,
		CreditNames: 2,

		Efficiency:           15,
		EfficiencyMinHours:   10,
		EfficiencyMinLists:   10,
		EfficiencyMinMinutes: 5,

		Honest:      15,
		TimeInField: 20,
		Closeouts:   20,
		Effort:      20,

		InfrequentYears:    20,
		InfrequentMaxYears: 6,
	}
}

// withDefaults fills every zero field from DefaultLimits.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	pickInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	pickFloat := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}

	pickInt(&l.TopList, d.TopList)
	pickInt(&l.MonthList, d.MonthList)
	pickInt(&l.SubRegionList, d.SubRegionList)
	pickInt(&l.AllTimeBigs, d.AllTimeBigs)
	pickInt(&l.LastXYears, d.LastXYears)
	pickInt(&l.SingleList, d.SingleList)
	pickFloat(&l.SingleListMaxHours, d.SingleListMaxHours)
	pickFloat(&l.SingleListMaxMiles, d.SingleListMaxMiles)
	pickInt(&l.FourSeasons, d.FourSeasons)
	pickInt(&l.MostSeen, d.MostSeen)
	pickInt(&l.Media, d.Media)
	pickInt(&l.Breeding, d.Breeding)
	pickInt(&l.CreditNames, d.CreditNames)
	pickInt(&l.Efficiency, d.Efficiency)
	pickFloat(&l.EfficiencyMinHours, d.EfficiencyMinHours)
	pickInt(&l.EfficiencyMinLists, d.EfficiencyMinLists)
	pickInt(&l.EfficiencyMinMinutes, d.EfficiencyMinMinutes)
	pickInt(&l.Honest, d.Honest)
	pickInt(&l.TimeInField, d.TimeInField)
	pickInt(&l.Closeouts, d.Closeouts)
	pickInt(&l.Effort, d.Effort)
	pickInt(&l.InfrequentYears, d.InfrequentYears)
	pickInt(&l.InfrequentMaxYears, d.InfrequentMaxYears)
	return l
}
