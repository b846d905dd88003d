package aggregate

// CountryAggregate is the snapshot-totals row for one country name. It is a
// separate, looser surface than the per-date store: keyed by name string with
// no registry foreign key, and never reconciled with the time series. An
// external loading process owns its freshness.
type CountryAggregate struct {
	CountryName     string
	TotalCases      int64
	TotalDeaths     int64
	TotalRecoveries int64
	ActiveCases     int64
}
