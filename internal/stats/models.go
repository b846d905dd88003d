package stats

import "time"

// Counts are the four observation fields of a daily record. They are only
// ever replaced wholesale; there is no partial-field update anywhere.
type Counts struct {
	TotalCases      int64
	TotalDeaths     int64
	TotalRecoveries int64
	ActiveCases     int64
}

// DailyStatistic is one observation for a country on a calendar day.
// (CountryID, Date) is the identity key; at most one row exists per pair.
type DailyStatistic struct {
	CountryID int64
	Date      time.Time
	Counts
}

// Day truncates t to its calendar day in UTC. All dates are stored and
// compared at day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"
