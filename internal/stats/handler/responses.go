package handler

import "epistats/internal/stats"

// StatisticResponse is the JSON shape of one daily record.
type StatisticResponse struct {
	Country         string `json:"country"`
	Date            string `json:"date"`
	TotalCases      int64  `json:"totalCases"`
	TotalDeaths     int64  `json:"totalDeaths"`
	TotalRecoveries int64  `json:"totalRecoveries"`
	ActiveCases     int64  `json:"activeCases"`
}

// FromStatistic maps a domain row to its response shape. The country name is
// echoed from the request; rows are keyed internally by registry id.
func FromStatistic(countryName string, stat stats.DailyStatistic) StatisticResponse {
	return StatisticResponse{
		Country:         countryName,
		Date:            stat.Date.Format(stats.DateFormat),
		TotalCases:      stat.TotalCases,
		TotalDeaths:     stat.TotalDeaths,
		TotalRecoveries: stat.TotalRecoveries,
		ActiveCases:     stat.ActiveCases,
	}
}

// FromStatistics maps a row set, preserving order.
func FromStatistics(countryName string, rows []stats.DailyStatistic) []StatisticResponse {
	out := make([]StatisticResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromStatistic(countryName, row))
	}
	return out
}

// MessageResponse is the envelope for confirmation-only responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// DatesResponse lists the recorded dates for a country, ascending.
type DatesResponse struct {
	Country string   `json:"country"`
	Dates   []string `json:"dates"`
}
