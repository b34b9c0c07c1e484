package timeseries

import (
	"sort"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

// Fill converts a sparse date to value mapping into an ordered slice of data
// points, ascending by date. Dates the sampler never visited are not
// fabricated; an empty mapping yields an empty slice.
func Fill(series map[string]int) []domain.TimeseriesPoint {
	if len(series) == 0 {
		return []domain.TimeseriesPoint{}
	}

	dates := make([]string, 0, len(series))
	for date := range series {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := make([]domain.TimeseriesPoint, 0, len(dates))
	for _, date := range dates {
		result = append(result, domain.TimeseriesPoint{Date: date, Value: series[date]})
	}
	return result
}
