package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naka-gawa/repo-compare/internal/domain"
)

func TestFill(t *testing.T) {
	testCases := []struct {
		name     string
		input    map[string]int
		expected []domain.TimeseriesPoint
	}{
		{
			name:     "empty mapping yields empty sequence, nothing invented",
			input:    map[string]int{},
			expected: []domain.TimeseriesPoint{},
		},
		{
			name:  "points come out ascending by date with values unchanged",
			input: map[string]int{"2024-01-08": 10, "2024-01-01": 5},
			expected: []domain.TimeseriesPoint{
				{Date: "2024-01-01", Value: 5},
				{Date: "2024-01-08", Value: 10},
			},
		},
		{
			name:  "no midweek dates are interpolated",
			input: map[string]int{"2024-01-01": 5, "2024-01-15": 7},
			expected: []domain.TimeseriesPoint{
				{Date: "2024-01-01", Value: 5},
				{Date: "2024-01-15", Value: 7},
			},
		},
		{
			name:  "single point",
			input: map[string]int{"2024-03-03": 0},
			expected: []domain.TimeseriesPoint{
				{Date: "2024-03-03", Value: 0},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Fill(tc.input))
		})
	}
}

func TestFill_NilInput(t *testing.T) {
	result := Fill(nil)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}
