package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamicRegistries(t *testing.T) {
	var dateKeys []string
	for _, d := range DynamicDates() {
		dateKeys = append(dateKeys, d.Key)
	}
	assert.Equal(t, []string{"now", "yesterday"}, dateKeys)

	var rangeKeys []string
	for _, r := range DynamicDateRanges() {
		rangeKeys = append(rangeKeys, r.Key)
	}
	assert.Equal(t, []string{
		"today", "yesterday", "this_week", "this_month", "this_year",
		"last_week", "last_month", "last_year",
		"last_7_days", "last_14_days", "last_30_days", "last_60_days", "last_90_days",
		"last_12_months",
	}, rangeKeys)

	// listings are copies
	list := DynamicDates()
	list[0] = nil
	assert.NotNil(t, DynamicDates()[0])
}

func TestIsDynamic(t *testing.T) {
	tests := []struct {
		value   string
		isDate  bool
		isRange bool
	}{
		{value: "d_now", isDate: true},
		{value: "d_yesterday", isDate: true, isRange: true},
		{value: "d_last_30_days", isRange: true},
		{value: "d_last_12_months", isRange: true},
		{value: "now"},
		{value: "d_"},
		{value: "d_tomorrow"},
		{value: "2020-01-01"},
		{value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.isDate, IsDynamicDate(tt.value))
			assert.Equal(t, tt.isRange, IsDynamicDateRange(tt.value))
		})
	}
}

func TestDynamicDate_Value(t *testing.T) {
	assert.Equal(t, fixedNow, lookupDynamicDate("d_now").Value(fixedNow))
	assert.Equal(t, fixedNow.AddDate(0, 0, -1), lookupDynamicDate("d_yesterday").Value(fixedNow))
}

func TestDynamicDateRange_MonthBoundaries(t *testing.T) {
	last := lookupDynamicDateRange("d_last_month")

	start, end := last.Value(fixedNow.AddDate(0, -2, 0), 0)
	assert.Equal(t, "2023-12-01", start.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31 23:59:59", end.Format("2006-01-02 15:04:05"))
}
