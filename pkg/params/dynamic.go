package params

import (
	"strconv"
	"strings"
	"time"
)

// DynamicPrefix marks a persisted value as a dynamic date token, e.g. "d_now".
const DynamicPrefix = "d_"

// DynamicDate is a single date that is resolved relative to the execution time.
type DynamicDate struct {
	Key     string
	Name    string
	resolve func(now time.Time) time.Time
}

// Value resolves d against now.
func (d *DynamicDate) Value(now time.Time) time.Time {
	return d.resolve(now)
}

// DynamicDateRange is a start/end pair resolved relative to the execution time.
type DynamicDateRange struct {
	Key     string
	Name    string
	resolve func(now time.Time, weekStart time.Weekday) (time.Time, time.Time)
}

// Value resolves r against now. Weeks begin on weekStart.
func (r *DynamicDateRange) Value(now time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	return r.resolve(now, weekStart)
}

var dynamicDates = []*DynamicDate{
	{Key: "now", Name: "Today/Now", resolve: func(now time.Time) time.Time { return now }},
	{Key: "yesterday", Name: "Yesterday", resolve: func(now time.Time) time.Time { return now.AddDate(0, 0, -1) }},
}

var dynamicDateRanges = []*DynamicDateRange{
	{Key: "today", Name: "Today", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		return startOfDay(now), endOfDay(now)
	}},
	{Key: "yesterday", Name: "Yesterday", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		y := now.AddDate(0, 0, -1)
		return startOfDay(y), endOfDay(y)
	}},
	{Key: "this_week", Name: "This week", resolve: func(now time.Time, ws time.Weekday) (time.Time, time.Time) {
		start := startOfWeek(now, ws)
		return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	}},
	{Key: "this_month", Name: "This month", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		start := startOfMonth(now)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}},
	{Key: "this_year", Name: "This year", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		start := startOfYear(now)
		return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	}},
	{Key: "last_week", Name: "Last week", resolve: func(now time.Time, ws time.Weekday) (time.Time, time.Time) {
		end := startOfWeek(now, ws)
		return end.AddDate(0, 0, -7), end.Add(-time.Nanosecond)
	}},
	{Key: "last_month", Name: "Last month", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		end := startOfMonth(now)
		return end.AddDate(0, -1, 0), end.Add(-time.Nanosecond)
	}},
	{Key: "last_year", Name: "Last year", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		end := startOfYear(now)
		return end.AddDate(-1, 0, 0), end.Add(-time.Nanosecond)
	}},
	lastDays(7),
	lastDays(14),
	lastDays(30),
	lastDays(60),
	lastDays(90),
	{Key: "last_12_months", Name: "Last 12 months", resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
		return startOfDay(now.AddDate(0, -12, 0)), endOfDay(now)
	}},
}

func lastDays(n int) *DynamicDateRange {
	return &DynamicDateRange{
		Key:  "last_" + strconv.Itoa(n) + "_days",
		Name: "Last " + strconv.Itoa(n) + " days",
		resolve: func(now time.Time, _ time.Weekday) (time.Time, time.Time) {
			return startOfDay(now.AddDate(0, 0, -n)), endOfDay(now)
		},
	}
}

// DynamicDates lists the single-date tokens in display order.
func DynamicDates() []*DynamicDate {
	return append([]*DynamicDate(nil), dynamicDates...)
}

// DynamicDateRanges lists the range tokens in display order.
func DynamicDateRanges() []*DynamicDateRange {
	return append([]*DynamicDateRange(nil), dynamicDateRanges...)
}

// IsDynamicDate reports whether s is a reserved single-date token such as "d_now".
func IsDynamicDate(s string) bool {
	return lookupDynamicDate(s) != nil
}

// IsDynamicDateRange reports whether s is a reserved range token such as "d_last_week".
func IsDynamicDateRange(s string) bool {
	return lookupDynamicDateRange(s) != nil
}

func lookupDynamicDate(s string) *DynamicDate {
	key, ok := strings.CutPrefix(s, DynamicPrefix)
	if !ok {
		return nil
	}
	for _, d := range dynamicDates {
		if d.Key == key {
			return d
		}
	}
	return nil
}

func lookupDynamicDateRange(s string) *DynamicDateRange {
	key, ok := strings.CutPrefix(s, DynamicPrefix)
	if !ok {
		return nil
	}
	for _, r := range dynamicDateRanges {
		if r.Key == key {
			return r
		}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	back := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return startOfDay(t.AddDate(0, 0, -back))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
