package calendar

import "time"

// ISO weekday numbers of the weekend.
const (
	Saturday = 6
	Sunday   = 7
)

// Day truncates an instant to its calendar date in the given location.
// The returned value is midnight UTC of that date, which is the canonical
// form used for every date in this package.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a canonical calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ISOWeekday returns the ISO 8601 weekday number, Monday = 1 ... Sunday = 7.
func ISOWeekday(date time.Time) int {
	if date.Weekday() == time.Sunday {
		return Sunday
	}
	return int(date.Weekday())
}

// IsNonWorkingDay reports whether the date is a weekend day or a public holiday.
func IsNonWorkingDay(date time.Time) bool {
	weekday := ISOWeekday(date)
	return weekday == Saturday || weekday == Sunday || IsHoliday(date)
}

// DateRange returns every date from start to end inclusive.
func DateRange(start, end time.Time) []time.Time {
	start, end = Day(start, nil), Day(end, nil)

	dates := []time.Time{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// AffectedDates returns the dates of the vacation group the date belongs to.
//
// Contractors do not work on non-working days, so events on those days are
// counted against the closest preceding working day. The group of a working
// day followed by non-working days spans all of them, e.g. Fri -> [Fri, Sat, Sun],
// and a midweek working day is a group of its own.
func AffectedDates(date time.Time) []time.Time {
	date = Day(date, nil)
	start, end := date, date

	for IsNonWorkingDay(start) {
		start = start.AddDate(0, 0, -1)
	}
	for IsNonWorkingDay(end.AddDate(0, 0, 1)) {
		end = end.AddDate(0, 0, 1)
	}

	return DateRange(start, end)
}

// PrecedingWorkingDay walks backward from the date until it reaches a working day.
func PrecedingWorkingDay(date time.Time) time.Time {
	date = Day(date, nil)
	for IsNonWorkingDay(date) {
		date = date.AddDate(0, 0, -1)
	}
	return date
}
