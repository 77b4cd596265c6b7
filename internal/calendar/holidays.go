package calendar

import (
	"sort"
	"time"
)

// Holiday is a named Finnish public holiday.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Holidays returns the Finnish public holidays of the given year, ordered by date.
func Holidays(year int) []Holiday {
	table := holidayTable(year)

	holidays := make([]Holiday, 0, len(table))
	for key, name := range table {
		date, _ := time.Parse(time.DateOnly, key)
		holidays = append(holidays, Holiday{Date: date, Name: name})
	}
	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})

	return holidays
}

// IsHoliday reports whether the date is a Finnish public holiday.
func IsHoliday(date time.Time) bool {
	_, ok := holidayTable(date.Year())[date.Format(time.DateOnly)]
	return ok
}

// holidayTable builds the holiday lookup for one year, keyed by ISO date.
func holidayTable(year int) map[string]string {
	holidays := make(map[string]string, 15)

	// Fixed holidays
	holidays[formatDate(year, time.January, 1)] = "Uudenvuodenpäivä"
	holidays[formatDate(year, time.January, 6)] = "Loppiainen"
	holidays[formatDate(year, time.May, 1)] = "Vappu"
	if year >= 1917 {
		holidays[formatDate(year, time.December, 6)] = "Itsenäisyyspäivä"
	}
	holidays[formatDate(year, time.December, 24)] = "Jouluaatto"
	holidays[formatDate(year, time.December, 25)] = "Joulupäivä"
	holidays[formatDate(year, time.December, 26)] = "Tapaninpäivä"

	// Easter-based holidays
	easter := easterSunday(year)
	holidays[easter.AddDate(0, 0, -2).Format(time.DateOnly)] = "Pitkäperjantai"
	holidays[easter.Format(time.DateOnly)] = "Pääsiäispäivä"
	holidays[easter.AddDate(0, 0, 1).Format(time.DateOnly)] = "2. pääsiäispäivä"
	holidays[easter.AddDate(0, 0, 39).Format(time.DateOnly)] = "Helatorstai"
	holidays[easter.AddDate(0, 0, 49).Format(time.DateOnly)] = "Helluntaipäivä"

	// Weekday-anchored holidays
	midsummerEve := firstWeekdayFrom(year, time.June, 19, time.Friday)
	holidays[midsummerEve.Format(time.DateOnly)] = "Juhannusaatto"
	holidays[midsummerEve.AddDate(0, 0, 1).Format(time.DateOnly)] = "Juhannuspäivä"
	holidays[firstWeekdayFrom(year, time.October, 31, time.Saturday).Format(time.DateOnly)] = "Pyhäinpäivä"

	return holidays
}

// easterSunday calculates Easter Sunday using the Meeus/Jones/Butcher algorithm
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// firstWeekdayFrom returns the first given weekday on or after year-month-day.
func firstWeekdayFrom(year int, month time.Month, day int, weekday time.Weekday) time.Time {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset)
}

func formatDate(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}
