package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, Date(2018, time.April, 1), easterSunday(2018))
	assert.Equal(t, Date(2019, time.April, 21), easterSunday(2019))
	assert.Equal(t, Date(2024, time.March, 31), easterSunday(2024))
	assert.Equal(t, Date(2025, time.April, 20), easterSunday(2025))
}

func TestHolidays2018(t *testing.T) {
	holidays := Holidays(2018)
	assert.Len(t, holidays, 15)

	expected := []time.Time{
		Date(2018, time.January, 1),
		Date(2018, time.January, 6),
		Date(2018, time.March, 30),
		Date(2018, time.April, 1),
		Date(2018, time.April, 2),
		Date(2018, time.May, 1),
		Date(2018, time.May, 10),
		Date(2018, time.May, 20),
		Date(2018, time.June, 22),
		Date(2018, time.June, 23),
		Date(2018, time.November, 3),
		Date(2018, time.December, 6),
		Date(2018, time.December, 24),
		Date(2018, time.December, 25),
		Date(2018, time.December, 26),
	}
	for i, h := range holidays {
		assert.Equal(t, expected[i], h.Date, h.Name)
	}
}

func TestIsHoliday(t *testing.T) {
	assert.True(t, IsHoliday(Date(2018, time.December, 6)))
	assert.True(t, IsHoliday(Date(2019, time.June, 21)), "midsummer eve 2019")
	assert.True(t, IsHoliday(Date(2019, time.November, 2)), "all saints' day 2019")
	assert.False(t, IsHoliday(Date(2018, time.December, 10)))
	assert.False(t, IsHoliday(Date(2018, time.November, 1)))

	// Stable across repeated calls
	for i := 0; i < 3; i++ {
		assert.True(t, IsHoliday(Date(2018, time.December, 25)))
	}
}

func TestFirstWeekdayFrom(t *testing.T) {
	// 19 June 2020 is itself a Friday
	assert.Equal(t, Date(2020, time.June, 19), firstWeekdayFrom(2020, time.June, 19, time.Friday))
	assert.Equal(t, Date(2021, time.June, 25), firstWeekdayFrom(2021, time.June, 19, time.Friday))
	assert.Equal(t, Date(2020, time.October, 31), firstWeekdayFrom(2020, time.October, 31, time.Saturday))
}
