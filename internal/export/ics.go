package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/harava/talkoot/internal/zones"
)

const productID = "-//harava//talkoot//FI"

// Span is a run of consecutive dates, End inclusive.
type Span struct {
	Start time.Time
	End   time.Time
}

// Spans merges ascending calendar dates into runs of consecutive days.
func Spans(dates []time.Time) []Span {
	spans := []Span{}
	for _, date := range dates {
		if n := len(spans); n > 0 && spans[n-1].End.AddDate(0, 0, 1).Equal(date) {
			spans[n-1].End = date
			continue
		}
		spans = append(spans, Span{Start: date, End: date})
	}
	return spans
}

// UnavailableCalendar renders the unavailable dates of a zone as an
// iCalendar feed of all-day events, one per run of consecutive dates.
func UnavailableCalendar(zone *zones.Zone, dates []time.Time, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(fmt.Sprintf("%s: unavailable dates", zone.Name))

	for _, span := range Spans(dates) {
		event := cal.AddEvent(fmt.Sprintf("zone-%d-%s@talkoot", zone.ID, span.Start.Format("20060102")))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(span.Start)
		// DTEND of an all-day event is exclusive.
		event.SetAllDayEndAt(span.End.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("No events: %s", zone.Name))
	}

	return cal.Serialize()
}
