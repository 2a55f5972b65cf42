package normalizer

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/eshaffer321/settlement-recon/internal/domain/table"
)

// dateLayouts are tried in order for string date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/06",
	"1-2-2006",
	"2006/1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
}

// midday is the fixed time-of-day string dates are pinned to before the
// calendar day is taken, so zone offsets and DST shifts cannot move the day.
const midday = 12

// parseDate converts a cell into a calendar day. Native time values keep their
// own day; strings are parsed in loc. Anything else yields the zero Date.
func parseDate(v table.Cell, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}

	switch val := v.(type) {
	case civil.Date:
		return val
	case time.Time:
		if val.IsZero() {
			return civil.Date{}
		}
		return civil.DateOf(val)
	case *time.Time:
		if val == nil || val.IsZero() {
			return civil.Date{}
		}
		return civil.DateOf(*val)
	case string:
		return parseDateString(val, loc)
	default:
		return civil.Date{}
	}
}

func parseDateString(s string, loc *time.Location) civil.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}
	}

	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		t = t.In(loc)
		pinned := time.Date(t.Year(), t.Month(), t.Day(), midday, 0, 0, 0, loc)
		return civil.DateOf(pinned)
	}
	return civil.Date{}
}
