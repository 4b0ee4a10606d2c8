package timeline

import (
	"sort"
	"strconv"
	"strings"
)

// Date precision levels, encoded by dash count in the date string.
const (
	precInvalid = 0
	precYear    = 1 // "YYYY"
	precMonth   = 2 // "YYYY-MM"
	precDay     = 3 // "YYYY-MM-DD"
)

type parsedDate struct {
	year, month, day int
	prec             int
}

func parsePointDate(s string) parsedDate {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) == 0 || len(parts) > 3 {
		return parsedDate{}
	}
	var d parsedDate
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return parsedDate{}
		}
		switch i {
		case 0:
			d.year = n
		case 1:
			if n > 12 {
				return parsedDate{}
			}
			d.month = n
		case 2:
			if n > 31 {
				return parsedDate{}
			}
			d.day = n
		}
	}
	d.prec = len(parts)
	return d
}

// SortPointsDesc returns a new slice of points ordered most recent first.
//
// Ordering policy:
//   - points with a missing or unparseable date sort last, keeping their
//     original relative order;
//   - valid dates compare by year descending;
//   - within one year, a year-only point ranks above any point of that year
//     that carries a month ("this year generally" surfaces above its
//     sub-events);
//   - then month descending; within one month, a month-only point ranks above
//     any day-level point of that month; then day descending.
func SortPointsDesc(points []TimelinePoint) []TimelinePoint {
	out := make([]TimelinePoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return pointLess(parsePointDate(out[i].Date), parsePointDate(out[j].Date))
	})
	return out
}

// pointLess reports whether a sorts before b in the descending order.
func pointLess(a, b parsedDate) bool {
	if a.prec == precInvalid || b.prec == precInvalid {
		// Invalid last; two invalids keep input order (stable sort).
		return a.prec != precInvalid && b.prec == precInvalid
	}
	if a.year != b.year {
		return a.year > b.year
	}
	if a.prec == precYear || b.prec == precYear {
		return a.prec == precYear && b.prec != precYear
	}
	if a.month != b.month {
		return a.month > b.month
	}
	if a.prec == precMonth || b.prec == precMonth {
		return a.prec == precMonth && b.prec != precMonth
	}
	return a.day > b.day
}
