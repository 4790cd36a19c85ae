// Package dateparts converts between ambiguous stored date strings and the
// {day,month,year} component triple edited in the record forms. The codec
// never returns errors: anything unparseable degrades to empty components so
// the UI shows an unfilled date instead of failing.
package dateparts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parts holds the editable date components. Each component is either empty or
// a numeric string; a Parts value is meaningful only when fully empty or
// fully populated.
type Parts struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// IsEmpty reports whether no component is set.
func (p Parts) IsEmpty() bool {
	return p.Day == "" && p.Month == "" && p.Year == ""
}

// Decompose splits a stored date into components. ISO YYYY-MM-DD is tried
// first, then the legacy DD-MM-YY(YY) textual form; two-digit years are read
// as 20xx. Unparseable input yields all-empty Parts.
func Decompose(dateLike string) Parts {
	s := strings.TrimSpace(dateLike)
	if s == "" {
		return Parts{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return partsFromTime(t)
	}
	// Legacy textual fallback: DD-MM-YY or DD-MM-YYYY.
	fields := strings.Split(s, "-")
	if len(fields) != 3 {
		return Parts{}
	}
	day, errD := strconv.Atoi(fields[0])
	month, errM := strconv.Atoi(fields[1])
	year, errY := strconv.Atoi(fields[2])
	if errD != nil || errM != nil || errY != nil {
		return Parts{}
	}
	if len(fields[2]) <= 2 {
		year += 2000
	}
	if Compose(strconv.Itoa(day), strconv.Itoa(month), strconv.Itoa(year)) == "" {
		return Parts{}
	}
	return Parts{
		Day:   fmt.Sprintf("%02d", day),
		Month: fmt.Sprintf("%02d", month),
		Year:  strconv.Itoa(year),
	}
}

// Compose validates the component triple and returns the canonical ISO
// YYYY-MM-DD string, or "" when any component is missing, non-numeric, out of
// range, or the triple rolls over (Feb 30 is rejected, not clamped to March).
func Compose(day, month, year string) string {
	day, month, year = strings.TrimSpace(day), strings.TrimSpace(month), strings.TrimSpace(year)
	if day == "" || month == "" || year == "" {
		return ""
	}
	d, errD := strconv.Atoi(day)
	m, errM := strconv.Atoi(month)
	y, errY := strconv.Atoi(year)
	if errD != nil || errM != nil || errY != nil {
		return ""
	}
	if d < 1 || d > 31 || m < 1 || m > 12 || y < 1900 || y > 2100 {
		return ""
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow; re-derive and compare to catch rollover.
	if t.Day() != d || t.Month() != time.Month(m) || t.Year() != y {
		return ""
	}
	return t.Format("2006-01-02")
}

// Valid reports whether the stored date string decomposes to a non-empty,
// calendar-valid triple.
func Valid(dateLike string) bool {
	p := Decompose(dateLike)
	if p.IsEmpty() {
		return false
	}
	return Compose(p.Day, p.Month, p.Year) != ""
}

// YearsBetween returns full calendar years elapsed from birth to now: one
// year is subtracted when now's month/day falls before the birth month/day.
// Negative results are clamped to zero.
func YearsBetween(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func partsFromTime(t time.Time) Parts {
	return Parts{
		Day:   fmt.Sprintf("%02d", t.Day()),
		Month: fmt.Sprintf("%02d", int(t.Month())),
		Year:  strconv.Itoa(t.Year()),
	}
}
