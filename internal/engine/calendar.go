package engine

import (
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar day with no zone attached. It is the key of every
// per-day plan so that lookups never depend on which instant represents the day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day containing t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t, time.UTC), nil
}

// Midnight returns the first instant of the day in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.noonUTC().Weekday()
}

func (d Date) noonUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText lets dates key JSON objects.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", string(text), err)
	}
	*d = parsed
	return nil
}

// SortDates orders dates ascending in place.
func SortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

// Bucket holds the plan of each day.
type Bucket map[Date][]PlannedActivity

// Clone deep copies the bucket. Empty day lists stay present.
func (b Bucket) Clone() Bucket {
	out := make(Bucket, len(b))
	for day, plan := range b {
		copied := make([]PlannedActivity, len(plan))
		copy(copied, plan)
		out[day] = copied
	}
	return out
}

// TotalMinutes sums the minutes already planned on day.
func (b Bucket) TotalMinutes(day Date) int {
	return TotalMinutes(b[day])
}

// Days returns the keys in ascending order.
func (b Bucket) Days() []Date {
	days := make([]Date, 0, len(b))
	for day := range b {
		days = append(days, day)
	}
	SortDates(days)
	return days
}
