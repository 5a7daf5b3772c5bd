package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// WeeklyRequest describes how a solved template day is spread over a window.
type WeeklyRequest struct {
	Template      []PlannedActivity
	TemplateSlots map[uuid.UUID]TimeRange

	// Start is inclusive. End is exclusive at the start of its calendar day.
	Start time.Time
	End   time.Time

	DaysToPlan int
	// AllowedWeekdays uses 1=Sunday through 7=Saturday. Nil disables the
	// filter; an empty non-nil slice allows no day at all.
	AllowedWeekdays []int
	ExcludedDays    []time.Time

	// Calendar is the destination calendar. TemplateLocation is the zone the
	// template was solved in and defaults to the destination.
	Calendar         CalendarConfig
	TemplateLocation *time.Location

	ExcludedHandling ExcludedHandling
	NewID            func() uuid.UUID
}

// WeeklyResult is the replicated plan and the slots minted for it.
type WeeklyResult struct {
	Days         map[Date][]PlannedActivity
	Slots        map[uuid.UUID]TimeRange
	SelectedDays []Date
}

// Bucket returns the per-day plans as a Bucket.
func (r WeeklyResult) Bucket() Bucket {
	return Bucket(r.Days)
}

// ClampDaysToPlan bounds a requested day count to the supported range.
func ClampDaysToPlan(requested int) int {
	return min(MaxDaysToPlan, max(MinDaysToPlan, requested))
}

// BuildWeeklySchedule picks up to DaysToPlan days evenly across the window
// and clones the template onto each, keeping the template's local time of
// day and its exact slot durations.
func BuildWeeklySchedule(req WeeklyRequest) WeeklyResult {
	dest := req.Calendar.location()
	source := req.TemplateLocation
	if source == nil {
		source = dest
	}
	newID := req.NewID
	if newID == nil {
		newID = uuid.New
	}

	result := WeeklyResult{
		Days:  make(map[Date][]PlannedActivity),
		Slots: make(map[uuid.UUID]TimeRange),
	}

	k := ClampDaysToPlan(req.DaysToPlan)
	candidates := CandidateDays(req.Start, req.End, req.AllowedWeekdays, dest)
	if len(candidates) == 0 {
		return result
	}

	excluded := make(map[Date]struct{}, len(req.ExcludedDays))
	for _, day := range req.ExcludedDays {
		excluded[DateOf(day, dest)] = struct{}{}
	}

	chosen := make([]Date, 0, k)
	picked := make(map[Date]struct{}, k)
	for _, day := range interleave(candidates, k) {
		if _, skip := excluded[day]; skip {
			continue
		}
		chosen = append(chosen, day)
		picked[day] = struct{}{}
	}

	if backfills(req.ExcludedHandling, k) {
		for _, day := range candidates {
			if len(chosen) >= k {
				break
			}
			if _, ok := picked[day]; ok {
				continue
			}
			if _, ok := excluded[day]; ok {
				continue
			}
			chosen = append(chosen, day)
			picked[day] = struct{}{}
		}
	}

	for _, day := range chosen {
		plan := make([]PlannedActivity, 0, len(req.Template))
		for _, entry := range req.Template {
			templateRange, ok := req.TemplateSlots[entry.SlotID]
			if !ok {
				continue
			}
			slotRange := replicateRange(templateRange, day, source, dest)
			slotID := newID()
			result.Slots[slotID] = slotRange
			plan = append(plan, PlannedActivity{
				ID:             newID(),
				ActivityID:     entry.ActivityID,
				SlotID:         slotID,
				PlannedMinutes: entry.PlannedMinutes,
			})
		}
		sort.SliceStable(plan, func(i, j int) bool {
			return result.Slots[plan[i].SlotID].Start.Before(result.Slots[plan[j].SlotID].Start)
		})
		result.Days[day] = plan
	}

	SortDates(chosen)
	result.SelectedDays = chosen
	return result
}

// CandidateDays lists the days of the window in loc whose midnight lies in
// [start, midnight of end's day), restricted to the allowed weekdays. Days are
// enumerated as civil dates, so a day whose local midnight is skipped by a
// DST change is still listed exactly once.
func CandidateDays(start, end time.Time, allowedWeekdays []int, loc *time.Location) []Date {
	if loc == nil {
		loc = time.UTC
	}
	if allowedWeekdays != nil && len(allowedWeekdays) == 0 {
		return nil
	}

	first := DateOf(start, loc)
	if first.Midnight(loc).Before(start) {
		first = first.AddDays(1)
	}
	last := DateOf(end, loc)
	if !first.Before(last) {
		return nil
	}

	// Recurrences run on noon UTC so every occurrence maps to one civil day.
	from, until := first.noonUTC(), last.noonUTC()
	opt := rrule.ROption{Freq: rrule.DAILY, Dtstart: from}
	if allowedWeekdays != nil {
		byDay := rruleWeekdays(allowedWeekdays)
		if len(byDay) == 0 {
			return nil
		}
		opt.Byweekday = byDay
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}

	occurrences := rule.Between(from, until, true)
	days := make([]Date, 0, len(occurrences))
	for _, occurrence := range occurrences {
		day := DateOf(occurrence, time.UTC)
		if !day.Before(last) {
			continue
		}
		days = append(days, day)
	}
	return days
}

// rruleWeekdays maps 1=Sunday..7=Saturday onto recurrence weekdays, ignoring
// out-of-range values.
func rruleWeekdays(numbers []int) []rrule.Weekday {
	lookup := map[int]rrule.Weekday{
		1: rrule.SU, 2: rrule.MO, 3: rrule.TU, 4: rrule.WE,
		5: rrule.TH, 6: rrule.FR, 7: rrule.SA,
	}
	seen := make(map[int]struct{}, len(numbers))
	out := make([]rrule.Weekday, 0, len(numbers))
	for _, n := range numbers {
		weekday, ok := lookup[n]
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, weekday)
	}
	return out
}

// interleave picks k of the days at the centres of k equal segments.
// Colliding picks collapse into one and are not replaced.
func interleave(days []Date, k int) []Date {
	n := len(days)
	out := make([]Date, 0, k)
	seen := make(map[Date]struct{}, k)
	for i := 0; i < k; i++ {
		idx := min(n-1, (2*i+1)*n/(2*k))
		day := days[idx]
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	return out
}

func backfills(policy ExcludedHandling, k int) bool {
	switch policy {
	case ExcludedReschedule:
		return true
	case ExcludedDrop:
		return false
	default:
		return k == MinDaysToPlan
	}
}

// replicateRange rebuilds the template's wall-clock start on day in dest and
// keeps the exact elapsed duration.
func replicateRange(template TimeRange, day Date, source, dest *time.Location) TimeRange {
	local := template.Start.In(source)
	start := time.Date(day.Year, day.Month, day.Day, local.Hour(), local.Minute(), local.Second(), 0, dest)
	return TimeRange{Start: start, End: start.Add(template.End.Sub(template.Start))}
}
