package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag marks a goal or a location. Tags are compared by value only.
type Tag string

// TagSet is an unordered set of tags.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from the provided tags.
func NewTagSet(tags ...Tag) TagSet {
	set := make(TagSet, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

// TagsFromStrings builds a set from raw values, trimming blanks.
func TagsFromStrings(values []string) TagSet {
	set := make(TagSet, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		set[Tag(trimmed)] = struct{}{}
	}
	return set
}

// Has reports whether the tag is present.
func (s TagSet) Has(tag Tag) bool {
	_, ok := s[tag]
	return ok
}

// IntersectCount returns the number of tags shared with other.
func (s TagSet) IntersectCount(other TagSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	count := 0
	for tag := range small {
		if large.Has(tag) {
			count++
		}
	}
	return count
}

// Intersects reports whether at least one tag is shared with other.
func (s TagSet) Intersects(other TagSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for tag := range small {
		if large.Has(tag) {
			return true
		}
	}
	return false
}

// Strings returns the tags sorted lexically.
func (s TagSet) Strings() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, string(tag))
	}
	sort.Strings(out)
	return out
}

// Schedulable is anything the allocator can place into a slot.
type Schedulable interface {
	ActivityID() uuid.UUID
	MinDuration() int
	MaxDuration() int
	Goals() TagSet
	Locations() TagSet
}

// ScheduleSlot is a fixed interval that can host one activity.
type ScheduleSlot interface {
	SlotID() uuid.UUID
	Range() TimeRange
}

// TimeRange is a half-open interval between two instants.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the elapsed time, never negative.
func (r TimeRange) Duration() time.Duration {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Minutes returns the capacity of the range in whole minutes.
func (r TimeRange) Minutes() int {
	return int(r.Duration() / time.Minute)
}

// Slot is the plain ScheduleSlot used by callers that have no richer type.
type Slot struct {
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SlotID implements ScheduleSlot.
func (s Slot) SlotID() uuid.UUID { return s.ID }

// Range implements ScheduleSlot.
func (s Slot) Range() TimeRange { return TimeRange{Start: s.Start, End: s.End} }

// UnknownActivityName is shown when an activity can no longer be resolved.
const UnknownActivityName = "<unknown>"

// PlannedActivity places one activity into one slot. It references both by id.
type PlannedActivity struct {
	ID             uuid.UUID `json:"id"`
	ActivityID     uuid.UUID `json:"activityId"`
	SlotID         uuid.UUID `json:"slotId"`
	PlannedMinutes int       `json:"plannedMinutes"`
}

// ActivityName resolves the display name of the planned activity.
func (p PlannedActivity) ActivityName(names map[uuid.UUID]string) string {
	if name, ok := names[p.ActivityID]; ok && name != "" {
		return name
	}
	return UnknownActivityName
}

// TotalMinutes sums the planned minutes of a plan.
func TotalMinutes(plan []PlannedActivity) int {
	total := 0
	for _, item := range plan {
		total += item.PlannedMinutes
	}
	return total
}

// Defaults applied when callers leave options unset.
const (
	DefaultDailyMinimumMinutes = 30
	DefaultDailyMaximumMinutes = 50
	DefaultDaysToPlan          = 4
	MinDaysToPlan              = 3
	MaxDaysToPlan              = 6
)

// EngineOptions tunes the daily allocator.
type EngineOptions struct {
	DailyMinimumMinutes    int  `json:"dailyMinimumMinutes"`
	DailyMaximumMinutes    int  `json:"dailyMaximumMinutes"`
	AvoidConsecutiveRepeat bool `json:"avoidConsecutiveRepeat"`
	// LocationMatchBonus is added to the score of activities sharing a
	// location with the user. Zero disables location matching.
	LocationMatchBonus int `json:"locationMatchBonus,omitempty"`

	// NewID issues identifiers for planned activities. Defaults to uuid.New.
	NewID func() uuid.UUID `json:"-"`
}

// DefaultOptions returns the stock 30/50 minute budget with anti-repeat on.
func DefaultOptions() EngineOptions {
	return EngineOptions{
		DailyMinimumMinutes:    DefaultDailyMinimumMinutes,
		DailyMaximumMinutes:    DefaultDailyMaximumMinutes,
		AvoidConsecutiveRepeat: true,
	}
}

// Normalize coerces the maximum up to the minimum and fills the id source.
func (o EngineOptions) Normalize() EngineOptions {
	if o.DailyMinimumMinutes < 0 {
		o.DailyMinimumMinutes = 0
	}
	if o.DailyMaximumMinutes < o.DailyMinimumMinutes {
		o.DailyMaximumMinutes = o.DailyMinimumMinutes
	}
	if o.NewID == nil {
		o.NewID = uuid.New
	}
	return o
}

// ExcludedHandling decides what happens to days lost to exclusion or overflow.
type ExcludedHandling string

const (
	ExcludedAuto       ExcludedHandling = "auto"
	ExcludedReschedule ExcludedHandling = "reschedule"
	ExcludedDrop       ExcludedHandling = "drop"
)

// ParseExcludedHandling maps raw text onto a policy. Blank input means auto.
func ParseExcludedHandling(raw string) (ExcludedHandling, bool) {
	switch ExcludedHandling(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExcludedAuto:
		return ExcludedAuto, true
	case ExcludedReschedule:
		return ExcludedReschedule, true
	case ExcludedDrop:
		return ExcludedDrop, true
	default:
		return "", false
	}
}

// CalendarConfig carries the destination calendar. A nil location means UTC.
type CalendarConfig struct {
	Location *time.Location
}

func (c CalendarConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// ActivityLookup resolves an activity by id. It must not panic for unknown ids.
type ActivityLookup func(id uuid.UUID) (Schedulable, bool)
