package engine

import "github.com/google/uuid"

// autoRelocateMaxMinimum is the largest daily minimum for which the auto
// policy still tries to move an overflowing day.
const autoRelocateMaxMinimum = 30

// RecalcOutcome tells callers which branch produced the bucket.
type RecalcOutcome string

const (
	RecalcSameDay   RecalcOutcome = "same_day"
	RecalcRelocated RecalcOutcome = "relocated"
	RecalcUnchanged RecalcOutcome = "unchanged"
)

// RecalcRequest carries everything needed to re-solve one day.
type RecalcRequest struct {
	TargetDay      Date
	OriginalPlan   []PlannedActivity
	CurrentBucket  Bucket
	AvailableSlots map[Date][]ScheduleSlot
	UserGoals      TagSet
	UserLocations  TagSet
	Lookup         ActivityLookup
	Options        EngineOptions
	Handling       ExcludedHandling
}

// RecalcResult is a fresh bucket plus the branch that produced it.
type RecalcResult struct {
	Bucket      Bucket
	Outcome     RecalcOutcome
	RelocatedTo *Date
}

// RecalcDayActivities re-solves TargetDay from the activities of its original
// plan. When the day cannot hold the plan, the handling policy decides whether
// the plan moves to the first other day with room left. The input bucket is
// never modified.
func RecalcDayActivities(req RecalcRequest) (*RecalcResult, error) {
	opts := req.Options.Normalize()
	bucket := req.CurrentBucket.Clone()

	catalog := resolveActivities(req.OriginalPlan, req.Lookup)

	if slots := req.AvailableSlots[req.TargetDay]; len(slots) > 0 {
		plan, err := GenerateDailySchedule(req.TargetDay, slots, req.UserGoals, req.UserLocations, catalog, opts)
		if err != nil {
			return nil, err
		}
		if TotalMinutes(plan) <= opts.DailyMaximumMinutes {
			bucket[req.TargetDay] = plan
			return &RecalcResult{Bucket: bucket, Outcome: RecalcSameDay}, nil
		}
	}

	if !relocates(req.Handling, opts) {
		return &RecalcResult{Bucket: bucket, Outcome: RecalcUnchanged}, nil
	}

	for _, day := range alternateDays(req.AvailableSlots, req.TargetDay) {
		remaining := opts.DailyMaximumMinutes - bucket.TotalMinutes(day)
		if remaining <= 0 {
			continue
		}
		plan, err := GenerateDailySchedule(day, req.AvailableSlots[day], req.UserGoals, req.UserLocations, catalog, opts)
		if err != nil || TotalMinutes(plan) > remaining {
			continue
		}
		bucket[req.TargetDay] = []PlannedActivity{}
		bucket[day] = append(bucket[day], plan...)
		relocatedTo := day
		return &RecalcResult{Bucket: bucket, Outcome: RecalcRelocated, RelocatedTo: &relocatedTo}, nil
	}

	return &RecalcResult{Bucket: bucket, Outcome: RecalcUnchanged}, nil
}

// resolveActivities looks up each distinct activity once, keeping first-seen
// order and dropping ids the lookup does not know.
func resolveActivities(plan []PlannedActivity, lookup ActivityLookup) []Schedulable {
	if lookup == nil {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(plan))
	out := make([]Schedulable, 0, len(plan))
	for _, item := range plan {
		if _, dup := seen[item.ActivityID]; dup {
			continue
		}
		seen[item.ActivityID] = struct{}{}
		if activity, ok := lookup(item.ActivityID); ok && activity != nil {
			out = append(out, activity)
		}
	}
	return out
}

func relocates(policy ExcludedHandling, opts EngineOptions) bool {
	switch policy {
	case ExcludedDrop:
		return false
	case ExcludedReschedule:
		return true
	default:
		return opts.DailyMinimumMinutes <= autoRelocateMaxMinimum
	}
}

// alternateDays lists the other days that have slots, ascending.
func alternateDays(slots map[Date][]ScheduleSlot, target Date) []Date {
	days := make([]Date, 0, len(slots))
	for day := range slots {
		if day != target {
			days = append(days, day)
		}
	}
	SortDates(days)
	return days
}
