package engine

import (
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

const goalMatchWeight = 100

// GenerateDailySchedule greedily assigns at most one activity per slot, in
// slot order, until the daily maximum is reached. Falling short of the daily
// minimum is not an error; callers compare TotalMinutes against the options.
func GenerateDailySchedule[A Schedulable, S ScheduleSlot](
	day Date,
	slots []S,
	userGoals, userLocations TagSet,
	catalog []A,
	opts EngineOptions,
) ([]PlannedActivity, error) {
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptySlotSet, fmt.Sprintf("no slots available on %s", day))
	}
	if len(catalog) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyCatalog, fmt.Sprintf("no activities available for %s", day))
	}

	opts = opts.Normalize()

	capacity := 0
	for _, slot := range slots {
		capacity += slot.Range().Minutes()
	}
	if capacity < opts.DailyMinimumMinutes {
		return nil, appErrors.Clone(appErrors.ErrInsufficientCapacity,
			fmt.Sprintf("slots on %s offer %d minutes, below the daily minimum of %d", day, capacity, opts.DailyMinimumMinutes)).
			WithDetail("date", day.String()).
			WithDetail("capacityMinutes", capacity).
			WithDetail("minimumMinutes", opts.DailyMinimumMinutes)
	}

	plan := make([]PlannedActivity, 0, len(slots))
	planned := 0
	var lastChosen uuid.UUID
	hasLast := false

	for _, slot := range slots {
		slotMinutes := slot.Range().Minutes()
		if slotMinutes == 0 {
			continue
		}

		remainingToMin := max(0, opts.DailyMinimumMinutes-planned)
		remainingToMax := max(0, opts.DailyMaximumMinutes-planned)
		if remainingToMax == 0 {
			break
		}

		candidates := eligible(catalog, min(slotMinutes, remainingToMax))
		if len(candidates) == 0 {
			continue
		}
		if opts.AvoidConsecutiveRepeat && hasLast {
			candidates = withoutActivity(candidates, lastChosen)
		}

		chosen := candidates[0]
		bestScore := score(chosen, slotMinutes, remainingToMin, remainingToMax, userGoals, userLocations, opts)
		for _, candidate := range candidates[1:] {
			if s := score(candidate, slotMinutes, remainingToMin, remainingToMax, userGoals, userLocations, opts); s > bestScore {
				chosen, bestScore = candidate, s
			}
		}

		feasibleMax := min(slotMinutes, chosen.MaxDuration(), remainingToMax)
		if feasibleMax < chosen.MinDuration() {
			continue
		}

		minutes := min(feasibleMax, chosen.MinDuration())
		if remainingToMin > 0 {
			minutes = min(feasibleMax, max(chosen.MinDuration(), remainingToMin))
		}

		plan = append(plan, PlannedActivity{
			ID:             opts.NewID(),
			ActivityID:     chosen.ActivityID(),
			SlotID:         slot.SlotID(),
			PlannedMinutes: minutes,
		})
		planned += minutes
		lastChosen, hasLast = chosen.ActivityID(), true
	}

	return plan, nil
}

// eligible keeps activities whose minimum fits within limit, in catalog order.
func eligible[A Schedulable](catalog []A, limit int) []A {
	out := make([]A, 0, len(catalog))
	for _, activity := range catalog {
		if activity.MinDuration() <= limit {
			out = append(out, activity)
		}
	}
	return out
}

// withoutActivity drops id unless that would leave nothing to choose from.
func withoutActivity[A Schedulable](candidates []A, id uuid.UUID) []A {
	out := make([]A, 0, len(candidates))
	for _, activity := range candidates {
		if activity.ActivityID() != id {
			out = append(out, activity)
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}

func score[A Schedulable](activity A, slotMinutes, remainingToMin, remainingToMax int, goals, locations TagSet, opts EngineOptions) int {
	upper := min(slotMinutes, activity.MaxDuration(), remainingToMax)
	contribution := min(upper, max(activity.MinDuration(), remainingToMin))
	total := goalMatchWeight*activity.Goals().IntersectCount(goals) + contribution
	if opts.LocationMatchBonus != 0 && activity.Locations().Intersects(locations) {
		total += opts.LocationMatchBonus
	}
	return total
}
