package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/engine"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
)

// applyOptions overlays request overrides on base.
func applyOptions(base engine.EngineOptions, in *dto.OptionsInput) engine.EngineOptions {
	opts := base
	if in == nil {
		return opts
	}
	if in.DailyMinimumMinutes != nil {
		opts.DailyMinimumMinutes = *in.DailyMinimumMinutes
	}
	if in.DailyMaximumMinutes != nil {
		opts.DailyMaximumMinutes = *in.DailyMaximumMinutes
	}
	if in.AvoidConsecutiveRepeat != nil {
		opts.AvoidConsecutiveRepeat = *in.AvoidConsecutiveRepeat
	}
	if in.LocationMatchBonus != nil {
		opts.LocationMatchBonus = *in.LocationMatchBonus
	}
	return opts
}

func optionsView(opts engine.EngineOptions) dto.OptionsView {
	return dto.OptionsView{
		DailyMinimumMinutes:    opts.DailyMinimumMinutes,
		DailyMaximumMinutes:    opts.DailyMaximumMinutes,
		AvoidConsecutiveRepeat: opts.AvoidConsecutiveRepeat,
		LocationMatchBonus:     opts.LocationMatchBonus,
	}
}

// planItems joins a plan with its slot ranges and names, ordered by start.
func planItems(plan []engine.PlannedActivity, slots map[uuid.UUID]engine.TimeRange, names map[uuid.UUID]string, loc *time.Location) []dto.PlanItem {
	items := make([]dto.PlanItem, 0, len(plan))
	for _, planned := range plan {
		r := slots[planned.SlotID]
		items = append(items, dto.PlanItem{
			ID:             planned.ID.String(),
			ActivityID:     planned.ActivityID.String(),
			ActivityName:   planned.ActivityName(names),
			SlotID:         planned.SlotID.String(),
			Start:          r.Start.In(loc),
			End:            r.End.In(loc),
			PlannedMinutes: planned.PlannedMinutes,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
	return items
}

func weeklyResponse(p *models.WeeklyProposal, names map[uuid.UUID]string) dto.WeeklyPlanResponse {
	loc := p.Location()
	days := make([]dto.WeeklyDay, 0, len(p.Days))
	for _, day := range p.Days.Days() {
		days = append(days, dto.WeeklyDay{
			Date:         day.String(),
			Items:        planItems(p.Days[day], p.Slots, names, loc),
			TotalMinutes: p.Days.TotalMinutes(day),
		})
	}
	return dto.WeeklyPlanResponse{
		ProposalID:       p.ID,
		Timezone:         p.Timezone,
		ExcludedHandling: string(p.ExcludedHandling),
		SelectedDays:     dateStrings(p.SelectedDays),
		Days:             days,
		Options:          optionsView(p.Options),
		ExpiresAt:        p.ExpiresAt,
		Version:          p.Version,
	}
}

func dateStrings(dates []engine.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}

func containsDate(dates []engine.Date, target engine.Date) bool {
	for _, d := range dates {
		if d == target {
			return true
		}
	}
	return false
}

// activityIDs lists the distinct activities of a plan in plan order.
func activityIDs(plan []engine.PlannedActivity) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(plan))
	ids := make([]uuid.UUID, 0, len(plan))
	for _, planned := range plan {
		if _, ok := seen[planned.ActivityID]; ok {
			continue
		}
		seen[planned.ActivityID] = struct{}{}
		ids = append(ids, planned.ActivityID)
	}
	return ids
}

// referencedSlots keeps the ranges of every slot still used by bucket,
// preferring freshly supplied ranges over stored ones.
func referencedSlots(bucket engine.Bucket, stored, fresh map[uuid.UUID]engine.TimeRange) map[uuid.UUID]engine.TimeRange {
	out := make(map[uuid.UUID]engine.TimeRange)
	for _, plan := range bucket {
		for _, planned := range plan {
			if r, ok := fresh[planned.SlotID]; ok {
				out[planned.SlotID] = r
			} else if r, ok := stored[planned.SlotID]; ok {
				out[planned.SlotID] = r
			}
		}
	}
	return out
}
