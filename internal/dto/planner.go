package dto

import "time"

// SlotInput describes one available interval.
type SlotInput struct {
	ID    string    `json:"id,omitempty" validate:"omitempty,uuid"`
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}

// OptionsInput overrides the configured planner defaults.
type OptionsInput struct {
	DailyMinimumMinutes    *int  `json:"dailyMinimumMinutes,omitempty" validate:"omitempty,min=0,max=1440"`
	DailyMaximumMinutes    *int  `json:"dailyMaximumMinutes,omitempty" validate:"omitempty,min=0,max=1440"`
	AvoidConsecutiveRepeat *bool `json:"avoidConsecutiveRepeat,omitempty"`
	LocationMatchBonus     *int  `json:"locationMatchBonus,omitempty" validate:"omitempty,min=0,max=1000"`
}

// DailyPlanRequest asks for one day's plan.
type DailyPlanRequest struct {
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Timezone    string        `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Slots       []SlotInput   `json:"slots" validate:"omitempty,dive"`
	Goals       []string      `json:"goals" validate:"omitempty,dive,required,max=64"`
	Locations   []string      `json:"locations" validate:"omitempty,dive,required,max=64"`
	ActivityIDs []string      `json:"activityIds,omitempty" validate:"omitempty,dive,uuid"`
	Options     *OptionsInput `json:"options,omitempty"`
}

// PlanItem is a planned activity joined with its slot and catalog name.
type PlanItem struct {
	ID             string    `json:"id"`
	ActivityID     string    `json:"activityId"`
	ActivityName   string    `json:"activityName"`
	SlotID         string    `json:"slotId"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	PlannedMinutes int       `json:"plannedMinutes"`
}

// OptionsView echoes the options a plan was built with.
type OptionsView struct {
	DailyMinimumMinutes    int  `json:"dailyMinimumMinutes"`
	DailyMaximumMinutes    int  `json:"dailyMaximumMinutes"`
	AvoidConsecutiveRepeat bool `json:"avoidConsecutiveRepeat"`
	LocationMatchBonus     int  `json:"locationMatchBonus"`
}

// DailyPlanResponse returns the plan of one day.
type DailyPlanResponse struct {
	Date         string      `json:"date"`
	Items        []PlanItem  `json:"items"`
	TotalMinutes int         `json:"totalMinutes"`
	MinimumMet   bool        `json:"minimumMet"`
	Options      OptionsView `json:"options"`
}

// WeeklyPlanRequest solves a template day and spreads it across a window.
type WeeklyPlanRequest struct {
	Template         DailyPlanRequest `json:"template"`
	Timezone         string           `json:"timezone,omitempty" validate:"omitempty,timezone"`
	StartDate        string           `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string           `json:"endDate" validate:"required,datetime=2006-01-02"`
	DaysToPlan       *int             `json:"daysToPlan,omitempty" validate:"omitempty,min=1,max=7"`
	AllowedWeekdays  []int            `json:"allowedWeekdays,omitempty" validate:"omitempty,dive,min=1,max=7"`
	ExcludedDates    []string         `json:"excludedDates,omitempty" validate:"omitempty,dive,datetime=2006-01-02"`
	ExcludedHandling string           `json:"excludedHandling,omitempty" validate:"omitempty,oneof=auto reschedule drop"`
}

// WeeklyDay is one replicated day of a proposal.
type WeeklyDay struct {
	Date         string     `json:"date"`
	Items        []PlanItem `json:"items"`
	TotalMinutes int        `json:"totalMinutes"`
}

// WeeklyPlanResponse describes a stored weekly proposal.
type WeeklyPlanResponse struct {
	ProposalID       string      `json:"proposalId"`
	Timezone         string      `json:"timezone"`
	ExcludedHandling string      `json:"excludedHandling"`
	SelectedDays     []string    `json:"selectedDays"`
	Days             []WeeklyDay `json:"days"`
	Options          OptionsView `json:"options"`
	ExpiresAt        time.Time   `json:"expiresAt"`
	Version          int         `json:"version"`
}

// RecalculateDayRequest re-solves one day of a stored proposal using the
// slots now available on each day.
type RecalculateDayRequest struct {
	Date             string                 `json:"date" validate:"required,datetime=2006-01-02"`
	AvailableSlots   map[string][]SlotInput `json:"availableSlots" validate:"required,dive,keys,datetime=2006-01-02,endkeys,dive"`
	ExcludedHandling string                 `json:"excludedHandling,omitempty" validate:"omitempty,oneof=auto reschedule drop"`
	Options          *OptionsInput          `json:"options,omitempty"`
}

// RecalculateDayResponse reports which branch the recalculation took.
type RecalculateDayResponse struct {
	Outcome     string             `json:"outcome"`
	RelocatedTo *string            `json:"relocatedTo,omitempty"`
	Proposal    WeeklyPlanResponse `json:"proposal"`
}
