package export

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/juliasaboya/ScheduleEngine/internal/engine"
)

// Column names of a weekly plan dataset.
const (
	ColumnDate     = "Date"
	ColumnWeekday  = "Weekday"
	ColumnStart    = "Start"
	ColumnEnd      = "End"
	ColumnActivity = "Activity"
	ColumnMinutes  = "Minutes"
)

// Dataset is tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Footer is an optional closing row, e.g. totals.
	Footer map[string]string
}

// WeekView is the information needed to lay out a stored week.
type WeekView struct {
	Days     engine.Bucket
	Slots    map[uuid.UUID]engine.TimeRange
	Names    map[uuid.UUID]string
	Location *time.Location
}

// WeeklyPlanDataset flattens a week into one row per planned activity,
// ordered by day and slot start. Days without activities still get a row so
// the export shows every selected day.
func WeeklyPlanDataset(view WeekView) Dataset {
	loc := view.Location
	if loc == nil {
		loc = time.UTC
	}
	data := Dataset{Headers: []string{ColumnDate, ColumnWeekday, ColumnStart, ColumnEnd, ColumnActivity, ColumnMinutes}}

	total := 0
	for _, day := range view.Days.Days() {
		plan := append([]engine.PlannedActivity(nil), view.Days[day]...)
		sort.SliceStable(plan, func(i, j int) bool {
			return view.Slots[plan[i].SlotID].Start.Before(view.Slots[plan[j].SlotID].Start)
		})
		if len(plan) == 0 {
			data.Rows = append(data.Rows, map[string]string{
				ColumnDate:    day.String(),
				ColumnWeekday: day.Weekday().String(),
				ColumnMinutes: "0",
			})
			continue
		}
		for _, item := range plan {
			row := map[string]string{
				ColumnDate:     day.String(),
				ColumnWeekday:  day.Weekday().String(),
				ColumnActivity: item.ActivityName(view.Names),
				ColumnMinutes:  strconv.Itoa(item.PlannedMinutes),
			}
			if slot, ok := view.Slots[item.SlotID]; ok {
				row[ColumnStart] = slot.Start.In(loc).Format("15:04")
				row[ColumnEnd] = slot.End.In(loc).Format("15:04")
			}
			data.Rows = append(data.Rows, row)
			total += item.PlannedMinutes
		}
	}
	data.Footer = map[string]string{ColumnActivity: "Total", ColumnMinutes: strconv.Itoa(total)}
	return data
}
