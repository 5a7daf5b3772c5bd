package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weekTemplate returns a two-entry plan solved on 2025-03-01 in loc.
func weekTemplate(loc *time.Location) ([]PlannedActivity, map[uuid.UUID]TimeRange) {
	early := Slot{
		ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("template:early")),
		Start: time.Date(2025, time.March, 1, 7, 15, 30, 0, loc),
		End:   time.Date(2025, time.March, 1, 7, 45, 30, 0, loc),
	}
	late := Slot{
		ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("template:late")),
		Start: time.Date(2025, time.March, 1, 18, 0, 0, 0, loc),
		End:   time.Date(2025, time.March, 1, 18, 50, 0, 0, loc),
	}
	yoga := newActivity("yoga", 10, 30)
	run := newActivity("run", 20, 50)
	// Deliberately out of start order.
	template := []PlannedActivity{
		{ID: uuid.New(), ActivityID: run.id, SlotID: late.ID, PlannedMinutes: 45},
		{ID: uuid.New(), ActivityID: yoga.id, SlotID: early.ID, PlannedMinutes: 30},
	}
	slots := map[uuid.UUID]TimeRange{early.ID: early.Range(), late.ID: late.Range()}
	return template, slots
}

func weekWindow(loc *time.Location) (time.Time, time.Time) {
	return time.Date(2025, time.March, 3, 0, 0, 0, 0, loc), time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
}

func TestBuildWeeklyScheduleSpreadsDays(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start, end := weekWindow(time.UTC)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots,
		Start: start, End: end, DaysToPlan: 4,
	})

	expected := []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-05"), mustDate(t, "2025-03-07"), mustDate(t, "2025-03-09")}
	assert.Equal(t, expected, result.SelectedDays)
	assert.Len(t, result.Days, 4)
	for i := 1; i < len(result.SelectedDays); i++ {
		assert.NotEqual(t, result.SelectedDays[i-1].AddDays(1), result.SelectedDays[i], "selected days should not be adjacent")
	}
	for _, day := range result.SelectedDays {
		assert.Len(t, result.Days[day], 2)
	}
	assert.Len(t, result.Slots, 8)
}

func TestBuildWeeklyScheduleClampsRequestedDays(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start, end := weekWindow(time.UTC)

	few := BuildWeeklySchedule(WeeklyRequest{Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 1})
	assert.Equal(t, []Date{mustDate(t, "2025-03-04"), mustDate(t, "2025-03-06"), mustDate(t, "2025-03-08")}, few.SelectedDays)

	many := BuildWeeklySchedule(WeeklyRequest{Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 10})
	assert.Len(t, many.SelectedDays, 6)
	assert.NotContains(t, many.SelectedDays, mustDate(t, "2025-03-06"))

	assert.Equal(t, 3, ClampDaysToPlan(-4))
	assert.Equal(t, 5, ClampDaysToPlan(5))
}

func TestBuildWeeklyScheduleExclusionPolicies(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start, end := weekWindow(time.UTC)
	// Midday instant normalises to the excluded day.
	excluded := []time.Time{time.Date(2025, time.March, 6, 13, 0, 0, 0, time.UTC)}
	base := WeeklyRequest{Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 3, ExcludedDays: excluded}

	cases := []struct {
		name     string
		handling ExcludedHandling
		days     int
		want     []Date
	}{
		{name: "auto backfills at three days", handling: ExcludedAuto, days: 3,
			want: []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-04"), mustDate(t, "2025-03-08")}},
		{name: "drop leaves a gap", handling: ExcludedDrop, days: 3,
			want: []Date{mustDate(t, "2025-03-04"), mustDate(t, "2025-03-08")}},
		{name: "reschedule backfills", handling: ExcludedReschedule, days: 3,
			want: []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-04"), mustDate(t, "2025-03-08")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			req.ExcludedHandling = tc.handling
			req.DaysToPlan = tc.days
			result := BuildWeeklySchedule(req)
			assert.Equal(t, tc.want, result.SelectedDays)
			_, present := result.Days[mustDate(t, "2025-03-06")]
			assert.False(t, present)
		})
	}
}

func TestBuildWeeklyScheduleAutoDoesNotBackfillAboveThree(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start, end := weekWindow(time.UTC)
	excluded := []time.Time{time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)}

	auto := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end,
		DaysToPlan: 4, ExcludedDays: excluded, ExcludedHandling: ExcludedAuto,
	})
	assert.Len(t, auto.SelectedDays, 3)

	reschedule := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end,
		DaysToPlan: 4, ExcludedDays: excluded, ExcludedHandling: ExcludedReschedule,
	})
	assert.Len(t, reschedule.SelectedDays, 4)
	assert.NotContains(t, reschedule.SelectedDays, mustDate(t, "2025-03-05"))
}

func TestBuildWeeklyScheduleBackfillStopsWhenPoolRunsOut(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 3,
		ExcludedDays:     []time.Time{time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)},
		ExcludedHandling: ExcludedReschedule,
	})
	assert.Equal(t, []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-05")}, result.SelectedDays)
}

func TestBuildWeeklyScheduleWeekdayFilter(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end,
		DaysToPlan: 3, AllowedWeekdays: []int{2, 4, 6},
	})
	assert.Equal(t, []Date{mustDate(t, "2025-03-05"), mustDate(t, "2025-03-10"), mustDate(t, "2025-03-14")}, result.SelectedDays)
	for _, day := range result.SelectedDays {
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, day.Weekday())
	}

	none := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end, AllowedWeekdays: []int{},
	})
	assert.Empty(t, none.Days)
	assert.Empty(t, none.Slots)

	mondays := CandidateDays(start, end, []int{0, 8, 2}, time.UTC)
	assert.Equal(t, []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-10")}, mondays)
}

func TestCandidateDaysWindowBoundaries(t *testing.T) {
	start := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 6, 15, 0, 0, 0, time.UTC)

	days := CandidateDays(start, end, nil, time.UTC)
	assert.Equal(t, []Date{mustDate(t, "2025-03-04"), mustDate(t, "2025-03-05")}, days)

	assert.Empty(t, CandidateDays(end, start, nil, time.UTC))
}

func TestCandidateDaysWhenDSTStartsAtMidnight(t *testing.T) {
	cases := []struct {
		zone    string
		from    Date
		dstDay  Date
		sundays []Date
	}{
		{
			zone:    "America/Santiago",
			from:    Date{Year: 2024, Month: time.September, Day: 1},
			dstDay:  Date{Year: 2024, Month: time.September, Day: 8},
			sundays: []Date{{Year: 2024, Month: time.September, Day: 1}, {Year: 2024, Month: time.September, Day: 8}},
		},
		{
			zone:    "America/Havana",
			from:    Date{Year: 2024, Month: time.March, Day: 3},
			dstDay:  Date{Year: 2024, Month: time.March, Day: 10},
			sundays: []Date{{Year: 2024, Month: time.March, Day: 3}, {Year: 2024, Month: time.March, Day: 10}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.zone, func(t *testing.T) {
			loc := mustLocation(t, tc.zone)
			start := tc.from.Midnight(loc)
			end := tc.from.AddDays(14).Midnight(loc)

			days := CandidateDays(start, end, nil, loc)
			require.Len(t, days, 14)
			for i, day := range days {
				assert.Equal(t, tc.from.AddDays(i), day)
			}
			assert.Contains(t, days, tc.dstDay)

			assert.Equal(t, tc.sundays, CandidateDays(start, end, []int{1}, loc))
		})
	}
}

func TestBuildWeeklyScheduleSortsAndSkipsUnknownSlots(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	template = append(template, PlannedActivity{ID: uuid.New(), ActivityID: uuid.New(), SlotID: uuid.New(), PlannedMinutes: 15})
	start, end := weekWindow(time.UTC)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 3,
		NewID: sequentialIDs(),
	})
	for _, day := range result.SelectedDays {
		plan := result.Days[day]
		require.Len(t, plan, 2)
		assert.Equal(t, template[1].ActivityID, plan[0].ActivityID)
		assert.Equal(t, 30, plan[0].PlannedMinutes)
		assert.True(t, result.Slots[plan[0].SlotID].Start.Before(result.Slots[plan[1].SlotID].Start))
		for _, item := range plan {
			_, reused := slots[item.SlotID]
			assert.False(t, reused, "replicated entries get fresh slots")
		}
	}
}

func TestBuildWeeklySchedulePreservesWallClockAcrossZones(t *testing.T) {
	saoPaulo := mustLocation(t, "America/Sao_Paulo")
	lisbon := mustLocation(t, "Europe/Lisbon")
	template, slots := weekTemplate(saoPaulo)
	start, end := weekWindow(lisbon)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 3,
		Calendar: CalendarConfig{Location: lisbon}, TemplateLocation: saoPaulo,
	})
	require.Len(t, result.SelectedDays, 3)
	for _, day := range result.SelectedDays {
		first := result.Slots[result.Days[day][0].SlotID]
		local := first.Start.In(lisbon)
		assert.Equal(t, day, DateOf(local, lisbon))
		assert.Equal(t, []int{7, 15, 30}, []int{local.Hour(), local.Minute(), local.Second()})
		assert.Equal(t, 30*time.Minute, first.Duration())
	}
}

func TestBuildWeeklySchedulePreservesWallClockAcrossDST(t *testing.T) {
	newYork := mustLocation(t, "America/New_York")
	template, slots := weekTemplate(newYork)
	start := time.Date(2025, time.March, 6, 0, 0, 0, 0, newYork)
	end := time.Date(2025, time.March, 12, 0, 0, 0, 0, newYork)

	result := BuildWeeklySchedule(WeeklyRequest{
		Template: template, TemplateSlots: slots, Start: start, End: end, DaysToPlan: 6,
		Calendar: CalendarConfig{Location: newYork},
	})
	require.Len(t, result.SelectedDays, 6)
	assert.Equal(t, mustDate(t, "2025-03-06"), result.SelectedDays[0])
	assert.Equal(t, mustDate(t, "2025-03-11"), result.SelectedDays[5])

	offsets := map[int]struct{}{}
	for _, day := range result.SelectedDays {
		for _, item := range result.Days[day] {
			slot := result.Slots[item.SlotID]
			local := slot.Start.In(newYork)
			source := slots[templateSlotFor(template, item.ActivityID)]
			templateLocal := source.Start.In(newYork)
			assert.Equal(t, templateLocal.Hour(), local.Hour())
			assert.Equal(t, templateLocal.Minute(), local.Minute())
			assert.Equal(t, templateLocal.Second(), local.Second())
			assert.Equal(t, source.Duration(), slot.Duration())
			_, offset := local.Zone()
			offsets[offset] = struct{}{}
		}
	}
	assert.Len(t, offsets, 2, "window straddles the DST change")
}

func TestBuildWeeklyScheduleEmptyWindow(t *testing.T) {
	template, slots := weekTemplate(time.UTC)
	day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	result := BuildWeeklySchedule(WeeklyRequest{Template: template, TemplateSlots: slots, Start: day, End: day})
	assert.Empty(t, result.Days)
	assert.Empty(t, result.SelectedDays)
}

func TestInterleaveCollapsesCollisions(t *testing.T) {
	days := []Date{mustDate(t, "2025-03-03"), mustDate(t, "2025-03-04")}
	assert.Equal(t, days, interleave(days, 3))
	assert.Equal(t, days[:1], interleave(days[:1], 6))
}

func templateSlotFor(template []PlannedActivity, activityID uuid.UUID) uuid.UUID {
	for _, entry := range template {
		if entry.ActivityID == activityID {
			return entry.SlotID
		}
	}
	return uuid.Nil
}
