package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/engine"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/pkg/config"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/events"
)

type activityReaderStub struct {
	items []models.Activity
	err   error
}

func (s *activityReaderStub) ListActive(context.Context) ([]models.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Activity(nil), s.items...), nil
}

func (s *activityReaderStub) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Activity
	for _, id := range ids {
		for _, item := range s.items {
			if item.ID == id {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Type
}

func (p *recordingPublisher) Publish(_ context.Context, eventType events.Type, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func seededID(label string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(label))
}

var (
	walkID = seededID("activity:walk")
	yogaID = seededID("activity:yoga")
)

type plannerFixture struct {
	svc       *PlannerService
	metrics   *MetricsService
	publisher *recordingPublisher
}

func newPlannerFixture(t *testing.T) plannerFixture {
	t.Helper()
	reader := &activityReaderStub{items: []models.Activity{
		{ID: walkID, Name: "Walk", MinMinutes: 10, MaxMinutes: 40, GoalTags: models.TagList{"cardio"}, Active: true},
		{ID: yogaID, Name: "Yoga", MinMinutes: 10, MaxMinutes: 20, GoalTags: models.TagList{"mobility"}, Active: true},
	}}
	metrics := NewMetricsService()
	publisher := &recordingPublisher{}
	svc := NewPlannerService(reader, nil, publisher, metrics, nil, nil, PlannerConfig{
		ProposalTTL:     time.Hour,
		DefaultTimezone: "UTC",
	})
	n := 0
	svc.newID = func() uuid.UUID {
		n++
		return seededID(fmt.Sprintf("id:%d", n))
	}
	return plannerFixture{svc: svc, metrics: metrics, publisher: publisher}
}

func slotAt(day string, hour, minutes int) dto.SlotInput {
	start, _ := time.Parse(time.RFC3339, fmt.Sprintf("%sT%02d:00:00Z", day, hour))
	return dto.SlotInput{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

func templateRequest() dto.DailyPlanRequest {
	return dto.DailyPlanRequest{
		Date:     "2024-03-04",
		Timezone: "UTC",
		Slots:    []dto.SlotInput{slotAt("2024-03-04", 9, 30)},
		Goals:    []string{"cardio"},
	}
}

func TestPlannerServiceGenerateDaily(t *testing.T) {
	f := newPlannerFixture(t)

	resp, err := f.svc.GenerateDaily(context.Background(), templateRequest())
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Walk", resp.Items[0].ActivityName)
	assert.Equal(t, 30, resp.Items[0].PlannedMinutes)
	assert.Equal(t, 30, resp.TotalMinutes)
	assert.True(t, resp.MinimumMet)
	assert.Equal(t, engine.DefaultDailyMaximumMinutes, resp.Options.DailyMaximumMinutes)
}

func TestPlannerServiceGenerateDailyOptionOverrides(t *testing.T) {
	f := newPlannerFixture(t)
	minimum := 45
	req := templateRequest()
	req.Options = &dto.OptionsInput{DailyMinimumMinutes: &minimum}

	_, err := f.svc.GenerateDaily(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInsufficientCapacity)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.engineRejects.WithLabelValues("INSUFFICIENT_CAPACITY")))
}

func TestPlannerServiceGenerateDailyRejectsEmptySlots(t *testing.T) {
	f := newPlannerFixture(t)
	req := templateRequest()
	req.Slots = nil

	_, err := f.svc.GenerateDaily(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrEmptySlotSet)
}

func TestPlannerServiceGenerateDailyValidation(t *testing.T) {
	f := newPlannerFixture(t)
	req := templateRequest()
	req.Date = "04/03/2024"

	_, err := f.svc.GenerateDaily(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPlannerServiceGenerateDailyExplicitCatalog(t *testing.T) {
	f := newPlannerFixture(t)
	req := templateRequest()
	req.ActivityIDs = []string{yogaID.String()}

	resp, err := f.svc.GenerateDaily(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Yoga", resp.Items[0].ActivityName)
	assert.Equal(t, 20, resp.Items[0].PlannedMinutes)
	assert.False(t, resp.MinimumMet)
}

func buildWeek(t *testing.T, f plannerFixture) *dto.WeeklyPlanResponse {
	t.Helper()
	resp, err := f.svc.BuildWeekly(context.Background(), dto.WeeklyPlanRequest{
		Template:  templateRequest(),
		StartDate: "2024-03-04",
		EndDate:   "2024-03-11",
	}, "client-a")
	require.NoError(t, err)
	return resp
}

func TestPlannerServiceBuildWeekly(t *testing.T) {
	f := newPlannerFixture(t)
	resp := buildWeek(t, f)

	require.Len(t, resp.SelectedDays, engine.DefaultDaysToPlan)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Equal(t, string(engine.ExcludedAuto), resp.ExcludedHandling)
	assert.Equal(t, 1, resp.Version)
	for _, day := range resp.Days {
		assert.GreaterOrEqual(t, day.Date, "2024-03-04")
		assert.Less(t, day.Date, "2024-03-11")
		require.Len(t, day.Items, 1)
		assert.Equal(t, "Walk", day.Items[0].ActivityName)
		assert.Equal(t, 9, day.Items[0].Start.Hour())
		assert.Equal(t, 30, day.TotalMinutes)
	}
	assert.Equal(t, []events.Type{events.WeeklyBuilt}, f.publisher.events)

	stored, err := f.svc.GetWeekly(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, resp.SelectedDays, stored.SelectedDays)
	assert.Equal(t, resp.Days, stored.Days)
}

func TestPlannerServiceBuildWeeklyRejectsInvertedWindow(t *testing.T) {
	f := newPlannerFixture(t)
	_, err := f.svc.BuildWeekly(context.Background(), dto.WeeklyPlanRequest{
		Template:  templateRequest(),
		StartDate: "2024-03-11",
		EndDate:   "2024-03-04",
	}, "client-a")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPlannerServiceBuildWeeklyNoAllowedDays(t *testing.T) {
	f := newPlannerFixture(t)
	resp, err := f.svc.BuildWeekly(context.Background(), dto.WeeklyPlanRequest{
		Template:        templateRequest(),
		StartDate:       "2024-03-04",
		EndDate:         "2024-03-11",
		AllowedWeekdays: []int{},
	}, "client-a")
	require.NoError(t, err)
	assert.Empty(t, resp.SelectedDays)
	assert.Empty(t, resp.Days)
}

func TestPlannerServiceGetWeeklyUnknown(t *testing.T) {
	f := newPlannerFixture(t)
	_, err := f.svc.GetWeekly(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPlannerServiceRecalculateSameDay(t *testing.T) {
	f := newPlannerFixture(t)
	week := buildWeek(t, f)
	target := week.SelectedDays[0]

	resp, err := f.svc.RecalculateDay(context.Background(), week.ProposalID, dto.RecalculateDayRequest{
		Date:           target,
		AvailableSlots: map[string][]dto.SlotInput{target: {slotAt(target, 18, 30)}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(engine.RecalcSameDay), resp.Outcome)
	assert.Nil(t, resp.RelocatedTo)
	assert.Equal(t, 2, resp.Proposal.Version)
	for _, day := range resp.Proposal.Days {
		if day.Date == target {
			require.Len(t, day.Items, 1)
			assert.Equal(t, 18, day.Items[0].Start.Hour())
			assert.Equal(t, "Walk", day.Items[0].ActivityName)
		}
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.recalcOutcomes.WithLabelValues("same_day")))
	assert.Equal(t, []events.Type{events.WeeklyBuilt, events.DayRecalculated}, f.publisher.events)
}

func TestPlannerServiceRecalculateRelocates(t *testing.T) {
	f := newPlannerFixture(t)
	week := buildWeek(t, f)
	target := week.SelectedDays[0]
	spare := "2024-03-20"

	resp, err := f.svc.RecalculateDay(context.Background(), week.ProposalID, dto.RecalculateDayRequest{
		Date:           target,
		AvailableSlots: map[string][]dto.SlotInput{spare: {slotAt(spare, 7, 30)}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(engine.RecalcRelocated), resp.Outcome)
	require.NotNil(t, resp.RelocatedTo)
	assert.Equal(t, spare, *resp.RelocatedTo)
	assert.Contains(t, resp.Proposal.SelectedDays, spare)

	totals := map[string]int{}
	for _, day := range resp.Proposal.Days {
		totals[day.Date] = day.TotalMinutes
	}
	assert.Equal(t, 0, totals[target])
	assert.Equal(t, 30, totals[spare])
}

func TestPlannerServiceRecalculateDropLeavesProposal(t *testing.T) {
	f := newPlannerFixture(t)
	week := buildWeek(t, f)
	target := week.SelectedDays[1]

	resp, err := f.svc.RecalculateDay(context.Background(), week.ProposalID, dto.RecalculateDayRequest{
		Date:             target,
		AvailableSlots:   map[string][]dto.SlotInput{"2024-03-20": {slotAt("2024-03-20", 7, 30)}},
		ExcludedHandling: "drop",
	})
	require.NoError(t, err)
	assert.Equal(t, string(engine.RecalcUnchanged), resp.Outcome)
	assert.Equal(t, 1, resp.Proposal.Version)
	assert.Equal(t, week.Days, resp.Proposal.Days)
}

func TestPlannerServiceRecalculateUnknownDay(t *testing.T) {
	f := newPlannerFixture(t)
	week := buildWeek(t, f)

	_, err := f.svc.RecalculateDay(context.Background(), week.ProposalID, dto.RecalculateDayRequest{
		Date:           "2025-01-01",
		AvailableSlots: map[string][]dto.SlotInput{},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.RecalculateDay(context.Background(), "missing", dto.RecalculateDayRequest{
		Date:           "2025-01-01",
		AvailableSlots: map[string][]dto.SlotInput{},
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPlannerConfigFrom(t *testing.T) {
	cfg := PlannerConfigFrom(config.PlannerConfig{
		DailyMinimumMinutes: 20,
		DailyMaximumMinutes: 40,
		DaysToPlan:          5,
		ExcludedHandling:    "bogus",
	})

	assert.Equal(t, 20, cfg.Options.DailyMinimumMinutes)
	assert.Equal(t, 40, cfg.Options.DailyMaximumMinutes)
	assert.Equal(t, 5, cfg.DaysToPlan)
	assert.Equal(t, engine.ExcludedAuto, cfg.ExcludedHandling)
}
