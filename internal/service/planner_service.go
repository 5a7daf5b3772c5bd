package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/engine"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/pkg/config"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
	"github.com/juliasaboya/ScheduleEngine/pkg/events"
	"github.com/juliasaboya/ScheduleEngine/pkg/logger"
	"github.com/juliasaboya/ScheduleEngine/pkg/telemetry"
)

type activityReader interface {
	ListActive(ctx context.Context) ([]models.Activity, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Activity, error)
}

// PlannerConfig holds the defaults applied to planning requests.
type PlannerConfig struct {
	ProposalTTL      time.Duration
	DefaultTimezone  string
	Options          engine.EngineOptions
	DaysToPlan       int
	ExcludedHandling engine.ExcludedHandling
}

// PlannerConfigFrom converts the environment configuration.
func PlannerConfigFrom(cfg config.PlannerConfig) PlannerConfig {
	handling, ok := engine.ParseExcludedHandling(cfg.ExcludedHandling)
	if !ok {
		handling = engine.ExcludedAuto
	}
	return PlannerConfig{
		ProposalTTL:     cfg.ProposalTTL,
		DefaultTimezone: cfg.DefaultTimezone,
		Options: engine.EngineOptions{
			DailyMinimumMinutes:    cfg.DailyMinimumMinutes,
			DailyMaximumMinutes:    cfg.DailyMaximumMinutes,
			AvoidConsecutiveRepeat: cfg.AvoidConsecutiveRepeat,
			LocationMatchBonus:     cfg.LocationMatchBonus,
		},
		DaysToPlan:       cfg.DaysToPlan,
		ExcludedHandling: handling,
	}
}

// PlannerService exposes the scheduling engine over catalog and proposal
// storage.
type PlannerService struct {
	activities activityReader
	proposals  ProposalStore
	publisher  events.Publisher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PlannerConfig
	locks      *keyedMutex
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewPlannerService wires planner dependencies.
func NewPlannerService(
	activities activityReader,
	proposals ProposalStore,
	publisher events.Publisher,
	metrics *MetricsService,
	validate *validator.Validate,
	log *zap.Logger,
	cfg PlannerConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 24 * time.Hour
	}
	if cfg.Options.DailyMaximumMinutes == 0 && cfg.Options.DailyMinimumMinutes == 0 {
		cfg.Options = engine.DefaultOptions()
	}
	if cfg.DaysToPlan == 0 {
		cfg.DaysToPlan = engine.DefaultDaysToPlan
	}
	if cfg.ExcludedHandling == "" {
		cfg.ExcludedHandling = engine.ExcludedAuto
	}
	if proposals == nil {
		proposals = newMemoryProposalStore(cfg.ProposalTTL, time.Now)
	}
	return &PlannerService{
		activities: activities,
		proposals:  proposals,
		publisher:  publisher,
		metrics:    metrics,
		validator:  validate,
		logger:     log,
		cfg:        cfg,
		locks:      newKeyedMutex(),
		now:        time.Now,
		newID:      uuid.New,
	}
}

// solvedDay is a template day allocated by the engine.
type solvedDay struct {
	date     engine.Date
	location *time.Location
	plan     []engine.PlannedActivity
	slots    map[uuid.UUID]engine.TimeRange
	names    map[uuid.UUID]string
	options  engine.EngineOptions
	goals    []string
	places   []string
}

// GenerateDaily plans a single day.
func (s *PlannerService) GenerateDaily(ctx context.Context, req dto.DailyPlanRequest) (resp *dto.DailyPlanResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "planner.GenerateDaily", attribute.String("date", req.Date))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid daily plan payload")
	}

	day, err := s.solve(ctx, req, "daily")
	if err != nil {
		return nil, err
	}

	total := engine.TotalMinutes(day.plan)
	minimumMet := total >= day.options.DailyMinimumMinutes
	s.metrics.RecordPlan("daily", total, minimumMet)
	logger.WithTrace(ctx, s.logger).Debug("daily plan generated",
		zap.String("date", day.date.String()),
		zap.Int("items", len(day.plan)),
		zap.Int("minutes", total),
	)

	return &dto.DailyPlanResponse{
		Date:         day.date.String(),
		Items:        planItems(day.plan, day.slots, day.names, day.location),
		TotalMinutes: total,
		MinimumMet:   minimumMet,
		Options:      optionsView(day.options),
	}, nil
}

// BuildWeekly solves the template day and replicates it across the window.
// The result is stored as a proposal owned by actor.
func (s *PlannerService) BuildWeekly(ctx context.Context, req dto.WeeklyPlanRequest, actor string) (resp *dto.WeeklyPlanResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "planner.BuildWeekly",
		attribute.String("start", req.StartDate),
		attribute.String("end", req.EndDate),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid weekly plan payload")
	}

	startDate, _ := engine.ParseDate(req.StartDate)
	endDate, _ := engine.ParseDate(req.EndDate)
	if !startDate.Before(endDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be after startDate")
	}
	handling := s.cfg.ExcludedHandling
	if req.ExcludedHandling != "" {
		handling, _ = engine.ParseExcludedHandling(req.ExcludedHandling)
	}
	daysToPlan := s.cfg.DaysToPlan
	if req.DaysToPlan != nil {
		daysToPlan = *req.DaysToPlan
	}

	template, err := s.solve(ctx, req.Template, "weekly_template")
	if err != nil {
		return nil, err
	}
	dest := template.location
	if req.Timezone != "" {
		dest = s.location(req.Timezone)
	}

	excluded := make([]time.Time, 0, len(req.ExcludedDates))
	for _, raw := range req.ExcludedDates {
		date, _ := engine.ParseDate(raw)
		excluded = append(excluded, date.Midnight(dest))
	}

	started := time.Now()
	week := engine.BuildWeeklySchedule(engine.WeeklyRequest{
		Template:         template.plan,
		TemplateSlots:    template.slots,
		Start:            startDate.Midnight(dest),
		End:              endDate.Midnight(dest),
		DaysToPlan:       daysToPlan,
		AllowedWeekdays:  req.AllowedWeekdays,
		ExcludedDays:     excluded,
		Calendar:         engine.CalendarConfig{Location: dest},
		TemplateLocation: template.location,
		ExcludedHandling: handling,
		NewID:            s.newID,
	})
	s.metrics.ObserveEngine("weekly", time.Since(started))

	now := s.now().UTC()
	proposal := &models.WeeklyProposal{
		ID:               s.newID().String(),
		CreatedBy:        actor,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.ProposalTTL),
		Timezone:         dest.String(),
		Goals:            template.goals,
		Locations:        template.places,
		Options:          template.options,
		ExcludedHandling: handling,
		SelectedDays:     week.SelectedDays,
		Days:             week.Bucket(),
		Slots:            week.Slots,
		Version:          1,
	}
	if err := s.proposals.Save(ctx, proposal); err != nil {
		return nil, err
	}

	total := 0
	for _, day := range proposal.SelectedDays {
		total += proposal.Days.TotalMinutes(day)
	}
	s.metrics.RecordPlan("weekly", total, len(proposal.SelectedDays) > 0)
	s.metrics.ObserveWeeklyDays(len(proposal.SelectedDays))
	s.publish(ctx, events.WeeklyBuilt, weeklyBuiltEvent{
		ProposalID:   proposal.ID,
		CreatedBy:    actor,
		SelectedDays: dateStrings(proposal.SelectedDays),
		TotalMinutes: total,
	})
	logger.WithTrace(ctx, s.logger).Info("weekly proposal built",
		zap.String("proposal_id", proposal.ID),
		zap.Int("days", len(proposal.SelectedDays)),
		zap.String("handling", string(handling)),
	)

	view := weeklyResponse(proposal, template.names)
	return &view, nil
}

// GetWeekly returns a stored proposal.
func (s *PlannerService) GetWeekly(ctx context.Context, id string) (*dto.WeeklyPlanResponse, error) {
	proposal, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := weeklyResponse(proposal, s.activityNames(ctx, proposal.Days))
	return &view, nil
}

// LoadProposal returns the stored proposal itself, for exports.
func (s *PlannerService) LoadProposal(ctx context.Context, id string) (*models.WeeklyProposal, map[uuid.UUID]string, error) {
	proposal, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return proposal, s.activityNames(ctx, proposal.Days), nil
}

// RecalculateDay re-solves one day of a stored proposal against the slots now
// available. Recalculations of the same proposal run one at a time.
func (s *PlannerService) RecalculateDay(ctx context.Context, id string, req dto.RecalculateDayRequest) (resp *dto.RecalculateDayResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "planner.RecalculateDay",
		attribute.String("proposal_id", id),
		attribute.String("date", req.Date),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid recalculation payload")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	proposal, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	target, _ := engine.ParseDate(req.Date)
	originalPlan, ok := proposal.Days[target]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not part of proposal %s", target, id))
	}

	available, slotIndex, err := s.availableSlots(req.AvailableSlots)
	if err != nil {
		return nil, err
	}

	planned := activityIDs(originalPlan)
	activities, err := s.activities.FindByIDs(ctx, planned)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
	}
	byID := make(map[uuid.UUID]*models.Activity, len(activities))
	names := make(map[uuid.UUID]string, len(activities))
	for i := range activities {
		byID[activities[i].ID] = &activities[i]
		names[activities[i].ID] = activities[i].Name
	}
	if len(byID) < len(planned) {
		logger.WithTrace(ctx, s.logger).Warn("planned activities missing from catalog",
			zap.String("proposal_id", id),
			zap.Int("planned", len(planned)),
			zap.Int("resolved", len(byID)),
		)
	}

	handling := proposal.ExcludedHandling
	if req.ExcludedHandling != "" {
		handling, _ = engine.ParseExcludedHandling(req.ExcludedHandling)
	}
	opts := applyOptions(proposal.Options, req.Options)
	opts.NewID = s.newID

	started := time.Now()
	result, err := engine.RecalcDayActivities(engine.RecalcRequest{
		TargetDay:      target,
		OriginalPlan:   originalPlan,
		CurrentBucket:  proposal.Days,
		AvailableSlots: available,
		UserGoals:      engine.TagsFromStrings(proposal.Goals),
		UserLocations:  engine.TagsFromStrings(proposal.Locations),
		Lookup: func(key uuid.UUID) (engine.Schedulable, bool) {
			activity, ok := byID[key]
			return activity, ok
		},
		Options:  opts,
		Handling: handling,
	})
	s.metrics.ObserveEngine("recalculate", time.Since(started))
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	if result.Outcome != engine.RecalcUnchanged {
		proposal.Days = result.Bucket
		proposal.Slots = referencedSlots(result.Bucket, proposal.Slots, slotIndex)
		if result.RelocatedTo != nil && !containsDate(proposal.SelectedDays, *result.RelocatedTo) {
			proposal.SelectedDays = append(proposal.SelectedDays, *result.RelocatedTo)
			engine.SortDates(proposal.SelectedDays)
		}
		proposal.Options = opts
		proposal.Version++
		proposal.UpdatedAt = s.now().UTC()
		if err := s.proposals.Save(ctx, proposal); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordRecalculation(string(result.Outcome))
	event := dayRecalculatedEvent{
		ProposalID: proposal.ID,
		Date:       target.String(),
		Outcome:    string(result.Outcome),
		Version:    proposal.Version,
	}
	resp = &dto.RecalculateDayResponse{Outcome: string(result.Outcome)}
	if result.RelocatedTo != nil {
		relocated := result.RelocatedTo.String()
		resp.RelocatedTo = &relocated
		event.RelocatedTo = &relocated
	}
	s.publish(ctx, events.DayRecalculated, event)
	logger.WithTrace(ctx, s.logger).Info("day recalculated",
		zap.String("proposal_id", proposal.ID),
		zap.String("date", target.String()),
		zap.String("outcome", string(result.Outcome)),
	)

	resp.Proposal = weeklyResponse(proposal, names)
	return resp, nil
}

// solve allocates a day from a daily request.
func (s *PlannerService) solve(ctx context.Context, req dto.DailyPlanRequest, operation string) (*solvedDay, error) {
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid date")
	}
	loc := s.location(req.Timezone)

	slots := make([]engine.Slot, 0, len(req.Slots))
	ranges := make(map[uuid.UUID]engine.TimeRange, len(req.Slots))
	for _, in := range req.Slots {
		slot, err := s.slotFromInput(in)
		if err != nil {
			return nil, err
		}
		if _, dup := ranges[slot.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot id %s", slot.ID))
		}
		slots = append(slots, slot)
		ranges[slot.ID] = slot.Range()
	}

	catalog, err := s.loadCatalog(ctx, req.ActivityIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(catalog))
	for _, activity := range catalog {
		names[activity.ID] = activity.Name
	}

	opts := applyOptions(s.cfg.Options, req.Options)
	opts.NewID = s.newID

	started := time.Now()
	plan, err := engine.GenerateDailySchedule(date, slots,
		engine.TagsFromStrings(req.Goals), engine.TagsFromStrings(req.Locations), catalog, opts)
	s.metrics.ObserveEngine(operation, time.Since(started))
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	return &solvedDay{
		date:     date,
		location: loc,
		plan:     plan,
		slots:    ranges,
		names:    names,
		options:  opts.Normalize(),
		goals:    req.Goals,
		places:   req.Locations,
	}, nil
}

func (s *PlannerService) loadCatalog(ctx context.Context, rawIDs []string) ([]*models.Activity, error) {
	var (
		activities []models.Activity
		err        error
	)
	if len(rawIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(rawIDs))
		for _, raw := range rawIDs {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				return nil, appErrors.Validation(parseErr, "invalid activity id")
			}
			ids = append(ids, id)
		}
		activities, err = s.activities.FindByIDs(ctx, ids)
	} else {
		activities, err = s.activities.ListActive(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity catalog")
	}

	catalog := make([]*models.Activity, len(activities))
	for i := range activities {
		catalog[i] = &activities[i]
	}
	return catalog, nil
}

func (s *PlannerService) availableSlots(in map[string][]dto.SlotInput) (map[engine.Date][]engine.ScheduleSlot, map[uuid.UUID]engine.TimeRange, error) {
	available := make(map[engine.Date][]engine.ScheduleSlot, len(in))
	index := make(map[uuid.UUID]engine.TimeRange)
	for rawDate, inputs := range in {
		date, err := engine.ParseDate(rawDate)
		if err != nil {
			return nil, nil, appErrors.Validation(err, "invalid availability date")
		}
		slots := make([]engine.ScheduleSlot, 0, len(inputs))
		for _, input := range inputs {
			slot, err := s.slotFromInput(input)
			if err != nil {
				return nil, nil, err
			}
			if _, dup := index[slot.ID]; dup {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot id %s", slot.ID))
			}
			index[slot.ID] = slot.Range()
			slots = append(slots, slot)
		}
		available[date] = slots
	}
	return available, index, nil
}

func (s *PlannerService) slotFromInput(in dto.SlotInput) (engine.Slot, error) {
	id := s.newID()
	if in.ID != "" {
		parsed, err := uuid.Parse(in.ID)
		if err != nil {
			return engine.Slot{}, appErrors.Validation(err, "invalid slot id")
		}
		id = parsed
	}
	return engine.Slot{ID: id, Start: in.Start, End: in.End}, nil
}

// activityNames resolves display names for every activity in bucket. Lookup
// failures degrade to unknown names.
func (s *PlannerService) activityNames(ctx context.Context, bucket engine.Bucket) map[uuid.UUID]string {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, day := range bucket.Days() {
		for _, id := range activityIDs(bucket[day]) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	activities, err := s.activities.FindByIDs(ctx, ids)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Warn("failed to resolve activity names", zap.Error(err))
		return names
	}
	for _, activity := range activities {
		names[activity.ID] = activity.Name
	}
	return names
}

func (s *PlannerService) location(name string) *time.Location {
	if name == "" {
		name = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("unknown timezone, using UTC", zap.String("timezone", name))
		return time.UTC
	}
	return loc
}

func (s *PlannerService) recordRejection(err error) {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status == http.StatusUnprocessableEntity {
		s.metrics.RecordEngineRejection(appErr.Code)
	}
}

func (s *PlannerService) publish(ctx context.Context, eventType events.Type, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("failed to publish event",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

type weeklyBuiltEvent struct {
	ProposalID   string   `json:"proposalId"`
	CreatedBy    string   `json:"createdBy"`
	SelectedDays []string `json:"selectedDays"`
	TotalMinutes int      `json:"totalMinutes"`
}

type dayRecalculatedEvent struct {
	ProposalID  string  `json:"proposalId"`
	Date        string  `json:"date"`
	Outcome     string  `json:"outcome"`
	RelocatedTo *string `json:"relocatedTo,omitempty"`
	Version     int     `json:"version"`
}
