package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/internal/dto"
	"github.com/juliasaboya/ScheduleEngine/internal/models"
	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	Upsert(ctx context.Context, activity *models.Activity) error
}

// ActivityService manages the activity catalog.
type ActivityService struct {
	repo      activityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of catalog entries.
func (s *ActivityService) List(ctx context.Context, query dto.ListActivitiesQuery) ([]models.Activity, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Validation(err, "invalid query")
	}
	filter := models.ActivityFilter{
		ActiveOnly: true,
		Goal:       strings.TrimSpace(query.Goal),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.ActiveOnly != nil {
		filter.ActiveOnly = *query.ActiveOnly
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create adds an active activity to the catalog.
func (s *ActivityService) Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid activity payload")
	}
	activity := &models.Activity{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		MinMinutes:   req.MinDuration,
		MaxMinutes:   req.MaxDuration,
		GoalTags:     trimTags(req.Goals),
		LocationTags: trimTags(req.Locations),
		Active:       true,
	}
	if err := s.repo.Upsert(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.logger.Info("activity created", zap.String("activity_id", activity.ID.String()), zap.String("name", activity.Name))
	return activity, nil
}

func trimTags(values []string) models.TagList {
	out := make(models.TagList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
