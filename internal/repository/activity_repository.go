package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
)

const activityColumns = `id, name, min_duration, max_duration, goals, locations, active, created_at, updated_at`

// ActivityRepository persists the activity catalog. Queries are written with
// ? placeholders and rebound for the active driver.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns a page of activities and the total matching count.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if filter.ActiveOnly {
		where = append(where, "active = ?")
		args = append(args, true)
	}
	if filter.Goal != "" {
		where = append(where, "goals LIKE ?")
		args = append(args, "%"+fmt.Sprintf("%q", filter.Goal)+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM activities" + clause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	query := r.db.Rebind("SELECT " + activityColumns + " FROM activities" + clause + " ORDER BY name ASC, id ASC LIMIT ? OFFSET ?")
	args = append(args, size, (page-1)*size)

	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	return activities, total, nil
}

// ListActive returns every active activity in a stable order.
func (r *ActivityRepository) ListActive(ctx context.Context) ([]models.Activity, error) {
	query := r.db.Rebind("SELECT " + activityColumns + " FROM activities WHERE active = ? ORDER BY name ASC, id ASC")
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, true); err != nil {
		return nil, fmt.Errorf("list active activities: %w", err)
	}
	return activities, nil
}

// FindByIDs loads the requested activities, preserving the order of ids.
// Unknown ids are omitted.
func (r *ActivityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Activity, error) {
	if len(ids) == 0 {
		return []models.Activity{}, nil
	}
	query, args, err := sqlx.In("SELECT "+activityColumns+" FROM activities WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build activity lookup: %w", err)
	}
	var rows []models.Activity
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}

	byID := make(map[uuid.UUID]models.Activity, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]models.Activity, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// FindByID returns a single activity.
func (r *ActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := r.db.Rebind("SELECT " + activityColumns + " FROM activities WHERE id = ?")
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Upsert creates the activity or updates the row with the same id.
func (r *ActivityRepository) Upsert(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now

	const query = `INSERT INTO activities (id, name, min_duration, max_duration, goals, locations, active, created_at, updated_at)
		VALUES (:id, :name, :min_duration, :max_duration, :goals, :locations, :active, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    min_duration = EXCLUDED.min_duration,
		    max_duration = EXCLUDED.max_duration,
		    goals = EXCLUDED.goals,
		    locations = EXCLUDED.locations,
		    active = EXCLUDED.active,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}
	return nil
}
