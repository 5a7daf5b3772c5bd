package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/juliasaboya/ScheduleEngine/internal/engine"
)

// Activity is a catalog entry the planner can place into slots.
type Activity struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	MinMinutes   int       `db:"min_duration" json:"minDuration"`
	MaxMinutes   int       `db:"max_duration" json:"maxDuration"`
	GoalTags     TagList   `db:"goals" json:"goals"`
	LocationTags TagList   `db:"locations" json:"locations"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (a *Activity) ActivityID() uuid.UUID    { return a.ID }
func (a *Activity) MinDuration() int         { return a.MinMinutes }
func (a *Activity) MaxDuration() int         { return a.MaxMinutes }
func (a *Activity) Goals() engine.TagSet     { return engine.TagsFromStrings(a.GoalTags) }
func (a *Activity) Locations() engine.TagSet { return engine.TagsFromStrings(a.LocationTags) }

// ActivityFilter narrows catalog listings.
type ActivityFilter struct {
	ActiveOnly bool
	Goal       string
	Page       int
	PageSize   int
}

// TagList is a list of tags persisted as a JSON array.
type TagList []string

// Value marshals the list to JSON for persistence.
func (l TagList) Value() (driver.Value, error) {
	if l == nil {
		l = TagList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal tag list: %w", err)
	}
	return string(data), nil
}

// Scan unmarshals a JSON array column.
func (l *TagList) Scan(value interface{}) error {
	if value == nil {
		*l = TagList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for TagList", value)
	}
	if len(data) == 0 {
		*l = TagList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal tag list: %w", err)
	}
	*l = out
	return nil
}
