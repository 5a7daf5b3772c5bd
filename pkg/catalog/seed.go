// Package catalog reads activity catalogs from YAML seed files.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
)

// File is the top level layout of a seed document.
type File struct {
	Activities []Entry `yaml:"activities"`
}

// Entry describes one catalog activity.
type Entry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	MinDuration int      `yaml:"min_duration"`
	MaxDuration int      `yaml:"max_duration"`
	Goals       []string `yaml:"goals"`
	Locations   []string `yaml:"locations"`
	Active      *bool    `yaml:"active"`
}

// Parse decodes and validates a seed payload.
func Parse(data []byte) ([]models.Activity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: seed payload is empty")
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode seed: %w", err)
	}

	activities := make([]models.Activity, 0, len(file.Activities))
	seen := make(map[uuid.UUID]struct{}, len(file.Activities))
	for i, entry := range file.Activities {
		activity, err := entry.toActivity()
		if err != nil {
			return nil, fmt.Errorf("catalog: activity %d: %w", i+1, err)
		}
		if _, dup := seen[activity.ID]; dup {
			return nil, fmt.Errorf("catalog: activity %d: duplicate id %s", i+1, activity.ID)
		}
		seen[activity.ID] = struct{}{}
		activities = append(activities, activity)
	}
	return activities, nil
}

// LoadFile reads and parses a seed file from disk.
func LoadFile(path string) ([]models.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	activities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return activities, nil
}

func (e Entry) toActivity() (models.Activity, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return models.Activity{}, fmt.Errorf("name is required")
	}
	if e.MinDuration <= 0 {
		return models.Activity{}, fmt.Errorf("%s: min_duration must be positive", name)
	}
	if e.MaxDuration < e.MinDuration {
		return models.Activity{}, fmt.Errorf("%s: max_duration must be at least min_duration", name)
	}

	// Entries without an id get a stable one derived from the name, so
	// reseeding updates rows instead of duplicating them.
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("activity:"+strings.ToLower(name)))
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return models.Activity{}, fmt.Errorf("%s: invalid id: %w", name, err)
		}
		id = parsed
	}

	active := true
	if e.Active != nil {
		active = *e.Active
	}
	return models.Activity{
		ID:           id,
		Name:         name,
		MinMinutes:   e.MinDuration,
		MaxMinutes:   e.MaxDuration,
		GoalTags:     normalizeTags(e.Goals),
		LocationTags: normalizeTags(e.Locations),
		Active:       active,
	}, nil
}

func normalizeTags(tags []string) models.TagList {
	out := make(models.TagList, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
