package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/juliasaboya/ScheduleEngine/internal/engine"
)

// WeeklyProposal is a replicated week kept between requests so that single
// days can be recalculated or exported later.
type WeeklyProposal struct {
	ID               string                         `json:"id"`
	CreatedBy        string                         `json:"createdBy"`
	CreatedAt        time.Time                      `json:"createdAt"`
	UpdatedAt        time.Time                      `json:"updatedAt"`
	ExpiresAt        time.Time                      `json:"expiresAt"`
	Timezone         string                         `json:"timezone"`
	Goals            []string                       `json:"goals"`
	Locations        []string                       `json:"locations"`
	Options          engine.EngineOptions           `json:"options"`
	ExcludedHandling engine.ExcludedHandling        `json:"excludedHandling"`
	SelectedDays     []engine.Date                  `json:"selectedDays"`
	Days             engine.Bucket                  `json:"days"`
	Slots            map[uuid.UUID]engine.TimeRange `json:"slots"`
	Version          int                            `json:"version"`
}

// Location resolves the proposal's destination time zone.
func (p *WeeklyProposal) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a deep copy of the proposal's mutable collections.
func (p *WeeklyProposal) Clone() *WeeklyProposal {
	out := *p
	out.Goals = append([]string(nil), p.Goals...)
	out.Locations = append([]string(nil), p.Locations...)
	out.SelectedDays = append([]engine.Date(nil), p.SelectedDays...)
	out.Days = p.Days.Clone()
	out.Slots = make(map[uuid.UUID]engine.TimeRange, len(p.Slots))
	for id, r := range p.Slots {
		out.Slots[id] = r
	}
	return &out
}
