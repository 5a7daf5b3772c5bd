package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubActivity struct {
	id        uuid.UUID
	name      string
	min, max  int
	goals     TagSet
	locations TagSet
}

func (a stubActivity) ActivityID() uuid.UUID { return a.id }
func (a stubActivity) MinDuration() int      { return a.min }
func (a stubActivity) MaxDuration() int      { return a.max }
func (a stubActivity) Goals() TagSet         { return a.goals }
func (a stubActivity) Locations() TagSet     { return a.locations }

func newActivity(name string, min, max int, goals ...Tag) stubActivity {
	return stubActivity{
		id:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("activity:"+name)),
		name:  name,
		min:   min,
		max:   max,
		goals: NewTagSet(goals...),
	}
}

// sequentialIDs returns an id source yielding predictable identifiers.
func sequentialIDs() func() uuid.UUID {
	n := 0
	return func() uuid.UUID {
		n++
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("id:%d", n)))
	}
}

// consecutiveSlots lays out slots back to back starting at start.
func consecutiveSlots(start time.Time, minutes ...int) []Slot {
	slots := make([]Slot, 0, len(minutes))
	cursor := start
	for i, m := range minutes {
		end := cursor.Add(time.Duration(m) * time.Minute)
		slots = append(slots, Slot{
			ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("slot:%s:%d", start.Format(time.RFC3339), i))),
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return slots
}

func asScheduleSlots(slots []Slot) []ScheduleSlot {
	out := make([]ScheduleSlot, len(slots))
	for i, slot := range slots {
		out[i] = slot
	}
	return out
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func mustDate(t *testing.T, raw string) Date {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}

func lookupFrom(activities ...stubActivity) ActivityLookup {
	index := make(map[uuid.UUID]Schedulable, len(activities))
	for _, activity := range activities {
		index[activity.id] = activity
	}
	return func(id uuid.UUID) (Schedulable, bool) {
		activity, ok := index[id]
		return activity, ok
	}
}
