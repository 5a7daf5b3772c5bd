// Package engine plans activities into time slots.
//
// It holds three synchronous algorithms: GenerateDailySchedule packs a
// catalog into one day's slots, BuildWeeklySchedule clones a solved day onto
// a spread of days in a window while keeping local wall-clock times, and
// RecalcDayActivities re-solves or relocates a day that no longer fits.
//
// Nothing here performs I/O or keeps state between calls. Callers own the
// buckets they pass in and must serialise writes to shared plans.
package engine
