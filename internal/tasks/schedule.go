package tasks

import (
	"fmt"
	"time"

	"github.com/dhima/filplus-aggregator/pkg/config"
	"github.com/robfig/cron/v3"
)

var scheduleParser = config.ScheduleParser

// ParseSchedule parses a cron expression. Five fields, six fields (leading
// seconds) and descriptors such as "@hourly" are accepted.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NextRunTime calculates the next run of cronExpr after from.
//
// Parameters:
//   - cronExpr: CRON expression (e.g., "*/5 * * * *")
//   - timezone: Timezone name (e.g., "Europe/Berlin"), empty string defaults to UTC
//   - from: Calculate the next run from this timestamp
//
// Returns the next run in UTC.
func NextRunTime(cronExpr string, timezone string, from time.Time) (time.Time, error) {
	loc, err := resolveTimezone(timezone)
	if err != nil {
		return time.Time{}, err
	}
	schedule, err := ParseSchedule(cronExpr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from.In(loc)).UTC(), nil
}

// resolveTimezone resolves a timezone string to a time.Location.
// Empty string defaults to UTC.
func resolveTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", tz, err)
	}
	return loc, nil
}
