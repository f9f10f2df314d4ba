package tasks

import (
	"testing"
	"time"

	"github.com/dhima/filplus-aggregator/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestNextRunTime_ValidUTC(t *testing.T) {
	from := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	next, err := NextRunTime("*/5 * * * *", "", from)
	assert.NoError(t, err)
	// Next multiple of 5 minutes: 03:05
	assert.Equal(t, time.Date(2025, 1, 2, 3, 5, 0, 0, time.UTC), next)
}

func TestNextRunTime_Timezone(t *testing.T) {
	from := time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC) // 02:00 in New York
	next, err := NextRunTime("0 3 * * *", "America/New_York", from)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRunTime_Descriptor(t *testing.T) {
	from := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	next, err := NextRunTime("@hourly", "", from)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 4, 0, 0, 0, time.UTC), next)
}

func TestNextRunTime_WithSeconds(t *testing.T) {
	from := time.Date(2025, 1, 2, 3, 4, 10, 0, time.UTC)
	next, err := NextRunTime("*/30 * * * * *", "", from)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 30, 0, time.UTC), next)
}

func TestNextRunTime_InvalidCron(t *testing.T) {
	_, err := NextRunTime("invalid", "", time.Now())
	assert.Error(t, err)
}

func TestNextRunTime_InvalidTimezone(t *testing.T) {
	_, err := NextRunTime("*/5 * * * *", "Nowhere/Special", time.Now())
	assert.Error(t, err)
}

func TestParseSchedule_WhenComparedWithConfigValidation_ThenAgreesOnEveryExpression(t *testing.T) {
	exprs := []string{"*/5 * * * *", "*/30 * * * * *", "@hourly", "@every 90s", "0 3 * * MON", "61 * * * *", "sometimes", ""}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, parseErr := ParseSchedule(expr)
			validateErr := config.App{AggregationSchedule: expr, AggregationTimezone: "UTC", MaxAttempts: 1}.Validate()
			assert.Equal(t, parseErr == nil, validateErr == nil)
		})
	}
}
