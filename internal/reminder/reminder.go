// Package reminder resolves reminder intervals into absolute fire times.
package reminder

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Juanes7222/AppNotify/internal/model"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var units = map[string]time.Duration{
	model.UnitMinutes: time.Minute,
	model.UnitHours:   time.Hour,
	model.UnitDays:    day,
	model.UnitWeeks:   week,
}

var validate = validator.New()

// Resolve returns the UTC instant at which a reminder described by iv fires
// for an event happening at eventTime.
//
// Custom intervals return their own date and ignore eventTime. Relative
// intervals subtract Value units from eventTime. An unrecognised unit, or a
// custom interval without a date, yields eventTime unchanged.
func Resolve(eventTime time.Time, iv model.ReminderInterval) time.Time {
	eventTime = eventTime.UTC()

	if iv.Unit == model.UnitCustom {
		if iv.CustomDate == nil {
			return eventTime
		}
		return iv.CustomDate.UTC()
	}

	d, ok := units[iv.Unit]
	if !ok {
		return eventTime
	}

	return eventTime.Add(-time.Duration(iv.Value) * d)
}

// Known reports whether unit is one Resolve understands.
func Known(unit string) bool {
	_, ok := units[unit]
	return ok || unit == model.UnitCustom
}

// Validate checks a reminder interval before it is stored on an event.
func Validate(iv model.ReminderInterval) error {
	if err := validate.Struct(iv); err != nil {
		return fmt.Errorf("invalid reminder interval: %w", err)
	}
	return nil
}

// ValidateAll checks every interval and reports the index of the first invalid one.
func ValidateAll(intervals []model.ReminderInterval) error {
	for i, iv := range intervals {
		if err := Validate(iv); err != nil {
			return fmt.Errorf("reminder_intervals[%d]: %w", i, err)
		}
	}
	return nil
}
