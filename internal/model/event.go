package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reminder interval units.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
	UnitWeeks   = "weeks"
	UnitCustom  = "custom"
)

// ReminderInterval specifies when a reminder fires: either a relative offset
// before the event or an absolute custom date.
type ReminderInterval struct {
	Value      int        `json:"value,omitempty" validate:"gte=0"`
	Unit       string     `json:"unit" validate:"required,oneof=minutes hours days weeks custom"`
	CustomDate *time.Time `json:"custom_date,omitempty" validate:"required_if=Unit custom"`
}

// naiveLayouts are accepted for timestamps without zone information; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp. Zone-naive values are treated as UTC.
// The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON decodes an interval, accepting zone-naive custom dates as UTC.
func (r *ReminderInterval) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value      *int    `json:"value"`
		Unit       string  `json:"unit"`
		CustomDate *string `json:"custom_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ReminderInterval{Unit: raw.Unit}
	if raw.Value != nil {
		r.Value = *raw.Value
	}

	if raw.CustomDate != nil && *raw.CustomDate != "" {
		t, err := ParseTimestamp(*raw.CustomDate)
		if err != nil {
			return fmt.Errorf("custom_date: %w", err)
		}
		r.CustomDate = &t
	}

	return nil
}

// Event is a calendar entry owning an ordered list of reminder intervals.
type Event struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"user_id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	Location          string             `json:"location,omitempty"`
	EventDate         time.Time          `json:"event_date"`
	ReminderIntervals []ReminderInterval `json:"reminder_intervals"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// UnmarshalJSON decodes an event, accepting a zone-naive event_date as UTC.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	raw := struct {
		*alias
		EventDate string `json:"event_date"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.EventDate = time.Time{}
	if raw.EventDate == "" {
		return nil
	}

	t, err := ParseTimestamp(raw.EventDate)
	if err != nil {
		return fmt.Errorf("event_date: %w", err)
	}
	e.EventDate = t

	return nil
}

// ScheduleChanged reports whether the fields that drive notification
// scheduling differ between e and other.
func (e Event) ScheduleChanged(other Event) bool {
	if !e.EventDate.Equal(other.EventDate) {
		return true
	}

	if len(e.ReminderIntervals) != len(other.ReminderIntervals) {
		return true
	}

	for i, iv := range e.ReminderIntervals {
		o := other.ReminderIntervals[i]
		if iv.Unit != o.Unit || iv.Value != o.Value {
			return true
		}

		switch {
		case iv.CustomDate == nil && o.CustomDate == nil:
		case iv.CustomDate == nil || o.CustomDate == nil:
			return true
		case !iv.CustomDate.Equal(*o.CustomDate):
			return true
		}
	}

	return false
}
