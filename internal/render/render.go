// Package render builds the subject and HTML body of reminder emails.
//
// Event times are stored in UTC and converted to the owner's timezone for
// display only. Dates are written in Spanish with a 12-hour clock.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Juanes7222/AppNotify/internal/model"
)

// DefaultTimezone is used when neither the user nor the configuration name one.
const DefaultTimezone = "America/Bogota"

var months = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Renderer renders reminder emails.
type Renderer struct {
	fallback *time.Location
}

// New creates a Renderer that falls back to defaultTimezone for users
// without a valid timezone preference.
func New(defaultTimezone string) (*Renderer, error) {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = DefaultTimezone
	}

	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load default timezone %q: %w", defaultTimezone, err)
	}

	return &Renderer{fallback: loc}, nil
}

// Location resolves an IANA timezone name, falling back to the default.
func (r *Renderer) Location(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return r.fallback
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return r.fallback
	}

	return loc
}

// FormatDate formats t as "15 de Septiembre de 2025" in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%02d de %s de %d", local.Day(), months[local.Month()-1], local.Year())
}

// FormatTime formats t as "6:30 PM" in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)

	hour := local.Hour()
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}

	hour %= 12
	if hour == 0 {
		hour = 12
	}

	return fmt.Sprintf("%d:%02d %s", hour, local.Minute(), suffix)
}

type reminderData struct {
	ContactName string
	Title       string
	Date        string
	Time        string
	Location    string
	Description string
}

// Reminder renders the scheduled reminder sent to a contact.
func (r *Renderer) Reminder(event model.Event, contact model.Contact, timezone string) (string, string, error) {
	body, err := r.execute(reminderTmpl, event, contact, timezone)
	if err != nil {
		return "", "", err
	}

	return "Recordatorio: " + event.Title, body, nil
}

// TestReminder renders the reminder variant sent on demand by the owner.
func (r *Renderer) TestReminder(event model.Event, contact model.Contact, timezone string) (string, string, error) {
	body, err := r.execute(testReminderTmpl, event, contact, timezone)
	if err != nil {
		return "", "", err
	}

	return "[PRUEBA] Recordatorio: " + event.Title, body, nil
}

func (r *Renderer) execute(tmpl *template.Template, event model.Event, contact model.Contact, timezone string) (string, error) {
	loc := r.Location(timezone)

	data := reminderData{
		ContactName: contact.Name,
		Title:       event.Title,
		Date:        FormatDate(event.EventDate, loc),
		Time:        FormatTime(event.EventDate, loc),
		Location:    event.Location,
		Description: event.Description,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	return buf.String(), nil
}

// MailCheck renders the message used to verify mail delivery for a user.
func (r *Renderer) MailCheck(user model.User, now time.Time) (string, string, error) {
	name := user.DisplayName
	if name == "" {
		name = "Usuario de prueba"
	}

	data := struct {
		Name  string
		Email string
		When  string
	}{
		Name:  name,
		Email: user.Email,
		When:  now.UTC().Format("02/01/2006 15:04:05 UTC"),
	}

	var buf bytes.Buffer
	if err := mailCheckTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", mailCheckTmpl.Name(), err)
	}

	return "Correo de Prueba - RemindSender", buf.String(), nil
}
