package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Juanes7222/AppNotify/internal/model"
)

func TestFormatDateAndTime(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	// 2025-01-05 03:15 UTC is 2025-01-04 22:15 in Bogota (UTC-5).
	ts := time.Date(2025, 1, 5, 3, 15, 0, 0, time.UTC)

	assert.Equal(t, "04 de Enero de 2025", FormatDate(ts, bogota))
	assert.Equal(t, "10:15 PM", FormatTime(ts, bogota))

	assert.Equal(t, "12:05 AM", FormatTime(time.Date(2025, 1, 5, 0, 5, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "12:00 PM", FormatTime(time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC), time.UTC))
}

func TestRenderer_Reminder(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)

	event := model.Event{
		Title:       "Cita <médica>",
		EventDate:   time.Date(2025, 9, 15, 23, 30, 0, 0, time.UTC),
		Location:    "Clínica Norte",
		Description: "Llevar exámenes",
	}
	contact := model.Contact{Name: "Ana"}

	subject, body, err := r.Reminder(event, contact, "")
	require.NoError(t, err)

	assert.Equal(t, "Recordatorio: Cita <médica>", subject)
	assert.Contains(t, body, "Hola <strong>Ana</strong>")
	assert.Contains(t, body, "Cita &lt;médica&gt;")
	assert.Contains(t, body, "15 de Septiembre de 2025")
	assert.Contains(t, body, "6:30 PM")
	assert.Contains(t, body, "Clínica Norte")
	assert.Contains(t, body, "Llevar exámenes")
}

func TestRenderer_ReminderUsesUserTimezone(t *testing.T) {
	r, err := New(DefaultTimezone)
	require.NoError(t, err)

	event := model.Event{Title: "Standup", EventDate: time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC)}

	_, body, err := r.Reminder(event, model.Contact{Name: "Ana"}, "Europe/Madrid")
	require.NoError(t, err)
	assert.Contains(t, body, "10:00 AM")
	assert.NotContains(t, body, "Ubicación")

	_, body, err = r.Reminder(event, model.Contact{Name: "Ana"}, "Not/AZone")
	require.NoError(t, err)
	assert.Contains(t, body, "3:00 AM")
}

func TestRenderer_TestReminder(t *testing.T) {
	r, err := New("UTC")
	require.NoError(t, err)

	subject, body, err := r.TestReminder(model.Event{Title: "Standup", EventDate: time.Now()}, model.Contact{Name: "Ana"}, "")
	require.NoError(t, err)
	assert.Equal(t, "[PRUEBA] Recordatorio: Standup", subject)
	assert.Contains(t, body, "Modo Prueba")
}

func TestRenderer_MailCheck(t *testing.T) {
	r, err := New("UTC")
	require.NoError(t, err)

	now := time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC)
	subject, body, err := r.MailCheck(model.User{Email: "owner@example.com"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Correo de Prueba - RemindSender", subject)
	assert.Contains(t, body, "Usuario de prueba")
	assert.Contains(t, body, "15/09/2025 08:00:00 UTC")
}

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus")
	assert.Error(t, err)
}
