package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/Juanes7222/AppNotify/internal/model"
)

var ErrEventNotFound = errors.New("event not found")

// Repository reads events and their subscriptions.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new event repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// GetEventByID retrieves an event with its reminder intervals.
func (r *Repository) GetEventByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	query := `
		SELECT id, user_id, title, description, location, event_date, reminder_intervals, created_at, updated_at
		FROM events
		WHERE id = $1;
    `

	var (
		e           model.Event
		description sql.NullString
		location    sql.NullString
		intervals   []byte
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Title, &description, &location, &e.EventDate, &intervals, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}

		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}

	e.Description = description.String
	e.Location = location.String
	e.EventDate = e.EventDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	if len(intervals) > 0 {
		if err := json.Unmarshal(intervals, &e.ReminderIntervals); err != nil {
			return model.Event{}, fmt.Errorf("failed to decode reminder intervals: %w", err)
		}
	}

	return e, nil
}

// GetSubscriptionsByEvent lists every subscription of an event.
func (r *Repository) GetSubscriptionsByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Subscription, error) {
	query := `
		SELECT id, event_id, contact_id, user_id, created_at
		FROM subscriptions
		WHERE event_id = $1
		ORDER BY created_at;
    `

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.EventID, &s.ContactID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}

		s.CreatedAt = s.CreatedAt.UTC()
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}

	return subs, nil
}
