package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/Juanes7222/AppNotify/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotPending           = errors.New("notification is not pending")
	ErrUnknownReference     = errors.New("unknown notification reference")
)

// Reference names a foreign key that notifications can be deleted by.
type Reference string

const (
	ByEvent        Reference = "event_id"
	BySubscription Reference = "subscription_id"
	ByContact      Reference = "contact_id"
)

const columns = `id, event_id, subscription_id, contact_id, user_id, scheduled_at, status, sent_at, error_message, created_at`

// Repository provides methods to interact with notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a new pending notification.
func (r *Repository) CreateNotification(ctx context.Context, n model.Notification) error {
	query := `
		INSERT INTO notifications (
		    id, event_id, subscription_id, contact_id, user_id, scheduled_at, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `

	_, err := r.db.ExecContext(
		ctx, query,
		n.ID, n.EventID, n.SubscriptionID, n.ContactID, n.UserID, n.ScheduledAt.UTC(), n.Status, n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// DeletePendingByEvent removes every pending notification of an event and
// returns how many were removed. Sent and failed records are kept.
func (r *Repository) DeletePendingByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE event_id = $1 AND status = 'pending';
    `

	res, err := r.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending notifications: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

// DeleteByReference removes all notifications, whatever their status, that
// point at the given event, subscription or contact.
func (r *Repository) DeleteByReference(ctx context.Context, ref Reference, id uuid.UUID) (int64, error) {
	switch ref {
	case ByEvent, BySubscription, ByContact:
	default:
		return 0, ErrUnknownReference
	}

	query := fmt.Sprintf(`
		DELETE FROM notifications
		WHERE %s = $1;
    `, ref)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications by %s: %w", ref, err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

// GetDueNotifications returns up to limit pending notifications scheduled at or
// before now, skipping those claimed after claimCutoff.
func (r *Repository) GetDueNotifications(ctx context.Context, now, claimCutoff time.Time, limit int) ([]model.Notification, error) {
	query := `
		SELECT ` + columns + `
		FROM notifications
		WHERE status = 'pending'
		  AND scheduled_at <= $1
		  AND (claimed_at IS NULL OR claimed_at < $2)
		ORDER BY scheduled_at
		LIMIT $3;
    `

	rows, err := r.db.QueryContext(ctx, query, now.UTC(), claimCutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due notifications: %w", err)
	}

	return notifications, nil
}

// Claim marks a pending notification as taken by this sweeper. It returns
// false when the notification is no longer pending or holds a claim newer
// than claimCutoff.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, now, claimCutoff time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET claimed_at = $2
		WHERE id = $1
		  AND status = 'pending'
		  AND (claimed_at IS NULL OR claimed_at < $3);
    `

	res, err := r.db.ExecContext(ctx, query, id, now.UTC(), claimCutoff.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows == 1, nil
}

// MarkSent moves a pending notification to sent.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = 'sent', sent_at = $2, error_message = NULL
		WHERE id = $1 AND status = 'pending';
    `

	return r.transition(ctx, query, id, sentAt.UTC())
}

// MarkFailed moves a pending notification to failed with a reason.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE notifications
		SET status = 'failed', error_message = $2
		WHERE id = $1 AND status = 'pending';
    `

	return r.transition(ctx, query, id, reason)
}

func (r *Repository) transition(ctx context.Context, query string, id uuid.UUID, arg any) error {
	res, err := r.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrNotPending
	}

	return nil
}

// GetNotificationByID retrieves a notification owned by userID.
func (r *Repository) GetNotificationByID(ctx context.Context, id, userID uuid.UUID) (model.Notification, error) {
	query := `
		SELECT ` + columns + `
		FROM notifications
		WHERE id = $1 AND user_id = $2;
    `

	n, err := scanNotification(r.db.Master.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// GetNotificationStatusByID retrieves the status of a notification by its ID.
func (r *Repository) GetNotificationStatusByID(ctx context.Context, id uuid.UUID) (string, error) {
	query := `
		SELECT status
		FROM notifications
		WHERE id = $1;
    `

	var status string
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotificationNotFound
		}

		return "", fmt.Errorf("failed to get notification status: %w", err)
	}

	return status, nil
}

// ListByUser returns a user's notifications, newest scheduled first, joined
// with the title and date of their event and the name and email of their contact.
// An empty status lists every status.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit int) ([]model.NotificationView, error) {
	query := `
		SELECT n.id, n.event_id, n.subscription_id, n.contact_id, n.user_id, n.scheduled_at,
		       n.status, n.sent_at, n.error_message, n.created_at,
		       e.title, e.event_date, c.name, c.email
		FROM notifications n
		LEFT JOIN events e ON e.id = n.event_id
		LEFT JOIN contacts c ON c.id = n.contact_id
		WHERE n.user_id = $1 AND ($2 = '' OR n.status = $2)
		ORDER BY n.scheduled_at DESC
		LIMIT $3;
    `

	rows, err := r.db.QueryContext(ctx, query, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	views := make([]model.NotificationView, 0)
	for rows.Next() {
		var (
			v            model.NotificationView
			sentAt       sql.NullTime
			errMsg       sql.NullString
			title        sql.NullString
			eventDate    sql.NullTime
			contactName  sql.NullString
			contactEmail sql.NullString
		)

		if err := rows.Scan(
			&v.ID, &v.EventID, &v.SubscriptionID, &v.ContactID, &v.UserID, &v.ScheduledAt,
			&v.Status, &sentAt, &errMsg, &v.CreatedAt,
			&title, &eventDate, &contactName, &contactEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		fillOptional(&v.Notification, sentAt, errMsg)

		v.EventTitle = "Unknown Event"
		if title.Valid {
			v.EventTitle = title.String
		}
		if eventDate.Valid {
			d := eventDate.Time.UTC()
			v.EventDate = &d
		}

		v.ContactName = "Unknown Contact"
		if contactName.Valid {
			v.ContactName = contactName.String
		}
		v.ContactEmail = contactEmail.String

		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return views, nil
}

// CountByStatus returns the number of notifications per status for a user.
func (r *Repository) CountByStatus(ctx context.Context, userID uuid.UUID) (model.Stats, error) {
	query := `
		SELECT status, COUNT(*)
		FROM notifications
		WHERE user_id = $1
		GROUP BY status;
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to count notifications: %w", err)
	}
	defer rows.Close()

	var stats model.Stats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return model.Stats{}, fmt.Errorf("failed to scan notification count: %w", err)
		}

		switch status {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusSent:
			stats.Sent = count
		case model.StatusFailed:
			stats.Failed = count
		}
	}

	if err := rows.Err(); err != nil {
		return model.Stats{}, fmt.Errorf("failed to iterate notification counts: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (model.Notification, error) {
	var (
		n      model.Notification
		sentAt sql.NullTime
		errMsg sql.NullString
	)

	if err := s.Scan(
		&n.ID, &n.EventID, &n.SubscriptionID, &n.ContactID, &n.UserID, &n.ScheduledAt,
		&n.Status, &sentAt, &errMsg, &n.CreatedAt,
	); err != nil {
		return model.Notification{}, err
	}

	fillOptional(&n, sentAt, errMsg)
	return n, nil
}

func fillOptional(n *model.Notification, sentAt sql.NullTime, errMsg sql.NullString) {
	n.ScheduledAt = n.ScheduledAt.UTC()
	n.CreatedAt = n.CreatedAt.UTC()

	if sentAt.Valid {
		t := sentAt.Time.UTC()
		n.SentAt = &t
	}
	if errMsg.Valid {
		msg := errMsg.String
		n.ErrorMessage = &msg
	}
}
