package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/Juanes7222/AppNotify/internal/model"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Repository reads contacts and the users that own them.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new contact repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// GetContactByID retrieves a contact by its ID.
func (r *Repository) GetContactByID(ctx context.Context, id uuid.UUID) (model.Contact, error) {
	query := `
		SELECT id, user_id, name, email, phone, notes, created_at
		FROM contacts
		WHERE id = $1;
    `

	var (
		c     model.Contact
		phone sql.NullString
		notes sql.NullString
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &phone, &notes, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Contact{}, ErrContactNotFound
		}

		return model.Contact{}, fmt.Errorf("failed to get contact: %w", err)
	}

	c.Phone = phone.String
	c.Notes = notes.String
	c.CreatedAt = c.CreatedAt.UTC()

	return c, nil
}

// GetUserByID retrieves a user by its ID.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `
		SELECT id, email, display_name, timezone
		FROM users
		WHERE id = $1;
    `

	var (
		u           model.User
		displayName sql.NullString
		timezone    sql.NullString
	)

	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &displayName, &timezone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	u.DisplayName = displayName.String
	u.Timezone = timezone.String

	return u, nil
}
