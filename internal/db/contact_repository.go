package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chat-log-server/internal/models"
)

// ContactRepository defines the interface for contact directory data access
type ContactRepository interface {
	Upsert(ctx context.Context, contact *models.Contact) error
	GetByPhone(ctx context.Context, phone string) (*models.Contact, error)
	List(ctx context.Context) ([]*models.Contact, error)
}

type contactRepository struct {
	db *Database
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *Database) ContactRepository {
	return &contactRepository{db: db}
}

// Upsert creates or replaces the override for contact.Phone. CreatedAt is
// kept from the first insert and reloaded into contact.
func (r *contactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	if contact == nil {
		return fmt.Errorf("contact cannot be nil")
	}
	if contact.Phone == "" {
		return fmt.Errorf("contact phone cannot be empty")
	}
	conn, err := r.db.conn()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO contacts (phone, display_name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (phone) DO UPDATE SET
			display_name = excluded.display_name,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING created_at, updated_at
	`)

	var createdAt, updatedAt int64
	err = conn.QueryRowContext(ctx, query,
		contact.Phone,
		contact.DisplayName,
		contact.Notes,
		toMillis(now),
		toMillis(now),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}

	contact.CreatedAt = fromMillis(createdAt)
	contact.UpdatedAt = fromMillis(updatedAt)
	return nil
}

// GetByPhone retrieves the override for phone
func (r *contactRepository) GetByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	if phone == "" {
		return nil, fmt.Errorf("contact phone cannot be empty")
	}
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`
		SELECT phone, display_name, notes, created_at, updated_at
		FROM contacts
		WHERE phone = ?
	`)

	contact, err := scanContact(conn.QueryRowContext(ctx, query, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// List returns every override ordered by phone
func (r *contactRepository) List(ctx context.Context) ([]*models.Contact, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT phone, display_name, notes, created_at, updated_at
		FROM contacts
		ORDER BY phone
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		contact              models.Contact
		createdAt, updatedAt int64
	)
	if err := row.Scan(&contact.Phone, &contact.DisplayName, &contact.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	contact.CreatedAt = fromMillis(createdAt)
	contact.UpdatedAt = fromMillis(updatedAt)
	return &contact, nil
}
