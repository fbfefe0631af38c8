package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"chat-log-server/internal/models"
)

// MessageRepository defines the interface for message log data access
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	ListByPhone(ctx context.Context, phone string, order models.MessageOrder, limit, offset int) ([]*models.Message, error)
	ListAll(ctx context.Context) ([]*models.Message, error)
	LatestClientName(ctx context.Context, phone string) (*string, error)
	LatestInboundAt(ctx context.Context, phone string) (*time.Time, error)
	Patch(ctx context.Context, id int64, patch models.MessagePatch) (*models.Message, error)
	SetDeliveryStatus(ctx context.Context, providerMessageID string, status models.DeliveryStatus) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteByPhone(ctx context.Context, phone string) (int64, error)
}

const messageColumns = `id, phone, client_name, direction, body, media_url, automation_tag,
	provider_message_id, sent_at, follow_up_needed, handled_by, notes, delivery_status`

type messageRepository struct {
	db *Database
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *Database) MessageRepository {
	return &messageRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg                                           models.Message
		clientName, mediaURL, automationTag, provider sql.NullString
		handledBy, notes, deliveryStatus              sql.NullString
		direction                                     string
		sentAt                                        int64
	)

	err := row.Scan(
		&msg.ID,
		&msg.Phone,
		&clientName,
		&direction,
		&msg.Body,
		&mediaURL,
		&automationTag,
		&provider,
		&sentAt,
		&msg.FollowUpNeeded,
		&handledBy,
		&notes,
		&deliveryStatus,
	)
	if err != nil {
		return nil, err
	}

	msg.ClientName = stringPtr(clientName)
	msg.Direction = models.Direction(direction)
	msg.MediaURL = stringPtr(mediaURL)
	msg.AutomationTag = stringPtr(automationTag)
	msg.ProviderMessageID = stringPtr(provider)
	msg.Timestamp = fromMillis(sentAt)
	msg.HandledBy = stringPtr(handledBy)
	msg.Notes = stringPtr(notes)
	if deliveryStatus.Valid {
		status := models.DeliveryStatus(deliveryStatus.String)
		msg.DeliveryStatus = &status
	}

	return &msg, nil
}

// Create stores msg and sets its database-assigned ID. The ID comes from the
// auto-increment column, so concurrent creates never share one.
func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	conn, err := r.db.conn()
	if err != nil {
		return err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	var status sql.NullString
	if msg.DeliveryStatus != nil {
		status = sql.NullString{String: string(*msg.DeliveryStatus), Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO messages (phone, client_name, direction, body, media_url, automation_tag,
			provider_message_id, sent_at, follow_up_needed, handled_by, notes, delivery_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err = conn.QueryRowContext(ctx, query,
		msg.Phone,
		nullString(msg.ClientName),
		string(msg.Direction),
		msg.Body,
		nullString(msg.MediaURL),
		nullString(msg.AutomationTag),
		nullString(msg.ProviderMessageID),
		toMillis(msg.Timestamp),
		msg.FollowUpNeeded,
		nullString(msg.HandledBy),
		nullString(msg.Notes),
		status,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *messageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`SELECT ` + messageColumns + ` FROM messages WHERE id = ?`)

	msg, err := scanMessage(conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}

	return msg, nil
}

// ListByPhone returns a phone's messages oldest first. A non-positive limit
// returns everything from offset on.
func (r *messageRepository) ListByPhone(ctx context.Context, phone string, order models.MessageOrder, limit, offset int) ([]*models.Message, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative")
	}
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	orderBy := "sent_at ASC, id ASC"
	if order == models.OrderByID {
		orderBy = "id ASC"
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE phone = ? ORDER BY ` + orderBy
	args := []interface{}{phone}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	} else if offset > 0 {
		if r.db.Dialect() == DialectPostgres {
			query += ` OFFSET ?`
		} else {
			query += ` LIMIT -1 OFFSET ?`
		}
		args = append(args, offset)
	}

	return r.query(ctx, conn, r.db.Rebind(query), args...)
}

// ListAll returns every message grouped by phone, newest first within a
// phone. Equal timestamps are broken by the higher id.
func (r *messageRepository) ListAll(ctx context.Context) ([]*models.Message, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY phone ASC, sent_at DESC, id DESC`
	return r.query(ctx, conn, query)
}

func (r *messageRepository) query(ctx context.Context, conn *sql.DB, query string, args ...interface{}) ([]*models.Message, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// LatestClientName returns the most recent non-empty client name logged for phone.
func (r *messageRepository) LatestClientName(ctx context.Context, phone string) (*string, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`
		SELECT client_name FROM messages
		WHERE phone = ? AND client_name IS NOT NULL AND client_name <> ''
		ORDER BY sent_at DESC, id DESC
		LIMIT 1
	`)

	var name string
	err = conn.QueryRowContext(ctx, query, phone).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client name: %w", err)
	}
	return &name, nil
}

// LatestInboundAt returns the timestamp of the newest user message for phone.
func (r *messageRepository) LatestInboundAt(ctx context.Context, phone string) (*time.Time, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	query := r.db.Rebind(`SELECT MAX(sent_at) FROM messages WHERE phone = ? AND direction = ?`)

	var sentAt sql.NullInt64
	if err := conn.QueryRowContext(ctx, query, phone, string(models.DirectionUser)).Scan(&sentAt); err != nil {
		return nil, fmt.Errorf("failed to get latest inbound message: %w", err)
	}
	if !sentAt.Valid {
		return nil, nil
	}
	ts := fromMillis(sentAt.Int64)
	return &ts, nil
}

// Patch applies the non-nil fields of patch in one statement and returns the
// updated row, or nil if no message has that id.
func (r *messageRepository) Patch(ctx context.Context, id int64, patch models.MessagePatch) (*models.Message, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	var (
		sets []string
		args []interface{}
	)
	if patch.FollowUpNeeded != nil {
		sets = append(sets, "follow_up_needed = ?")
		args = append(args, *patch.FollowUpNeeded)
	}
	if patch.HandledBy != nil {
		sets = append(sets, "handled_by = ?")
		args = append(args, *patch.HandledBy)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	update := r.db.Rebind(`UPDATE messages SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	result, err := tx.ExecContext(ctx, update, append(args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}

	selectQuery := r.db.Rebind(`SELECT ` + messageColumns + ` FROM messages WHERE id = ?`)
	msg, err := scanMessage(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		return nil, fmt.Errorf("failed to reload message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message update: %w", err)
	}

	return msg, nil
}

// SetDeliveryStatus stamps status on every message carrying providerMessageID
// and returns how many matched.
func (r *messageRepository) SetDeliveryStatus(ctx context.Context, providerMessageID string, status models.DeliveryStatus) (int64, error) {
	if providerMessageID == "" {
		return 0, fmt.Errorf("provider message ID cannot be empty")
	}
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	query := r.db.Rebind(`UPDATE messages SET delivery_status = ? WHERE provider_message_id = ?`)
	result, err := conn.ExecContext(ctx, query, string(status), providerMessageID)
	if err != nil {
		return 0, fmt.Errorf("failed to update delivery status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// Delete removes a message by ID
func (r *messageRepository) Delete(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM messages WHERE id = ?`, id)
}

// DeleteByPhone removes a phone's whole conversation
func (r *messageRepository) DeleteByPhone(ctx context.Context, phone string) (int64, error) {
	if phone == "" {
		return 0, fmt.Errorf("phone cannot be empty")
	}
	return r.exec(ctx, `DELETE FROM messages WHERE phone = ?`, phone)
}

func (r *messageRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}

	result, err := conn.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
