package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"gymconnect/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the conversation store: leads and append-only
// conversation turns. Every operation is a single independent statement;
// there are no multi-statement transactions.
type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(initialSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// UpsertLead inserts a lead on first contact. On subsequent contacts it
// fills user_name and phone only where the stored value is still null;
// a value once set is never overwritten and never cleared. created_at
// is kept while the lead status is still 'new' and re-touched otherwise.
func (d *Database) UpsertLead(ctx context.Context, platform models.Platform, userID string, userName, phone *string) error {
	query := `
		INSERT INTO leads (platform, user_id, user_name, phone, status)
		VALUES (?, ?, ?, ?, 'new')
		ON CONFLICT(platform, user_id) DO UPDATE SET
			user_name = COALESCE(leads.user_name, excluded.user_name),
			phone = COALESCE(leads.phone, excluded.phone),
			created_at = CASE
				WHEN leads.status = 'new' THEN leads.created_at
				ELSE CURRENT_TIMESTAMP
			END
	`

	if _, err := d.db.ExecContext(ctx, query, platform, userID, userName, phone); err != nil {
		return fmt.Errorf("failed to upsert lead: %w", err)
	}

	return nil
}

// AppendTurn records one processed inbound message together with the
// reply that was generated for it. Pure insert.
func (d *Database) AppendTurn(ctx context.Context, platform models.Platform, userID, messageText, responseText string, transferredToHuman bool) (int64, error) {
	query := `
		INSERT INTO conversations (platform, user_id, message_text, response_text, transferred_to_human)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query, platform, userID, messageText, responseText, transferredToHuman)
	if err != nil {
		return 0, fmt.Errorf("failed to append conversation turn: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted turn id: %w", err)
	}

	return id, nil
}

// GetRecentHistory returns up to limit most recent turns for the
// conversation key, in chronological (oldest first) order. The id
// tiebreak keeps ordering stable for turns inserted within the same
// second.
func (d *Database) GetRecentHistory(ctx context.Context, platform models.Platform, userID string, limit int) ([]models.ConversationTurn, error) {
	query := `
		SELECT id, platform, user_id, message_text, response_text, transferred_to_human, created_at
		FROM conversations
		WHERE platform = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, platform, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var turns []models.ConversationTurn
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(
			&turn.ID,
			&turn.Platform,
			&turn.UserID,
			&turn.MessageText,
			&turn.ResponseText,
			&turn.TransferredToHuman,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversation history: %w", err)
	}

	// The query returns newest first; callers need chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// UpdateLeadStatus is an administrative mutation outside the message
// pipeline. Notes are only replaced when a non-nil value is given.
func (d *Database) UpdateLeadStatus(ctx context.Context, platform models.Platform, userID, status string, notes *string) error {
	query := `
		UPDATE leads
		SET status = ?, notes = COALESCE(?, notes)
		WHERE platform = ? AND user_id = ?
	`

	result, err := d.db.ExecContext(ctx, query, status, notes, platform, userID)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no lead found for %s/%s", platform, userID)
	}

	return nil
}

// GetLead retrieves a lead by conversation key. Returns nil without
// error when the lead does not exist.
func (d *Database) GetLead(ctx context.Context, platform models.Platform, userID string) (*models.Lead, error) {
	query := `
		SELECT id, platform, user_id, user_name, phone, status, notes, created_at
		FROM leads
		WHERE platform = ? AND user_id = ?
	`

	lead := &models.Lead{}
	err := d.db.QueryRowContext(ctx, query, platform, userID).Scan(
		&lead.ID,
		&lead.Platform,
		&lead.UserID,
		&lead.UserName,
		&lead.Phone,
		&lead.Status,
		&lead.Notes,
		&lead.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}
