package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sapira-io/triage/internal/domain"
)

// TicketRepository implements domain.TicketRepository
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{pool: db.Pool}
}

// Create inserts a new ticket audit record
func (r *TicketRepository) Create(ctx context.Context, record *domain.TicketRecord) error {
	query := `
		INSERT INTO created_tickets (id, conversation_id, user_id, user_name, ticket_key, ticket_url, title, priority, labels, assignee_team, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.ConversationID,
		record.UserID,
		record.UserName,
		record.TicketKey,
		record.TicketURL,
		record.Title,
		string(record.Priority),
		record.Labels,
		record.AssigneeTeam,
		string(record.Confidence),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket record: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recently created tickets, newest first
func (r *TicketRepository) ListRecent(ctx context.Context, limit int) ([]domain.TicketRecord, error) {
	query := `
		SELECT id, conversation_id, user_id, user_name, ticket_key, ticket_url, title, priority, labels, assignee_team, confidence, created_at
		FROM created_tickets
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByConversation retrieves tickets created from one conversation thread
func (r *TicketRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.TicketRecord, error) {
	query := `
		SELECT id, conversation_id, user_id, user_name, ticket_key, ticket_url, title, priority, labels, assignee_team, confidence, created_at
		FROM created_tickets
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
}

func scanRecords(rows rowScanner) ([]domain.TicketRecord, error) {
	var records []domain.TicketRecord
	for rows.Next() {
		var rec domain.TicketRecord
		var priority, confidence string

		if err := rows.Scan(
			&rec.ID,
			&rec.ConversationID,
			&rec.UserID,
			&rec.UserName,
			&rec.TicketKey,
			&rec.TicketURL,
			&rec.Title,
			&priority,
			&rec.Labels,
			&rec.AssigneeTeam,
			&confidence,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket record: %w", err)
		}
		rec.Priority = domain.TicketPriority(priority)
		rec.Confidence = domain.Confidence(confidence)
		records = append(records, rec)
	}
	return records, nil
}
