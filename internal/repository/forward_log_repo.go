package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailfwd/internal/model"
)

type ForwardLogRepository struct {
	db *pgxpool.Pool
}

func NewForwardLogRepository(db *pgxpool.Pool) *ForwardLogRepository {
	return &ForwardLogRepository{db: db}
}

// Insert records one forward attempt.
func (r *ForwardLogRepository) Insert(ctx context.Context, l *model.ForwardLog) (int, error) {
	query := `
        INSERT INTO forward_logs (domain, sender, recipient, subject, message_id, status, relay_message_id, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		strings.ToLower(l.Domain),
		l.Sender,
		l.Recipient,
		l.Subject,
		l.MessageID,
		l.Status,
		l.RelayMessageID,
		l.Error,
	).Scan(&id)
	return id, err
}

// ListByDomain returns the most recent forward attempts for a domain.
func (r *ForwardLogRepository) ListByDomain(ctx context.Context, domain string, limit int) ([]model.ForwardLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, domain, sender, recipient, subject, message_id, status, relay_message_id, error, created_at
        FROM forward_logs
        WHERE domain = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, strings.ToLower(domain), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.ForwardLog{}
	for rows.Next() {
		var l model.ForwardLog
		if err := rows.Scan(
			&l.ID,
			&l.Domain,
			&l.Sender,
			&l.Recipient,
			&l.Subject,
			&l.MessageID,
			&l.Status,
			&l.RelayMessageID,
			&l.Error,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
