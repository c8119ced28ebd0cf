package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailfwd/internal/model"
)

// ForwardingConfigRepository persists per-domain forwarding configs. The
// domain key is lowercased on every access, so two configs can never differ
// only by case. Single-statement writes keep replacement atomic and
// serialize concurrent updates to the same domain on the row lock.
type ForwardingConfigRepository struct {
	db *pgxpool.Pool
}

func NewForwardingConfigRepository(db *pgxpool.Pool) *ForwardingConfigRepository {
	return &ForwardingConfigRepository{db: db}
}

// Upsert replaces the whole record for the domain. Callers that want a
// partial update must read-modify-write.
func (r *ForwardingConfigRepository) Upsert(ctx context.Context, cfg *model.ForwardingConfig) error {
	query := `
        INSERT INTO forwarding_configs (domain, forward_to, verification_token, status, enabled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (domain) DO UPDATE SET
            forward_to = EXCLUDED.forward_to,
            verification_token = EXCLUDED.verification_token,
            status = EXCLUDED.status,
            enabled = EXCLUDED.enabled,
            created_at = EXCLUDED.created_at
    `
	_, err := r.db.Exec(ctx, query,
		strings.ToLower(cfg.Domain),
		cfg.ForwardTo,
		cfg.VerificationToken,
		cfg.Status,
		cfg.Enabled,
		cfg.CreatedAt,
	)
	return err
}

// Find returns the config for the domain, or nil when none exists.
func (r *ForwardingConfigRepository) Find(ctx context.Context, domain string) (*model.ForwardingConfig, error) {
	query := `
        SELECT domain, forward_to, verification_token, status, enabled, created_at
        FROM forwarding_configs
        WHERE domain = $1
    `
	var cfg model.ForwardingConfig
	err := r.db.QueryRow(ctx, query, strings.ToLower(domain)).Scan(
		&cfg.Domain,
		&cfg.ForwardTo,
		&cfg.VerificationToken,
		&cfg.Status,
		&cfg.Enabled,
		&cfg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns all configs ordered by creation time.
func (r *ForwardingConfigRepository) List(ctx context.Context) ([]model.ForwardingConfig, error) {
	query := `
        SELECT domain, forward_to, verification_token, status, enabled, created_at
        FROM forwarding_configs
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []model.ForwardingConfig{}
	for rows.Next() {
		var cfg model.ForwardingConfig
		if err := rows.Scan(
			&cfg.Domain,
			&cfg.ForwardTo,
			&cfg.VerificationToken,
			&cfg.Status,
			&cfg.Enabled,
			&cfg.CreatedAt,
		); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Delete removes the config and reports whether one existed.
func (r *ForwardingConfigRepository) Delete(ctx context.Context, domain string) (bool, error) {
	query := `
        DELETE FROM forwarding_configs
        WHERE domain = $1
    `
	tag, err := r.db.Exec(ctx, query, strings.ToLower(domain))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateEnabled flips the kill switch. False when no config exists.
func (r *ForwardingConfigRepository) UpdateEnabled(ctx context.Context, domain string, enabled bool) (bool, error) {
	query := `
        UPDATE forwarding_configs
        SET enabled = $1
        WHERE domain = $2
    `
	tag, err := r.db.Exec(ctx, query, enabled, strings.ToLower(domain))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus sets the verification status. False when no config exists.
func (r *ForwardingConfigRepository) UpdateStatus(ctx context.Context, domain, status string) (bool, error) {
	query := `
        UPDATE forwarding_configs
        SET status = $1
        WHERE domain = $2
    `
	tag, err := r.db.Exec(ctx, query, status, strings.ToLower(domain))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
