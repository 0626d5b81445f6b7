// internal/infra/database/postgres_delivery_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"studio_alert_bot/internal/domain/alert"

	"github.com/lib/pq"
)

type PostgresDeliveryRepository struct {
	db *sql.DB
}

func NewPostgresDeliveryRepository(db *sql.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

// RecordDelivery is idempotent per (alert_id, chat_id).
func (r *PostgresDeliveryRepository) RecordDelivery(ctx context.Context, d *alert.Delivery) error {
	query := `INSERT INTO alert_deliveries (alert_id, chat_id, delivered_at)
               VALUES ($1, $2, $3)
               ON CONFLICT ON CONSTRAINT alert_deliveries_alert_chat_unique
               DO UPDATE SET delivered_at = EXCLUDED.delivered_at
               RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, d.AlertID, d.ChatID, d.DeliveredAt).Scan(&d.ID); err != nil {
		return fmt.Errorf("error recording delivery of %s to chat %d: %w", d.AlertID, d.ChatID, err)
	}
	return nil
}

func (r *PostgresDeliveryRepository) ListDelivered(ctx context.Context, chatID int64, alertIDs []string) (map[string]bool, error) {
	delivered := make(map[string]bool)
	if len(alertIDs) == 0 {
		return delivered, nil
	}

	query := `SELECT alert_id FROM alert_deliveries
               WHERE chat_id = $1 AND alert_id = ANY($2::varchar[])`
	rows, err := r.db.QueryContext(ctx, query, chatID, pq.Array(alertIDs))
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries for chat %d: %w", chatID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning delivery: %w", err)
		}
		delivered[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deliveries: %w", err)
	}
	return delivered, nil
}

func (r *PostgresDeliveryRepository) PruneInactive(ctx context.Context, activeIDs []string) (int64, error) {
	query := `DELETE FROM alert_deliveries WHERE NOT (alert_id = ANY($1::varchar[]))`
	res, err := r.db.ExecContext(ctx, query, pq.Array(activeIDs))
	if err != nil {
		return 0, fmt.Errorf("error pruning deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading pruned row count: %w", err)
	}
	return n, nil
}
