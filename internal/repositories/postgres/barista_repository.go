package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BaristaRepository struct {
	pool *pgxpool.Pool
}

func NewBaristaRepository(pool *pgxpool.Pool) *BaristaRepository {
	return &BaristaRepository{pool: pool}
}

func (r *BaristaRepository) Save(ctx context.Context, barista *models.Barista) error {
	query := `
        INSERT INTO baristas (
            id, name, current_order, busy_until, total_work_minutes, completed_count, workload_ratio
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            current_order = EXCLUDED.current_order,
            busy_until = EXCLUDED.busy_until,
            total_work_minutes = EXCLUDED.total_work_minutes,
            completed_count = EXCLUDED.completed_count,
            workload_ratio = EXCLUDED.workload_ratio
    `
	_, err := r.pool.Exec(ctx, query,
		barista.ID,
		barista.Name,
		barista.CurrentOrder,
		barista.BusyUntil,
		barista.TotalWorkMinutes,
		barista.CompletedCount,
		barista.WorkloadRatio,
	)
	if err != nil {
		return fmt.Errorf("failed to save barista %d: %w", barista.ID, err)
	}
	return nil
}

func (r *BaristaRepository) Get(ctx context.Context, id int) (*models.Barista, error) {
	query := `
        SELECT id, name, current_order, busy_until, total_work_minutes, completed_count, workload_ratio
        FROM baristas WHERE id = $1
    `
	var b models.Barista
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.CurrentOrder, &b.BusyUntil, &b.TotalWorkMinutes, &b.CompletedCount, &b.WorkloadRatio,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("barista %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get barista %d: %w", id, err)
	}
	return &b, nil
}

func (r *BaristaRepository) List(ctx context.Context) ([]*models.Barista, error) {
	query := `
        SELECT id, name, current_order, busy_until, total_work_minutes, completed_count, workload_ratio
        FROM baristas ORDER BY id
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list baristas: %w", err)
	}
	defer rows.Close()

	var baristas []*models.Barista
	for rows.Next() {
		var b models.Barista
		if err := rows.Scan(&b.ID, &b.Name, &b.CurrentOrder, &b.BusyUntil, &b.TotalWorkMinutes, &b.CompletedCount, &b.WorkloadRatio); err != nil {
			return nil, err
		}
		baristas = append(baristas, &b)
	}
	return baristas, rows.Err()
}
