package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `
    id, drinks, total_prep_time, created_at, started_at, completed_at, picked_up_at,
    status, customer_name, is_regular, loyalty_status, assigned_barista,
    estimated_wait_time, priority_score, priority_reason, display_position, complaint_filed`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	query := `
        INSERT INTO orders (` + orderColumns + `
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
        )
        ON CONFLICT (id) DO UPDATE SET
            drinks = EXCLUDED.drinks,
            total_prep_time = EXCLUDED.total_prep_time,
            started_at = EXCLUDED.started_at,
            completed_at = EXCLUDED.completed_at,
            picked_up_at = EXCLUDED.picked_up_at,
            status = EXCLUDED.status,
            customer_name = EXCLUDED.customer_name,
            is_regular = EXCLUDED.is_regular,
            loyalty_status = EXCLUDED.loyalty_status,
            assigned_barista = EXCLUDED.assigned_barista,
            estimated_wait_time = EXCLUDED.estimated_wait_time,
            priority_score = EXCLUDED.priority_score,
            priority_reason = EXCLUDED.priority_reason,
            display_position = EXCLUDED.display_position,
            complaint_filed = EXCLUDED.complaint_filed
    `
	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Drinks,
		order.TotalPrepTime,
		order.CreatedAt,
		order.StartedAt,
		order.CompletedAt,
		order.PickedUpAt,
		string(order.Status),
		order.CustomerName,
		order.IsRegular,
		string(order.LoyaltyStatus),
		order.AssignedBarista,
		order.EstimatedWaitTime,
		order.PriorityScore,
		order.PriorityReason,
		order.DisplayPosition,
		order.ComplaintFiled,
	)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY seq`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order   models.Order
		status  string
		loyalty string
	)
	err := row.Scan(
		&order.ID,
		&order.Drinks,
		&order.TotalPrepTime,
		&order.CreatedAt,
		&order.StartedAt,
		&order.CompletedAt,
		&order.PickedUpAt,
		&status,
		&order.CustomerName,
		&order.IsRegular,
		&loyalty,
		&order.AssignedBarista,
		&order.EstimatedWaitTime,
		&order.PriorityScore,
		&order.PriorityReason,
		&order.DisplayPosition,
		&order.ComplaintFiled,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	order.LoyaltyStatus = models.LoyaltyStatus(loyalty)
	return &order, nil
}
