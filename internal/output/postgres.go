package output

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/repositories/postgres"
	"github.com/jackc/pgx/v5/pgconn"
)

const simulationSchema = `
CREATE TABLE IF NOT EXISTS fact_simulation_order (
    timestamp         BIGINT NOT NULL,
    run_id            TEXT NOT NULL,
    test_case_number  INTEGER NOT NULL,
    order_number      INTEGER NOT NULL,
    arrival_time      TEXT NOT NULL,
    customer_name     TEXT NOT NULL,
    loyalty_status    TEXT NOT NULL,
    is_regular        BOOLEAN NOT NULL,
    assigned_barista  INTEGER NOT NULL,
    wait_time_seconds BIGINT NOT NULL,
    status            TEXT NOT NULL,
    drinks            TEXT NOT NULL,
    PRIMARY KEY (run_id, test_case_number, order_number)
);

CREATE TABLE IF NOT EXISTS fact_simulation_test_case (
    timestamp             BIGINT NOT NULL,
    run_id                TEXT NOT NULL,
    test_case_number      INTEGER NOT NULL,
    total_orders          INTEGER NOT NULL,
    served_orders         INTEGER NOT NULL,
    avg_wait_time_seconds DOUBLE PRECISION NOT NULL,
    barista1_orders       INTEGER NOT NULL,
    barista2_orders       INTEGER NOT NULL,
    barista3_orders       INTEGER NOT NULL,
    complaints            INTEGER NOT NULL,
    abandoned             INTEGER NOT NULL,
    timeout_rate          DOUBLE PRECISION NOT NULL,
    abandonment_rate      DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, test_case_number)
);

CREATE TABLE IF NOT EXISTS fact_simulation_summary (
    timestamp             BIGINT NOT NULL,
    run_id                TEXT PRIMARY KEY,
    total_test_cases      BIGINT NOT NULL,
    total_orders          BIGINT NOT NULL,
    avg_wait_time_seconds DOUBLE PRECISION NOT NULL,
    total_complaints      BIGINT NOT NULL,
    total_abandoned       BIGINT NOT NULL,
    avg_timeout_rate      DOUBLE PRECISION NOT NULL,
    avg_abandon_rate      DOUBLE PRECISION NOT NULL,
    barista1_total        BIGINT NOT NULL,
    barista2_total        BIGINT NOT NULL,
    barista3_total        BIGINT NOT NULL,
    workload_balance      DOUBLE PRECISION NOT NULL
);
`

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PostgresOutput inserts simulation records into one fact table per topic.
type PostgresOutput struct {
	db    execer
	close func()
}

func NewPostgresOutput(ctx context.Context, config models.DatabaseConfig) (*PostgresOutput, error) {
	pool, err := postgres.NewPool(ctx, config.DSN, config.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if _, err := pool.Exec(ctx, simulationSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create simulation tables: %w", err)
	}
	return &PostgresOutput{db: pool, close: pool.Close}, nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	table, err := topicToTable(topic)
	if err != nil {
		return err
	}
	rec, err := newRecord(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, rec); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", topic, err)
	}

	cols, vals, placeholders := buildInsertComponents(rec)
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table,
		cols,
		placeholders,
	)

	if _, err := p.db.Exec(context.Background(), query, vals...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}

func topicToTable(topic string) (string, error) {
	tableMap := map[string]string{
		models.TopicSimulationOrders:    "fact_simulation_order",
		models.TopicSimulationTestCases: "fact_simulation_test_case",
		models.TopicSimulationSummary:   "fact_simulation_summary",
	}
	if table, ok := tableMap[topic]; ok {
		return table, nil
	}
	return "", fmt.Errorf("no table for topic: %s", topic)
}

// buildInsertComponents lists the record's fields in declaration order as
// snake_case columns with matching values and placeholders.
func buildInsertComponents(rec interface{}) (string, []interface{}, string) {
	v := reflect.Indirect(reflect.ValueOf(rec))
	t := v.Type()

	var columns, placeholders []string
	var values []interface{}
	for i := 0; i < t.NumField(); i++ {
		key, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if key == "" || key == "-" {
			continue
		}
		columns = append(columns, snakeCaseKey(key))
		values = append(values, v.Field(i).Interface())
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(values)))
	}

	return strings.Join(columns, ", "),
		values,
		strings.Join(placeholders, ", ")
}

func snakeCaseKey(key string) string {
	var result strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
