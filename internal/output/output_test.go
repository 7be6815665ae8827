package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/brewqueue/internal/cloudwriter"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
)

var ts = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

func orderMessage(t *testing.T, number int32) []byte {
	t.Helper()
	msg, err := json.Marshal(OrderRecord{
		Timestamp:       ts.Unix(),
		RunID:           "run-1",
		TestCaseNumber:  1,
		OrderNumber:     number,
		ArrivalTime:     "t+3m",
		CustomerName:    "Ada Lovelace",
		LoyaltyStatus:   "GOLD",
		IsRegular:       true,
		AssignedBarista: 2,
		WaitTimeSeconds: 60,
		Status:          models.SimStatusCompleted,
		Drinks:          "LATTE,ESPRESSO",
	})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		partition string
		wantErr   bool
	}{
		{"unix seconds", `{"timestamp": 1709284500}`, "year=2024/month=03/day=01/hour=09", false},
		{"rfc3339", `{"timestamp": "2024-12-31T23:59:59Z"}`, "year=2024/month=12/day=31/hour=23", false},
		{"bad string", `{"timestamp": "yesterday"}`, "", true},
		{"missing", `{"id": 1}`, "", true},
		{"not json", `{`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, partition, err := decodeEvent([]byte(tt.msg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if partition != tt.partition {
				t.Errorf("partition = %q, want %q", partition, tt.partition)
			}
		})
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleOutput(&buf)
	if err := c.WriteMessage(models.TopicQueueUpdates, []byte(`{"sequence":1}`)); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "[queue_updates] {\"sequence\":1}\n"; got != want {
		t.Errorf("console wrote %q, want %q", got, want)
	}
}

func TestJSONOutput_PartitionsByTopicAndHour(t *testing.T) {
	root := t.TempDir()
	out := NewJSONOutput(localOpener(root))
	for i := int32(1); i <= 2; i++ {
		if err := out.WriteMessage(models.TopicSimulationOrders, orderMessage(t, i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "simulation_orders", "year=2024", "month=03", "day=01", "hour=09", "data.json"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var rec OrderRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.OrderNumber != 2 {
		t.Errorf("second line is order %d", rec.OrderNumber)
	}
}

func TestCSVOutput(t *testing.T) {
	root := t.TempDir()
	out := NewCSVOutput(localOpener(root))
	if err := out.WriteMessage(models.TopicSimulationOrders, orderMessage(t, 7)); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(root, "simulation_orders", "year=2024", "month=03", "day=01", "hour=09", "data.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header plus one", len(rows))
	}
	got := make(map[string]string)
	for i, h := range rows[0] {
		got[h] = rows[1][i]
	}
	want := map[string]string{
		"timestamp":       "1709284500",
		"runId":           "run-1",
		"testCaseNumber":  "1",
		"orderNumber":     "7",
		"arrivalTime":     "t+3m",
		"customerName":    "Ada Lovelace",
		"loyaltyStatus":   "GOLD",
		"isRegular":       "true",
		"assignedBarista": "2",
		"waitTimeSeconds": "60",
		"status":          "COMPLETED",
		"drinks":          "LATTE,ESPRESSO",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv row (-want +got):\n%s", diff)
	}
}

func TestParquetOutput_Local(t *testing.T) {
	root := t.TempDir()
	out := NewParquetOutput(root)
	if err := out.WriteMessage(models.TopicSimulationOrders, orderMessage(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := out.WriteMessage(models.TopicQueueUpdates, []byte(`{"timestamp": 1709284500}`)); err == nil {
		t.Error("expected an error for a topic without a parquet schema")
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(filepath.Join(root, "simulation_orders", "year=2024", "month=03", "day=01", "hour=09", "data.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("parquet file is empty")
	}
}

type fakeExecer struct {
	queries []string
	args    [][]interface{}
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, nil
}

func TestPostgresOutput_InsertsIntoFactTable(t *testing.T) {
	db := &fakeExecer{}
	out := &PostgresOutput{db: db}

	if err := out.WriteMessage(models.TopicSimulationOrders, orderMessage(t, 4)); err != nil {
		t.Fatal(err)
	}
	if len(db.queries) != 1 {
		t.Fatalf("got %d statements, want 1", len(db.queries))
	}
	wantQuery := "INSERT INTO fact_simulation_order (timestamp, run_id, test_case_number, order_number, " +
		"arrival_time, customer_name, loyalty_status, is_regular, assigned_barista, wait_time_seconds, status, drinks) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT DO NOTHING"
	if db.queries[0] != wantQuery {
		t.Errorf("query =\n%s\nwant\n%s", db.queries[0], wantQuery)
	}
	wantArgs := []interface{}{
		ts.Unix(), "run-1", int32(1), int32(4), "t+3m", "Ada Lovelace", "GOLD", true, int32(2), int64(60),
		models.SimStatusCompleted, "LATTE,ESPRESSO",
	}
	if diff := cmp.Diff(wantArgs, db.args[0]); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}

	if err := out.WriteMessage(models.TopicQueueUpdates, []byte(`{}`)); err == nil {
		t.Error("expected an error for a topic without a table")
	}
}

func TestPostgresOutput_SummaryColumns(t *testing.T) {
	db := &fakeExecer{}
	out := &PostgresOutput{db: db}
	msg, err := json.Marshal(SummaryRecord{
		Timestamp: ts.Unix(),
		RunID:     "run-1",
		SimulationSummary: models.SimulationSummary{
			TotalTestCases: 10,
			Barista1Total:  400,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := out.WriteMessage(models.TopicSimulationSummary, msg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(db.queries[0], "INSERT INTO fact_simulation_summary (timestamp, run_id, total_test_cases,") {
		t.Errorf("unexpected query %s", db.queries[0])
	}
	if !strings.Contains(db.queries[0], "barista1_total") {
		t.Errorf("summary query misses barista columns: %s", db.queries[0])
	}
}

func TestSnakeCaseKey(t *testing.T) {
	tests := map[string]string{
		"runId":              "run_id",
		"avgWaitTimeSeconds": "avg_wait_time_seconds",
		"barista2Orders":     "barista2_orders",
		"timestamp":          "timestamp",
	}
	for in, want := range tests {
		if got := snakeCaseKey(in); got != want {
			t.Errorf("snakeCaseKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(c *models.Config)
		want    string
		wantErr bool
	}{
		{"console by default", func(c *models.Config) {}, "*output.ConsoleOutput", false},
		{"console without a path", func(c *models.Config) { c.OutputFormat = "json" }, "*output.ConsoleOutput", false},
		{"local json", func(c *models.Config) {
			c.OutputFormat = "json"
			c.OutputPath = t.TempDir()
		}, "*output.JSONOutput", false},
		{"local csv", func(c *models.Config) {
			c.OutputFormat = "csv"
			c.OutputPath = t.TempDir()
		}, "*output.CSVOutput", false},
		{"local parquet", func(c *models.Config) {
			c.OutputFormat = "parquet"
			c.OutputPath = t.TempDir()
		}, "*output.ParquetOutput", false},
		{"unknown format", func(c *models.Config) {
			c.OutputFormat = "xml"
			c.OutputPath = t.TempDir()
		}, "", true},
		{"unknown destination", func(c *models.Config) { c.OutputDestination = "ftp" }, "", true},
		{"unknown cloud provider", func(c *models.Config) {
			c.OutputDestination = "cloud"
			c.CloudStorage.Provider = "gcs"
		}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tt.cfg(cfg)
			dest, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer dest.Close()
			if got := fmt.Sprintf("%T", dest); got != tt.want {
				t.Errorf("New() = %s, want %s", got, tt.want)
			}
		})
	}
}


type memoryObject struct {
	bytes.Buffer
	closed bool
}

func (m *memoryObject) Close() error {
	m.closed = true
	return nil
}

type memoryBucket struct {
	objects map[string]*memoryObject
}

func (b *memoryBucket) NewWriter(bucket, objectPath string) (cloudwriter.CloudWriter, error) {
	if b.objects == nil {
		b.objects = make(map[string]*memoryObject)
	}
	obj := &memoryObject{}
	b.objects[bucket+"/"+objectPath] = obj
	return obj, nil
}

func TestCloudOutputs(t *testing.T) {
	bucket := &memoryBucket{}

	jsonOut := NewJSONOutput(cloudOpener(bucket, "reports", "simulations"))
	if err := jsonOut.WriteMessage(models.TopicSimulationOrders, orderMessage(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := jsonOut.Close(); err != nil {
		t.Fatal(err)
	}

	parquetOut := NewCloudParquetOutput(bucket, "reports", "simulations")
	if err := parquetOut.WriteMessage(models.TopicSimulationOrders, orderMessage(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := parquetOut.Close(); err != nil {
		t.Fatal(err)
	}

	partition := "simulation_orders/year=2024/month=03/day=01/hour=09/"
	for _, name := range []string{"data.json", "data.parquet"} {
		obj, ok := bucket.objects["reports/simulations/"+partition+name]
		if !ok {
			t.Fatalf("no object written for %s", name)
		}
		if !obj.closed || obj.Len() == 0 {
			t.Errorf("%s: closed=%v size=%d", name, obj.closed, obj.Len())
		}
	}
	if got := bucket.objects["reports/simulations/"+partition+"data.parquet"].Bytes(); !bytes.HasPrefix(got, []byte("PAR1")) {
		t.Errorf("parquet object does not start with the PAR1 magic")
	}
}
