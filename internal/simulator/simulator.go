// Package simulator replays synthetic peak-hour shifts against three simulated
// baristas and reports wait, abandonment and workload figures per test case.
package simulator

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/chrisdamba/brewqueue/internal/clock"
	"github.com/chrisdamba/brewqueue/internal/factories"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/output"
	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusCompleted      RunStatus = "completed"
	RunStatusAlreadyRunning RunStatus = "already_running"
	RunStatusCancelled      RunStatus = "cancelled"
)

// BaristaResetter is the live pool a run resets before every test case.
type BaristaResetter interface {
	ResetBaristas(ctx context.Context)
}

type Options struct {
	Seed      int64
	TestCases int
	Clock     clock.Clock
	Logger    *slog.Logger
	// Output receives every order, test case and summary record. Optional.
	Output   output.Destination
	Resetter BaristaResetter
	// Progress is called after each test case.
	Progress func(completed, total int)
	NewRunID func() string
}

// Report is the outcome of one run.
type Report struct {
	RunID     string                   `json:"runId"`
	TestCases []models.TestCaseResult  `json:"testCases"`
	Summary   models.SimulationSummary `json:"summary"`
}

type Simulator struct {
	opts    Options
	clock   clock.Clock
	logger  *slog.Logger
	running atomic.Bool

	mu        sync.RWMutex
	results   []models.TestCaseResult
	completed int
	runID     string
}

func New(opts Options) *Simulator {
	if opts.TestCases <= 0 {
		opts.TestCases = 10
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Simulator{
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger.With("component", "simulator"),
	}
}

// Run executes one pass of every test case. Only one run may be in flight;
// a concurrent call returns RunStatusAlreadyRunning and a nil report.
// Every run draws from a fresh generator seeded with Options.Seed, so two
// runs with the same seed produce identical order details.
func (s *Simulator) Run(ctx context.Context) (RunStatus, *Report) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("simulation already running")
		return RunStatusAlreadyRunning, nil
	}
	defer s.running.Store(false)

	runID := s.opts.NewRunID()
	s.mu.Lock()
	s.results = nil
	s.completed = 0
	s.runID = runID
	s.mu.Unlock()

	rng := rand.New(rand.NewSource(s.opts.Seed))
	factory := factories.NewOrderFactory(rng)
	logger := s.logger.With("run_id", runID)
	logger.Info("simulation started", "seed", s.opts.Seed, "test_cases", s.opts.TestCases)

	for n := 1; n <= s.opts.TestCases; n++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("simulation cancelled", "completed", n-1, "error", err)
			return RunStatusCancelled, s.report(runID)
		}
		if s.opts.Resetter != nil {
			s.opts.Resetter.ResetBaristas(ctx)
		}

		count := 120 + rng.Intn(61)
		result := runTestCase(n, factory, count, s.clock.Now())

		s.mu.Lock()
		s.results = append(s.results, result)
		s.completed = n
		s.mu.Unlock()

		s.emitTestCase(runID, result)
		logger.Debug("test case finished",
			"test_case", n,
			"orders", result.TotalOrders,
			"avg_wait_seconds", result.AvgWaitTimeSeconds,
			"abandoned", result.Abandoned,
			"complaints", result.Complaints)
		if s.opts.Progress != nil {
			s.opts.Progress(n, s.opts.TestCases)
		}
	}

	report := s.report(runID)
	s.emit(models.TopicSimulationSummary, output.SummaryRecord{
		Timestamp:         s.clock.Now().Unix(),
		RunID:             runID,
		SimulationSummary: report.Summary,
	})
	logger.Info("simulation completed",
		"orders", report.Summary.TotalOrders,
		"avg_wait_seconds", report.Summary.AvgWaitTimeSeconds,
		"workload_balance", report.Summary.WorkloadBalance)
	return RunStatusCompleted, report
}

func (s *Simulator) report(runID string) *Report {
	results := s.Results()
	return &Report{RunID: runID, TestCases: results, Summary: Summarize(results)}
}

// Results returns the test cases of the current or last run.
func (s *Simulator) Results() []models.TestCaseResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TestCaseResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Simulator) IsRunning() bool {
	return s.running.Load()
}

func (s *Simulator) CompletedTests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// RunID identifies the current or last run; empty before the first run.
func (s *Simulator) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

func (s *Simulator) Summary() models.SimulationSummary {
	return Summarize(s.Results())
}

func (s *Simulator) emitTestCase(runID string, result models.TestCaseResult) {
	if s.opts.Output == nil {
		return
	}
	ts := s.clock.Now().Unix()
	for _, d := range result.Orders {
		s.emit(models.TopicSimulationOrders, newOrderRecord(ts, runID, result.TestCaseNumber, d))
	}
	s.emit(models.TopicSimulationTestCases, newTestCaseRecord(ts, runID, result))
}

func (s *Simulator) emit(topic string, record interface{}) {
	if s.opts.Output == nil {
		return
	}
	msg, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("failed to serialize record", "topic", topic, "error", err)
		return
	}
	if err := s.opts.Output.WriteMessage(topic, msg); err != nil {
		s.logger.Error("failed to write record", "topic", topic, "error", err)
	}
}
