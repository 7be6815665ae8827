package simulator

import (
	"math"
	"testing"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSummarize(t *testing.T) {
	results := []models.TestCaseResult{
		{
			TotalOrders:        150,
			AvgWaitTimeSeconds: 60,
			BaristaOrders:      []int{50, 40, 40},
			Complaints:         3,
			Abandoned:          20,
			TimeoutRate:        2,
			AbandonmentRate:    13.333333333333334,
		},
		{
			TotalOrders:        130,
			AvgWaitTimeSeconds: 30,
			BaristaOrders:      []int{40, 50, 40},
			Complaints:         0,
			Abandoned:          0,
			TimeoutRate:        0,
			AbandonmentRate:    0,
		},
	}

	got := Summarize(results)
	want := models.SimulationSummary{
		TotalTestCases:     2,
		TotalOrders:        280,
		AvgWaitTimeSeconds: 45,
		TotalComplaints:    3,
		TotalAbandoned:     20,
		AvgTimeoutRate:     1,
		AvgAbandonRate:     6.666666666666667,
		Barista1Total:      90,
		Barista2Total:      90,
		Barista3Total:      80,
		WorkloadBalance:    100 - math.Sqrt(200.0/9)/(260.0/3)*100,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil); got != (models.SimulationSummary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", got)
	}
}

func TestBalanceScore(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   float64
	}{
		{"even", []int{40, 40, 40}, 100},
		{"idle", []int{0, 0, 0}, 100},
		{"floored at zero", []int{0, 0, 9}, 0},
		{"mild skew", []int{2, 4, 6}, 100 - math.Sqrt(8.0/3)/4*100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := balanceScore(tt.counts); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("balanceScore(%v) = %v, want %v", tt.counts, got, tt.want)
			}
		})
	}
}
