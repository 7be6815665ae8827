package simulator

import (
	"math"

	"github.com/chrisdamba/brewqueue/internal/models"
)

// Summarize aggregates test cases. Averages are taken over test cases, not
// orders. An empty slice yields the zero summary.
func Summarize(results []models.TestCaseResult) models.SimulationSummary {
	var sum models.SimulationSummary
	if len(results) == 0 {
		return sum
	}

	totals := make([]int, simulatedBaristas)
	var waitSum, timeoutSum, abandonSum float64
	for _, r := range results {
		sum.TotalOrders += r.TotalOrders
		sum.TotalComplaints += r.Complaints
		sum.TotalAbandoned += r.Abandoned
		waitSum += r.AvgWaitTimeSeconds
		timeoutSum += r.TimeoutRate
		abandonSum += r.AbandonmentRate
		for i := 0; i < len(r.BaristaOrders) && i < len(totals); i++ {
			totals[i] += r.BaristaOrders[i]
		}
	}

	n := float64(len(results))
	sum.TotalTestCases = len(results)
	sum.AvgWaitTimeSeconds = waitSum / n
	sum.AvgTimeoutRate = timeoutSum / n
	sum.AvgAbandonRate = abandonSum / n
	sum.Barista1Total = totals[0]
	sum.Barista2Total = totals[1]
	sum.Barista3Total = totals[2]
	sum.WorkloadBalance = balanceScore(totals)
	return sum
}

// balanceScore is 100 minus the coefficient of variation in percent, floored
// at 0. No work at all counts as perfectly balanced.
func balanceScore(counts []int) float64 {
	if len(counts) == 0 {
		return 100
	}
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	mean := total / float64(len(counts))
	if mean == 0 {
		return 100
	}
	var variance float64
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(counts))
	cv := math.Sqrt(variance) / mean * 100
	return math.Max(0, 100-cv)
}
