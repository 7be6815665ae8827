package simulator

import (
	"strings"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/output"
)

func newOrderRecord(ts int64, runID string, testCase int, d models.OrderDetail) output.OrderRecord {
	rec := output.OrderRecord{
		Timestamp:       ts,
		RunID:           runID,
		TestCaseNumber:  int32(testCase),
		OrderNumber:     int32(d.OrderNumber),
		ArrivalTime:     d.ArrivalTime,
		CustomerName:    d.CustomerName,
		LoyaltyStatus:   string(d.LoyaltyStatus),
		IsRegular:       d.IsRegular,
		WaitTimeSeconds: d.WaitTimeSeconds,
		Status:          d.Status,
		Drinks:          strings.Join(d.Drinks, ","),
	}
	if d.AssignedBarista != nil {
		rec.AssignedBarista = int32(*d.AssignedBarista)
	}
	return rec
}

func newTestCaseRecord(ts int64, runID string, r models.TestCaseResult) output.TestCaseRecord {
	rec := output.TestCaseRecord{
		Timestamp:          ts,
		RunID:              runID,
		TestCaseNumber:     int32(r.TestCaseNumber),
		TotalOrders:        int32(r.TotalOrders),
		ServedOrders:       int32(r.ServedOrders),
		AvgWaitTimeSeconds: r.AvgWaitTimeSeconds,
		Complaints:         int32(r.Complaints),
		Abandoned:          int32(r.Abandoned),
		TimeoutRate:        r.TimeoutRate,
		AbandonmentRate:    r.AbandonmentRate,
	}
	counts := make([]int32, simulatedBaristas)
	for i := 0; i < len(r.BaristaOrders) && i < len(counts); i++ {
		counts[i] = int32(r.BaristaOrders[i])
	}
	rec.Barista1Orders, rec.Barista2Orders, rec.Barista3Orders = counts[0], counts[1], counts[2]
	return rec
}
