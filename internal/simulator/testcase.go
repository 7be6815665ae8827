package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/chrisdamba/brewqueue/internal/factories"
	"github.com/chrisdamba/brewqueue/internal/models"
)

const (
	simulatedBaristas = 3

	newCustomerPatience     = 480 // seconds
	regularCustomerPatience = 600
	complaintWaitSeconds    = 600
	workloadPenalty         = 10 // seconds per minute of work already done
)

// station is a simulated barista.
type station struct {
	id          int
	freeAt      time.Time
	workMinutes int
	served      int
}

// waitSeconds is how long an order arriving at t waits for this station.
func (st *station) waitSeconds(t time.Time) int64 {
	if !st.freeAt.After(t) {
		return 0
	}
	return int64(st.freeAt.Sub(t) / time.Second)
}

// pickStation prefers the first station free at arrival in id order and
// otherwise the one with the lowest wait plus workload penalty.
func pickStation(stations []*station, arrival time.Time) *station {
	for _, st := range stations {
		if !st.freeAt.After(arrival) {
			return st
		}
	}
	best := stations[0]
	bestScore := math.MaxFloat64
	for _, st := range stations {
		score := float64(st.waitSeconds(arrival)) + float64(workloadPenalty*st.workMinutes)
		if score < bestScore {
			best, bestScore = st, score
		}
	}
	return best
}

// runTestCase generates count orders over a 180 minute shift starting at
// start and replays them in arrival order.
func runTestCase(number int, factory *factories.OrderFactory, count int, start time.Time) models.TestCaseResult {
	arrivals := models.NewEventQueue()
	for i := 0; i < count; i++ {
		o := factory.Simulated(i, count)
		arrivals.Enqueue(&models.Event{
			Time: start.Add(time.Duration(o.ArrivalMinute) * time.Minute),
			Type: models.EventOrderArrival,
			Data: o,
		})
	}

	stations := make([]*station, simulatedBaristas)
	for i := range stations {
		stations[i] = &station{id: i + 1, freeAt: start}
	}

	result := models.TestCaseResult{
		TestCaseNumber: number,
		TotalOrders:    count,
		BaristaOrders:  make([]int, simulatedBaristas),
		Orders:         make([]models.OrderDetail, 0, count),
	}
	var totalWait int64
	for orderNumber := 1; !arrivals.IsEmpty(); orderNumber++ {
		ev := arrivals.Dequeue()
		o := ev.Data.(factories.SimulatedOrder)

		st := pickStation(stations, ev.Time)
		orderStart := ev.Time
		if st.freeAt.After(orderStart) {
			orderStart = st.freeAt
		}
		wait := int64(orderStart.Sub(ev.Time) / time.Second)

		detail := models.OrderDetail{
			OrderNumber:     orderNumber,
			CustomerName:    o.CustomerName,
			LoyaltyStatus:   o.LoyaltyStatus,
			IsRegular:       o.IsRegular,
			WaitTimeSeconds: wait,
			Status:          models.SimStatusCompleted,
			Drinks:          o.Drinks,
			ArrivalTime:     arrivalLabel(start, ev.Time),
		}

		patience := int64(newCustomerPatience)
		if o.IsRegular {
			patience = regularCustomerPatience
		}
		if wait >= patience {
			result.Abandoned++
			detail.Status = models.SimStatusAbandoned
			if o.IsRegular && wait >= complaintWaitSeconds {
				result.Complaints++
				detail.Status = models.SimStatusComplaint
			}
		} else {
			st.freeAt = orderStart.Add(time.Duration(o.PrepMinutes) * time.Minute)
			st.workMinutes += o.PrepMinutes
			st.served++
			id := st.id
			detail.AssignedBarista = &id
			totalWait += wait
		}
		result.Orders = append(result.Orders, detail)
	}

	for i, st := range stations {
		result.BaristaOrders[i] = st.served
	}
	result.ServedOrders = count - result.Abandoned
	if result.ServedOrders > 0 {
		result.AvgWaitTimeSeconds = float64(totalWait) / float64(result.ServedOrders)
	}
	if count > 0 {
		result.TimeoutRate = float64(result.Complaints) * 100 / float64(count)
		result.AbandonmentRate = float64(result.Abandoned) * 100 / float64(count)
	}
	return result
}

// arrivalLabel renders an arrival as whole minutes after the shift start.
func arrivalLabel(start, arrival time.Time) string {
	return fmt.Sprintf("t+%dm", int(arrival.Sub(start)/time.Minute))
}
