package scheduling

import (
	"sort"
	"time"

	"github.com/chrisdamba/brewqueue/internal/models"
)

const (
	overloadedRatio    = 1.2
	underutilizedRatio = 0.8
	baseBaristaScore   = 100.0
)

// UpdateWorkloadRatios sets each barista's ratio of scheduled minutes to the
// pool mean. Ratios are 0 while nobody has worked yet.
func UpdateWorkloadRatios(baristas []*models.Barista) {
	if len(baristas) == 0 {
		return
	}

	total := 0
	for _, b := range baristas {
		total += b.TotalWorkMinutes
	}
	mean := float64(total) / float64(len(baristas))

	for _, b := range baristas {
		if mean > 0 {
			b.WorkloadRatio = float64(b.TotalWorkMinutes) / mean
		} else {
			b.WorkloadRatio = 0
		}
	}
}

// SelectBarista picks the barista for o. With nobody free it returns the one
// who frees up soonest; otherwise the best-scoring free barista. Returns nil
// only for an empty pool.
func SelectBarista(o *models.Order, baristas []*models.Barista, now time.Time) *models.Barista {
	var available []*models.Barista
	for _, b := range baristas {
		if !b.IsBusy(now) {
			available = append(available, b)
		}
	}

	if len(available) == 0 {
		var soonest *models.Barista
		for _, b := range baristas {
			if soonest == nil {
				soonest = b
				continue
			}
			free, best := b.EstimatedFreeTime(now), soonest.EstimatedFreeTime(now)
			if free < best || (free == best && b.ID < soonest.ID) {
				soonest = b
			}
		}
		return soonest
	}

	var chosen *models.Barista
	bestScore := 0.0
	for _, b := range available {
		score := baristaScore(b, o)
		if chosen == nil || score > bestScore {
			chosen = b
			bestScore = score
		}
	}
	return chosen
}

func baristaScore(b *models.Barista, o *models.Order) float64 {
	score := baseBaristaScore

	switch {
	case b.WorkloadRatio > overloadedRatio:
		// overloaded baristas should take quick orders
		switch {
		case o.TotalPrepTime <= 2:
			score += 50
		case o.TotalPrepTime <= 4:
			score += 20
		default:
			score -= 30
		}
	case b.WorkloadRatio < underutilizedRatio:
		score += 30
	}

	return score
}

// RankOrders returns waiting sorted by score descending. Equal scores keep
// their input order. Scores are recomputed on every call.
func RankOrders(waiting, completed []*models.Order, now time.Time) []*models.Order {
	type scored struct {
		order *models.Order
		score int
	}

	ranked := make([]scored, len(waiting))
	for i, o := range waiting {
		ranked[i] = scored{order: o, score: CalculateScore(o, completed, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]*models.Order, len(ranked))
	for i, r := range ranked {
		out[i] = r.order
	}
	return out
}
