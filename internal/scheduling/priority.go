// Package scheduling holds the pure policy functions of the queue: the
// priority score that ranks waiting orders and the barista selector.
package scheduling

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chrisdamba/brewqueue/internal/models"
)

const (
	waitTimeWeight   = 0.40
	complexityWeight = 0.25
	loyaltyWeight    = 0.10
	urgencyWeight    = 0.25

	MaxWaitSeconds        = 10 * 60
	EmergencySeconds      = 8 * 60
	EmergencyBoost        = 50
	FairnessSkipThreshold = 3
	FairnessBonus         = 30
	ComplaintSeconds      = 10 * 60

	RegularAbandonSeconds = 10 * 60
	NewAbandonSeconds     = 8 * 60

	maxPrepMinutes = 6
	maxScore       = 100
)

const (
	EmergencyReason = "Emergency: waiting 8+ min"
	StandardReason  = "Standard queue position"
)

// Priority is a score in [0,100] and the tags that explain it.
type Priority struct {
	Score  int
	Reason string
}

// Evaluate scores o at now. completed is the set of served orders used by
// the fairness rule.
func Evaluate(o *models.Order, completed []*models.Order, now time.Time) Priority {
	skipped := CountSkipped(o, completed, now)
	return Priority{
		Score:  clamp(rawScore(o, skipped, now)),
		Reason: reason(o, skipped, now),
	}
}

// CalculateScore returns only the clamped score.
func CalculateScore(o *models.Order, completed []*models.Order, now time.Time) int {
	return clamp(RawScore(o, completed, now))
}

// RawScore is the weighted sum plus boosts before truncation and clamping.
func RawScore(o *models.Order, completed []*models.Order, now time.Time) float64 {
	return rawScore(o, CountSkipped(o, completed, now), now)
}

func rawScore(o *models.Order, skipped int, now time.Time) float64 {
	secondsWaiting := o.WaitSeconds(now)

	score := 0.0
	score += math.Min(100, float64(secondsWaiting)/MaxWaitSeconds*100) * waitTimeWeight

	prepSeconds := float64(o.TotalPrepTime * 60)
	score += math.Max(0, 100-(prepSeconds/(maxPrepMinutes*60))*100) * complexityWeight

	score += loyaltyScore(o.LoyaltyStatus) * loyaltyWeight
	score += urgency(secondsWaiting) * urgencyWeight

	if secondsWaiting >= EmergencySeconds {
		score += EmergencyBoost
	}
	if skipped > FairnessSkipThreshold {
		score += FairnessBonus
	}
	return score
}

func clamp(score float64) int {
	s := int(score)
	if s > maxScore {
		return maxScore
	}
	if s < 0 {
		return 0
	}
	return s
}

func loyaltyScore(l models.LoyaltyStatus) float64 {
	switch l {
	case models.LoyaltyGold:
		return 30
	case models.LoyaltySilver:
		return 20
	case models.LoyaltyBronze:
		return 10
	default:
		return 0
	}
}

func urgency(secondsWaiting int64) float64 {
	if secondsWaiting >= EmergencySeconds {
		return 100
	}
	return float64(secondsWaiting) / EmergencySeconds * 80
}

// CountSkipped counts served orders created after o that finished before now.
func CountSkipped(o *models.Order, completed []*models.Order, now time.Time) int {
	skipped := 0
	for _, c := range completed {
		if c.ID == o.ID || c.CompletedAt == nil {
			continue
		}
		if c.CreatedAt.After(o.CreatedAt) && c.CompletedAt.Before(now) {
			skipped++
		}
	}
	return skipped
}

// Reason explains the score of o at now.
func Reason(o *models.Order, completed []*models.Order, now time.Time) string {
	return reason(o, CountSkipped(o, completed, now), now)
}

func reason(o *models.Order, skipped int, now time.Time) string {
	var reasons []string

	if o.WaitSeconds(now) >= EmergencySeconds {
		reasons = append(reasons, EmergencyReason)
	}

	if skipped > FairnessSkipThreshold {
		reasons = append(reasons, fmt.Sprintf("Fairness boost: %d orders passed", skipped))
	} else if skipped > 0 {
		reasons = append(reasons, fmt.Sprintf("%d faster order(s) served ahead", skipped))
	}

	if o.LoyaltyStatus != "" && o.LoyaltyStatus != models.LoyaltyNone {
		reasons = append(reasons, fmt.Sprintf("%s member", o.LoyaltyStatus))
	}

	if o.TotalPrepTime <= 2 {
		reasons = append(reasons, "Quick order (<=2 min)")
	} else if o.TotalPrepTime >= 5 {
		reasons = append(reasons, fmt.Sprintf("Complex order (%d min)", o.TotalPrepTime))
	}

	if len(reasons) == 0 {
		return StandardReason
	}
	return strings.Join(reasons, " | ")
}

// NowBrewingReason replaces the priority reason once an order starts.
func NowBrewingReason(baristaName string) string {
	return "Now brewing with " + baristaName
}

func TimeoutRisk(o *models.Order, now time.Time) bool {
	return o.WaitSeconds(now) >= MaxWaitSeconds
}

func AbandonmentRisk(o *models.Order, now time.Time) bool {
	return o.WaitSeconds(now) >= int64(AbandonThreshold(o.IsRegular))
}

// AbandonThreshold is the patience of a customer in seconds.
func AbandonThreshold(isRegular bool) int {
	if isRegular {
		return RegularAbandonSeconds
	}
	return NewAbandonSeconds
}
