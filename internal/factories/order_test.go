package factories

import (
	"math/rand"
	"testing"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestSimulated_Bounds(t *testing.T) {
	f := NewOrderFactory(rand.New(rand.NewSource(7)))
	const total = 150
	for i := 0; i < total; i++ {
		o := f.Simulated(i, total)
		if o.ArrivalMinute < 0 || o.ArrivalMinute > 179 {
			t.Fatalf("order %d arrives at minute %d", i, o.ArrivalMinute)
		}
		base := int(float64(i) / float64(total) * 180)
		if d := o.ArrivalMinute - base; d < -2 || d > 2 {
			t.Fatalf("order %d jitter %d outside ±2", i, d)
		}
		if len(o.Drinks) < 1 || len(o.Drinks) > 2 {
			t.Fatalf("order %d has %d drinks", i, len(o.Drinks))
		}
		prep, err := models.TotalPrepTime(o.Drinks)
		if err != nil || prep != o.PrepMinutes {
			t.Fatalf("order %d prep %d, catalog says %d (%v)", i, o.PrepMinutes, prep, err)
		}
		wantRegular := o.LoyaltyStatus == models.LoyaltySilver || o.LoyaltyStatus == models.LoyaltyGold
		if o.IsRegular != wantRegular {
			t.Fatalf("order %d loyalty %s regular=%v", i, o.LoyaltyStatus, o.IsRegular)
		}
		if o.CustomerName == "" {
			t.Fatalf("order %d has no customer name", i)
		}
	}
}

func TestOrderFactory_Deterministic(t *testing.T) {
	draw := func() []SimulatedOrder {
		f := NewOrderFactory(rand.New(rand.NewSource(99)))
		out := make([]SimulatedOrder, 20)
		for i := range out {
			out[i] = f.Simulated(i, len(out))
		}
		return out
	}
	if diff := cmp.Diff(draw(), draw()); diff != "" {
		t.Errorf("same seed produced different orders (-first +second):\n%s", diff)
	}
}

func TestWalkIn(t *testing.T) {
	f := NewOrderFactory(rand.New(rand.NewSource(3)))
	regulars := 0
	const n = 2000
	for i := 0; i < n; i++ {
		w := f.WalkIn(0.6)
		if len(w.Drinks) < 1 || len(w.Drinks) > 3 {
			t.Fatalf("walk-in has %d drinks", len(w.Drinks))
		}
		if _, err := models.TotalPrepTime(w.Drinks); err != nil {
			t.Fatalf("walk-in drinks %v: %v", w.Drinks, err)
		}
		if w.IsRegular {
			regulars++
		}
	}
	if ratio := float64(regulars) / n; ratio < 0.55 || ratio > 0.65 {
		t.Errorf("regular ratio = %.3f, want about 0.6", ratio)
	}
}

func TestNextArrivalSeconds(t *testing.T) {
	f := NewOrderFactory(rand.New(rand.NewSource(11)))
	var sum float64
	const n = 5000
	for i := 0; i < n; i++ {
		gap := f.NextArrivalSeconds(1.4)
		if gap < 0.1 {
			t.Fatalf("gap %v below floor", gap)
		}
		sum += gap
	}
	// mean gap for 1.4/min is about 42.9s
	if mean := sum / n; mean < 38 || mean > 48 {
		t.Errorf("mean gap = %.1fs, want about 42.9s", mean)
	}
}
