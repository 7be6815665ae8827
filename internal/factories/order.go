package factories

import (
	"math"
	"math/rand"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/jaswdr/faker"
)

const (
	shiftMinutes  = 180
	arrivalJitter = 2 // minutes either side
)

// SimulatedOrder is one synthetic arrival of a simulation test case.
type SimulatedOrder struct {
	ArrivalMinute int // minutes after the start of the shift
	Drinks        []string
	PrepMinutes   int
	CustomerName  string
	LoyaltyStatus models.LoyaltyStatus
	IsRegular     bool
}

// WalkIn is a customer arriving at the live queue.
type WalkIn struct {
	Drinks        []string
	CustomerName  string
	IsRegular     bool
	LoyaltyStatus models.LoyaltyStatus
}

// OrderFactory draws synthetic orders. All randomness, customer names
// included, comes from the rng it was built with.
type OrderFactory struct {
	rng  *rand.Rand
	fake faker.Faker
}

func NewOrderFactory(rng *rand.Rand) *OrderFactory {
	return &OrderFactory{
		rng:  rng,
		fake: faker.NewWithSeed(rand.NewSource(rng.Int63())),
	}
}

// Simulated draws order index of total. Arrivals are spread evenly over the
// shift with up to two minutes of jitter, clamped to the shift.
func (f *OrderFactory) Simulated(index, total int) SimulatedOrder {
	minute := int(float64(index) / float64(total) * shiftMinutes)
	minute += f.rng.Intn(2*arrivalJitter+1) - arrivalJitter
	minute = max(0, min(shiftMinutes-1, minute))

	count := 1 + f.rng.Intn(2)
	drinks := make([]string, count)
	prep := 0
	for i := range drinks {
		d := models.DrinkTypes[f.rng.Intn(len(models.DrinkTypes))]
		drinks[i] = string(d)
		prep += models.Catalog[d].PrepMinutes
	}

	loyalty := models.LoyaltyStatuses[f.rng.Intn(len(models.LoyaltyStatuses))]
	return SimulatedOrder{
		ArrivalMinute: minute,
		Drinks:        drinks,
		PrepMinutes:   prep,
		CustomerName:  f.fake.Person().Name(),
		LoyaltyStatus: loyalty,
		IsRegular:     loyalty == models.LoyaltySilver || loyalty == models.LoyaltyGold,
	}
}

// WalkIn draws a live customer: one to three drinks weighted by catalog
// frequency, regular with probability regularRatio, loyalty uniform.
func (f *OrderFactory) WalkIn(regularRatio float64) WalkIn {
	count := 1 + f.rng.Intn(3)
	drinks := make([]string, count)
	for i := range drinks {
		drinks[i] = string(models.DrinkByFrequency(f.rng.Float64()))
	}
	return WalkIn{
		Drinks:        drinks,
		CustomerName:  f.fake.Person().FirstName(),
		IsRegular:     f.rng.Float64() < regularRatio,
		LoyaltyStatus: models.LoyaltyStatuses[f.rng.Intn(len(models.LoyaltyStatuses))],
	}
}

// NextArrivalSeconds draws an exponential inter-arrival gap for a Poisson
// process of ratePerMinute customers, never shorter than 100ms.
func (f *OrderFactory) NextArrivalSeconds(ratePerMinute float64) float64 {
	lambda := ratePerMinute / 60
	gap := -math.Log(1-f.rng.Float64()) / lambda
	return math.Max(0.1, gap)
}
