package models

import "fmt"

type DrinkType string

const (
	DrinkColdBrew       DrinkType = "COLD_BREW"
	DrinkEspresso       DrinkType = "ESPRESSO"
	DrinkAmericano      DrinkType = "AMERICANO"
	DrinkCappuccino     DrinkType = "CAPPUCCINO"
	DrinkLatte          DrinkType = "LATTE"
	DrinkSpecialtyMocha DrinkType = "SPECIALTY_MOCHA"
)

type Drink struct {
	ID          DrinkType `json:"id"`
	DisplayName string    `json:"display_name"`
	PrepMinutes int       `json:"prep_minutes"`
	Frequency   float64   `json:"frequency"`
	Price       int       `json:"price"` // in rupees
}

// DrinkTypes lists the catalog in menu order. The simulator draws from it by index.
var DrinkTypes = []DrinkType{
	DrinkColdBrew,
	DrinkEspresso,
	DrinkAmericano,
	DrinkCappuccino,
	DrinkLatte,
	DrinkSpecialtyMocha,
}

var Catalog = map[DrinkType]Drink{
	DrinkColdBrew:       {ID: DrinkColdBrew, DisplayName: "Cold Brew", PrepMinutes: 1, Frequency: 0.25, Price: 120},
	DrinkEspresso:       {ID: DrinkEspresso, DisplayName: "Espresso", PrepMinutes: 2, Frequency: 0.20, Price: 150},
	DrinkAmericano:      {ID: DrinkAmericano, DisplayName: "Americano", PrepMinutes: 2, Frequency: 0.15, Price: 140},
	DrinkCappuccino:     {ID: DrinkCappuccino, DisplayName: "Cappuccino", PrepMinutes: 4, Frequency: 0.20, Price: 180},
	DrinkLatte:          {ID: DrinkLatte, DisplayName: "Latte", PrepMinutes: 4, Frequency: 0.12, Price: 200},
	DrinkSpecialtyMocha: {ID: DrinkSpecialtyMocha, DisplayName: "Specialty (Mocha)", PrepMinutes: 6, Frequency: 0.08, Price: 250},
}

// LookupDrink returns the catalog entry for a drink identifier.
func LookupDrink(id string) (Drink, error) {
	d, ok := Catalog[DrinkType(id)]
	if !ok {
		return Drink{}, fmt.Errorf("%w: %q", ErrUnknownDrink, id)
	}
	return d, nil
}

// TotalPrepTime sums catalog prep minutes over drinks.
func TotalPrepTime(drinks []string) (int, error) {
	total := 0
	for _, id := range drinks {
		d, err := LookupDrink(id)
		if err != nil {
			return 0, err
		}
		total += d.PrepMinutes
	}
	return total, nil
}

// DrinkByFrequency maps u in [0,1) onto the catalog using cumulative frequency.
func DrinkByFrequency(u float64) DrinkType {
	cumulative := 0.0
	for _, id := range DrinkTypes {
		cumulative += Catalog[id].Frequency
		if u < cumulative {
			return id
		}
	}
	return DrinkTypes[len(DrinkTypes)-1]
}
