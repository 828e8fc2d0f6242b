package main

// nutritionTotals is an additive bundle of calories and macros. The zero value
// is the identity for add.
type nutritionTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n nutritionTotals) add(o nutritionTotals) nutritionTotals {
	return nutritionTotals{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// scaleMacros converts a food's per-100g values into totals for portionGrams.
// No rounding (that is left to the client) and no clamping: zero or negative
// portions pass straight through the arithmetic.
func scaleMacros(food foodMacros, portionGrams float64) nutritionTotals {
	return nutritionTotals{
		Calories: food.CaloriesPer100g * portionGrams / 100,
		Protein:  food.ProteinPer100g * portionGrams / 100,
		Carbs:    food.CarbsPer100g * portionGrams / 100,
		Fat:      food.FatPer100g * portionGrams / 100,
	}
}
