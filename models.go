package main

import (
	"time"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

/* ─── Logged entries ─────────────────────────────────────────────────── */

// mealType is the slot a meal was logged under.
type mealType string

const (
	mealBreakfast mealType = "breakfast"
	mealLunch     mealType = "lunch"
	mealDinner    mealType = "dinner"
	mealSnack     mealType = "snack"
)

// foodMacros is one food catalog record. Macro values are per 100 g.
type foodMacros struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	CarbsPer100g    float64 `json:"carbs_per_100g"`
	FatPer100g      float64 `json:"fat_per_100g"`
}

// mealLine is one food portion inside a meal. PortionGrams is expected to be
// positive but is not validated.
type mealLine struct {
	FoodID       string  `json:"food_id"`
	PortionGrams float64 `json:"portion_grams"`
}

type mealEntry struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	MealType   mealType   `json:"meal_type"`
	OccurredAt time.Time  `json:"occurred_at"`
	Lines      []mealLine `json:"lines"`
	CreatedAt  *time.Time `json:"created_at"`
}

// workoutEntry is one logged workout. CaloriesBurned is nil when it was never
// computed; it only becomes 0 when accumulated.
type workoutEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ExerciseName    string    `json:"exercise_name"`
	OccurredAt      time.Time `json:"occurred_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	CaloriesBurned  *float64  `json:"calories_burned"`
	WeightLifted    *float64  `json:"weight_lifted"`
}

// weightReading is one row of the weight log.
type weightReading struct {
	ID         string    `json:"id"`
	Date       DateOnly  `json:"date"`
	Weight     float64   `json:"weight"`
	OccurredAt time.Time `json:"-"`
}

// goal holds the user's daily targets. Each field is optional; nil means the
// user never set it.
type goal struct {
	CalorieGoal *float64 `json:"calorie_goal"`
	WorkoutGoal *float64 `json:"workout_goal"`
	WeightGoal  *float64 `json:"weight_goal"`
}

/* ─── Aggregation output ─────────────────────────────────────────────── */

// resolvedLine is a meal line joined against its food, with scaled totals.
type resolvedLine struct {
	FoodID       string          `json:"food_id"`
	FoodName     string          `json:"food_name"`
	PortionGrams float64         `json:"portion_grams"`
	Totals       nutritionTotals `json:"totals"`
}

// mealTypeSummary is the rollup for one meal slot.
type mealTypeSummary struct {
	Totals nutritionTotals `json:"totals"`
	Lines  []resolvedLine  `json:"lines"`
}

// mealEntryTotals is a single meal's own totals, in fetch order.
type mealEntryTotals struct {
	ID         string          `json:"id"`
	MealType   mealType        `json:"meal_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Totals     nutritionTotals `json:"totals"`
}

// dailySummary is one day's bucket in a multi-day window.
type dailySummary struct {
	Date           DateOnly                     `json:"date"`
	TotalCalories  float64                      `json:"total_calories"`
	BurnedCalories float64                      `json:"burned_calories"`
	NetCalories    float64                      `json:"net_calories"`
	Totals         nutritionTotals              `json:"totals"`
	MealsByType    map[mealType]mealTypeSummary `json:"meals_by_type"`
}

// exerciseShare is one row of the activity distribution chart.
type exerciseShare struct {
	Name            string  `json:"name"`
	Count           int     `json:"count"`
	Calories        float64 `json:"calories"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// foodFrequency is one row of the most-consumed foods list.
type foodFrequency struct {
	FoodID           string  `json:"food_id"`
	Name             string  `json:"name"`
	Count            int     `json:"count"`
	LastPortionGrams float64 `json:"last_portion_grams"`
	Calories         float64 `json:"calories"`
}

// aggregateWarning reports one sub-fetch that failed, so the client can show
// that the numbers may be incomplete.
type aggregateWarning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// aggregateResult is the full rollup for one window. It is only ever returned
// complete; PerDay is empty for single-day windows.
type aggregateResult struct {
	Window               periodWindow                 `json:"window"`
	Totals               nutritionTotals              `json:"totals"`
	BurnedCalories       float64                      `json:"burned_calories"`
	NetCalories          float64                      `json:"net_calories"`
	MealsByType          map[mealType]mealTypeSummary `json:"meals_by_type"`
	PerDay               []dailySummary               `json:"per_day"`
	ExerciseDistribution []exerciseShare              `json:"exercise_distribution"`
	FoodFrequency        []foodFrequency              `json:"food_frequency"`
	Entries              []mealEntryTotals            `json:"entries"`
	WorkoutCount         int                          `json:"workout_count"`
	Warnings             []aggregateWarning           `json:"warnings"`
}

// progressReport is the response shape for GET /api/progress.
type progressReport struct {
	Summary   aggregateResult `json:"summary"`
	Goal      goal            `json:"goal"`       // scaled to the window's day count
	DailyGoal goal            `json:"daily_goal"` // as stored
	Progress  progressView    `json:"progress"`
}

// patchGoalRequest is the request body for PATCH /api/goals. Only non-nil
// fields are written.
type patchGoalRequest struct {
	CalorieGoal *float64 `json:"calorie_goal"`
	WorkoutGoal *float64 `json:"workout_goal"`
	WeightGoal  *float64 `json:"weight_goal"`
}
