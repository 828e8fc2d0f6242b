package main

import (
	"sort"
	"time"
)

// foodLookup resolves a food id to its macros; ok=false means the food is
// missing and the line contributes nothing.
type foodLookup func(foodID string) (foodMacros, bool)

// dayBucket accumulates one calendar day of a multi-day window.
type dayBucket struct {
	date        time.Time
	totals      nutritionTotals
	burned      float64
	mealsByType map[mealType]mealTypeSummary
}

// aggregate rolls meals and workouts up into window totals, meal-type and
// per-day breakdowns, and the two ranked distributions. It is pure: all I/O
// happens before it is called. Lines whose food is missing are skipped.
func aggregate(window periodWindow, meals []mealEntry, workouts []workoutEntry, lookup foodLookup) aggregateResult {
	result := aggregateResult{
		Window:               window,
		MealsByType:          map[mealType]mealTypeSummary{},
		PerDay:               []dailySummary{},
		ExerciseDistribution: []exerciseShare{},
		FoodFrequency:        []foodFrequency{},
		Entries:              make([]mealEntryTotals, 0, len(meals)),
		WorkoutCount:         len(workouts),
		Warnings:             []aggregateWarning{},
	}

	multiDay := window.multiDay()
	loc := window.Start.Location()
	days := map[string]*dayBucket{}
	bucketFor := func(at time.Time) *dayBucket {
		date := startOfDay(at.In(loc))
		key := date.Format("2006-01-02")
		b, ok := days[key]
		if !ok {
			b = &dayBucket{date: date, mealsByType: map[mealType]mealTypeSummary{}}
			days[key] = b
		}
		return b
	}

	// Food frequency keeps first-encounter order for the stable sort below.
	freqIndex := map[string]int{}
	lastSeen := map[string]time.Time{}

	/* ─── Meals ──────────────────────────────────────────────────────── */

	for _, meal := range meals {
		entryTotals := nutritionTotals{}
		slot := result.MealsByType[meal.MealType]
		var bucket *dayBucket
		var daySlot mealTypeSummary
		if multiDay {
			bucket = bucketFor(meal.OccurredAt)
			daySlot = bucket.mealsByType[meal.MealType]
		}

		for _, line := range meal.Lines {
			food, ok := lookup(line.FoodID)
			if !ok {
				continue
			}
			scaled := scaleMacros(food, line.PortionGrams)
			resolved := resolvedLine{
				FoodID:       line.FoodID,
				FoodName:     food.Name,
				PortionGrams: line.PortionGrams,
				Totals:       scaled,
			}

			entryTotals = entryTotals.add(scaled)
			slot.Totals = slot.Totals.add(scaled)
			slot.Lines = append(slot.Lines, resolved)
			if bucket != nil {
				daySlot.Totals = daySlot.Totals.add(scaled)
				daySlot.Lines = append(daySlot.Lines, resolved)
			}

			i, seen := freqIndex[line.FoodID]
			if !seen {
				i = len(result.FoodFrequency)
				freqIndex[line.FoodID] = i
				result.FoodFrequency = append(result.FoodFrequency, foodFrequency{FoodID: line.FoodID, Name: food.Name})
			}
			ff := &result.FoodFrequency[i]
			ff.Count++
			ff.Calories += scaled.Calories
			if !seen || !meal.OccurredAt.Before(lastSeen[line.FoodID]) {
				ff.LastPortionGrams = line.PortionGrams
				lastSeen[line.FoodID] = meal.OccurredAt
			}
		}

		// A meal type is present once it has at least one entry, even if
		// every line in it turned out to be missing.
		if slot.Lines == nil {
			slot.Lines = []resolvedLine{}
		}
		result.MealsByType[meal.MealType] = slot
		if bucket != nil {
			if daySlot.Lines == nil {
				daySlot.Lines = []resolvedLine{}
			}
			bucket.mealsByType[meal.MealType] = daySlot
			bucket.totals = bucket.totals.add(entryTotals)
		}

		result.Totals = result.Totals.add(entryTotals)
		result.Entries = append(result.Entries, mealEntryTotals{
			ID:         meal.ID,
			MealType:   meal.MealType,
			OccurredAt: meal.OccurredAt,
			Totals:     entryTotals,
		})
	}

	/* ─── Workouts ───────────────────────────────────────────────────── */

	exerciseIndex := map[string]int{}
	for _, w := range workouts {
		// nil means "not computed"; it only turns into 0 here.
		burned := 0.0
		if w.CaloriesBurned != nil {
			burned = *w.CaloriesBurned
		}
		result.BurnedCalories += burned
		if multiDay {
			bucketFor(w.OccurredAt).burned += burned
		}

		i, ok := exerciseIndex[w.ExerciseName]
		if !ok {
			i = len(result.ExerciseDistribution)
			exerciseIndex[w.ExerciseName] = i
			result.ExerciseDistribution = append(result.ExerciseDistribution, exerciseShare{Name: w.ExerciseName})
		}
		share := &result.ExerciseDistribution[i]
		share.Count++
		share.Calories += burned
		share.DurationSeconds += w.DurationSeconds
	}

	/* ─── Outputs ────────────────────────────────────────────────────── */

	result.NetCalories = result.Totals.Calories - result.BurnedCalories

	for _, b := range days {
		result.PerDay = append(result.PerDay, dailySummary{
			Date:           DateOnly{b.date},
			TotalCalories:  b.totals.Calories,
			BurnedCalories: b.burned,
			NetCalories:    b.totals.Calories - b.burned,
			Totals:         b.totals,
			MealsByType:    b.mealsByType,
		})
	}
	sort.Slice(result.PerDay, func(i, j int) bool {
		return result.PerDay[i].Date.Before(result.PerDay[j].Date.Time)
	})

	// Top contributors first. Stable so ties keep fetch order.
	sort.SliceStable(result.ExerciseDistribution, func(i, j int) bool {
		return result.ExerciseDistribution[i].Calories > result.ExerciseDistribution[j].Calories
	})
	sort.SliceStable(result.FoodFrequency, func(i, j int) bool {
		return result.FoodFrequency[i].Count > result.FoodFrequency[j].Count
	})

	return result
}
