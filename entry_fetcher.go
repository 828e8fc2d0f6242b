package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// fetchError wraps a failed range query for one collection. The engine turns
// it into a warning instead of failing the whole summary.
type fetchError struct {
	Collection string
	Err        error
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *fetchError) Unwrap() error { return e.Err }

// entryFetcher reads one user's meals and workouts for a window.
type entryFetcher struct {
	store documentStore
}

func newEntryFetcher(store documentStore) *entryFetcher {
	return &entryFetcher{store: store}
}

// windowFilters is the one range query every fetch issues:
// userId == X AND occurredAt >= start AND occurredAt < end.
func windowFilters(userID string, window periodWindow) []queryFilter {
	return []queryFilter{
		{Field: "userId", Op: opEq, Value: userID},
		{Field: "occurredAt", Op: opGte, Value: window.Start},
		{Field: "occurredAt", Op: opLt, Value: window.End},
	}
}

func (f *entryFetcher) fetchMeals(ctx context.Context, userID string, window periodWindow) ([]mealEntry, error) {
	docs, err := f.store.Query(ctx, collectionMeals, windowFilters(userID, window), ascending("occurredAt"))
	if err != nil {
		return nil, &fetchError{Collection: collectionMeals, Err: err}
	}
	meals := make([]mealEntry, 0, len(docs))
	for _, d := range docs {
		meals = append(meals, decodeMeal(d))
	}
	return meals, nil
}

func (f *entryFetcher) fetchWorkouts(ctx context.Context, userID string, window periodWindow) ([]workoutEntry, error) {
	docs, err := f.store.Query(ctx, collectionWorkouts, windowFilters(userID, window), ascending("occurredAt"))
	if err != nil {
		return nil, &fetchError{Collection: collectionWorkouts, Err: err}
	}
	workouts := make([]workoutEntry, 0, len(docs))
	for _, d := range docs {
		workouts = append(workouts, decodeWorkout(d))
	}
	return workouts, nil
}

/* ─── Document decoding ──────────────────────────────────────────────── */

// Decoding is lenient on purpose: a malformed field decodes to its zero value
// rather than dropping the whole entry.

func decodeMeal(d document) mealEntry {
	m := mealEntry{
		ID:         docString(d, "id"),
		UserID:     docString(d, "userId"),
		MealType:   mealType(docString(d, "mealType")),
		OccurredAt: docTime(d, "occurredAt"),
	}
	if created := docTime(d, "createdAt"); !created.IsZero() {
		m.CreatedAt = &created
	}
	raw, _ := d["lines"].([]any)
	if s, ok := d["lines"].(string); ok {
		// Some drivers hand back json columns undecoded.
		_ = json.Unmarshal([]byte(s), &raw)
	}
	for _, item := range raw {
		line, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m.Lines = append(m.Lines, mealLine{
			FoodID:       docString(line, "foodId"),
			PortionGrams: docFloat(line, "portionGrams"),
		})
	}
	return m
}

func decodeWorkout(d document) workoutEntry {
	return workoutEntry{
		ID:              docString(d, "id"),
		UserID:          docString(d, "userId"),
		ExerciseName:    docString(d, "exerciseName"),
		OccurredAt:      docTime(d, "occurredAt"),
		DurationSeconds: docFloat(d, "durationSeconds"),
		CaloriesBurned:  docFloatPtr(d, "caloriesBurned"),
		WeightLifted:    docFloatPtr(d, "weightLifted"),
	}
}

func decodeFood(d document) foodMacros {
	return foodMacros{
		ID:              docString(d, "id"),
		Name:            docString(d, "name"),
		CaloriesPer100g: docFloat(d, "caloriesPer100g"),
		ProteinPer100g:  docFloat(d, "proteinPer100g"),
		CarbsPer100g:    docFloat(d, "carbsPer100g"),
		FatPer100g:      docFloat(d, "fatPer100g"),
	}
}

func decodeGoal(d document) goal {
	return goal{
		CalorieGoal: docFloatPtr(d, "calorieGoal"),
		WorkoutGoal: docFloatPtr(d, "workoutGoal"),
		WeightGoal:  docFloatPtr(d, "weightGoal"),
	}
}

func docString(d map[string]any, key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func docFloat(d map[string]any, key string) float64 {
	if p := docFloatPtr(d, key); p != nil {
		return *p
	}
	return 0
}

// docFloatPtr returns nil for absent or non-numeric values so callers can
// tell "not set" apart from zero.
func docFloatPtr(d map[string]any, key string) *float64 {
	var f float64
	switch v := d[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func docTime(d map[string]any, key string) time.Time {
	switch v := d[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
