package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// seededStore holds one user's week: two breakfasts, a lunch with a deleted
// food, two workouts, a goal record, and a weight log.
func seededStore() *memoryStore {
	return foodStore().
		add(collectionMeals,
			mealDoc("m1", "u1", mealBreakfast, at(2024, 3, 4, 8), line("egg", 100)),
			mealDoc("m2", "u1", mealBreakfast, at(2024, 3, 5, 8), line("oats", 50), line("egg", 100)),
			mealDoc("m3", "u1", mealLunch, at(2024, 3, 5, 12), line("rice", 200), line("deleted", 80)),
			mealDoc("m4", "u2", mealDinner, at(2024, 3, 5, 19), line("rice", 500)),
		).
		add(collectionWorkouts,
			workoutDoc("w1", "u1", "run", at(2024, 3, 5, 18), ptr(300)),
			workoutDoc("w2", "u1", "lift", at(2024, 3, 6, 18), nil),
		).
		add(collectionGoals, document{"id": "u1", "calorieGoal": 2000.0, "workoutGoal": 400.0, "weightGoal": 75.0}).
		add(collectionWeights,
			document{"id": "wt1", "userId": "u1", "occurredAt": at(2024, 3, 1, 0), "weight": 80.0},
			document{"id": "wt2", "userId": "u1", "occurredAt": at(2024, 3, 5, 0), "weight": 79.5},
		)
}

func newTestEngine(store documentStore) *summaryEngine {
	return newSummaryEngine(store, newFoodResolver(store, 4, time.Second), time.UTC, time.Second)
}

func TestSummarizePeriod_Day(t *testing.T) {
	e := newTestEngine(seededStore())

	r, err := e.summarizePeriod(context.Background(), "u1", at(2024, 3, 5, 15), granularityDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 190 oats + 150 egg + 260 rice; the deleted food adds nothing.
	if !approx(r.Totals.Calories, 600) {
		t.Errorf("expected 600 kcal, got %v", r.Totals.Calories)
	}
	if r.BurnedCalories != 300 || !approx(r.NetCalories, 300) {
		t.Errorf("expected burned 300 net 300, got %v/%v", r.BurnedCalories, r.NetCalories)
	}
	if len(r.MealsByType) != 2 || len(r.Entries) != 2 {
		t.Errorf("expected 2 meal types and 2 entries, got %d/%d", len(r.MealsByType), len(r.Entries))
	}
	if len(r.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", r.Warnings)
	}
	if len(r.PerDay) != 0 {
		t.Errorf("expected no per-day buckets, got %d", len(r.PerDay))
	}
}

func TestSummarizePeriod_Week(t *testing.T) {
	e := newTestEngine(seededStore())

	r, err := e.summarizePeriod(context.Background(), "u1", at(2024, 3, 8, 9), granularityWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approx(r.Totals.Calories, 750) {
		t.Errorf("expected 750 kcal, got %v", r.Totals.Calories)
	}
	if len(r.PerDay) != 3 {
		t.Errorf("expected buckets for mon, tue, wed; got %d", len(r.PerDay))
	}
	if r.WorkoutCount != 2 {
		t.Errorf("expected 2 workouts, got %d", r.WorkoutCount)
	}
	if len(r.FoodFrequency) == 0 || r.FoodFrequency[0].FoodID != "egg" || r.FoodFrequency[0].Count != 2 {
		t.Errorf("expected egg most frequent, got %+v", r.FoodFrequency)
	}
}

/* ─── Best-effort fetches ────────────────────────────────────────────── */

// TestSummarize_WorkoutFetchFails verifies the meal half still comes back
// with a warning when workouts can't be read.
func TestSummarize_WorkoutFetchFails(t *testing.T) {
	store := seededStore()
	store.failQuery[collectionWorkouts] = errors.New("permission denied")
	e := newTestEngine(store)

	r, err := e.summarizePeriod(context.Background(), "u1", at(2024, 3, 5, 15), granularityDay)
	if err != nil {
		t.Fatalf("expected partial result, got error: %v", err)
	}
	if !approx(r.Totals.Calories, 600) {
		t.Errorf("expected meal totals intact, got %v", r.Totals.Calories)
	}
	if r.BurnedCalories != 0 || len(r.ExerciseDistribution) != 0 {
		t.Errorf("expected empty workout half, got %v / %+v", r.BurnedCalories, r.ExerciseDistribution)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Source != collectionWorkouts {
		t.Errorf("expected one workouts warning, got %+v", r.Warnings)
	}
}

// TestSummarize_MealFetchFails verifies a failed meal fetch skips food
// lookups and still reports workouts.
func TestSummarize_MealFetchFails(t *testing.T) {
	store := seededStore()
	store.failQuery[collectionMeals] = errors.New("unavailable")
	e := newTestEngine(store)

	r, err := e.summarizePeriod(context.Background(), "u1", at(2024, 3, 5, 15), granularityDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Totals != (nutritionTotals{}) || r.BurnedCalories != 300 {
		t.Errorf("expected workouts only, got %+v burned %v", r.Totals, r.BurnedCalories)
	}
	if n := store.getCalls.Load(); n != 0 {
		t.Errorf("expected no food lookups, got %d", n)
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Source != collectionMeals {
		t.Errorf("expected one meals warning, got %+v", r.Warnings)
	}
}

// TestSummarize_InvalidRange verifies a backwards window is rejected before
// any fetch.
func TestSummarize_InvalidRange(t *testing.T) {
	store := seededStore()
	e := newTestEngine(store)

	_, err := e.summarizeRange(context.Background(), "u1", at(2024, 3, 6, 0), at(2024, 3, 4, 0))
	var rangeErr *invalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected invalidRangeError, got %v", err)
	}

	_, err = e.summarize(context.Background(), "u1", periodWindow{Start: at(2024, 3, 6, 0), End: at(2024, 3, 6, 0)})
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected invalidRangeError for empty window, got %v", err)
	}
	if n := store.queryCalls.Load(); n != 0 {
		t.Errorf("expected no queries, got %d", n)
	}
}

// TestSummarize_Cancelled verifies a cancelled caller gets an error and no
// partial result.
func TestSummarize_Cancelled(t *testing.T) {
	e := newTestEngine(seededStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := e.summarizePeriod(ctx, "u1", at(2024, 3, 5, 15), granularityDay)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.MealsByType != nil || r.Totals.Calories != 0 {
		t.Errorf("expected zero result, got %+v", r)
	}
}

func TestSummarizeRange_Custom(t *testing.T) {
	e := newTestEngine(seededStore())

	r, err := e.summarizeRange(context.Background(), "u1", at(2024, 3, 5, 0), at(2024, 3, 7, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Window.Granularity != granularityCustom {
		t.Errorf("expected custom window, got %q", r.Window.Granularity)
	}
	if len(r.PerDay) != 2 || r.WorkoutCount != 2 {
		t.Errorf("expected 2 days and 2 workouts, got %d/%d", len(r.PerDay), r.WorkoutCount)
	}

	single, err := e.summarizeRange(context.Background(), "u1", at(2024, 3, 5, 0), at(2024, 3, 6, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(single.PerDay) != 0 {
		t.Errorf("expected no per-day buckets for a one-day range, got %d", len(single.PerDay))
	}
}

/* ─── Progress ───────────────────────────────────────────────────────── */

func TestProgress_Day(t *testing.T) {
	e := newTestEngine(seededStore())
	w, _ := resolveWindow(at(2024, 3, 5, 15), granularityDay)

	report, err := e.progress(context.Background(), "u1", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Progress.Calories == nil || !approx(report.Progress.Calories.Progress, 0.3) {
		t.Errorf("expected calorie progress 0.3, got %+v", report.Progress.Calories)
	}
	if report.Progress.Workout == nil || !approx(report.Progress.Workout.Progress, 0.75) {
		t.Errorf("expected workout progress 0.75, got %+v", report.Progress.Workout)
	}
	if report.Progress.Weight == nil || report.Progress.Weight.Current != 79.5 {
		t.Errorf("expected latest weight 79.5, got %+v", report.Progress.Weight)
	}
}

// TestProgress_WeekScalesGoals verifies daily goals are multiplied by the
// window's day count.
func TestProgress_WeekScalesGoals(t *testing.T) {
	e := newTestEngine(seededStore())
	w, _ := resolveWindow(at(2024, 3, 5, 15), granularityWeek)

	report, err := e.progress(context.Background(), "u1", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Goal.CalorieGoal == nil || *report.Goal.CalorieGoal != 14000 {
		t.Errorf("expected weekly calorie goal 14000, got %v", report.Goal.CalorieGoal)
	}
	if *report.Goal.WeightGoal != 75 {
		t.Errorf("expected weight goal unscaled, got %v", *report.Goal.WeightGoal)
	}
	if report.DailyGoal.CalorieGoal == nil || *report.DailyGoal.CalorieGoal != 2000 {
		t.Errorf("expected stored daily goal 2000, got %v", report.DailyGoal.CalorieGoal)
	}
}

// TestProgressPeriod_ResolvesWindow verifies the reference time is resolved
// in the engine's calendar before the goal is scaled.
func TestProgressPeriod_ResolvesWindow(t *testing.T) {
	e := newTestEngine(seededStore())

	report, err := e.progressPeriod(context.Background(), "u1", at(2024, 3, 20, 9), granularityMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Summary.Window.Start.Equal(at(2024, 3, 1, 0)) || !report.Summary.Window.End.Equal(at(2024, 4, 1, 0)) {
		t.Errorf("unexpected window: %+v", report.Summary.Window)
	}
	if *report.Goal.CalorieGoal != 62000 {
		t.Errorf("expected 31 day calorie goal 62000, got %v", *report.Goal.CalorieGoal)
	}

	if _, err := e.progressPeriod(context.Background(), "u1", at(2024, 3, 20, 9), "fortnight"); !errors.Is(err, errUnknownGranularity) {
		t.Errorf("expected errUnknownGranularity, got %v", err)
	}
}

// TestProgress_LatestWeightQuery verifies the current weight is read with a
// single newest-first row rather than the whole history.
func TestProgress_LatestWeightQuery(t *testing.T) {
	store := seededStore()
	store.add(collectionWeights, document{"id": "wt0", "userId": "u1", "occurredAt": at(2024, 2, 1, 0), "weight": 82.0})
	e := newTestEngine(store)

	weight, err := e.entries.fetchLatestWeight(context.Background(), "u1", at(2024, 3, 6, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if weight == nil || *weight != 79.5 {
		t.Errorf("expected latest weight 79.5, got %v", weight)
	}
	want := queryOrder{Field: "occurredAt", Desc: true, Limit: 1}
	if len(store.orders) != 1 || store.orders[0] != want {
		t.Errorf("expected order %+v, got %+v", want, store.orders)
	}

	none, err := e.entries.fetchLatestWeight(context.Background(), "u1", at(2024, 1, 1, 0))
	if err != nil || none != nil {
		t.Errorf("expected no reading before the first log, got %v, %v", none, err)
	}
}

// TestWeightLog verifies readings are limited to the window and a backwards
// range is rejected.
func TestWeightLog(t *testing.T) {
	e := newTestEngine(seededStore())

	readings, err := e.weightLog(context.Background(), "u1", at(2024, 3, 2, 0), at(2024, 3, 9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(readings) != 1 || readings[0].ID != "wt2" {
		t.Errorf("expected only wt2, got %+v", readings)
	}

	_, err = e.weightLog(context.Background(), "u1", at(2024, 3, 9, 0), at(2024, 3, 2, 0))
	var rangeErr *invalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("expected invalidRangeError, got %v", err)
	}
}

// TestProgress_GoalFetchFails verifies the summary survives a goal read
// failure and the goal dimensions are simply absent.
func TestProgress_GoalFetchFails(t *testing.T) {
	store := seededStore()
	store.failGet[collectionGoals] = errors.New("unavailable")
	e := newTestEngine(store)
	w, _ := resolveWindow(at(2024, 3, 5, 15), granularityDay)

	report, err := e.progress(context.Background(), "u1", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Progress.Calories != nil || report.Progress.Weight != nil {
		t.Errorf("expected no goal dimensions, got %+v", report.Progress)
	}
	if !approx(report.Summary.Totals.Calories, 600) {
		t.Errorf("expected summary intact, got %v", report.Summary.Totals.Calories)
	}
	if len(report.Summary.Warnings) != 1 || report.Summary.Warnings[0].Source != collectionGoals {
		t.Errorf("expected goals warning, got %+v", report.Summary.Warnings)
	}
}

// TestProgress_NoGoalRecord verifies a user without goals gets an empty view
// and no warning.
func TestProgress_NoGoalRecord(t *testing.T) {
	e := newTestEngine(seededStore())
	w, _ := resolveWindow(at(2024, 3, 5, 15), granularityDay)

	report, err := e.progress(context.Background(), "u2", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Progress != (progressView{}) {
		t.Errorf("expected empty progress, got %+v", report.Progress)
	}
	if len(report.Summary.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", report.Summary.Warnings)
	}
}

func TestWarningFor_UnknownSource(t *testing.T) {
	w := warningFor(errors.New("plain"))
	if w.Source != "unknown" || w.Message == "" {
		t.Errorf("unexpected warning: %+v", w)
	}
}
