package main

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// summaryEngine fetches a window's entries and hands them to aggregate. It
// holds no per-call state; the food catalog inside foods is the only thing
// shared between calls.
type summaryEngine struct {
	store        documentStore
	entries      *entryFetcher
	foods        *foodResolver
	location     *time.Location
	fetchTimeout time.Duration
}

func newSummaryEngine(store documentStore, foods *foodResolver, location *time.Location, fetchTimeout time.Duration) *summaryEngine {
	if location == nil {
		location = time.UTC
	}
	return &summaryEngine{
		store:        store,
		entries:      newEntryFetcher(store),
		foods:        foods,
		location:     location,
		fetchTimeout: fetchTimeout,
	}
}

// summarizePeriod summarizes the day, week, or month containing reference in
// the engine's calendar.
func (e *summaryEngine) summarizePeriod(ctx context.Context, userID string, reference time.Time, g granularity) (aggregateResult, error) {
	window, err := resolveWindow(reference.In(e.location), g)
	if err != nil {
		return aggregateResult{}, err
	}
	return e.summarize(ctx, userID, window)
}

// summarizeRange summarizes an ad-hoc [start, end) window.
func (e *summaryEngine) summarizeRange(ctx context.Context, userID string, start, end time.Time) (aggregateResult, error) {
	window, err := customWindow(start.In(e.location), end.In(e.location))
	if err != nil {
		return aggregateResult{}, err
	}
	return e.summarize(ctx, userID, window)
}

// summarize runs the meal branch (fetch, then food lookups) and the workout
// fetch concurrently and aggregates once both have joined. A failed fetch
// empties its half of the result and adds a warning. The only errors returned
// are an invalid window and a cancelled ctx; partial work is discarded then.
func (e *summaryEngine) summarize(ctx context.Context, userID string, window periodWindow) (aggregateResult, error) {
	if !window.End.After(window.Start) {
		return aggregateResult{}, &invalidRangeError{Start: window.Start, End: window.End}
	}

	var (
		meals      []mealEntry
		workouts   []workoutEntry
		foods      map[string]foodMacros
		mealErr    error
		workoutErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		fetchCtx, cancel := e.withTimeout(ctx)
		defer cancel()
		meals, mealErr = e.entries.fetchMeals(fetchCtx, userID, window)
		if mealErr != nil {
			return nil
		}
		lookupCtx, cancelLookups := e.withTimeout(ctx)
		defer cancelLookups()
		foods = e.foods.resolveAll(lookupCtx, mealFoodIDs(meals))
		return nil
	})
	g.Go(func() error {
		fetchCtx, cancel := e.withTimeout(ctx)
		defer cancel()
		workouts, workoutErr = e.entries.fetchWorkouts(fetchCtx, userID, window)
		return nil
	})
	_ = g.Wait() // branches report through mealErr/workoutErr, never the group

	if err := ctx.Err(); err != nil {
		return aggregateResult{}, err
	}

	result := aggregate(window, meals, workouts, func(id string) (foodMacros, bool) {
		food, ok := foods[id]
		return food, ok
	})
	for _, err := range []error{mealErr, workoutErr} {
		if err != nil {
			result.Warnings = append(result.Warnings, warningFor(err))
			log.Printf("[summarize] user %s window %s..%s: %v", userID,
				window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), err)
		}
	}
	return result, nil
}

// progressPeriod reports progress for the day, week, or month containing
// reference in the engine's calendar.
func (e *summaryEngine) progressPeriod(ctx context.Context, userID string, reference time.Time, g granularity) (progressReport, error) {
	window, err := resolveWindow(reference.In(e.location), g)
	if err != nil {
		return progressReport{}, err
	}
	return e.progress(ctx, userID, window)
}

// weightLog returns the user's weight readings in [start, end), oldest first.
func (e *summaryEngine) weightLog(ctx context.Context, userID string, start, end time.Time) ([]weightReading, error) {
	window, err := customWindow(start.In(e.location), end.In(e.location))
	if err != nil {
		return nil, err
	}
	fetchCtx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.entries.fetchWeights(fetchCtx, userID, window)
}

// progress summarizes window and compares it against the user's goal. The
// goal and latest weight are read alongside the summary; if either read fails
// the summary still comes back, with a warning and that dimension missing.
func (e *summaryEngine) progress(ctx context.Context, userID string, window periodWindow) (progressReport, error) {
	var (
		summary    aggregateResult
		summaryErr error
		userGoal   goal
		goalErr    error
		weight     *float64
		weightErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		summary, summaryErr = e.summarize(ctx, userID, window)
		return nil
	})
	g.Go(func() error {
		fetchCtx, cancel := e.withTimeout(ctx)
		defer cancel()
		userGoal, goalErr = fetchGoal(fetchCtx, e.store, userID)
		return nil
	})
	g.Go(func() error {
		fetchCtx, cancel := e.withTimeout(ctx)
		defer cancel()
		weight, weightErr = e.entries.fetchLatestWeight(fetchCtx, userID, window.End)
		return nil
	})
	_ = g.Wait()

	if summaryErr != nil {
		return progressReport{}, summaryErr
	}
	if err := ctx.Err(); err != nil {
		return progressReport{}, err
	}
	for _, err := range []error{goalErr, weightErr} {
		if err != nil {
			summary.Warnings = append(summary.Warnings, warningFor(err))
			log.Printf("[progress] user %s: %v", userID, err)
		}
	}

	windowGoal := userGoal.forDays(window.days())
	return progressReport{
		Summary:   summary,
		Goal:      windowGoal,
		DailyGoal: userGoal,
		Progress: compareGoal(goalInput{
			ConsumedCalories: summary.Totals.Calories,
			BurnedCalories:   summary.BurnedCalories,
			CurrentWeight:    weight,
		}, windowGoal),
	}, nil
}

func (e *summaryEngine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.fetchTimeout)
}

// warningFor converts a sub-fetch failure into a client-facing warning. The
// underlying error is logged, not exposed.
func warningFor(err error) aggregateWarning {
	source := "unknown"
	var fe *fetchError
	if errors.As(err, &fe) {
		source = fe.Collection
	}
	return aggregateWarning{
		Source:  source,
		Message: "failed to fetch " + source + "; totals may be incomplete",
	}
}

// mealFoodIDs lists every food id referenced by meals, duplicates included;
// resolveAll de-duplicates.
func mealFoodIDs(meals []mealEntry) []string {
	var ids []string
	for _, m := range meals {
		for _, line := range m.Lines {
			ids = append(ids, line.FoodID)
		}
	}
	return ids
}
