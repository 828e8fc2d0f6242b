package main

// goalInput is the current value for each goal dimension. CurrentWeight is nil
// when the user has no weight reading.
type goalInput struct {
	ConsumedCalories float64
	BurnedCalories   float64
	CurrentWeight    *float64
}

// goalProgress is one dimension of a progressView. Progress is current/goal
// and is not clamped; clients clamp to [0,1] for progress bars.
type goalProgress struct {
	Current  float64 `json:"current"`
	Goal     float64 `json:"goal"`
	Progress float64 `json:"progress"`
}

// progressView has a dimension for every goal the user set. An unset goal
// leaves its dimension nil, which is not the same as zero progress.
type progressView struct {
	Calories *goalProgress `json:"calories"`
	Workout  *goalProgress `json:"workout"`
	Weight   *goalProgress `json:"weight"`
}

// compareGoal combines current totals with the stored goal.
func compareGoal(current goalInput, g goal) progressView {
	var view progressView
	if g.CalorieGoal != nil {
		view.Calories = newGoalProgress(current.ConsumedCalories, *g.CalorieGoal)
	}
	if g.WorkoutGoal != nil {
		view.Workout = newGoalProgress(current.BurnedCalories, *g.WorkoutGoal)
	}
	if g.WeightGoal != nil && current.CurrentWeight != nil {
		view.Weight = newGoalProgress(*current.CurrentWeight, *g.WeightGoal)
	}
	return view
}

// newGoalProgress divides current by target. A non-positive target would give
// Inf or NaN, which JSON cannot carry, so it maps to 0 (nothing logged) or 1.
func newGoalProgress(current, target float64) *goalProgress {
	p := &goalProgress{Current: current, Goal: target}
	switch {
	case target > 0:
		p.Progress = current / target
	case current > 0:
		p.Progress = 1
	}
	return p
}

// forDays scales the daily calorie and workout goals to an n-day window. The
// weight goal is a target, not a rate, so it is left alone.
func (g goal) forDays(n int) goal {
	if n <= 1 {
		return g
	}
	scale := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		s := *v * float64(n)
		return &s
	}
	return goal{
		CalorieGoal: scale(g.CalorieGoal),
		WorkoutGoal: scale(g.WorkoutGoal),
		WeightGoal:  g.WeightGoal,
	}
}
