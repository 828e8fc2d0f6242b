package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// goalRow maps to user_goals. One row per user; every target is nullable.
type goalRow struct {
	UserID      string   `db:"user_id"`
	CalorieGoal *float64 `db:"calorie_goal"`
	WorkoutGoal *float64 `db:"workout_goal"`
	WeightGoal  *float64 `db:"weight_goal"`
}

func (r goalRow) goal() goal {
	return goal{CalorieGoal: r.CalorieGoal, WorkoutGoal: r.WorkoutGoal, WeightGoal: r.WeightGoal}
}

// fetchGoal reads the user's goal record. A user without one gets an empty
// goal (every dimension unset), not an error.
func fetchGoal(ctx context.Context, store documentStore, userID string) (goal, error) {
	d, err := store.GetByID(ctx, collectionGoals, userID)
	if err != nil {
		if errors.Is(err, errDocumentNotFound) {
			return goal{}, nil
		}
		return goal{}, &fetchError{Collection: collectionGoals, Err: err}
	}
	return decodeGoal(d), nil
}

// getGoals returns the authenticated user's goal record.
// GET /api/goals. Unset goals are null.
func (h *Handler) getGoals(c *gin.Context) {
	userID := c.GetString("user_id")

	g, err := fetchGoal(c.Request.Context(), h.store, userID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}

	c.JSON(http.StatusOK, g)
}

// patchGoals creates or updates only the provided goal fields.
// PATCH /api/goals. Pointer fields distinguish "not provided" from zero.
func (h *Handler) patchGoals(c *gin.Context) {
	userID := c.GetString("user_id")

	var body patchGoalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Only columns the client actually sent are inserted or updated
	fields := []struct {
		column string
		param  string
		value  *float64
	}{
		{"calorie_goal", "calorieGoal", body.CalorieGoal},
		{"workout_goal", "workoutGoal", body.WorkoutGoal},
		{"weight_goal", "weightGoal", body.WeightGoal},
	}
	columns := []string{"user_id"}
	params := []string{"@userID"}
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 0 {
			apiError(c, http.StatusBadRequest, f.column+" must not be negative")
			return
		}
		columns = append(columns, f.column)
		params = append(params, "@"+f.param)
		setClauses = append(setClauses, f.column+" = EXCLUDED."+f.column)
		args[f.param] = *f.value
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	// The first PATCH creates the row; later ones touch only the columns sent.
	query := "INSERT INTO user_goals (" + strings.Join(columns, ", ") + ")" +
		" VALUES (" + strings.Join(params, ", ") + ")" +
		" ON CONFLICT (user_id) DO UPDATE SET " + strings.Join(setClauses, ", ") +
		" RETURNING *"
	row, err := queryOne[goalRow](h.db, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update goals")
		return
	}

	c.JSON(http.StatusOK, row.goal())
}
