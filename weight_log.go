package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// fetchWeights returns the user's weight readings in window, oldest first.
func (f *entryFetcher) fetchWeights(ctx context.Context, userID string, window periodWindow) ([]weightReading, error) {
	docs, err := f.store.Query(ctx, collectionWeights, windowFilters(userID, window), ascending("occurredAt"))
	if err != nil {
		return nil, &fetchError{Collection: collectionWeights, Err: err}
	}
	return decodeWeights(docs), nil
}

// fetchLatestWeight returns the most recent reading strictly before `before`,
// or nil when the user has never logged a weight. Readings are not limited to
// the summary window: a weight logged last month is still the current weight.
func (f *entryFetcher) fetchLatestWeight(ctx context.Context, userID string, before time.Time) (*float64, error) {
	docs, err := f.store.Query(ctx, collectionWeights, []queryFilter{
		{Field: "userId", Op: opEq, Value: userID},
		{Field: "occurredAt", Op: opLt, Value: before},
	}, queryOrder{Field: "occurredAt", Desc: true, Limit: 1})
	if err != nil {
		return nil, &fetchError{Collection: collectionWeights, Err: err}
	}
	readings := decodeWeights(docs)
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0].Weight, nil
}

func decodeWeights(docs []document) []weightReading {
	readings := make([]weightReading, 0, len(docs))
	for _, d := range docs {
		at := docTime(d, "occurredAt")
		readings = append(readings, weightReading{
			ID:         docString(d, "id"),
			Date:       DateOnly{at},
			Weight:     docFloat(d, "weight"),
			OccurredAt: at,
		})
	}
	return readings
}

// getWeightLog returns weight readings for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetString("user_id")

	start, end, ok := h.parseRangeQuery(c)
	if !ok {
		return
	}

	readings, err := h.engine.weightLog(c.Request.Context(), userID, start, end)
	if err != nil {
		var rangeErr *invalidRangeError
		if errors.As(err, &rangeErr) {
			apiError(c, http.StatusBadRequest, rangeErr.Error())
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}

	c.JSON(http.StatusOK, readings)
}
