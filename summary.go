package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// getPeriodSummary returns the rollup for the day, week, or month containing date.
// GET /api/summary?granularity=day|week|month&date=YYYY-MM-DD (defaults: day, today).
func (h *Handler) getPeriodSummary(c *gin.Context) {
	userID := c.GetString("user_id")

	reference, g, ok := h.parsePeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.engine.summarizePeriod(c.Request.Context(), userID, reference, g)
	if err != nil {
		h.summaryError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getRangeSummary returns the rollup for an arbitrary run of days.
// GET /api/summary/range?start=YYYY-MM-DD&end=YYYY-MM-DD. Both days are included.
func (h *Handler) getRangeSummary(c *gin.Context) {
	userID := c.GetString("user_id")

	start, end, ok := h.parseRangeQuery(c)
	if !ok {
		return
	}

	result, err := h.engine.summarizeRange(c.Request.Context(), userID, start, end)
	if err != nil {
		h.summaryError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getProgress returns the period rollup alongside the user's goals and the
// fraction of each goal reached. goal is the stored daily goal multiplied by
// the number of days in the period (weight_goal is never scaled); daily_goal
// is the stored record as-is.
// GET /api/progress?granularity=day|week|month&date=YYYY-MM-DD.
func (h *Handler) getProgress(c *gin.Context) {
	userID := c.GetString("user_id")

	reference, g, ok := h.parsePeriodQuery(c)
	if !ok {
		return
	}

	report, err := h.engine.progressPeriod(c.Request.Context(), userID, reference, g)
	if err != nil {
		h.summaryError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

/* ─── Query parsing ───────────────────────────────────────────────────── */

// parsePeriodQuery reads granularity and date, writing a 400 on bad input.
// date defaults to today in the handler's calendar.
func (h *Handler) parsePeriodQuery(c *gin.Context) (time.Time, granularity, bool) {
	g, err := parseGranularity(c.DefaultQuery("granularity", string(granularityDay)))
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, "", false
	}

	reference := time.Now().In(h.location)
	if raw := c.Query("date"); raw != "" {
		reference, err = time.ParseInLocation(dateLayout, raw, h.location)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return time.Time{}, "", false
		}
	}
	return reference, g, true
}

// parseRangeQuery reads the required start/end days, writing a 400 on bad
// input. The returned end is midnight after the end day so both days are
// covered; ordering is checked by the engine.
func (h *Handler) parseRangeQuery(c *gin.Context) (start, end time.Time, ok bool) {
	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw == "" || endRaw == "" {
		apiError(c, http.StatusBadRequest, "start and end are required")
		return time.Time{}, time.Time{}, false
	}

	start, err := time.ParseInLocation(dateLayout, startRaw, h.location)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	lastDay, err := time.ParseInLocation(dateLayout, endRaw, h.location)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, lastDay.AddDate(0, 0, 1), true
}

// summaryError maps engine errors to responses. Fetch failures never reach
// here; they come back as warnings on a 200.
func (h *Handler) summaryError(c *gin.Context, err error) {
	var rangeErr *invalidRangeError
	switch {
	case errors.As(err, &rangeErr):
		apiError(c, http.StatusBadRequest, rangeErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		apiError(c, http.StatusGatewayTimeout, "summary timed out")
	case errors.Is(err, context.Canceled):
		log.Printf("[summary] request cancelled: %v", err)
		c.Status(http.StatusRequestTimeout)
	default:
		log.Printf("[summary] %v", err)
		apiError(c, http.StatusInternalServerError, "failed to build summary")
	}
}
