package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool, document store, engine) for all route handlers.
type Handler struct {
	db       *pgxpool.Pool
	store    documentStore
	engine   *summaryEngine
	location *time.Location // calendar used to read dates from query params
}

// newHandler wires the engine over store. db may be nil when only read
// routes are exercised (tests).
func newHandler(db *pgxpool.Pool, store documentStore, cfg config) *Handler {
	foods := newFoodResolver(store, cfg.FoodFetchConcurrency, cfg.FetchTimeout)
	return &Handler{
		db:       db,
		store:    store,
		engine:   newSummaryEngine(store, foods, cfg.Location, cfg.FetchTimeout),
		location: cfg.Location,
	}
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](pool *pgxpool.Pool, c *gin.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(c, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn) because
// the summary engine issues several queries concurrently per request.
func getDBPool(dbURL string) *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	log.Println("DB pool ready!")
	return pool
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	api := router.Group("/api", h.authMiddleware())
	h.registerReadRoutes(api)
}

// registerReadRoutes attaches the summary routes to an already-authenticated
// group. Split out so tests can mount them behind a stub auth middleware.
func (h *Handler) registerReadRoutes(api *gin.RouterGroup) {
	api.GET("/summary", h.getPeriodSummary)
	api.GET("/summary/range", h.getRangeSummary)
	api.GET("/progress", h.getProgress)
	api.GET("/goals", h.getGoals)
	api.PATCH("/goals", h.patchGoals)
	api.GET("/weight-log", h.getWeightLog)
	api.GET("/foods", h.getFoods)
}
