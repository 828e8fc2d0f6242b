package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// document is one record from the store, keyed by field name (userId,
// occurredAt, ...), not by column name.
type document map[string]any

// Filter operators the engine needs: owner equality plus a half-open range.
const (
	opEq  = "=="
	opGte = ">="
	opLt  = "<"
)

type queryFilter struct {
	Field string
	Op    string
	Value any
}

var (
	errDocumentNotFound    = errors.New("document not found")
	errUnknownCollection   = errors.New("unknown collection")
	errUnknownField        = errors.New("unknown field")
	errUnsupportedOperator = errors.New("unsupported operator")
)

// queryOrder sorts and caps a Query. The zero value means store order and no
// limit.
type queryOrder struct {
	Field string
	Desc  bool
	Limit int
}

func ascending(field string) queryOrder { return queryOrder{Field: field} }

// documentStore is the read side of the remote store.
type documentStore interface {
	Query(ctx context.Context, collection string, filters []queryFilter, order queryOrder) ([]document, error)
	GetByID(ctx context.Context, collection, id string) (document, error)
}

/* ─── Postgres implementation ────────────────────────────────────────── */

// Collection names used by the engine.
const (
	collectionMeals    = "meals"
	collectionWorkouts = "workouts"
	collectionFoods    = "foods"
	collectionGoals    = "goals"
	collectionWeights  = "weights"
)

// collectionSchema maps a collection onto a table. fields maps document field
// names to column names; every collection must map "id".
type collectionSchema struct {
	table  string
	fields map[string]string
}

// collectionSchemas is the single source of truth for which fields the store
// will select or filter on. Anything else is rejected before SQL is built.
var collectionSchemas = map[string]collectionSchema{
	collectionMeals: {table: "meal_entries", fields: map[string]string{
		"id":         "id",
		"userId":     "user_id",
		"mealType":   "meal_type",
		"occurredAt": "occurred_at",
		"lines":      "lines",
		"createdAt":  "created_at",
	}},
	collectionWorkouts: {table: "workout_entries", fields: map[string]string{
		"id":              "id",
		"userId":          "user_id",
		"exerciseName":    "exercise_name",
		"occurredAt":      "occurred_at",
		"durationSeconds": "duration_seconds",
		"caloriesBurned":  "calories_burned",
		"weightLifted":    "weight_lifted",
	}},
	collectionFoods: {table: "foods", fields: map[string]string{
		"id":              "id",
		"name":            "name",
		"caloriesPer100g": "calories_per_100g",
		"proteinPer100g":  "protein_per_100g",
		"carbsPer100g":    "carbs_per_100g",
		"fatPer100g":      "fat_per_100g",
	}},
	collectionGoals: {table: "user_goals", fields: map[string]string{
		"id":          "user_id",
		"calorieGoal": "calorie_goal",
		"workoutGoal": "workout_goal",
		"weightGoal":  "weight_goal",
	}},
	collectionWeights: {table: "weight_log", fields: map[string]string{
		"id":         "id",
		"userId":     "user_id",
		"occurredAt": "date",
		"weight":     "weight",
	}},
}

// pgQuerier is the subset of *pgxpool.Pool the store uses.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgDocumentStore serves documents out of per-collection Postgres tables.
type pgDocumentStore struct {
	db pgQuerier
}

func newPGDocumentStore(db pgQuerier) *pgDocumentStore {
	return &pgDocumentStore{db: db}
}

func (s *pgDocumentStore) Query(ctx context.Context, collection string, filters []queryFilter, order queryOrder) ([]document, error) {
	sql, args, err := buildSelect(collection, filters, order)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, sql, args)
}

func (s *pgDocumentStore) GetByID(ctx context.Context, collection, id string) (document, error) {
	sql, args, err := buildSelect(collection, []queryFilter{{Field: "id", Op: opEq, Value: id}}, queryOrder{Limit: 1})
	if err != nil {
		return nil, err
	}
	docs, err := s.collect(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errDocumentNotFound
	}
	return docs[0], nil
}

func (s *pgDocumentStore) collect(ctx context.Context, sql string, args pgx.NamedArgs) ([]document, error) {
	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[documentStore] Query error: %v", err)
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		log.Printf("[documentStore] Scan error: %v", err)
		return nil, err
	}
	docs := make([]document, len(maps))
	for i, m := range maps {
		docs[i] = document(m)
	}
	return docs, nil
}

// buildSelect renders a SELECT for collection. Columns are aliased back to
// field names so RowToMap produces documents keyed the way the engine reads
// them. A non-positive order.Limit means no LIMIT clause.
func buildSelect(collection string, filters []queryFilter, order queryOrder) (string, pgx.NamedArgs, error) {
	schema, ok := collectionSchemas[collection]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", errUnknownCollection, collection)
	}

	// Sort field names so the generated SQL is stable.
	names := make([]string, 0, len(schema.fields))
	for name := range schema.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	selects := make([]string, len(names))
	for i, name := range names {
		selects[i] = fmt.Sprintf(`%s AS "%s"`, schema.fields[name], name)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selects, ", "))
	b.WriteString(" FROM ")
	b.WriteString(schema.table)

	args := pgx.NamedArgs{}
	for i, f := range filters {
		column, ok := schema.fields[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s.%s", errUnknownField, collection, f.Field)
		}
		var sqlOp string
		switch f.Op {
		case opEq:
			sqlOp = "="
		case opGte, opLt:
			sqlOp = f.Op
		default:
			return "", nil, fmt.Errorf("%w: %q", errUnsupportedOperator, f.Op)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		param := fmt.Sprintf("p%d", i)
		fmt.Fprintf(&b, "%s %s @%s", column, sqlOp, param)
		args[param] = f.Value
	}

	if order.Field != "" {
		column, ok := schema.fields[order.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s.%s", errUnknownField, collection, order.Field)
		}
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", column, direction)
	}
	if order.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", order.Limit)
	}
	return b.String(), args, nil
}
