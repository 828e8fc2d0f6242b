package main

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// memoryStore is an in-memory documentStore for tests. It understands the
// same filter operators as pgDocumentStore and counts calls so tests can
// assert on fetch behaviour.
type memoryStore struct {
	mu          sync.Mutex
	collections map[string][]document
	failQuery   map[string]error // collection -> error returned by Query
	failGet     map[string]error // collection -> error returned by GetByID

	queryCalls atomic.Int64
	getCalls   atomic.Int64
	queries    []string     // collections queried, in call order
	orders     []queryOrder // order passed with each query
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		collections: map[string][]document{},
		failQuery:   map[string]error{},
		failGet:     map[string]error{},
	}
}

func (s *memoryStore) add(collection string, docs ...document) *memoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], docs...)
	return s
}

func (s *memoryStore) Query(ctx context.Context, collection string, filters []queryFilter, order queryOrder) ([]document, error) {
	s.queryCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, collection)
	s.orders = append(s.orders, order)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.failQuery[collection]; err != nil {
		return nil, err
	}

	var out []document
	for _, d := range s.collections[collection] {
		if matchesAll(d, filters) {
			out = append(out, d)
		}
	}
	if order.Field != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c, _ := compareValues(out[i][order.Field], out[j][order.Field])
			if order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if order.Limit > 0 && len(out) > order.Limit {
		out = out[:order.Limit]
	}
	return out, nil
}

func (s *memoryStore) GetByID(ctx context.Context, collection, id string) (document, error) {
	s.getCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.failGet[collection]; err != nil {
		return nil, err
	}
	for _, d := range s.collections[collection] {
		if d["id"] == id {
			return d, nil
		}
	}
	return nil, errDocumentNotFound
}

func matchesAll(d document, filters []queryFilter) bool {
	for _, f := range filters {
		c, ok := compareValues(d[f.Field], f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case opEq:
			if c != 0 {
				return false
			}
		case opGte:
			if c < 0 {
				return false
			}
		case opLt:
			if c >= 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders strings, floats, and times. ok is false for
// mismatched or unsupported types.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

/* ─── Fixtures ───────────────────────────────────────────────────────── */

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func foodDoc(id, name string, calories, protein, carbs, fat float64) document {
	return document{
		"id":              id,
		"name":            name,
		"caloriesPer100g": calories,
		"proteinPer100g":  protein,
		"carbsPer100g":    carbs,
		"fatPer100g":      fat,
	}
}

func mealDoc(id, userID string, mt mealType, occurredAt time.Time, lines ...map[string]any) document {
	raw := make([]any, len(lines))
	for i, l := range lines {
		raw[i] = l
	}
	return document{
		"id":         id,
		"userId":     userID,
		"mealType":   string(mt),
		"occurredAt": occurredAt,
		"lines":      raw,
	}
}

func line(foodID string, grams float64) map[string]any {
	return map[string]any{"foodId": foodID, "portionGrams": grams}
}

func workoutDoc(id, userID, exercise string, occurredAt time.Time, burned *float64) document {
	d := document{
		"id":              id,
		"userId":          userID,
		"exerciseName":    exercise,
		"occurredAt":      occurredAt,
		"durationSeconds": 1800.0,
	}
	if burned != nil {
		d["caloriesBurned"] = *burned
	}
	return d
}

func ptr(v float64) *float64 { return &v }
