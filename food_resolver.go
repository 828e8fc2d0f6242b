package main

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// foodResolver turns food ids into macro records. The catalog lives for the
// whole process and is never invalidated; writes are idempotent, so a
// sync.Map is the only synchronisation it needs.
type foodResolver struct {
	store         documentStore
	concurrency   int
	lookupTimeout time.Duration

	catalog sync.Map // food id -> foodMacros
	loaded  atomic.Bool
	lookups singleflight.Group
}

func newFoodResolver(store documentStore, concurrency int, lookupTimeout time.Duration) *foodResolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &foodResolver{store: store, concurrency: concurrency, lookupTimeout: lookupTimeout}
}

// loadCatalog bulk-lists every food, ordered by name, into the catalog. On
// failure the catalog stays cold and resolve falls back to per-id fetches.
func (r *foodResolver) loadCatalog(ctx context.Context) error {
	docs, err := r.store.Query(ctx, collectionFoods, nil, ascending("name"))
	if err != nil {
		return err
	}
	for _, d := range docs {
		food := decodeFood(d)
		r.catalog.Store(food.ID, food)
	}
	r.loaded.Store(true)
	log.Printf("[foodResolver] catalog loaded with %d foods", len(docs))
	return nil
}

// catalogLoaded reports whether the bulk listing has completed.
func (r *foodResolver) catalogLoaded() bool {
	return r.loaded.Load()
}

// foods returns every cached food sorted by name.
func (r *foodResolver) foods() []foodMacros {
	out := []foodMacros{}
	r.catalog.Range(func(_, v any) bool {
		out = append(out, v.(foodMacros))
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// resolve returns the food for id, or ok=false when it is missing. A catalog
// miss falls back to a per-id fetch so foods created after the preload still
// resolve. Concurrent lookups of the same id share one fetch; that fetch
// outlives any single caller, so one caller giving up never fails the others.
func (r *foodResolver) resolve(ctx context.Context, id string) (foodMacros, bool) {
	if v, ok := r.catalog.Load(id); ok {
		return v.(foodMacros), true
	}

	ch := r.lookups.DoChan(id, func() (any, error) {
		fetchCtx, cancel := r.detached(ctx)
		defer cancel()
		d, err := r.store.GetByID(fetchCtx, collectionFoods, id)
		if err != nil {
			return nil, err
		}
		food := decodeFood(d)
		if food.ID == "" {
			food.ID = id
		}
		r.catalog.Store(id, food)
		return food, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, errDocumentNotFound) {
				log.Printf("[foodResolver] lookup %q failed: %v", id, res.Err)
			}
			return foodMacros{}, false
		}
		return res.Val.(foodMacros), true
	case <-ctx.Done():
		return foodMacros{}, false
	}
}

// detached drops ctx's cancellation but keeps its values, bounded by the
// resolver's own lookup timeout.
func (r *foodResolver) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if r.lookupTimeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, r.lookupTimeout)
}

// resolveAll resolves every distinct id in ids, fanning out at most
// r.concurrency lookups at a time. Missing ids are absent from the result.
func (r *foodResolver) resolveAll(ctx context.Context, ids []string) map[string]foodMacros {
	distinct := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	// Each goroutine writes only its own index, so no lock is needed.
	found := make([]foodMacros, len(distinct))
	ok := make([]bool, len(distinct))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range distinct {
		g.Go(func() error {
			found[i], ok[i] = r.resolve(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // lookups never fail the group; missing foods are dropped

	resolved := make(map[string]foodMacros, len(distinct))
	for i, id := range distinct {
		if ok[i] {
			resolved[id] = found[i]
		}
	}
	return resolved
}
