package mirror

import (
	"context"
	"encoding/json"
	"sync"

	"canteen-be/internal/logger"
	"canteen-be/internal/order"

	"go.uber.org/zap"
)

// StatusResolver looks up live persisted statuses for entries that
// carry a db_order_id. order.Repository satisfies it.
type StatusResolver interface {
	Statuses(ctx context.Context, ids []string) (map[string]order.Status, error)
}

// Cache is the per-device fallback/legacy store of order records.
// It is never shared across devices, so plain overwrite-on-upsert is
// enough; the persistent store stays the source of truth whenever an
// entry resolves to a live row.
//
// Every operation is a load-modify-save over whole collections, so mu
// is held across the full cycle. Poller refreshes and request handlers
// hit the same cache concurrently.
type Cache struct {
	mu       sync.Mutex
	storage  Storage
	resolver StatusResolver
}

func NewCache(storage Storage, resolver StatusResolver) *Cache {
	return &Cache{storage: storage, resolver: resolver}
}

// load tolerates a missing or corrupt collection by treating it as
// empty, matching how the browser app handled localStorage.
func (c *Cache) load(collection string) []Entry {
	data, err := c.storage.Read(collection)
	if err != nil || len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Named("mirror").Warn("corrupt collection treated as empty",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil
	}
	return entries
}

func (c *Cache) save(collection string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.storage.Write(collection, data)
}

// Upsert inserts or replaces by LocalOrderID, filing the entry under
// the collection matching its status. Cancelled entries are removed.
func (c *Cache) Upsert(entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upsertLocked(entry)
}

func (c *Cache) upsertLocked(entry Entry) error {
	target, ok := CollectionFor(entry.Status)
	if !ok {
		return c.removeLocked(entry.LocalOrderID)
	}

	for _, collection := range Collections {
		entries := c.load(collection)
		filtered := removeByID(entries, entry.LocalOrderID)

		if collection == target {
			filtered = append(filtered, entry)
		}
		if len(filtered) != len(entries) || collection == target {
			if err := c.save(collection, filtered); err != nil {
				return err
			}
		}
	}
	return nil
}

// Remove deletes the entry from every collection. Used for the
// cancel-from-pending path where no persistent row exists.
func (c *Cache) Remove(localOrderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(localOrderID)
}

func (c *Cache) removeLocked(localOrderID string) error {
	for _, collection := range Collections {
		entries := c.load(collection)
		filtered := removeByID(entries, localOrderID)
		if len(filtered) == len(entries) {
			continue
		}
		if err := c.save(collection, filtered); err != nil {
			return err
		}
	}
	return nil
}

// ListByStatus returns entries whose effective status matches. The
// effective status is the live persisted one when the entry has a
// db_order_id and the resolver answers; otherwise the cached status
// (stale-but-available beats unavailable). Entries whose effective
// status moved are refiled as a side effect.
func (c *Cache) ListByStatus(ctx context.Context, status order.Status) ([]Entry, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "mirror"))

	c.mu.Lock()
	defer c.mu.Unlock()

	all := make([]Entry, 0)
	for _, collection := range Collections {
		all = append(all, c.load(collection)...)
	}

	var dbIDs []string
	for _, e := range all {
		if e.DBOrderID != "" {
			dbIDs = append(dbIDs, e.DBOrderID)
		}
	}

	resolved := map[string]order.Status{}
	if len(dbIDs) > 0 {
		live, err := c.resolver.Statuses(ctx, dbIDs)
		if err != nil {
			log.Warn("status overlay unavailable, serving cached statuses", zap.Error(err))
		} else {
			resolved = live
		}
	}

	var result []Entry
	for _, e := range all {
		effective := e.Status
		if e.DBOrderID != "" {
			if live, ok := resolved[e.DBOrderID]; ok {
				effective = live
			}
		}

		if effective != e.Status {
			e.Status = effective
			if err := c.upsertLocked(e); err != nil {
				log.Warn("failed to refile reconciled entry", zap.Error(err))
			}
		}

		if effective == status {
			result = append(result, e)
		}
	}

	return result, nil
}

// DedupeAgainst drops entries that mirror a persistent order already
// present in orders, so merged admin views never double-count.
func DedupeAgainst(entries []Entry, orders []*order.Order) []Entry {
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		seen[o.ID] = true
	}

	var out []Entry
	for _, e := range entries {
		if e.DBOrderID != "" && seen[e.DBOrderID] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func removeByID(entries []Entry, localOrderID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.LocalOrderID != localOrderID {
			out = append(out, e)
		}
	}
	return out
}
