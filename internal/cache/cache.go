// Package cache is the read-through entity cache shared by all rooms:
// lottery metadata, computed priority lists, and participant profiles
// each live in their own TTL-bounded map.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

type Stats struct {
	LotteryCacheSize      int `json:"lotteryCacheSize"`
	PriorityListCacheSize int `json:"priorityListCacheSize"`
	UserCacheSize         int `json:"userCacheSize"`
}

type Cache struct {
	catalog store.Catalog

	lotteries *gocache.Cache
	priority  *gocache.Cache
	users     *gocache.Cache
}

func New(catalog store.Catalog, ttl time.Duration) *Cache {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Cache{
		catalog:   catalog,
		lotteries: gocache.New(ttl, cleanup),
		// Priority lists live for the life of the room; eviction is
		// explicit via InvalidateRoom.
		priority: gocache.New(gocache.NoExpiration, 0),
		users:    gocache.New(ttl, cleanup),
	}
}

// Lottery reads through to the catalog on miss and caches the hit.
func (c *Cache) Lottery(ctx context.Context, id string) (*store.LotterySnapshot, error) {
	if v, ok := c.lotteries.Get(id); ok {
		return v.(*store.LotterySnapshot), nil
	}
	snap, err := c.catalog.Lottery(ctx, id)
	if err != nil {
		return nil, err
	}
	c.lotteries.SetDefault(id, snap)
	return snap, nil
}

// Participant reads through to the catalog on miss.
func (c *Cache) Participant(ctx context.Context, id string) (*store.ParticipantProfile, error) {
	if v, ok := c.users.Get(id); ok {
		return v.(*store.ParticipantProfile), nil
	}
	p, err := c.catalog.Participant(ctx, id)
	if err != nil {
		return nil, err
	}
	c.users.SetDefault(id, p)
	return p, nil
}

// PutPriorityList stores a room's computed order. Rooms write it once,
// at the shuffle; readers during drafting never recompute.
func (c *Cache) PutPriorityList(roomID string, order []engine.PriorityEntry) {
	c.priority.Set(roomID, order, gocache.NoExpiration)
}

func (c *Cache) PriorityList(roomID string) ([]engine.PriorityEntry, bool) {
	v, ok := c.priority.Get(roomID)
	if !ok {
		return nil, false
	}
	return v.([]engine.PriorityEntry), true
}

// InvalidateRoom drops everything keyed by the room when the registry
// destroys it.
func (c *Cache) InvalidateRoom(roomID string) {
	c.priority.Delete(roomID)
	c.lotteries.Delete(roomID)
}

func (c *Cache) Stats() Stats {
	return Stats{
		LotteryCacheSize:      c.lotteries.ItemCount(),
		PriorityListCacheSize: c.priority.ItemCount(),
		UserCacheSize:         c.users.ItemCount(),
	}
}
