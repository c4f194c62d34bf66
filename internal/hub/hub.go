// Package hub is the process-wide room registry. A single goroutine
// owns the room map, so get-or-create for one lottery id can never
// race into two rooms.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/clock"
	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/room"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

var ErrRoomNotFound = errors.New("room not found")

type HubMsg interface{ isHubMsg() }

// EnsureRoom resolves the room for a lottery, creating it on first
// join. Creation loads the lottery through the entity cache.
type EnsureRoom struct {
	LotteryID string
	Reply     chan EnsureReply
}

type EnsureReply struct {
	Room *room.Room
	Err  error
}

type GetRoom struct {
	LotteryID string
	Reply     chan *room.Room
}

type RemoveRoom struct{ LotteryID string }

type GetMetrics struct{ Reply chan Metrics }

// Cleanup evicts completed rooms past retention and idle rooms past
// the idle TTL; All evicts everything.
type Cleanup struct {
	All   bool
	Reply chan int
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (GetMetrics) isHubMsg()  {}
func (Cleanup) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}

type Metrics struct {
	ActiveRooms       int         `json:"activeRooms"`
	TotalParticipants int64       `json:"totalParticipants"`
	TotalPicks        int64       `json:"totalPicks"`
	CacheStats        cache.Stats `json:"cacheStats"`
}

type Config struct {
	ShuffleWindow time.Duration
	Retention     time.Duration
	IdleTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.ShuffleWindow <= 0 {
		c.ShuffleWindow = 3 * time.Second
	}
	if c.Retention <= 0 {
		c.Retention = 10 * time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 30 * time.Minute
	}
	return c
}

type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	cache    *cache.Cache
	recorder store.Recorder
	clock    *clock.TurnClock
	cfg      Config
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, ec *cache.Cache, rec store.Recorder, tc *clock.TurnClock, cfg Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		cache:    ec,
		recorder: rec,
		clock:    tc,
		cfg:      cfg.withDefaults(),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				msg.Reply <- h.ensure(msg.LotteryID)

			case GetRoom:
				msg.Reply <- h.rooms[msg.LotteryID] // may be nil

			case RemoveRoom:
				h.remove(msg.LotteryID)

			case GetMetrics:
				msg.Reply <- h.metrics()

			case Cleanup:
				n := h.cleanup(msg.All)
				if msg.Reply != nil {
					msg.Reply <- n
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(lotteryID string) EnsureReply {
	if rm := h.rooms[lotteryID]; rm != nil {
		return EnsureReply{Room: rm}
	}

	snap, err := h.cache.Lottery(h.ctx, lotteryID)
	if errors.Is(err, store.ErrNotFound) {
		return EnsureReply{Err: fmt.Errorf("%w: lottery %s", ErrRoomNotFound, lotteryID)}
	}
	if err != nil {
		return EnsureReply{Err: fmt.Errorf("load lottery %s: %w", lotteryID, err)}
	}

	// The room marks items taken in place; the cached snapshot must not
	// see that.
	items := append([]engine.Item(nil), snap.Items...)
	tickets := append([]engine.TicketRef(nil), snap.Tickets...)
	initial := engine.NewState(lotteryID, snap.ID, items, tickets)
	rm := room.New(h.ctx, lotteryID, initial, h.clock, h.recorder, h.cache, h.cfg.ShuffleWindow, h.log)
	h.rooms[lotteryID] = rm
	h.log.Info("room created",
		zap.String("room", lotteryID),
		zap.Int("items", len(snap.Items)),
		zap.Int("tickets", len(snap.Tickets)))
	return EnsureReply{Room: rm}
}

func (h *Hub) remove(lotteryID string) {
	rm := h.rooms[lotteryID]
	if rm == nil {
		return
	}
	rm.Inbox() <- room.Shutdown{}
	delete(h.rooms, lotteryID)
	h.cache.InvalidateRoom(lotteryID)
}

func (h *Hub) metrics() Metrics {
	m := Metrics{ActiveRooms: len(h.rooms), CacheStats: h.cache.Stats()}
	for _, rm := range h.rooms {
		st := rm.Stats()
		m.TotalParticipants += st.Clients
		m.TotalPicks += st.Picks
	}
	return m
}

func (h *Hub) cleanup(all bool) int {
	now := h.clock.Now()
	n := 0
	for id, rm := range h.rooms {
		st := rm.Stats()
		evict := all ||
			(st.Terminal && now.Sub(st.CompletedAt) >= h.cfg.Retention) ||
			(st.Clients == 0 && now.Sub(st.LastActive) >= h.cfg.IdleTTL)
		if !evict {
			continue
		}
		rm.Inbox() <- room.Shutdown{}
		delete(h.rooms, id)
		h.cache.InvalidateRoom(id)
		n++
	}
	if n > 0 {
		h.log.Info("cleanup evicted rooms", zap.Int("count", n))
	}
	return n
}

func (h *Hub) shutdown() {
	for id, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
		h.cache.InvalidateRoom(id)
	}
	clear(h.rooms)
	h.cancel()
}
