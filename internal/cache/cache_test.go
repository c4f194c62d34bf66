package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

func seeded(t *testing.T) (*Cache, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	err := mem.CreateLottery(context.Background(), &store.LotterySnapshot{
		ID:      "lot1",
		Title:   "launch pool",
		Items:   []engine.Item{{ID: "i1"}},
		Tickets: []engine.TicketRef{{ID: "t1", ParticipantID: "p1"}},
	}, []store.ParticipantProfile{{ID: "p1", Name: "Ann"}})
	require.NoError(t, err)
	return New(mem, 5*time.Minute), mem
}

func TestLottery_ReadThrough(t *testing.T) {
	c, mem := seeded(t)

	snap, err := c.Lottery(context.Background(), "lot1")
	require.NoError(t, err)
	require.Equal(t, "launch pool", snap.Title)
	require.Equal(t, 1, c.Stats().LotteryCacheSize)

	// Rewrite the authoritative row; the cached copy keeps serving.
	require.NoError(t, mem.CreateLottery(context.Background(), &store.LotterySnapshot{ID: "lot1", Title: "renamed"}, nil))
	again, err := c.Lottery(context.Background(), "lot1")
	require.NoError(t, err)
	require.Equal(t, "launch pool", again.Title)
}

func TestLottery_MissFallsThrough(t *testing.T) {
	c, _ := seeded(t)
	_, err := c.Lottery(context.Background(), "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, 0, c.Stats().LotteryCacheSize)
}

func TestParticipant_ReadThrough(t *testing.T) {
	c, _ := seeded(t)

	p, err := c.Participant(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Ann", p.Name)
	require.Equal(t, 1, c.Stats().UserCacheSize)
}

func TestPriorityList_PutGetInvalidate(t *testing.T) {
	c, _ := seeded(t)

	order := []engine.PriorityEntry{{QueueNumber: 1, TicketID: "t1", ParticipantID: "p1"}}
	c.PutPriorityList("room1", order)

	got, ok := c.PriorityList("room1")
	require.True(t, ok)
	require.Equal(t, order, got)
	require.Equal(t, 1, c.Stats().PriorityListCacheSize)

	c.InvalidateRoom("room1")
	_, ok = c.PriorityList("room1")
	require.False(t, ok)
	require.Equal(t, 0, c.Stats().PriorityListCacheSize)
}
