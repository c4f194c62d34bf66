package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
)

func seedLottery(t *testing.T, m *Memory) {
	t.Helper()
	err := m.CreateLottery(context.Background(), &LotterySnapshot{
		ID:    "lot1",
		Title: "launch pool",
		Items: []engine.Item{{ID: "i1", Name: "castle"}, {ID: "i2", Name: "rover"}},
		Tickets: []engine.TicketRef{
			{ID: "t1", ParticipantID: "p1"},
			{ID: "t2", ParticipantID: "p2"},
		},
	}, []ParticipantProfile{{ID: "p1", Name: "Ann"}, {ID: "p2", Name: "Bo"}})
	require.NoError(t, err)
}

func TestMemory_LotteryRoundTrip(t *testing.T) {
	m := NewMemory()
	seedLottery(t, m)

	snap, err := m.Lottery(context.Background(), "lot1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	require.Len(t, snap.Tickets, 2)

	_, err = m.Lottery(context.Background(), "lot2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_LotterySnapshotIsolated(t *testing.T) {
	m := NewMemory()
	seedLottery(t, m)

	snap, err := m.Lottery(context.Background(), "lot1")
	require.NoError(t, err)
	snap.Items[0].Taken = true

	again, err := m.Lottery(context.Background(), "lot1")
	require.NoError(t, err)
	require.False(t, again.Items[0].Taken, "a running room must not mutate the stored snapshot")
}

func TestMemory_RecordPickIdempotent(t *testing.T) {
	m := NewMemory()
	first, err := m.RecordPick(context.Background(), PickRecord{
		RoomID:      "room1",
		ItemID:      "i1",
		QueueNumber: 4,
		TicketID:    "t4",
		PickedAt:    time.Unix(1000, 0),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// Replay with different incidental fields still returns the original.
	replay, err := m.RecordPick(context.Background(), PickRecord{
		RoomID:      "room1",
		ItemID:      "i1",
		QueueNumber: 9,
		PickedAt:    time.Unix(2000, 0),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, replay.ID)
	require.Equal(t, 4, replay.QueueNumber)
	require.Equal(t, time.Unix(1000, 0), replay.PickedAt)
	require.Equal(t, 1, m.PickCount("room1"))
}

func TestMemory_FinalizeOnce(t *testing.T) {
	m := NewMemory()
	first := DraftResult{RoomID: "room1", LotteryID: "lot1", PickLog: []byte(`[1]`), CompletedAt: time.Unix(1000, 0)}
	require.NoError(t, m.Finalize(context.Background(), first))

	replay := first
	replay.PickLog = []byte(`[2]`)
	require.NoError(t, m.Finalize(context.Background(), replay))

	got, ok := m.Result("room1")
	require.True(t, ok)
	require.Equal(t, []byte(`[1]`), got.PickLog)
}

func TestMemory_Participant(t *testing.T) {
	m := NewMemory()
	seedLottery(t, m)

	p, err := m.Participant(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Ann", p.Name)

	_, err = m.Participant(context.Background(), "p9")
	require.ErrorIs(t, err, ErrNotFound)
}
