package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
)

// Memory implements Catalog and Recorder in-process. It backs tests and
// standalone runs without a database.
type Memory struct {
	mu           sync.RWMutex
	lotteries    map[string]*LotterySnapshot
	participants map[string]*ParticipantProfile
	picks        map[string]*PickRecord // keyed roomID+"/"+itemID
	results      map[string]*DraftResult
}

func NewMemory() *Memory {
	return &Memory{
		lotteries:    make(map[string]*LotterySnapshot),
		participants: make(map[string]*ParticipantProfile),
		picks:        make(map[string]*PickRecord),
		results:      make(map[string]*DraftResult),
	}
}

func (m *Memory) Lottery(ctx context.Context, id string) (*LotterySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.lotteries[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy items so a running room never mutates the stored snapshot.
	out := *snap
	out.Items = make([]engine.Item, len(snap.Items))
	copy(out.Items, snap.Items)
	return &out, nil
}

func (m *Memory) Participant(ctx context.Context, id string) (*ParticipantProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *Memory) CreateLottery(ctx context.Context, snap *LotterySnapshot, participants []ParticipantProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	cp.Items = append([]engine.Item(nil), snap.Items...)
	cp.Tickets = append([]engine.TicketRef(nil), snap.Tickets...)
	m.lotteries[snap.ID] = &cp
	for i := range participants {
		p := participants[i]
		m.participants[p.ID] = &p
	}
	return nil
}

func (m *Memory) RecordPick(ctx context.Context, rec PickRecord) (*PickRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.RoomID + "/" + rec.ItemID
	if existing, ok := m.picks[key]; ok {
		out := *existing
		return &out, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.picks[key] = &rec
	out := rec
	return &out, nil
}

func (m *Memory) Finalize(ctx context.Context, res DraftResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[res.RoomID]; ok {
		return nil
	}
	m.results[res.RoomID] = &res
	return nil
}

// Result returns the finalized outcome for a room, if any. Test helper.
func (m *Memory) Result(roomID string) (*DraftResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.results[roomID]
	return res, ok
}

// PickCount reports how many distinct picks were recorded for a room.
func (m *Memory) PickCount(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.picks {
		if rec.RoomID == roomID {
			n++
		}
	}
	return n
}
