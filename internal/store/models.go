package store

import (
	"context"
	"errors"
	"time"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
)

var ErrNotFound = errors.New("not found")

// Lottery is one prize pool. Rows are written by the purchase/catalog
// pipeline; the draft engine only reads them and flips item
// availability through pick records.
type Lottery struct {
	ID             string `gorm:"primaryKey"`
	Title          string
	TicketCapacity int
	DrawAt         *time.Time
	Items          []Item   `gorm:"foreignKey:LotteryID"`
	Tickets        []Ticket `gorm:"foreignKey:LotteryID"`
}

type Item struct {
	ID        string `gorm:"primaryKey"`
	LotteryID string `gorm:"index"`
	Name      string
	Color     string
	Category  string
	Available bool
}

type Ticket struct {
	ID            string `gorm:"primaryKey"`
	LotteryID     string `gorm:"index"`
	ParticipantID string `gorm:"index"`
	PurchasedAt   time.Time
}

type Participant struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	AvatarURL string
}

// PickRecord is the durable row for one resolved pick. The unique
// (room_id, item_id) index is what makes RecordPick idempotent.
type PickRecord struct {
	ID            string `gorm:"primaryKey"`
	RoomID        string `gorm:"uniqueIndex:idx_pick_room_item"`
	ItemID        string `gorm:"uniqueIndex:idx_pick_room_item"`
	QueueNumber   int
	TicketID      string
	ParticipantID string
	PickedAt      time.Time
}

// DraftResult is the one-per-room final outcome row.
type DraftResult struct {
	RoomID      string `gorm:"primaryKey"`
	LotteryID   string
	PickLog     []byte `gorm:"type:jsonb"`
	CompletedAt time.Time
}

// LotterySnapshot is the read-model a draft room starts from.
type LotterySnapshot struct {
	ID             string
	Title          string
	TicketCapacity int
	Items          []engine.Item
	Tickets        []engine.TicketRef
}

type ParticipantProfile struct {
	ID        string
	Name      string
	AvatarURL string
}

// Catalog is the authoritative store the entity cache reads through.
type Catalog interface {
	Lottery(ctx context.Context, id string) (*LotterySnapshot, error)
	Participant(ctx context.Context, id string) (*ParticipantProfile, error)
	CreateLottery(ctx context.Context, snap *LotterySnapshot, participants []ParticipantProfile) error
}

// Recorder persists resolved picks and final outcomes. RecordPick must
// be idempotent on (roomID, itemID): replaying a pick returns the
// original record. Finalize tolerates replay the same way.
type Recorder interface {
	RecordPick(ctx context.Context, rec PickRecord) (*PickRecord, error)
	Finalize(ctx context.Context, res DraftResult) error
}
