package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kramislife/brick-draft-sub001/internal/engine"
)

// Postgres backs Catalog and Recorder with gorm over pgx.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Lottery{}, &Item{}, &Ticket{}, &Participant{}, &PickRecord{}, &DraftResult{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Lottery(ctx context.Context, id string) (*LotterySnapshot, error) {
	var row Lottery
	err := p.db.WithContext(ctx).
		Preload("Items").
		Preload("Tickets").
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lottery %s: %w", id, err)
	}

	snap := &LotterySnapshot{
		ID:             row.ID,
		Title:          row.Title,
		TicketCapacity: row.TicketCapacity,
	}
	for _, it := range row.Items {
		snap.Items = append(snap.Items, engine.Item{
			ID:       it.ID,
			Name:     it.Name,
			Color:    it.Color,
			Category: it.Category,
			Taken:    !it.Available,
		})
	}
	for _, t := range row.Tickets {
		snap.Tickets = append(snap.Tickets, engine.TicketRef{ID: t.ID, ParticipantID: t.ParticipantID})
	}
	return snap, nil
}

func (p *Postgres) Participant(ctx context.Context, id string) (*ParticipantProfile, error) {
	var row Participant
	err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load participant %s: %w", id, err)
	}
	return &ParticipantProfile{ID: row.ID, Name: row.Name, AvatarURL: row.AvatarURL}, nil
}

func (p *Postgres) CreateLottery(ctx context.Context, snap *LotterySnapshot, participants []ParticipantProfile) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := Lottery{ID: snap.ID, Title: snap.Title, TicketCapacity: snap.TicketCapacity}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		for _, it := range snap.Items {
			item := Item{ID: it.ID, LotteryID: snap.ID, Name: it.Name, Color: it.Color, Category: it.Category, Available: !it.Taken}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
				return err
			}
		}
		for _, t := range snap.Tickets {
			ticket := Ticket{ID: t.ID, LotteryID: snap.ID, ParticipantID: t.ParticipantID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ticket).Error; err != nil {
				return err
			}
		}
		for _, pp := range participants {
			prt := Participant{ID: pp.ID, Name: pp.Name, AvatarURL: pp.AvatarURL}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&prt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordPick inserts the pick unless (roomID, itemID) already exists,
// then returns whichever row won. Replays land on the original record.
func (p *Postgres) RecordPick(ctx context.Context, rec PickRecord) (*PickRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "item_id"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("record pick %s/%s: %w", rec.RoomID, rec.ItemID, err)
	}

	var out PickRecord
	if err := p.db.WithContext(ctx).First(&out, "room_id = ? AND item_id = ?", rec.RoomID, rec.ItemID).Error; err != nil {
		return nil, fmt.Errorf("load pick %s/%s: %w", rec.RoomID, rec.ItemID, err)
	}
	return &out, nil
}

func (p *Postgres) Finalize(ctx context.Context, res DraftResult) error {
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoNothing: true,
	}).Create(&res).Error
	if err != nil {
		return fmt.Errorf("finalize room %s: %w", res.RoomID, err)
	}
	return nil
}
