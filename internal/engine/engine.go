package engine

import (
	"errors"
	"time"
)

var ErrInvalidTurn = errors.New("pick submitted out of turn")
var ErrItemUnavailable = errors.New("item unavailable")
var ErrRoomCompleted = errors.New("room already completed")
var ErrTimerOutOfRange = errors.New("timer outside allowed range")
var ErrBadPhase = errors.New("command not valid in current phase")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	MinTurnSeconds     = 5
	MaxTurnSeconds     = 300
	DefaultTurnSeconds = 15
)

type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseShuffling Phase = "shuffling"
	PhaseDrafting  Phase = "drafting"
	PhaseCompleted Phase = "completed"
	PhaseAborted   Phase = "aborted"
)

// Terminal reports whether no further commands can mutate the room.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}

type ConnStatus string

const (
	StatusConnected    ConnStatus = "connected"
	StatusDisconnected ConnStatus = "disconnected"
	StatusReconnecting ConnStatus = "reconnecting"
)

// TicketRef is one purchased queue slot. A participant may hold many.
type TicketRef struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
}

// PriorityEntry fixes a ticket at one position in the draft order.
// Order index i always carries QueueNumber i+1, so the slice itself is
// the ascending-queue-number visiting order for odd rounds.
type PriorityEntry struct {
	QueueNumber   int    `json:"queue_number"`
	TicketID      string `json:"ticket_id"`
	ParticipantID string `json:"participant_id"`
}

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Category string `json:"category,omitempty"`
	Taken    bool   `json:"taken"`
}

type Participant struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status ConnStatus `json:"status"`
	Ready  bool       `json:"ready"`
}

type PickEntry struct {
	QueueNumber   int       `json:"queue_number"`
	TicketID      string    `json:"ticket_id"`
	ParticipantID string    `json:"participant_id"`
	ItemID        string    `json:"item_id"`
	At            time.Time `json:"at"`
}

type Rules struct {
	TurnSeconds int `json:"turn_seconds"`
}

type State struct {
	RoomID       string                  `json:"room_id"`
	LotteryID    string                  `json:"lottery_id"`
	Phase        Phase                   `json:"phase"`
	Participants map[string]*Participant `json:"participants"`
	Tickets      []TicketRef             `json:"tickets"`
	Order        []PriorityEntry         `json:"order,omitempty"`
	Items        []Item                  `json:"items"`
	Round        int                     `json:"round"`
	Pos          int                     `json:"pos"`
	Turn         uint64                  `json:"turn"`
	PicksInRound int                     `json:"-"`
	Picked       map[string]bool         `json:"picked,omitempty"` // ticket ids that already picked
	PickLog      []PickEntry             `json:"pick_log"`
	Rules        Rules                   `json:"rules"`
}

type CommandType string

const (
	CmdJoin           CommandType = "Join"
	CmdSetStatus      CommandType = "SetStatus"
	CmdSetReady       CommandType = "SetReady"
	CmdStartDraft     CommandType = "StartDraft"
	CmdBeginDrafting  CommandType = "BeginDrafting"
	CmdSubmitPick     CommandType = "SubmitPick"
	CmdTimeoutAdvance CommandType = "TimeoutAdvance"
	CmdSetTimer       CommandType = "SetTimer"
	CmdAbort          CommandType = "Abort"
)

type Command struct {
	Type          CommandType
	ParticipantID string
	Name          string
	QueueNumber   int
	ItemID        string
	Seconds       int
	Seed          int64
	Seq           uint64
	Status        ConnStatus
	Now           time.Time
}

type EventType string

const (
	EvtPhaseChanged  EventType = "PhaseChanged"
	EvtTurnStarted   EventType = "TurnStarted"
	EvtPickResolved  EventType = "PickResolved"
	EvtEntrySkipped  EventType = "EntrySkipped"
	EvtRoomCompleted EventType = "RoomCompleted"
)

type Event struct {
	Type            EventType   `json:"type"`
	Phase           Phase       `json:"phase,omitempty"`
	QueueNumber     int         `json:"queue_number,omitempty"`
	ItemID          string      `json:"item_id,omitempty"`
	NextQueueNumber int         `json:"next_queue_number,omitempty"`
	Seq             uint64      `json:"seq,omitempty"`
	PickLog         []PickEntry `json:"pick_log,omitempty"`
}

// Apply is the pure core: no clocks, no I/O. The room actor owns side
// effects and feeds timer expiry back in as CmdTimeoutAdvance.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Phase.Terminal() {
		return nil, s, ErrRoomCompleted
	}

	newState := s

	switch cmd.Type {
	case CmdJoin:
		if p := newState.Participants[cmd.ParticipantID]; p != nil {
			p.Status = StatusConnected
			return nil, newState, nil
		}
		if s.Phase != PhaseLobby {
			// Unknown participants cannot enter a running draft; known
			// ones reconnecting are handled above.
			return nil, s, ErrBadPhase
		}
		newState.Participants[cmd.ParticipantID] = &Participant{
			ID:     cmd.ParticipantID,
			Name:   cmd.Name,
			Status: StatusConnected,
		}
		return nil, newState, nil

	case CmdSetStatus:
		if p := newState.Participants[cmd.ParticipantID]; p != nil {
			p.Status = cmd.Status
		}
		return nil, newState, nil

	case CmdSetReady:
		if s.Phase != PhaseLobby {
			return nil, s, ErrBadPhase
		}
		p := newState.Participants[cmd.ParticipantID]
		if p == nil {
			return nil, s, ErrBadPhase
		}
		p.Ready = true
		return nil, newState, nil

	case CmdStartDraft:
		if s.Phase != PhaseLobby {
			return nil, s, ErrBadPhase
		}
		newState.Order = BuildPriorityList(s.Tickets, cmd.Seed)
		newState.Phase = PhaseShuffling
		return []Event{{Type: EvtPhaseChanged, Phase: PhaseShuffling}}, newState, nil

	case CmdBeginDrafting:
		if s.Phase != PhaseShuffling {
			return nil, s, ErrBadPhase
		}
		newState.Phase = PhaseDrafting
		newState.Round = 1
		newState.Pos = 0
		newState.PicksInRound = 0
		events := []Event{{Type: EvtPhaseChanged, Phase: PhaseDrafting}}
		if len(newState.Order) == 0 || remainingItems(newState) == 0 {
			return append(events, complete(&newState)...), newState, nil
		}
		newState.Turn++
		entry, _ := CurrentEntry(newState)
		events = append(events, Event{Type: EvtTurnStarted, QueueNumber: entry.QueueNumber, Seq: newState.Turn})
		return events, newState, nil

	case CmdSubmitPick:
		if s.Phase != PhaseDrafting {
			return nil, s, ErrBadPhase
		}
		entry, ok := CurrentEntry(s)
		if !ok || entry.QueueNumber != cmd.QueueNumber {
			return nil, s, ErrInvalidTurn
		}
		idx := itemIndex(s, cmd.ItemID)
		if idx < 0 || s.Items[idx].Taken {
			return nil, s, ErrItemUnavailable
		}

		newState.Items[idx].Taken = true
		if newState.Picked == nil {
			newState.Picked = make(map[string]bool)
		}
		newState.Picked[entry.TicketID] = true
		newState.PickLog = append(newState.PickLog, PickEntry{
			QueueNumber:   entry.QueueNumber,
			TicketID:      entry.TicketID,
			ParticipantID: entry.ParticipantID,
			ItemID:        cmd.ItemID,
			At:            cmd.Now,
		})
		newState.PicksInRound++

		tail := advance(&newState)
		resolved := Event{Type: EvtPickResolved, QueueNumber: entry.QueueNumber, ItemID: cmd.ItemID}
		if next, ok := CurrentEntry(newState); ok && newState.Phase == PhaseDrafting {
			resolved.NextQueueNumber = next.QueueNumber
		}
		return append([]Event{resolved}, tail...), newState, nil

	case CmdTimeoutAdvance:
		if s.Phase != PhaseDrafting {
			return nil, s, ErrBadPhase
		}
		// Stale fires carry the seq of an already-finished turn. The room
		// filters these too; dropping here keeps the core safe on replay.
		if cmd.Seq != s.Turn {
			return nil, s, nil
		}
		entry, ok := CurrentEntry(s)
		if !ok {
			return nil, s, nil
		}
		events := []Event{{Type: EvtEntrySkipped, QueueNumber: entry.QueueNumber}}
		return append(events, advance(&newState)...), newState, nil

	case CmdSetTimer:
		if cmd.Seconds < MinTurnSeconds || cmd.Seconds > MaxTurnSeconds {
			return nil, s, ErrTimerOutOfRange
		}
		// Takes effect on the next turn start; an in-flight timer keeps
		// the duration it was armed with.
		newState.Rules.TurnSeconds = cmd.Seconds
		return nil, newState, nil

	case CmdAbort:
		newState.Phase = PhaseAborted
		return []Event{{Type: EvtPhaseChanged, Phase: PhaseAborted}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// advance moves the turn pointer to the next entry whose ticket has
// not picked yet. Each ticket picks at most once; later rounds exist
// only to revisit skipped entries. Completion triggers when inventory
// is empty, every ticket has picked, or a full pass ends with no
// successful pick.
func advance(s *State) []Event {
	if remainingItems(*s) == 0 || len(s.Picked) == len(s.Order) {
		return complete(s)
	}
	for {
		s.Pos++
		if s.Pos >= len(s.Order) {
			if s.PicksInRound == 0 {
				return complete(s)
			}
			s.Round++
			s.Pos = 0
			s.PicksInRound = 0
		}
		entry := s.Order[visitIndex(s.Round, s.Pos, len(s.Order))]
		if !s.Picked[entry.TicketID] {
			break
		}
	}
	s.Turn++
	entry, _ := CurrentEntry(*s)
	return []Event{{Type: EvtTurnStarted, QueueNumber: entry.QueueNumber, Seq: s.Turn}}
}

func complete(s *State) []Event {
	s.Phase = PhaseCompleted
	return []Event{
		{Type: EvtPhaseChanged, Phase: PhaseCompleted},
		{Type: EvtRoomCompleted, PickLog: s.PickLog},
	}
}

func itemIndex(s State, id string) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func remainingItems(s State) int {
	n := 0
	for i := range s.Items {
		if !s.Items[i].Taken {
			n++
		}
	}
	return n
}

// AllReady reports whether the lobby can auto-start: at least one
// participant joined and every known participant flagged ready.
func AllReady(s State) bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.Ready {
			return false
		}
	}
	return true
}
