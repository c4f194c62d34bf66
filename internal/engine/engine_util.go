package engine

// NewState builds the initial lobby state for one lottery's draft room.
func NewState(roomID, lotteryID string, items []Item, tickets []TicketRef) State {
	return State{
		RoomID:       roomID,
		LotteryID:    lotteryID,
		Phase:        PhaseLobby,
		Participants: map[string]*Participant{},
		Tickets:      tickets,
		Items:        items,
		Rules:        Rules{TurnSeconds: DefaultTurnSeconds},
	}
}

// Clone returns a copy safe to hand outside the owning goroutine.
// Apply mutates the participant map, the item slice and the picked set
// in place, so snapshots that leave the room must not share them.
func (s State) Clone() State {
	out := s
	out.Participants = make(map[string]*Participant, len(s.Participants))
	for id, p := range s.Participants {
		cp := *p
		out.Participants[id] = &cp
	}
	out.Items = append([]Item(nil), s.Items...)
	out.Order = append([]PriorityEntry(nil), s.Order...)
	out.Tickets = append([]TicketRef(nil), s.Tickets...)
	out.PickLog = append([]PickEntry(nil), s.PickLog...)
	if s.Picked != nil {
		out.Picked = make(map[string]bool, len(s.Picked))
		for id := range s.Picked {
			out.Picked[id] = true
		}
	}
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// RemainingItems counts inventory not yet claimed by a pick.
func RemainingItems(s State) int {
	return remainingItems(s)
}
