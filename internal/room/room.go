// Package room hosts one live draft per goroutine. Everything that
// mutates room state (participant commands, admin commands, timer
// expiry) funnels through a single inbox, so a pick arriving at the
// same instant a turn expires is resolved by queue order, never by a
// data race.
package room

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/clock"
	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

const recordAttempts = 3

type Msg interface{ isRoomMsg() }

// Join registers a client connection and resyncs it with a snapshot.
type Join struct {
	ClientID      string
	ParticipantID string
	Name          string
	Outbox        chan Update
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// FromClient carries a participant or admin command. Reply, when
// non-nil, receives exactly one value: nil on success or the rejection
// error, delivered only to the originating caller.
type FromClient struct {
	Cmd   engine.Command
	Reply chan error
}

func (FromClient) isRoomMsg() {}

// TimerFired is the turn clock expiry merged into the command queue.
type TimerFired struct{ Seq uint64 }

func (TimerFired) isRoomMsg() {}

type shuffleElapsed struct{}

func (shuffleElapsed) isRoomMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// Update is one outbound delta: the events that just happened plus the
// full state for resync.
type Update struct {
	Version  int            `json:"version"`
	Events   []engine.Event `json:"events,omitempty"`
	Deadline *time.Time     `json:"deadline,omitempty"`
	State    engine.State   `json:"state"`
}

type View struct {
	Version    int
	NumClients int
	Deadline   time.Time
	State      engine.State
}

// Stats is the registry-facing counter set, readable without going
// through the inbox.
type Stats struct {
	Clients     int64
	Picks       int64
	Terminal    bool
	CompletedAt time.Time
	LastActive  time.Time
}

type client struct {
	outbox        chan Update
	participantID string
}

type Room struct {
	id      string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]client

	clock         *clock.TurnClock
	turnHandle    *clock.Handle
	shuffleHandle *clock.Handle
	deadline      time.Time
	shuffleWindow time.Duration

	recorder store.Recorder
	cache    *cache.Cache
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	statClients     atomic.Int64
	statPicks       atomic.Int64
	statTerminal    atomic.Bool
	statCompletedAt atomic.Int64
	statLastActive  atomic.Int64
}

func New(parent context.Context, id string, initial engine.State, tc *clock.TurnClock,
	rec store.Recorder, ec *cache.Cache, shuffleWindow time.Duration, log *zap.Logger) *Room {

	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:            id,
		inbox:         make(chan Msg, 64),
		state:         initial,
		clients:       make(map[string]client),
		clock:         tc,
		shuffleWindow: shuffleWindow,
		recorder:      rec,
		cache:         ec,
		log:           log.With(zap.String("room", id)),
		ctx:           ctx,
		cancel:        cancel,
	}
	r.statLastActive.Store(tc.Now().Unix())

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) ID() string { return r.id }

func (r *Room) Stats() Stats {
	return Stats{
		Clients:     r.statClients.Load(),
		Picks:       r.statPicks.Load(),
		Terminal:    r.statTerminal.Load(),
		CompletedAt: time.Unix(r.statCompletedAt.Load(), 0),
		LastActive:  time.Unix(r.statLastActive.Load(), 0),
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			r.statLastActive.Store(r.clock.Now().Unix())

			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				r.handleLeave(msg)

			case FromClient:
				cmd := msg.Cmd
				if cmd.Type == engine.CmdTimeoutAdvance {
					// Admin force-skip always targets the in-flight turn.
					cmd.Seq = r.state.Turn
				}
				r.handleCommand(cmd, msg.Reply)

			case TimerFired:
				if r.state.Phase != engine.PhaseDrafting || msg.Seq != r.state.Turn {
					r.log.Debug("dropping stale timer fire", zap.Uint64("seq", msg.Seq), zap.Uint64("turn", r.state.Turn))
					break
				}
				r.handleCommand(engine.Command{Type: engine.CmdTimeoutAdvance, Seq: msg.Seq}, nil)

			case shuffleElapsed:
				r.handleCommand(engine.Command{Type: engine.CmdBeginDrafting}, nil)

			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					Deadline:   r.deadline,
					State:      r.state.Clone(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	r.clients[msg.ClientID] = client{outbox: msg.Outbox, participantID: msg.ParticipantID}
	r.statClients.Store(int64(len(r.clients)))

	_, newState, err := engine.Apply(r.state, engine.Command{
		Type:          engine.CmdJoin,
		ParticipantID: msg.ParticipantID,
		Name:          msg.Name,
	})
	if err != nil {
		// Completed room or a stranger to a running draft: they may
		// watch, but the participant set stays as it is. Same
		// non-blocking rule as broadcast so a wedged outbox cannot
		// stall the room.
		select {
		case msg.Outbox <- r.update(nil):
		default:
			close(msg.Outbox)
			delete(r.clients, msg.ClientID)
			r.statClients.Store(int64(len(r.clients)))
		}
		return
	}
	r.state = newState
	r.version++
	r.broadcast(nil)
}

func (r *Room) handleLeave(msg Leave) {
	c, ok := r.clients[msg.ClientID]
	if !ok {
		return
	}
	delete(r.clients, msg.ClientID)
	r.statClients.Store(int64(len(r.clients)))

	for _, other := range r.clients {
		if other.participantID == c.participantID {
			return // still connected elsewhere
		}
	}
	_, newState, err := engine.Apply(r.state, engine.Command{
		Type:          engine.CmdSetStatus,
		ParticipantID: c.participantID,
		Status:        engine.StatusDisconnected,
	})
	if err != nil {
		return
	}
	r.state = newState
	r.version++
	r.broadcast(nil)
}

func (r *Room) handleCommand(cmd engine.Command, reply chan error) {
	cmd.Now = r.clock.Now()
	if cmd.Type == engine.CmdStartDraft && cmd.Seed == 0 {
		cmd.Seed = engine.ShuffleSeed(r.id, cmd.Now)
	}

	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		// Rejections go to the originating caller only, never broadcast.
		if reply != nil {
			reply <- err
		} else {
			r.log.Debug("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		}
		return
	}
	if reply != nil {
		reply <- nil
	}

	r.state = newState
	r.applyEffects(events)
	r.version++
	r.broadcast(events)
	r.maybeAutoStart(cmd)
}

// maybeAutoStart begins the shuffle once every lobby participant is
// ready; an admin StartDraft can preempt this at any time.
func (r *Room) maybeAutoStart(cmd engine.Command) {
	if cmd.Type != engine.CmdSetReady {
		return
	}
	if r.state.Phase == engine.PhaseLobby && engine.AllReady(r.state) {
		r.handleCommand(engine.Command{Type: engine.CmdStartDraft}, nil)
	}
}

func (r *Room) applyEffects(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPhaseChanged:
			switch ev.Phase {
			case engine.PhaseShuffling:
				if r.cache != nil {
					r.cache.PutPriorityList(r.id, r.state.Order)
				}
				r.armShuffleWindow()
				r.log.Info("priority list drawn", zap.Int("tickets", len(r.state.Order)))

			case engine.PhaseCompleted:
				r.cancelTimers()
				r.finalize()
				r.markTerminal()
				r.log.Info("draft completed", zap.Int("picks", len(r.state.PickLog)))

			case engine.PhaseAborted:
				r.cancelTimers()
				r.markTerminal()
				r.log.Warn("draft aborted")
			}

		case engine.EvtTurnStarted:
			r.armTurnTimer(ev.Seq)

		case engine.EvtPickResolved:
			r.statPicks.Add(1)
			r.persistPick()

		case engine.EvtEntrySkipped:
			r.log.Info("turn skipped", zap.Int("queue", ev.QueueNumber))
		}
	}
}

func (r *Room) armTurnTimer(seq uint64) {
	r.clock.Cancel(r.turnHandle)
	d := time.Duration(r.state.Rules.TurnSeconds) * time.Second
	r.deadline = r.clock.Now().Add(d)
	r.turnHandle = r.clock.Start(d, seq, func(seq uint64) {
		select {
		case r.inbox <- TimerFired{Seq: seq}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) armShuffleWindow() {
	r.shuffleHandle = r.clock.Start(r.shuffleWindow, 0, func(uint64) {
		select {
		case r.inbox <- shuffleElapsed{}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) cancelTimers() {
	r.clock.Cancel(r.turnHandle)
	r.clock.Cancel(r.shuffleHandle)
	r.deadline = time.Time{}
}

// persistPick writes the newest log entry through the recorder. The
// write is idempotent on (room, item), so retries replay safely; if
// every attempt fails the room aborts rather than drift from durable
// state.
func (r *Room) persistPick() {
	entry := r.state.PickLog[len(r.state.PickLog)-1]
	rec := store.PickRecord{
		RoomID:        r.id,
		ItemID:        entry.ItemID,
		QueueNumber:   entry.QueueNumber,
		TicketID:      entry.TicketID,
		ParticipantID: entry.ParticipantID,
		PickedAt:      entry.At,
	}

	var err error
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		if _, err = r.recorder.RecordPick(r.ctx, rec); err == nil {
			return
		}
		r.log.Warn("record pick failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	r.log.Error("pick persistence exhausted retries, aborting room", zap.Error(err))
	events, newState, applyErr := engine.Apply(r.state, engine.Command{Type: engine.CmdAbort})
	if applyErr != nil {
		return
	}
	r.state = newState
	r.cancelTimers()
	r.markTerminal()
	r.version++
	r.broadcast(events)
}

func (r *Room) finalize() {
	logJSON, err := json.Marshal(r.state.PickLog)
	if err != nil {
		r.log.Error("marshal pick log", zap.Error(err))
		return
	}
	res := store.DraftResult{
		RoomID:      r.id,
		LotteryID:   r.state.LotteryID,
		PickLog:     logJSON,
		CompletedAt: r.clock.Now(),
	}
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		if err = r.recorder.Finalize(r.ctx, res); err == nil {
			return
		}
		r.log.Warn("finalize failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	r.log.Error("finalize exhausted retries", zap.Error(err))
}

func (r *Room) markTerminal() {
	r.statTerminal.Store(true)
	r.statCompletedAt.Store(r.clock.Now().Unix())
}

// update builds an immutable point-in-time snapshot. The state is
// cloned because the writer goroutines marshal it while this goroutine
// keeps applying commands.
func (r *Room) update(events []engine.Event) Update {
	u := Update{Version: r.version, Events: events, State: r.state.Clone()}
	if r.state.Phase == engine.PhaseDrafting && !r.deadline.IsZero() {
		d := r.deadline
		u.Deadline = &d
	}
	return u
}

func (r *Room) broadcast(events []engine.Event) {
	u := r.update(events)
	for id, c := range r.clients {
		select {
		case c.outbox <- u:
			// ok
		default:
			// Client is slow/full - drop them.
			close(c.outbox)
			delete(r.clients, id)
		}
	}
	r.statClients.Store(int64(len(r.clients)))
}

func (r *Room) shutdown() {
	r.cancelTimers()
	for id, c := range r.clients {
		close(c.outbox)
		delete(r.clients, id)
	}
	r.statClients.Store(0)
	r.markTerminal()
	r.cancel()
}
