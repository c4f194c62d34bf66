package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/hub"
	"github.com/kramislife/brick-draft-sub001/internal/room"
	"github.com/kramislife/brick-draft-sub001/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a participant connection and bridges it to the
// owning room: reader loop decodes commands into the room inbox,
// writer goroutine drains the room's outbox back to the socket.
// Joining resolves the room via the registry, creating it on first
// join for a known lottery.
func Handler(h *hub.Hub, ec *cache.Cache, adminToken string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}
		participantID := r.URL.Query().Get("participant")
		name := r.URL.Query().Get("name")
		// Admin rights come from a shared token; an empty configured
		// token leaves admin commands open (dev mode only).
		admin := adminToken == "" || r.URL.Query().Get("token") == adminToken

		reply := make(chan hub.EnsureReply, 1)
		h.Inbox() <- hub.EnsureRoom{LotteryID: roomID, Reply: reply}
		res := <-reply
		if errors.Is(res.Err, hub.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if res.Err != nil {
			http.Error(w, "failed to resolve room", http.StatusInternalServerError)
			return
		}
		rm := res.Room

		if name == "" && participantID != "" {
			if profile, err := ec.Participant(r.Context(), participantID); err == nil {
				name = profile.Name
			}
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Update, 8)
		clientID := uuid.NewString()

		rm.Inbox() <- room.Join{ClientID: clientID, ParticipantID: participantID, Name: name, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for u := range out {
				msg := types.ServerMessage{
					Type:     "StateSnapshot",
					Version:  u.Version,
					Events:   u.Events,
					Deadline: u.Deadline,
					State:    &u.State,
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, needsAdmin, ok := toCommand(cm, participantID)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}
			if needsAdmin && !admin {
				writeError(r.Context(), conn, "unauthorized")
				continue
			}

			errReply := make(chan error, 1)
			rm.Inbox() <- room.FromClient{Cmd: cmd, Reply: errReply}
			if cmdErr := <-errReply; cmdErr != nil {
				// Rejections are reported to this caller only.
				log.Debug("command rejected",
					zap.String("room", roomID),
					zap.String("type", cm.Type),
					zap.Error(cmdErr))
				writeError(r.Context(), conn, cmdErr.Error())
			}
		}
	}
}

func toCommand(m types.ClientMessage, participantID string) (cmd engine.Command, needsAdmin, ok bool) {
	switch m.Type {
	case "Ready":
		return engine.Command{Type: engine.CmdSetReady, ParticipantID: participantID}, false, true
	case "SubmitPick":
		return engine.Command{
			Type:          engine.CmdSubmitPick,
			ParticipantID: participantID,
			QueueNumber:   m.QueueNumber,
			ItemID:        m.ItemID,
		}, false, true
	case "ForceStart":
		return engine.Command{Type: engine.CmdStartDraft}, true, true
	case "SetTimer":
		return engine.Command{Type: engine.CmdSetTimer, Seconds: m.Seconds}, true, true
	case "ForceSkip":
		return engine.Command{Type: engine.CmdTimeoutAdvance}, true, true
	case "Abort":
		return engine.Command{Type: engine.CmdAbort}, true, true
	default:
		return engine.Command{}, false, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
