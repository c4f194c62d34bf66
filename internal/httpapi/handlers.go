package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/engine"
	"github.com/kramislife/brick-draft-sub001/internal/hub"
	"github.com/kramislife/brick-draft-sub001/internal/store"
)

type lotteryRequest struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	TicketCapacity int    `json:"ticket_capacity"`
	Items          []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Color    string `json:"color"`
		Category string `json:"category"`
	} `json:"items"`
	Tickets []struct {
		ID            string `json:"id"`
		ParticipantID string `json:"participant_id"`
	} `json:"tickets"`
	Participants []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"participants"`
}

// RegisterLottery seeds a lottery with its inventory and sold tickets.
// In production the purchase pipeline writes these rows; this endpoint
// exists so the engine runs standalone.
func RegisterLottery(catalog store.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lotteryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		snap := &store.LotterySnapshot{ID: req.ID, Title: req.Title, TicketCapacity: req.TicketCapacity}
		for _, it := range req.Items {
			snap.Items = append(snap.Items, engine.Item{ID: it.ID, Name: it.Name, Color: it.Color, Category: it.Category})
		}
		for _, t := range req.Tickets {
			snap.Tickets = append(snap.Tickets, engine.TicketRef{ID: t.ID, ParticipantID: t.ParticipantID})
		}
		var participants []store.ParticipantProfile
		for _, p := range req.Participants {
			participants = append(participants, store.ParticipantProfile{ID: p.ID, Name: p.Name, AvatarURL: p.AvatarURL})
		}

		if err := catalog.CreateLottery(r.Context(), snap, participants); err != nil {
			http.Error(w, "failed to create lottery", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			ID string `json:"id"`
		}{ID: req.ID})
	}
}

func Metrics(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan hub.Metrics, 1)
		h.Inbox() <- hub.GetMetrics{Reply: reply}
		m := <-reply

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m)
	}
}

// CleanupRooms evicts idle and retained-completed rooms; {"all": true}
// evicts everything.
func CleanupRooms(h *hub.Hub, adminToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if adminToken != "" && r.Header.Get("X-Admin-Token") != adminToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			All bool `json:"all"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		reply := make(chan int, 1)
		h.Inbox() <- hub.Cleanup{All: req.All, Reply: reply}
		n := <-reply

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Evicted int `json:"evicted"`
		}{Evicted: n})
	}
}

// RoomOrder serves a room's computed priority list from the cache, so
// result consumers never make the room recompute it.
func RoomOrder(ec *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "id")
		order, ok := ec.PriorityList(roomID)
		if !ok {
			http.Error(w, "order not available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(order)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
