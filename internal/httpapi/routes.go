package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kramislife/brick-draft-sub001/internal/cache"
	"github.com/kramislife/brick-draft-sub001/internal/hub"
	"github.com/kramislife/brick-draft-sub001/internal/store"
	"github.com/kramislife/brick-draft-sub001/internal/ws"
)

func SetupRoutes(h *hub.Hub, catalog store.Catalog, ec *cache.Cache, adminToken string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/lotteries", RegisterLottery(catalog))
	r.Get("/rooms/{id}/order", RoomOrder(ec))
	r.Get("/metrics", Metrics(h))
	r.Post("/admin/cleanup", CleanupRooms(h, adminToken))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, ec, adminToken, log))
	return r
}
