package leaderboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type topLister interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

type Handler struct {
	board topLister
}

func NewHandler(board topLister) *Handler {
	return &Handler{
		board: board,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/leaderboard", handler.HandleTop).Methods("GET", "OPTIONS").Name("leaderboard")
}

func (handler *Handler) HandleTop(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.top")
	defer span.End()

	limit := DefaultLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(parsed, MaxLimit)
	}

	entries, err := handler.board.Top(ctx, limit)
	if err != nil {
		log.Errorf("get leaderboard: %s", err)
		http.Error(w, "get leaderboard failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, entries)
}
