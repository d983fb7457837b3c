package progress

import (
	"context"
	"net/http"

	"github.com/2beens/healthtracker/internal/middleware"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=progress_test

type seriesProvider interface {
	Series(ctx context.Context, userID int64) (*Series, error)
}

type Handler struct {
	provider seriesProvider
}

func NewHandler(provider seriesProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/progress", handler.HandleGet).Methods("GET", "OPTIONS").Name("progress")
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.get")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	series, err := handler.provider.Series(ctx, userID)
	if err != nil {
		log.Errorf("get progress series for user [%d]: %s", userID, err)
		http.Error(w, "get progress failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, series)
}
