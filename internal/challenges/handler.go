package challenges

import (
	"net/http"
	"time"

	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/gorilla/mux"
)

type TodayResponse struct {
	Date       string      `json:"date"`
	Challenges []Challenge `json:"challenges"`
}

type Handler struct {
	pool  *Pool
	today func() time.Time
}

func NewHandler(pool *Pool, today func() time.Time) *Handler {
	return &Handler{
		pool:  pool,
		today: today,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/challenges/today", handler.HandleToday).Methods("GET", "OPTIONS").Name("challenges-today")
}

func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.challenges.today")
	defer span.End()

	today := handler.today()
	pkg.WriteJSONResponse(w, http.StatusOK, TodayResponse{
		Date:       today.Format("2006-01-02"),
		Challenges: handler.pool.ForDay(today, DailyCount),
	})
}
