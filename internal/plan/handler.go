package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/healthtracker/internal/middleware"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=plan_test

type planRepo interface {
	Create(ctx context.Context, plan *Plan) (*Plan, error)
	Get(ctx context.Context, userID int64) (*Plan, error)
	Delete(ctx context.Context, userID int64) error
}

type CreatePlanRequest struct {
	Items []Item `json:"items"`
}

type Handler struct {
	repo planRepo
	now  func() time.Time
}

func NewHandler(repo planRepo) *Handler {
	return &Handler{
		repo: repo,
		now:  time.Now,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/plan", handler.HandleCreate).Methods("POST", "OPTIONS").Name("create-plan")
	r.HandleFunc("/plan", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plan", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-plan")
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.create")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	if !pkg.IsJSONRequest(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new plan, unmarshal json params: %s", err)
		http.Error(w, "create plan failed", http.StatusBadRequest)
		return
	}

	plan := &Plan{
		UserID:    userID,
		CreatedAt: handler.now().UTC(),
		Items:     req.Items,
	}
	if err := plan.Normalize(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.repo.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, ErrPlanExists) {
			http.Error(w, "plan already exists, it can only be deleted", http.StatusConflict)
			return
		}
		log.Errorf("create plan for user [%d]: %s", userID, err)
		http.Error(w, "create plan failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("plan with %d items created for user [%d]", len(created.Items), userID)
	pkg.WriteJSONResponse(w, http.StatusCreated, created)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.get")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	plan, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("get plan for user [%d]: %s", userID, err)
		http.Error(w, "get plan failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, plan)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.delete")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	if err := handler.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete plan for user [%d]: %s", userID, err)
		http.Error(w, "delete plan failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "plan deleted")
}
