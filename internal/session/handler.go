package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/healthtracker/internal/middleware"
	"github.com/2beens/healthtracker/internal/telemetry/tracing"
	"github.com/2beens/healthtracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=session_test

type sessionService interface {
	Submit(ctx context.Context, userID int64, report Report, clientPoints *int) (SubmitResult, error)
	Delete(ctx context.Context, userID int64) (*Profile, error)
	Profile(ctx context.Context, userID int64) (*ProfileView, error)
}

type SubmitRequest struct {
	Report Report `json:"report"`
	// Points is accepted for older clients only, the server computes its own.
	Points *int `json:"points,omitempty"`
}

type DeleteResponse struct {
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	Streak      int    `json:"streak"`
	TotalPoints int    `json:"total_points"`
}

type Handler struct {
	service sessionService
}

func NewHandler(service sessionService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/session", handler.HandleSubmit).Methods("POST", "OPTIONS").Name("submit-session")
	r.HandleFunc("/session", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-session")
	r.HandleFunc("/profile", handler.HandleProfile).Methods("GET", "OPTIONS").Name("profile")
}

func (handler *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.submit")
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

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("submit session, unmarshal json params: %s", err)
		http.Error(w, "submit session failed", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Submit(ctx, userID, req.Report, req.Points)
	if err != nil {
		log.Errorf("submit session for user [%d]: %s", userID, err)
		http.Error(w, "submit session failed", http.StatusInternalServerError)
		return
	}

	if !result.Saved() {
		pkg.WriteJSONResponse(w, http.StatusUnprocessableEntity, result)
		return
	}
	pkg.WriteJSONResponse(w, http.StatusOK, result)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.delete")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	profile, err := handler.service.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoSessionForDate) {
			pkg.WriteJSONResponse(w, http.StatusNotFound, DeleteResponse{
				Reason: ReasonNoSessionForDay,
			})
			return
		}
		log.Errorf("delete session for user [%d]: %s", userID, err)
		http.Error(w, "delete session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, DeleteResponse{
		OK:          true,
		Streak:      profile.Streak,
		TotalPoints: profile.Points,
	})
}

func (handler *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.profile")
	defer span.End()

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	profile, err := handler.service.Profile(ctx, userID)
	if err != nil {
		log.Errorf("get profile for user [%d]: %s", userID, err)
		http.Error(w, "get profile failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, profile)
}
