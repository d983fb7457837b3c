package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/healthtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UserIDHeader carries the identity of the caller, set by the upstream gateway
// after it authenticated the request.
const UserIDHeader = "X-User-Id"

type userIDCtxKey struct{}

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDCtxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDCtxKey{}).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// UserIdentity reads the user id header and stores it in the request context.
// Requests to paths in publicPaths are passed through without an identity.
func UserIdentity(publicPaths ...string) func(next http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.user-identity")
			defer span.End()

			if r.Method == http.MethodOptions || public[r.URL.Path] {
				span.SetStatus(codes.Ok, "public")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			rawUserID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if rawUserID == "" {
				log.Tracef("[missing user id] [identity middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "missing user identity", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-user-id")
				return
			}

			userID, err := strconv.ParseInt(rawUserID, 10, 64)
			if err != nil || userID <= 0 {
				log.Tracef("[invalid user id %q] [identity middleware] unauthorized => %s", rawUserID, r.URL.Path)
				http.Error(w, "invalid user identity", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-user-id")
				return
			}

			span.SetAttributes(attribute.Int64("user.id", userID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(ctx, userID)))
		})
	}
}
