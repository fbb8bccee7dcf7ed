package controllers

import (
	"net/http"

	"github.com/angelmondragon/nutritrack-backend/api/responses"
	"github.com/angelmondragon/nutritrack-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/nutritrack-backend/pkg/errors"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
)

type sessionResponse struct {
	SignedIn bool `json:"signedIn"`
	notifications.Snapshot
}

// SessionSignIn starts or resumes the caller's notification engine.
func SessionSignIn(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification hub unavailable"))
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engine, err := hub.SignIn(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start notification session"))
			return
		}
		responses.WriteSuccess(w, sessionResponse{SignedIn: true, Snapshot: engine.Snapshot()})
	}
}

// SessionSignOut suspends derivation; the list stays readable.
func SessionSignOut(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification hub unavailable"))
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		hub.SignOut(userID)
		resp := sessionResponse{SignedIn: hub.SignedIn(userID)}
		if engine, ok := hub.Engine(userID); ok {
			resp.Snapshot = engine.Snapshot()
		}
		responses.WriteSuccess(w, resp)
	}
}
