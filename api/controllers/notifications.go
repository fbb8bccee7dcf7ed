package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/nutritrack-backend/api/middleware"
	"github.com/angelmondragon/nutritrack-backend/api/responses"
	"github.com/angelmondragon/nutritrack-backend/api/validators"
	"github.com/angelmondragon/nutritrack-backend/internal/notifications"
	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nutritrack-backend/pkg/errors"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
)

const maxMessageLength = 280

// NotificationHub is the per-user engine registry the handlers talk to.
type NotificationHub interface {
	SignIn(ctx context.Context, userID uuid.UUID) (*notifications.Engine, error)
	SignOut(userID uuid.UUID)
	SignedIn(userID uuid.UUID) bool
	Engine(userID uuid.UUID) (*notifications.Engine, bool)
}

type addNotificationRequest struct {
	ID      string `json:"id" validate:"omitempty,max=128"`
	Message string `json:"message" validate:"required,max=280"`
	Type    string `json:"type" validate:"required,notification_type"`
	Time    string `json:"time" validate:"omitempty,max=32"`
}

type addNotificationResponse struct {
	Accepted     bool                        `json:"accepted"`
	Notification *notifications.Notification `json:"notification,omitempty"`
	notifications.Snapshot
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func engineFor(hub NotificationHub, r *http.Request) (*notifications.Engine, error) {
	if hub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notification hub unavailable")
	}
	userID, err := userIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	engine, ok := hub.Engine(userID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "notification session not started; sign in first")
	}
	return engine, nil
}

// ListNotifications returns the caller's list and unread count.
func ListNotifications(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(hub, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.Snapshot())
	}
}

// AddNotification submits a notification from outside the derivation passes. A duplicate
// is not an error; the response reports accepted=false.
func AddNotification(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(hub, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addNotificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		n, accepted, snap := engine.AddNotification(r.Context(), notifications.Candidate{
			ID:      strings.TrimSpace(req.ID),
			Message: validators.SanitizeMessage(req.Message, maxMessageLength),
			Type:    enums.NotificationType(req.Type),
			Time:    strings.TrimSpace(req.Time),
		})
		resp := addNotificationResponse{Accepted: accepted, Snapshot: snap}
		status := http.StatusOK
		if accepted {
			resp.Notification = &n
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}

// MarkNotificationRead flags one notification. Unknown ids leave the list unchanged.
func MarkNotificationRead(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(hub, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := strings.TrimSpace(chi.URLParam(r, "notificationId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notification id required"))
			return
		}
		responses.WriteSuccess(w, engine.MarkAsRead(r.Context(), id))
	}
}

func MarkAllNotificationsRead(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(hub, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, engine.MarkAllAsRead(r.Context()))
	}
}

// RefreshNotifications runs the goal check for the caller.
func RefreshNotifications(hub NotificationHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := engineFor(hub, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := engine.FetchNotifications(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "goal check failed"))
			return
		}
		responses.WriteSuccess(w, snap)
	}
}
