package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

// UserReader is the read-only slice of the user repo the lookup endpoints
// need. *postgres.UserRepo satisfies it.
type UserReader interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	GetByHandle(ctx context.Context, handle string) (model.User, error)
	List(ctx context.Context, filter pgrepo.UserFilter) ([]model.User, error)
}

type UsersHandler struct {
	users UserReader
}

func NewUsersHandler(users UserReader) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		handleUserLookupError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, user)
}

// List filters the moderation roster. Flag params (banned, suspended,
// warned, active_strikes) narrow the result; handle= looks up one user.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}

	query := r.URL.Query()
	if handle := query.Get("handle"); handle != "" {
		user, err := h.users.GetByHandle(r.Context(), handle)
		if err != nil {
			handleUserLookupError(w, err)
			return
		}
		httperrors.Write(w, http.StatusOK, []model.User{user})
		return
	}
	filter := pgrepo.UserFilter{
		Banned:        boolQuery(query.Get("banned")),
		Suspended:     boolQuery(query.Get("suspended")),
		Warned:        boolQuery(query.Get("warned")),
		ActiveStrikes: boolQuery(query.Get("active_strikes")),
		Limit:         limitParam(r),
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	httperrors.Write(w, http.StatusOK, users)
}

func boolQuery(raw string) bool {
	return raw == "true" || raw == "1"
}

func handleUserLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		writeNotFound(w, "NOT_FOUND", "user not found")
		return
	}
	writeInternal(w, "INTERNAL_ERROR", "internal server error")
}
