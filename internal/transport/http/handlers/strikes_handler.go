package handlers

import (
	"errors"
	"net/http"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	strikesvc "github.com/DevAniketIT/Playbharat/internal/services/strikes"
	"github.com/DevAniketIT/Playbharat/internal/transport/http/dto"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

type StrikesHandler struct {
	service *strikesvc.Service
}

func NewStrikesHandler(service *strikesvc.Service) *StrikesHandler {
	return &StrikesHandler{service: service}
}

func (h *StrikesHandler) Issue(w http.ResponseWriter, r *http.Request) {
	identity, ok := actor(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	var req dto.IssueStrikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	strike, err := h.service.IssueStrike(r.Context(), strikesvc.IssueStrikeInput{
		UserID:   userID,
		IssuerID: identity.AdminID,
		Type:     enums.StrikeType(req.StrikeType),
		Severity: enums.StrikeSeverity(req.Severity),
		Reason:   req.Reason,
		Details:  req.Details,
		IP:       clientIP(r),
	})
	if err != nil {
		handleStrikeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, strike)
}

func (h *StrikesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	identity, ok := actor(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	strikeID, ok := idParam(r, "strikeID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid strike id")
		return
	}

	var req dto.ResolveStrikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	strike, err := h.service.ResolveStrike(r.Context(), strikeID, identity.AdminID, req.Reason, clientIP(r))
	if err != nil {
		handleStrikeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, strike)
}

func (h *StrikesHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	strikes, err := h.service.ListUserStrikes(r.Context(), userID, limitParam(r))
	if err != nil {
		handleStrikeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, strikes)
}

func (h *StrikesHandler) Count(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	count, err := h.service.ActiveStrikeCount(r.Context(), userID)
	if err != nil {
		handleStrikeError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.StrikeCountResponse{
		UserID:        userID,
		ActiveStrikes: count,
	})
}

func handleStrikeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, strikesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, strikesvc.ErrPermissionDenied):
		writeForbidden(w, "PERMISSION_DENIED", "issuer cannot moderate")
	case errors.Is(err, strikesvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", err.Error())
	case errors.Is(err, strikesvc.ErrInvalidState):
		writeConflict(w, "INVALID_STATE", err.Error())
	case errors.Is(err, strikesvc.ErrConflict):
		writeConflict(w, "CONCURRENT_CONFLICT", "concurrent moderation conflict, retry")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
