package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
	"github.com/DevAniketIT/Playbharat/internal/transport/http/dto"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

type SuspensionsHandler struct {
	service *suspsvc.Service
}

func NewSuspensionsHandler(service *suspsvc.Service) *SuspensionsHandler {
	return &SuspensionsHandler{service: service}
}

func (h *SuspensionsHandler) BanUser(w http.ResponseWriter, r *http.Request) {
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

	var req dto.BanUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	suspension, err := h.service.BanUser(r.Context(), userID, identity.AdminID, req.Reason, clientIP(r))
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, suspension)
}

func (h *SuspensionsHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
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

	var req dto.UnbanUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.UnbanUser(r.Context(), userID, identity.AdminID, req.Reason, clientIP(r)); err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *SuspensionsHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
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

	var req dto.SuspendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	suspension, err := h.service.SuspendUser(r.Context(), suspsvc.SuspendUserInput{
		UserID:   userID,
		IssuerID: identity.AdminID,
		Type:     enums.SuspensionType(req.SuspensionType),
		Reason:   req.Reason,
		Details:  req.Details,
		Duration: time.Duration(req.DurationHours) * time.Hour,
		IP:       clientIP(r),
	})
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, suspension)
}

func (h *SuspensionsHandler) SuspendChannel(w http.ResponseWriter, r *http.Request) {
	identity, ok := actor(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	channelID, ok := idParam(r, "channelID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid channel id")
		return
	}

	var req dto.SuspendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	suspension, err := h.service.SuspendChannel(r.Context(), suspsvc.SuspendChannelInput{
		ChannelID: channelID,
		IssuerID:  identity.AdminID,
		Type:      enums.SuspensionType(req.SuspensionType),
		Reason:    req.Reason,
		Details:   req.Details,
		Duration:  time.Duration(req.DurationHours) * time.Hour,
		IP:        clientIP(r),
	})
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, suspension)
}

func (h *SuspensionsHandler) Lift(w http.ResponseWriter, r *http.Request) {
	identity, ok := actor(r)
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	suspensionID, ok := idParam(r, "suspensionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid suspension id")
		return
	}

	var req dto.LiftSuspensionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.Lift(r.Context(), suspensionID, identity.AdminID, req.Reason, clientIP(r)); err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *SuspensionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	suspensionID, ok := idParam(r, "suspensionID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid suspension id")
		return
	}

	suspension, err := h.service.GetSuspension(r.Context(), suspensionID)
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, suspension)
}

func (h *SuspensionsHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	suspensions, err := h.service.ListForUser(r.Context(), userID, limitParam(r))
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, suspensions)
}

func (h *SuspensionsHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	channelID, ok := idParam(r, "channelID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid channel id")
		return
	}

	suspensions, err := h.service.ListForChannel(r.Context(), channelID, limitParam(r))
	if err != nil {
		handleSuspensionError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, suspensions)
}

func handleSuspensionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, suspsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, suspsvc.ErrPermissionDenied):
		writeForbidden(w, "PERMISSION_DENIED", "issuer cannot moderate")
	case errors.Is(err, suspsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", err.Error())
	case errors.Is(err, suspsvc.ErrInvalidState):
		writeConflict(w, "INVALID_STATE", err.Error())
	case errors.Is(err, suspsvc.ErrConflict):
		writeConflict(w, "CONCURRENT_CONFLICT", "concurrent moderation conflict, retry")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
