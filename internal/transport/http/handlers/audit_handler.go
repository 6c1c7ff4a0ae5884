package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/DevAniketIT/Playbharat/internal/domain/model"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	auditsvc "github.com/DevAniketIT/Playbharat/internal/services/audit"
	"github.com/DevAniketIT/Playbharat/internal/transport/http/dto"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

type AuditHandler struct {
	service *auditsvc.Service
	bucket  string
}

func NewAuditHandler(service *auditsvc.Service, bucket string) *AuditHandler {
	return &AuditHandler{service: service, bucket: bucket}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	filter, ok := auditFilter(w, r)
	if !ok {
		return
	}

	actions, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list audit records")
		return
	}
	if actions == nil {
		actions = []model.AdminAction{}
	}
	httperrors.Write(w, http.StatusOK, actions)
}

// Export streams the filtered trail as csv (default) or json.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	filter, ok := auditFilter(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "csv":
		payload, err = h.service.ExportCSV(r.Context(), filter)
		contentType = "text/csv"
	case "json":
		payload, err = h.service.ExportJSON(r.Context(), filter)
		contentType = "application/json"
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "format must be csv or json")
		return
	}
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to export audit records")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="audit-export.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *AuditHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(r); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "moderation token required")
		return
	}
	filter, ok := auditFilter(w, r)
	if !ok {
		return
	}

	var req dto.ArchiveAuditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}

	key, err := h.service.Archive(r.Context(), filter, req.Format)
	if err != nil {
		if errors.Is(err, auditsvc.ErrArchiveDisabled) {
			writeConflict(w, "ARCHIVE_DISABLED", "audit archive is not configured")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to archive audit records")
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.ArchiveAuditResponse{
		Bucket: h.bucket,
		Key:    key,
	})
}

func auditFilter(w http.ResponseWriter, r *http.Request) (pgrepo.ActionFilter, bool) {
	query := r.URL.Query()
	filter := pgrepo.ActionFilter{
		ActionType: query.Get("action_type"),
		Limit:      limitParam(r),
	}
	if raw := query.Get("admin_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid admin_id")
			return pgrepo.ActionFilter{}, false
		}
		filter.AdminID = id
	}
	if raw := query.Get("target_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid target_user_id")
			return pgrepo.ActionFilter{}, false
		}
		filter.TargetUserID = id
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "since must be RFC3339")
			return pgrepo.ActionFilter{}, false
		}
		filter.Since = &since
	}
	return filter, true
}
