package handler

import (
	"errors"
	"net/http"

	"adboard/internal/domain"
	"adboard/internal/editor"
	"adboard/internal/infrastructure/imagefile"
	"adboard/internal/service"
	"adboard/pkg/logger"
	"adboard/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxUploadBytes = 10 << 20

type AdHandler struct {
	board          service.BoardService
	workspace      *editor.Workspace
	logger         *logger.Loggers
	tracer         trace.Tracer
	maxUploadBytes int64
}

func NewAdHandler(board service.BoardService, workspace *editor.Workspace, logger *logger.Loggers, maxUploadBytes int64) *AdHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	tracer := otel.Tracer("adboard/handler")
	return &AdHandler{
		board:          board,
		workspace:      workspace,
		logger:         logger,
		tracer:         tracer,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *AdHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondError maps domain and editor errors to HTTP statuses.
func (h *AdHandler) respondError(w http.ResponseWriter, span trace.Span, err error, action string) {
	var verr *editor.ValidationError

	switch {
	case errors.As(err, &verr):
		utils.RespondWithFieldErrorsJSON(w, http.StatusUnprocessableEntity, "required fields are empty", verr.Fields)
	case errors.Is(err, domain.ErrAdNotFound):
		utils.RespondWithErrorJSON(w, http.StatusNotFound, "ad not found")
	case errors.Is(err, editor.ErrNotEditing):
		utils.RespondWithErrorJSON(w, http.StatusConflict, "editor is not open")
	case errors.Is(err, editor.ErrClosed):
		utils.RespondWithErrorJSON(w, http.StatusGone, "editor no longer exists")
	case errors.Is(err, editor.ErrUnknownField):
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, imagefile.ErrRead):
		h.logger.InfoLogger.Info("Image read failed", "action", action, utils.Err(err))
		utils.RespondWithErrorJSON(w, http.StatusUnprocessableEntity, "could not read image")
	case errors.Is(err, domain.ErrPersist):
		span.RecordError(err)
		h.logger.ErrorLogger.Error("Failed to "+action, utils.Err(err))
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "change applied but not persisted")
	default:
		span.RecordError(err)
		h.logger.ErrorLogger.Error("Failed to "+action, utils.Err(err))
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}
