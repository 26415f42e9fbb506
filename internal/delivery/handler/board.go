package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"adboard/internal/domain"
	"adboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

type queryRequest struct {
	Query string `json:"query"`
}

type pageRequest struct {
	Page *int `json:"page"`
}

func (h *AdHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetBoard")
	defer span.End()

	utils.RespondWithJSON(w, http.StatusOK, h.board.View(ctx))
}

func (h *AdHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetQuery")
	defer span.End()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	span.SetAttributes(attribute.String("board.query", req.Query))
	utils.RespondWithJSON(w, http.StatusOK, h.board.SetQuery(ctx, req.Query))
}

// SetPage only forwards pages inside [1, total_pages]; the board itself does not clamp.
func (h *AdHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetPage")
	defer span.End()

	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Page == nil {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	page := *req.Page
	span.SetAttributes(attribute.Int("board.page", page))

	if total := h.board.View(ctx).TotalPages; page < 1 || page > total {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, domain.ErrInvalidPage.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, h.board.SetPage(ctx, page))
}

func (h *AdHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "NextPage")
	defer span.End()

	utils.RespondWithJSON(w, http.StatusOK, h.board.NextPage(ctx))
}

func (h *AdHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PrevPage")
	defer span.End()

	utils.RespondWithJSON(w, http.StatusOK, h.board.PrevPage(ctx))
}

func (h *AdHandler) GetAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAd")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("ad.id", id))

	ad, err := h.board.Get(ctx, id)
	if err != nil {
		h.respondError(w, span, err, "get ad")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ad)
}

func (h *AdHandler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAd")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("ad.id", id))

	err := h.board.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		h.respondError(w, span, err, "delete ad")
		return
	}
	h.workspace.Release(id)

	if err != nil {
		h.respondError(w, span, err, "delete ad")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, h.board.View(ctx))
}
