package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"adboard/internal/domain"
	"adboard/internal/editor"
	"adboard/internal/infrastructure/imagefile"
	"adboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

type editorCtxKey struct{}

type confirmResponse struct {
	Ad     domain.Ad       `json:"ad"`
	Editor editor.Snapshot `json:"editor"`
}

type pasteResponse struct {
	Delivered bool            `json:"delivered"`
	Editor    editor.Snapshot `json:"editor"`
}

// CreatorEditor binds the "new ad" editor to the request.
func (h *AdHandler) CreatorEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), editorCtxKey{}, h.workspace.Creator())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdEditor binds the editor of the {id} ad to the request.
func (h *AdHandler) AdEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "ResolveAdEditor")
		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("ad.id", id))

		ed, err := h.workspace.ForAd(ctx, id)
		if err != nil {
			h.respondError(w, span, err, "open ad editor")
			span.End()
			return
		}
		span.End()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), editorCtxKey{}, ed)))
	})
}

func editorFrom(ctx context.Context) *editor.Editor {
	ed, _ := ctx.Value(editorCtxKey{}).(*editor.Editor)
	return ed
}

func (h *AdHandler) GetEditor(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, editorFrom(r.Context()).Snapshot())
}

func (h *AdHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "OpenEditor")
	defer span.End()

	ed := editorFrom(r.Context())
	if err := ed.Begin(); err != nil {
		h.respondError(w, span, err, "open editor")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ed.Snapshot())
}

// UpdateDraft accepts {"field": value}. Values may be strings or numbers, as typed.
func (h *AdHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "UpdateDraft")
	defer span.End()

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	fields, err := fieldValues(body)
	if err != nil {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ed := editorFrom(r.Context())
	if err := ed.SetFields(fields); err != nil {
		h.respondError(w, span, err, "update draft")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ed.Snapshot())
}

// DropImage reads the multipart "file" part into the draft image.
func (h *AdHandler) DropImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DropImage")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	span.SetAttributes(
		attribute.String("file.name", header.Filename),
		attribute.Int64("file.size", header.Size),
	)

	ed := editorFrom(r.Context())
	if err := ed.DropFile(ctx, toFile(header, file)); err != nil {
		h.respondError(w, span, err, "read dropped image")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ed.Snapshot())
}

// Paste publishes the multipart "items" parts as one clipboard paste.
func (h *AdHandler) Paste(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Paste")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["items"]
	items := make([]editor.ClipboardItem, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			h.respondError(w, span, fmt.Errorf("%w: %w", imagefile.ErrRead, err), "open pasted item")
			return
		}
		defer f.Close()
		items = append(items, editor.ClipboardItem{Type: header.Header.Get("Content-Type"), File: toFile(header, f)})
	}
	span.SetAttributes(attribute.Int("clipboard.items", len(items)))

	delivered, err := h.workspace.Clipboard().Paste(ctx, items)
	if err != nil {
		h.respondError(w, span, err, "paste image")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, pasteResponse{Delivered: delivered, Editor: editorFrom(r.Context()).Snapshot()})
}

func (h *AdHandler) ConfirmEditor(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ConfirmEditor")
	defer span.End()

	ed := editorFrom(r.Context())
	kind := ed.Snapshot().Kind

	ad, err := ed.Confirm(ctx)
	if err != nil {
		h.respondError(w, span, err, "confirm editor")
		return
	}

	span.SetAttributes(
		attribute.String("ad.id", ad.ID),
		attribute.String("ad.title", ad.Title),
		attribute.Float64("ad.price", ad.Price),
	)

	status := http.StatusOK
	if kind == editor.KindCreate {
		status = http.StatusCreated
	}
	utils.RespondWithJSON(w, status, confirmResponse{Ad: ad, Editor: ed.Snapshot()})
}

func (h *AdHandler) CancelEditor(w http.ResponseWriter, r *http.Request) {
	ed := editorFrom(r.Context())
	ed.Cancel()

	utils.RespondWithJSON(w, http.StatusOK, ed.Snapshot())
}

func toFile(header *multipart.FileHeader, f multipart.File) imagefile.File {
	return imagefile.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
}

func fieldValues(body map[string]interface{}) (map[string]string, error) {
	fields := make(map[string]string, len(body))
	for name, raw := range body {
		switch v := raw.(type) {
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			fields[name] = ""
		default:
			return nil, errors.New("field " + name + " must be a string or number")
		}
	}
	return fields, nil
}
