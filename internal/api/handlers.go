package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sopgate/internal/apperr"
	"github.com/starford/sopgate/internal/noteservice"
	"github.com/starford/sopgate/internal/pathguard"
	"github.com/starford/sopgate/internal/sopref"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc     *noteservice.Service
	nav     sopref.Navigator
	maxBody int64
	logger  *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, nav sopref.Navigator, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{svc: svc, nav: nav, maxBody: maxBody, logger: slog.Default()}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes (e.g. sop%2Fa.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decodeBody reads a size-limited JSON body into v and writes the error
// response itself on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Payload too large")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
		}
		return false
	}
	// Unmarshal rejects anything after the first value.
	if err := json.Unmarshal(data, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// Health handles GET /health.
//
//	@Summary		Liveness probe
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	okResponse
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// NotFound answers every unknown route and method.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// Append handles POST /obsidian/append.
//
//	@Summary		Append text to a vault note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AppendRequest	true	"Path and content"
//	@Success		200		{object}	AppendResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/obsidian/append [post]
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := req.ValidateContent(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Append(r.Context(), req.Path, req.Content.(string))
	if err != nil {
		var rej *pathguard.Rejection
		if errors.As(err, &rej) {
			writeError(w, rej.Status, rej.Reason)
			return
		}
		h.logger.Error("append failed", slog.Any("path", req.Path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to append")
		return
	}
	writeJSON(w, http.StatusOK, AppendResponse{OK: true, AppendResult: *res})
}

// ParseRefs handles POST /refs/parse.
//
//	@Summary		List the SOPRef citations in a text
//	@Tags			refs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Text"
//	@Success		200		{object}	ParseResponse
//	@Failure		400		{object}	errResponse
//	@Router			/refs/parse [post]
func (h *Handler) ParseRefs(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{OK: true, References: sopref.Parse(req.Content)})
}

// RenderRefs handles POST /refs/render.
//
//	@Summary		Render SOPRef citations as reference links
//	@Tags			refs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Text"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Router			/refs/render [post]
func (h *Handler) RenderRefs(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc := sopref.Render(req.Content)
	writeJSON(w, http.StatusOK, RenderResponse{
		OK:       true,
		Segments: doc.Segments,
		HTML:     sopref.RenderHTML(req.Content),
	})
}

// OpenRef handles GET /refs/open.
//
//	@Summary		Redirect to the reference viewer
//	@Tags			refs
//	@Param			path	query	string	true	"Cited path"
//	@Param			section	query	string	false	"Section within the path"
//	@Success		303
//	@Failure		400	{object}	errResponse
//	@Router			/refs/open [get]
func (h *Handler) OpenRef(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	var section *string
	if q.Has("section") {
		s := q.Get("section")
		section = &s
	}
	http.Redirect(w, r, h.nav.URL(path, section), http.StatusSeeOther)
}

// Citations handles GET /refs/citations.
//
//	@Summary		List the notes citing a SOP file
//	@Tags			refs
//	@Produce		json
//	@Param			target	query		string	true	"path or path#section"
//	@Success		200		{object}	CitationsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/refs/citations [get]
func (h *Handler) Citations(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	cites, err := h.svc.Citations(r.Context(), target)
	if err != nil {
		h.logger.Error("citations failed", slog.String("target", target), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, CitationsResponse{OK: true, Citations: cites})
}

// Preview handles GET /notes/preview/*.
//
//	@Summary		Render a vault note to HTML
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	PreviewResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/preview/{path} [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	p, err := h.svc.Preview(r.Context(), path)
	if err != nil {
		var rej *pathguard.Rejection
		switch {
		case errors.As(err, &rej):
			writeError(w, rej.Status, rej.Reason)
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "Not found")
		default:
			h.logger.Error("preview failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{OK: true, NotePreview: p})
}
