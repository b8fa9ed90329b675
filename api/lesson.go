package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mythosai/mythos/internal/history"
	"github.com/mythosai/mythos/internal/lesson"
	"github.com/mythosai/mythos/internal/pipeline"
	"github.com/mythosai/mythos/internal/session"
)

// MaxTopicLength bounds the requested topic.
const MaxTopicLength = 500

// LessonHandler handles lesson generation, history and follow-up endpoints.
type LessonHandler struct {
	manager *session.Manager
	history *history.Store
	pipe    *pipeline.Pipeline
	logger  *slog.Logger
}

// NewLessonHandler creates a new lesson handler.
func NewLessonHandler(manager *session.Manager, hist *history.Store, pipe *pipeline.Pipeline, logger *slog.Logger) *LessonHandler {
	return &LessonHandler{manager: manager, history: hist, pipe: pipe, logger: logger}
}

// RegisterRoutes registers lesson routes on the given mux.
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/lessons", h.generate)
	mux.HandleFunc("GET /api/lessons", h.list)
	mux.HandleFunc("DELETE /api/lessons", h.clear)
	mux.HandleFunc("GET /api/lessons/{id}", h.get)
	mux.HandleFunc("POST /api/lessons/{id}/chat", h.chat)
	mux.HandleFunc("POST /api/lessons/{id}/quiz", h.quiz)
	mux.HandleFunc("POST /api/lessons/{id}/media", h.media)
}

// GenerateRequest is the request body for lesson generation. Missing enums
// fall back to the defaults of the welcome form.
type GenerateRequest struct {
	Topic          string                `json:"topic"`
	Genre          lesson.Genre          `json:"genre"`
	AgeBand        lesson.AgeBand        `json:"ageBand"`
	Style          lesson.VisualStyle    `json:"style"`
	Media          lesson.MediaKind      `json:"mediaType"`
	VideoFormat    lesson.VideoContainer `json:"videoFormat"`
	Language       string                `json:"language"`
	HaitianCulture bool                  `json:"haitianCulture"`
	FastMode       bool                  `json:"fastMode"`
}

// toLesson validates the body and converts it to a domain request.
func (g *GenerateRequest) toLesson() (lesson.Request, string) {
	if g.Topic == "" {
		return lesson.Request{}, "topic must not be empty"
	}
	if len(g.Topic) > MaxTopicLength {
		return lesson.Request{}, "topic too long (max 500 characters)"
	}
	if g.Genre == "" {
		g.Genre = lesson.GenreEducational
	}
	if g.AgeBand == "" {
		g.AgeBand = lesson.AgeChild
	}
	if g.Style == "" {
		g.Style = lesson.StyleDigitalArt
	}
	if g.Media == "" {
		g.Media = lesson.MediaText
	}
	if !g.Genre.Valid() {
		return lesson.Request{}, "unknown genre"
	}
	if !g.AgeBand.Valid() {
		return lesson.Request{}, "unknown age band"
	}
	if !g.Style.Valid() {
		return lesson.Request{}, "unknown style"
	}
	if !g.Media.Valid() {
		return lesson.Request{}, "unknown media type"
	}

	return lesson.Request{
		Topic:          g.Topic,
		Genre:          g.Genre,
		AgeBand:        g.AgeBand,
		Style:          g.Style,
		Media:          g.Media,
		VideoContainer: g.VideoFormat,
		Language:       g.Language,
		HaitianCulture: g.HaitianCulture,
		FastMode:       g.FastMode,
	}, ""
}

// generate creates a new lesson and makes it the active session.
func (h *LessonHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	domainReq, problem := req.toLesson()
	if problem != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", problem)
		return
	}

	item, err := h.manager.Start(r.Context(), domainReq)
	if errors.Is(err, session.ErrBusy) {
		writeError(w, http.StatusConflict, "busy", "a generation is already in progress")
		return
	}
	if err != nil {
		h.logger.Error("lesson generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// list returns the retained history, newest first.
func (h *LessonHandler) list(w http.ResponseWriter, _ *http.Request) {
	items := h.history.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"lessons": items,
		"total":   len(items),
	})
}

// clear empties the history.
func (h *LessonHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		h.logger.Error("clearing history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// get returns one history item.
func (h *LessonHandler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.history.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type chatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to a follow-up turn.
type ChatResponse struct {
	Artifact   lesson.Artifact `json:"artifact"`
	Transcript []lesson.Turn   `json:"transcript"`
}

// chat submits a follow-up turn on the identified lesson. If the lesson is
// not the active session it is resumed from history first. Submissions are
// queued behind an in-flight follow-up, never interleaved.
func (h *LessonHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message must not be empty")
		return
	}

	id := r.PathValue("id")
	if snap, ok := h.manager.Active(); !ok || snap.ID != id {
		item, err := h.history.Get(id)
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "")
			return
		}
		if err := h.manager.Resume(item); err != nil {
			writeError(w, http.StatusConflict, "busy", "a generation is already in progress")
			return
		}
	}

	artifact, err := h.manager.FollowUp(r.Context(), req.Message)
	if errors.Is(err, session.ErrNoSession) {
		writeError(w, http.StatusConflict, "no_session", "session ended before the turn could run")
		return
	}
	if err != nil {
		h.logger.Error("follow-up failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "")
		return
	}

	snap, _ := h.manager.Active()
	writeJSON(w, http.StatusOK, ChatResponse{Artifact: artifact, Transcript: snap.Transcript})
}

// quiz generates multiple-choice questions over the identified lesson. An
// empty list means no provider could produce one.
func (h *LessonHandler) quiz(w http.ResponseWriter, r *http.Request) {
	item, err := h.history.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}

	questions, err := h.pipe.Quiz(r.Context(), item.Topic, item.Content)
	if err != nil {
		h.logger.Error("quiz generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "")
		return
	}
	if questions == nil {
		questions = []lesson.QuizQuestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

type mediaRequest struct {
	Style lesson.VisualStyle `json:"style"`
}

// media regenerates the lesson's illustration (and video, for video
// lessons) from its retained image prompt. The stored history item is not
// rewritten; the fresh references are returned to the caller.
func (h *LessonHandler) media(w http.ResponseWriter, r *http.Request) {
	item, err := h.history.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	if item.ImagePrompt == "" {
		writeError(w, http.StatusUnprocessableEntity, "no_image_prompt", "lesson has no retained image prompt")
		return
	}

	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Style == "" {
		req.Style = lesson.StyleDigitalArt
	}
	if !req.Style.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown style")
		return
	}

	artifact := h.pipe.RegenerateMedia(r.Context(), item, req.Style)
	writeJSON(w, http.StatusOK, artifact)
}
