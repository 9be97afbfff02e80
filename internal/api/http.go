package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"furnish/internal/domain"
	"furnish/internal/logging"
	"furnish/internal/metrics"
)

const (
	maxBodyBytes = 1 << 20

	// TypeError marks a failed request on the wire; it is never an
	// envelope kind.
	TypeError = "error"

	upstreamText = "I'm having trouble connecting to the catalog right now. Please try again in a moment."
	internalText = "Something went wrong on our side. Please try again."
)

// Replier answers one conversational turn.
type Replier interface {
	Reply(ctx context.Context, utterance string, session domain.SessionContext) (domain.Reply, error)
}

// Handler serves the recommendation API.
type Handler struct {
	replier        Replier
	logger         zerolog.Logger
	allowedOrigins map[string]struct{}
	mux            *http.ServeMux
}

func NewHandler(replier Replier, logger zerolog.Logger, allowedOrigins []string) *Handler {
	h := &Handler{
		replier:        replier,
		logger:         logger,
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		mux:            http.NewServeMux(),
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[strings.TrimRight(o, "/")] = struct{}{}
	}

	h.mux.HandleFunc("/recommend", h.recommend)
	h.mux.HandleFunc("/healthz", h.healthz)
	h.mux.Handle("/metrics", metrics.Handler())
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.cors(w, r) {
		return
	}
	h.mux.ServeHTTP(w, r)
}

// cors sets CORS headers for allowed origins and answers preflights. It
// reports whether the request should continue.
func (h *Handler) cors(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	_, allowed := h.allowedOrigins[origin]
	if _, wildcard := h.allowedOrigins["*"]; wildcard {
		allowed = origin != ""
	}
	if allowed {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Add("Vary", "Origin")
	}

	if r.Method == http.MethodOptions {
		if !allowed {
			w.WriteHeader(http.StatusForbidden)
			return false
		}
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	return true
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, RecommendResponse{Type: TypeError, Response: "use POST"})
		return
	}

	ctx, reqID := logging.WithRequestID(r.Context(), h.logger, r.Header.Get("X-Request-ID"))
	w.Header().Set("X-Request-ID", reqID)
	logger := zerolog.Ctx(ctx)
	started := time.Now()

	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.Debug().Err(err).Msg("bad request body")
		writeJSON(w, http.StatusBadRequest, RecommendResponse{Type: TypeError, Response: "request body is not valid JSON", RequestID: reqID})
		return
	}

	resp, status := Recommend(ctx, h.replier, req)
	resp.RequestID = reqID
	logger.Debug().Int("status", status).Dur("elapsed", time.Since(started)).Msg("recommend")
	writeJSON(w, status, resp)
}

// Recommend runs req through replier and maps the outcome onto a response
// and HTTP status. It is shared by the HTTP and MCP transports.
func Recommend(ctx context.Context, replier Replier, req RecommendRequest) (RecommendResponse, int) {
	session, err := req.Session()
	if err == nil {
		var reply domain.Reply
		reply, err = replier.Reply(ctx, req.Query, session)
		if err == nil {
			return ResponseFromReply(reply), http.StatusOK
		}
	}

	logger := zerolog.Ctx(ctx)
	switch {
	case errors.Is(err, domain.ErrValidation):
		return RecommendResponse{Type: TypeError, Response: err.Error(), LastProducts: req.LastProducts}, http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		logger.Warn().Err(err).Msg("upstream unavailable")
		return RecommendResponse{Type: TypeError, Response: upstreamText, LastProducts: req.LastProducts}, http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		return RecommendResponse{Type: TypeError, Response: "request cancelled", LastProducts: req.LastProducts}, 499
	}
	logger.Error().Err(err).Msg("recommend failed")
	return RecommendResponse{Type: TypeError, Response: internalText, LastProducts: req.LastProducts}, http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
