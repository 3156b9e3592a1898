package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gftdcojp/echo-memory/internal/collective"
	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/dispatch"
	"github.com/gftdcojp/echo-memory/internal/types"
)

type handler struct {
	mem      *collective.Memory
	registry *dispatch.Registry
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// RunHTTP starts the HTTP API server. The registry may be nil, in which case
// the signal route is not exposed.
func RunHTTP(ctx context.Context, cfg config.APIConfig, mem *collective.Memory, registry *dispatch.Registry, logger *zap.Logger) error {
	h := &handler{
		mem:      mem,
		registry: registry,
		logger:   logger,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/echoes", h.handleAdd)
	mux.HandleFunc("GET /v1/echoes", h.handleSearch)
	mux.HandleFunc("GET /v1/echoes/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/echoes/{id}/retrieve", h.handleRetrieve)
	mux.HandleFunc("DELETE /v1/echoes/{id}", h.handleDelete)
	mux.HandleFunc("GET /v1/crystallize", h.handleCrystallize)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.HandleFunc("POST /v1/admin/snapshot", h.handleSnapshot)
	mux.HandleFunc("POST /v1/admin/sweep", h.handleSweep)
	if h.registry != nil {
		mux.HandleFunc("POST /v1/signals", h.handleSignal)
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening", zap.String("addr", cfg.Listen))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, codeRateLimited, "add rate exceeded")
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "malformed request body")
		return
	}

	echoType, err := types.ParseEchoType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	echo, err := h.mem.AddEcho(collective.AddEchoParams{
		Content:  req.Content,
		Author:   req.Author,
		Type:     echoType,
		Weight:   req.Weight,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.writeFromError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, echo)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	echo, err := h.mem.GetEcho(r.PathValue("id"))
	if err != nil {
		h.writeFromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, echo)
}

func (h *handler) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	echo, err := h.mem.Retrieve(r.PathValue("id"))
	if err != nil {
		h.writeFromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, echo)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.mem.DeleteEcho(r.PathValue("id"))
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: true})
}

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid limit")
			return
		}
		limit = n
	}

	f, err := filterFromRequest(searchRequest{
		Text:   q.Get("q"),
		Author: q.Get("author"),
		Type:   q.Get("type"),
		Layer:  q.Get("layer"),
		Limit:  limit,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	echoes := h.mem.SearchEchoes(f)
	writeJSON(w, http.StatusOK, searchResponse{Echoes: echoes, Total: len(echoes)})
}

func (h *handler) handleCrystallize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	k := 10
	if s := q.Get("k"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid k")
			return
		}
		k = n
	}

	var echoes []*types.Echo
	if q.Get("wisdom") == "true" {
		echoes = h.mem.CrystallizeWisdom(k)
	} else {
		echoes = h.mem.Crystallize(k)
	}
	writeJSON(w, http.StatusOK, searchResponse{Echoes: echoes, Total: len(echoes)})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mem.GetHealth())
}

func (h *handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.mem.TriggerSnapshot(r.Context())
	if err != nil {
		h.logger.Warn("manual snapshot completed with sink errors", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	moved := h.mem.TriggerSweep()
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

func (h *handler) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "malformed request body")
		return
	}

	resp, err := h.registry.Dispatch(r.Context(), &dispatch.Signal{
		Source:    req.Source,
		Intent:    req.Intent,
		Context:   req.Context,
		Content:   req.Content,
		Author:    req.Author,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrNoHandler) {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err.Error())
			return
		}
		h.writeFromError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signalResponse{
		Text:       resp.Text,
		Confidence: resp.Confidence,
		Metadata:   resp.Metadata,
	})
}

func (h *handler) writeFromError(w http.ResponseWriter, err error) {
	code := errCode(err)
	status := http.StatusInternalServerError
	switch code {
	case codeInvalidInput:
		status = http.StatusBadRequest
	case codeNotFound:
		status = http.StatusNotFound
	default:
		h.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}
