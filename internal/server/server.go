// Package server implements the narrator HTTP API: chat completion,
// speech synthesis, and the combined narrate endpoint that feeds the
// playback client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voidlabs/narrator/internal/config"
	"github.com/voidlabs/narrator/narrate"
)

type Server struct {
	cfg     config.Config
	llm     LLM
	tts     Synthesizer
	cache   *AudioCache
	metrics *Metrics
	logger  *log.Logger
}

// New assembles the API server. metrics may be nil, in which case no
// instruments are recorded.
func New(cfg config.Config, llm LLM, tts Synthesizer, metrics *Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	var cache *AudioCache
	if cfg.TTSCacheBytes > 0 {
		cache = NewAudioCache(cfg.TTSCacheBytes)
	}
	return &Server{
		cfg:     cfg,
		llm:     llm,
		tts:     tts,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/chat", s.handleChat)
	r.Post("/api/tts", s.handleTTS)
	r.Post("/api/narrate", s.handleNarrate)

	return r
}

// requestLogger emits one structured line per request, wrapping the
// response writer to capture the status code.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started))
	})
}

// cors mirrors the permissive policy of the original deployment, where
// the browser client may be served from a different origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"tts_configured": s.tts.Configured(),
	})
}

// handleChat generates narration text only.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	text, err := s.llm.Complete(r.Context(), req.Message, req.Model)
	if err != nil {
		s.countUpstreamError("openrouter")
		s.logger.Error("chat completion failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, narrate.ChatResponse{Text: text})
}

// handleTTS synthesizes a single text payload and streams the audio back.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, mimeType, err := s.tts.Synthesize(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, ErrTTSNotConfigured) {
			respondError(w, http.StatusInternalServerError, "HuggingFace API key not configured")
			return
		}
		s.countUpstreamError("kokoro")
		s.logger.Error("synthesis failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", "attachment; filename=narration.wav")
	_, _ = w.Write(audio)
}

// handleNarrate generates text, splits it into sentence batches, and
// synthesizes each batch concurrently. A synthesis failure marks its
// segment and never fails the narration as a whole.
func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	text, err := s.llm.Complete(r.Context(), req.Message, req.Model)
	if err != nil {
		s.countUpstreamError("openrouter")
		s.logger.Error("chat completion failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	segments := s.narrateSegments(r.Context(), text)

	if s.metrics != nil {
		s.metrics.Narrations.Inc()
		s.metrics.SegmentsPerReply.Observe(float64(len(segments)))
		s.metrics.NarrateLatency.Observe(time.Since(started).Seconds())
	}
	s.logger.Info("narration complete",
		"segments", len(segments),
		"duration", time.Since(started))

	respondJSON(w, http.StatusOK, narrate.Response{Segments: segments})
}

// narrateSegments splits narration text and synthesizes every batch in
// parallel, preserving sentence order in the result.
func (s *Server) narrateSegments(ctx context.Context, text string) []narrate.Segment {
	sentences := narrate.SplitSentences(text)
	batches := narrate.BatchSentences(sentences, s.cfg.SentencesPerSegment)

	segments := make([]narrate.Segment, len(batches))
	for i, batch := range batches {
		segments[i].Text = batch
	}

	if !s.tts.Configured() {
		for i := range segments {
			segments[i].Error = "TTS not configured"
		}
		return segments
	}

	var wg sync.WaitGroup
	for i := range segments {
		wg.Add(1)
		go func(seg *narrate.Segment) {
			defer wg.Done()
			s.synthesizeSegment(ctx, seg)
		}(&segments[i])
	}
	wg.Wait()

	return segments
}

func (s *Server) synthesizeSegment(ctx context.Context, seg *narrate.Segment) {
	key := CacheKey(seg.Text, s.cfg.Voice, s.cfg.Speed)
	if s.cache != nil {
		if audio, mimeType, ok := s.cache.Get(key); ok {
			seg.Audio = audio
			seg.AudioType = mimeType
			return
		}
	}

	audio, mimeType, err := s.tts.Synthesize(ctx, seg.Text)
	if err != nil {
		s.countSynthesisError()
		s.logger.Warn("segment synthesis failed", "text", seg.Text, "error", err)
		seg.Error = "TTS error: " + err.Error()
		return
	}
	seg.Audio = audio
	seg.AudioType = mimeType
	if s.cache != nil {
		s.cache.Put(key, audio, mimeType)
	}
}

func (s *Server) countUpstreamError(provider string) {
	if s.metrics != nil {
		s.metrics.UpstreamErrors.WithLabelValues(provider).Inc()
	}
}

func (s *Server) countSynthesisError() {
	if s.metrics != nil {
		s.metrics.SynthesisErrors.Inc()
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (narrate.Request, bool) {
	var req narrate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	return req, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, narrate.ErrorResponse{Detail: detail})
}
