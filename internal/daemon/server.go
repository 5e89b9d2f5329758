package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vociferous/vociferous/internal/config"
	"github.com/vociferous/vociferous/internal/engine"
	"github.com/vociferous/vociferous/internal/metrics"
)

// job is one unit of model-touching work submitted to the single-consumer
// request queue: health and status bypass this queue entirely so a long
// refinement call never starves a ping.
type job struct {
	run  func()
	done chan struct{}
}

// Server is the warm-model daemon process: it owns exactly one loaded
// engine.Engine instance and serves it to local clients over HTTP and over
// a newline-delimited JSON unix socket.
type Server struct {
	cfg      config.Config
	registry *engine.Registry
	logger   *slog.Logger

	mu    sync.RWMutex
	state State
	eng   engine.Engine

	startedAt       time.Time
	requestsHandled atomic.Uint64

	jobs chan job

	httpServer   *http.Server
	unixListener net.Listener
	socketPath   string
}

// NewServer constructs a Server that will, on Run, load an engine for
// cfg.Engine via registry.
func NewServer(cfg config.Config, registry *engine.Registry, logger *slog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		registry:   registry,
		logger:     logger,
		state:      StateStarting,
		jobs:       make(chan job, 32),
		socketPath: cfg.Daemon.SocketPath,
	}
}

// Run binds the HTTP and unix-socket listeners, starts the inference
// worker goroutine, loads the engine in the background, and blocks until
// ctx is cancelled or a /shutdown request has fully drained.
func (s *Server) Run(ctx context.Context) error {
	s.startedAt = time.Now()

	socketPath := s.socketPath
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	listener, err := AcquireSocket(ctx, socketPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("acquire daemon socket: %w", err)
	}
	s.unixListener = listener
	s.socketPath = socketPath
	defer ReleaseSocket(socketPath)

	pidPath := DefaultPIDPath()
	if err := WritePID(pidPath, os.Getpid()); err != nil {
		s.logger.Warn("write pid file failed", "error", err)
	}
	defer func() { _ = RemovePID(pidPath) }()

	go s.runJobQueue()
	go s.loadEngine()

	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	s.httpServer = &http.Server{Addr: s.cfg.Daemon.HTTPAddr, Handler: mux}

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- s.httpServer.ListenAndServe()
	}()

	unixErrCh := make(chan error, 1)
	go func() {
		unixErrCh <- ServeUnix(ctx, s.unixListener, s)
	}()

	select {
	case <-ctx.Done():
	case err := <-httpErrCh:
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("http listener exited", "error", err)
		}
	case err := <-unixErrCh:
		if err != nil {
			s.logger.Error("unix listener exited", "error", err)
		}
	}

	s.transition(EventShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpServer.Shutdown(shutdownCtx)
	_ = s.unixListener.Close()
	s.transition(EventDrainCompleted)

	return nil
}

func (s *Server) transition(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, err := Transition(s.state, event); err == nil {
		s.state = next
	}
}

// loadEngine builds the configured engine off the hot path; health probes
// report model_loaded=false until it completes.
func (s *Server) loadEngine() {
	eng, err := s.registry.Build(s.cfg.Engine, s.cfg.Engine.Kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("engine load failed", "error", err)
		if next, terr := Transition(s.state, EventLoadFailed); terr == nil {
			s.state = next
		}
		return
	}
	s.eng = eng
	if next, terr := Transition(s.state, EventModelLoaded); terr == nil {
		s.state = next
	}
	metrics.DaemonModelLoaded.Set(1)
}

// runJobQueue is the single consumer draining model-touching work: the
// daemon accepts connections concurrently but serializes everything that
// touches the model.
func (s *Server) runJobQueue() {
	for j := range s.jobs {
		j.run()
		close(j.done)
	}
}

// submit enqueues fn and blocks until it has run.
func (s *Server) submit(fn func()) {
	j := job{run: fn, done: make(chan struct{})}
	s.jobs <- j
	<-j.done
}

func (s *Server) modelLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng != nil
}

func (s *Server) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Server) health() HealthResponse {
	status := "starting"
	if s.modelLoaded() {
		status = "ready"
	}
	return HealthResponse{
		Status:          status,
		ModelLoaded:     s.modelLoaded(),
		ModelName:       s.cfg.Engine.ModelName,
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		RequestsHandled: s.requestsHandled.Load(),
	}
}

func (s *Server) status() StatusResponse {
	h := s.health()
	return StatusResponse{
		Status:          string(s.currentState()),
		ModelLoaded:     h.ModelLoaded,
		ModelName:       h.ModelName,
		Device:          string(s.cfg.Engine.Device),
		UptimeSeconds:   h.UptimeSeconds,
		RequestsHandled: h.RequestsHandled,
	}
}

// transcribe runs a batched transcription job on the request queue,
// flattening per-chunk results into one segment list annotated with
// file_index so a client can recover per-file boundaries.
func (s *Server) transcribe(paths []string, language string, maxNewTokens int) TranscribeResponse {
	if len(paths) == 0 {
		return TranscribeResponse{Success: false, Error: "audio_paths must not be empty"}
	}

	var result TranscribeResponse
	s.submit(func() {
		s.mu.RLock()
		eng := s.eng
		s.mu.RUnlock()
		if eng == nil {
			result = TranscribeResponse{Success: false, Error: "model not loaded"}
			return
		}

		start := time.Now()
		opts := engine.Options{Language: language}
		var segments []engine.TranscriptSegment

		if batcher, ok := eng.(engine.BatchTranscriber); ok {
			groups, err := batcher.TranscribeBatch(paths, opts)
			if err != nil {
				result = TranscribeResponse{Success: false, Error: err.Error()}
				metrics.DaemonRequestsTotal.WithLabelValues("transcribe", "error").Inc()
				return
			}
			for fileIndex, group := range groups {
				for _, seg := range group {
					seg.ID = fileIndex
					segments = append(segments, seg)
				}
			}
		} else {
			for fileIndex, p := range paths {
				segs, err := eng.TranscribeFile(p, opts)
				if err != nil {
					result = TranscribeResponse{Success: false, Error: err.Error()}
					metrics.DaemonRequestsTotal.WithLabelValues("transcribe", "error").Inc()
					return
				}
				for _, seg := range segs {
					seg.ID = fileIndex
					segments = append(segments, seg)
				}
			}
		}

		elapsed := time.Since(start)
		s.requestsHandled.Add(1)
		metrics.DaemonRequestsTotal.WithLabelValues("transcribe", "success").Inc()
		metrics.DaemonInferenceDuration.WithLabelValues("transcribe").Observe(elapsed.Seconds())
		result = TranscribeResponse{
			Success:        true,
			Segments:       segmentsFromEngine(segments),
			InferenceTimeS: elapsed.Seconds(),
		}
	})
	return result
}

func (s *Server) refine(text, instructions string) RefineResponse {
	if text == "" {
		return RefineResponse{Success: false, Error: "text must not be empty"}
	}

	var result RefineResponse
	s.submit(func() {
		s.mu.RLock()
		eng := s.eng
		s.mu.RUnlock()
		if eng == nil {
			result = RefineResponse{Success: false, Error: "model not loaded"}
			return
		}
		refiner, ok := eng.(engine.TextRefiner)
		if !ok {
			result = RefineResponse{Success: false, Error: "engine does not support refinement"}
			metrics.DaemonRequestsTotal.WithLabelValues("refine", "error").Inc()
			return
		}

		start := time.Now()
		refined, err := refiner.RefineText(text, instructions)
		if err != nil {
			result = RefineResponse{Success: false, Error: err.Error()}
			metrics.DaemonRequestsTotal.WithLabelValues("refine", "error").Inc()
			return
		}

		elapsed := time.Since(start)
		s.requestsHandled.Add(1)
		metrics.DaemonRequestsTotal.WithLabelValues("refine", "success").Inc()
		metrics.DaemonInferenceDuration.WithLabelValues("refine").Observe(elapsed.Seconds())
		result = RefineResponse{Success: true, RefinedText: refined, InferenceTimeS: elapsed.Seconds()}
	})
	return result
}

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.health())
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.status())
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		var req TranscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, TranscribeResponse{Success: false, Error: err.Error()})
			return
		}
		if req.Language == "" {
			req.Language = "en"
		}
		writeJSON(w, http.StatusOK, s.transcribe(req.AudioPaths, req.Language, req.MaxNewTokens))
	})
	mux.HandleFunc("/batch_transcribe", func(w http.ResponseWriter, r *http.Request) {
		var req BatchTranscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, BatchTranscribeResponse{Success: false, Error: err.Error()})
			return
		}
		if len(req.AudioPaths) == 0 {
			writeJSON(w, http.StatusBadRequest, BatchTranscribeResponse{Success: false, Error: "audio_paths must not be empty"})
			return
		}
		language := req.Language
		if language == "" {
			language = "en"
		}
		results := make([]BatchFileResult, 0, len(req.AudioPaths))
		for _, p := range req.AudioPaths {
			resp := s.transcribe([]string{p}, language, 0)
			if !resp.Success {
				writeJSON(w, http.StatusOK, BatchTranscribeResponse{Success: false, Error: resp.Error})
				return
			}
			results = append(results, BatchFileResult{Segments: resp.Segments, InferenceTimeS: resp.InferenceTimeS})
		}
		writeJSON(w, http.StatusOK, BatchTranscribeResponse{Success: true, Results: results})
	})
	mux.HandleFunc("/refine", func(w http.ResponseWriter, r *http.Request) {
		var req RefineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, RefineResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s.refine(req.Text, req.Instructions))
	})
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ShutdownResponse{Success: true, Message: "draining"})
		go func() {
			time.Sleep(50 * time.Millisecond)
			if s.httpServer != nil {
				_ = s.httpServer.Close()
			}
		}()
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// HandleSocket implements SocketHandler, dispatching on SocketRequest.Type.
func (s *Server) HandleSocket(ctx context.Context, req SocketRequest) SocketResponse {
	switch req.Type {
	case "transcribe":
		language := req.Language
		if language == "" {
			language = "en"
		}
		resp := s.transcribe(req.AudioPaths, language, req.MaxNewTokens)
		return SocketResponse{Success: resp.Success, Segments: resp.Segments, InferenceTimeS: resp.InferenceTimeS, Error: resp.Error}
	case "status":
		st := s.status()
		return SocketResponse{Success: true, Status: st.Status, ModelLoaded: st.ModelLoaded}
	case "shutdown":
		go func() {
			if s.httpServer != nil {
				_ = s.httpServer.Close()
			}
		}()
		return SocketResponse{Success: true, Status: "draining"}
	default:
		return SocketResponse{Success: false, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}
