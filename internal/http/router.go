package httpx

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Anveeka07/TaskManager/internal/service/auth"
	"github.com/Anveeka07/TaskManager/internal/service/task"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux          chi.Router
	logger       *slog.Logger
	auth         auth.Service
	tasks        task.Service
	limiter      RateLimiter
	limits       RateLimits
	trustProxy   bool
	dbHealth     func(context.Context) error
	clientOrigin string
	maxBodyBytes int64
	started      time.Time

	metricsOnce        sync.Once
	metricsInitialized bool
	registry           *prometheus.Registry
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// Options carries the optional collaborators of a Router.
type Options struct {
	// Limiter defaults to an in-memory fixed-window limiter.
	Limiter RateLimiter
	// RateLimits defaults to DefaultRateLimits when nil.
	RateLimits *RateLimits
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the socket
	// address. Enable it only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	// DBHealth backs /api/health.
	DBHealth     func(context.Context) error
	ClientOrigin string
	// MaxBodyBytes caps request bodies; zero selects 1 MiB.
	MaxBodyBytes int64
}

const (
	healthCheckTimeout = 2 * time.Second
	defaultMaxBody     = 1 << 20
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, taskSvc task.Service, opts Options) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:          chi.NewRouter(),
		logger:       logger,
		auth:         authSvc,
		tasks:        taskSvc,
		limiter:      opts.Limiter,
		limits:       DefaultRateLimits(),
		trustProxy:   opts.TrustProxyHeaders,
		dbHealth:     opts.DBHealth,
		clientOrigin: opts.ClientOrigin,
		maxBodyBytes: opts.MaxBodyBytes,
		started:      time.Now(),
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if opts.RateLimits != nil {
		r.limits = *opts.RateLimits
	}
	if r.maxBodyBytes <= 0 {
		r.maxBodyBytes = defaultMaxBody
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		if err := r.limiter.Close(); err != nil {
			r.logger.Warn("close rate limiter", "error", err)
		}
	}
}

func (r *Router) register() {
	mux := r.mux
	mux.Use(middleware.RequestID)
	if r.trustProxy {
		mux.Use(middleware.RealIP)
	}
	mux.Use(r.audit, r.recoverer, r.cors)

	// Set before Route so mounted sub-routers inherit them.
	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	mux.Get("/api/health", r.handleHealth)
	mux.Method(http.MethodGet, "/metrics", r.metricsHandler())

	mux.Route("/api/auth", func(ar chi.Router) {
		ar.With(r.withRateLimit("auth.register", r.limits.Register, rateLimitKeyIP)).
			Post("/register", r.handleRegister)
		ar.With(r.withRateLimit("auth.login", r.limits.Login, rateLimitKeyIP)).
			Post("/login", r.handleLogin)
		ar.With(r.requireAuth).Get("/me", r.handleMe)
	})

	mux.Route("/api/tasks", func(tr chi.Router) {
		reads := tr.With(r.requireAuth, r.withRateLimit("tasks.read", r.limits.TaskRead, rateLimitKeyUser))
		writes := tr.With(r.requireAuth, r.withRateLimit("tasks.write", r.limits.TaskWrite, rateLimitKeyUser))

		reads.Get("/", r.handleListTasks)
		writes.Post("/", r.handleCreateTask)
		reads.Get("/{id}", r.handleGetTask)
		writes.Put("/{id}", r.handleUpdateTask)
		writes.Patch("/{id}", r.handleUpdateTask)
		writes.Delete("/{id}", r.handleDeleteTask)
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	payload := map[string]any{
		"ok":     true,
		"uptime": time.Since(r.started).Seconds(),
	}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.WarnContext(req.Context(), "database health check failed", "error", err)
			payload["database"] = "down"
		} else {
			payload["database"] = "up"
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := routePattern(req)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := middleware.GetReqID(req.Context()); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	})
}

func (r *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			r.logger.ErrorContext(req.Context(), "panic recovered", "panic", rec, "path", req.URL.Path)
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}()
		next.ServeHTTP(w, req)
	})
}

func (r *Router) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.clientOrigin != "" {
			headers := w.Header()
			headers.Set("Access-Control-Allow-Origin", r.clientOrigin)
			headers.Add("Vary", "Origin")
		}
		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			headers := w.Header()
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			headers.Set("Access-Control-Max-Age", strconv.Itoa(int((10 * time.Minute).Seconds())))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// routePattern returns the matched chi pattern, which keeps metric labels bounded.
func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

// clientIP is the socket peer, or the forwarded address when RealIP ran.
func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
