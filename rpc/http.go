package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cemleme/GRB-contracts/core"
	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/gateway/middleware"
	"github.com/cemleme/GRB-contracts/observability"
	"github.com/cemleme/GRB-contracts/storage/journal"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	shutdownTimeout = 10 * time.Second
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	status int
}

func (e *RPCError) Error() string { return e.Message }

// ServerConfig carries the HTTP surface settings.
type ServerConfig struct {
	Auth           middleware.AuthConfig
	AdminScope     string
	RateLimit      middleware.RateLimit
	AllowedOrigins []string
	LogRequests    bool
}

type handlerFunc func(ctx context.Context, req *RPCRequest) (interface{}, error)

type method struct {
	module string
	admin  bool
	fn     handlerFunc
}

type Server struct {
	game    *core.Game
	journal *journal.Journal
	bus     *events.Bus
	cfg     ServerConfig
	logger  *slog.Logger

	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	obs     *middleware.Observability
	methods map[string]method
}

// NewServer exposes game over JSON-RPC. journal and bus may be nil, which
// disables game_events and the websocket stream respectively.
func NewServer(game *core.Game, j *journal.Journal, bus *events.Bus, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.AdminScope) == "" {
		cfg.AdminScope = "game:admin"
	}
	cfg.Auth.OptionalPaths = append(cfg.Auth.OptionalPaths, "/healthz", "/metrics")
	s := &Server{
		game:    game,
		journal: j,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "rpc")),
		auth:    middleware.NewAuthenticator(cfg.Auth, logger),
		limiter: middleware.NewRateLimiter(cfg.RateLimit, logger),
		obs:     middleware.NewObservability(middleware.ObservabilityConfig{ServiceName: "spaced", LogRequests: cfg.LogRequests}, logger),
	}
	s.methods = s.registerMethods()
	return s
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}))
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.obs.MetricsHandler())
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware())
		r.Use(s.auth.Middleware())
		r.With(s.obs.Middleware("rpc")).Post("/rpc", s.handle)
		r.With(s.obs.Middleware("ws_events")).Get("/ws/events", s.handleEventsWS)
	})
	return r
}

// Serve accepts connections on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           otelhttp.NewHandler(s.Router(), "spaced"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc listening", slog.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc: shutdown: %w", err)
		}
		return nil
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle decodes a request and routes it through the method table.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
		return
	}

	start := time.Now()
	ctx := r.Context()
	var result interface{}
	if m.admin {
		err = s.requireAdmin(ctx)
	}
	if err == nil {
		result, err = m.fn(ctx, req)
	}
	rpcErr := toRPCError(err)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
	}
	observability.ModuleMetrics().Observe(m.module, req.Method, code, time.Since(start))
	if rpcErr != nil {
		if rpcErr.status >= http.StatusInternalServerError {
			s.logger.Error("rpc call failed",
				slog.String("method", req.Method),
				slog.String("request_id", middleware.RequestIDFrom(ctx)),
				slog.Any("error", err))
		}
		writeError(w, rpcErr.status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}
