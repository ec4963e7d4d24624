package target

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/electron/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/electron/internal/transport"
)

// SessionInfo describes a connected controller.
type SessionInfo struct {
	ID           string    `json:"id"`
	TraceID      string    `json:"trace_id,omitempty"`
	Remote       string    `json:"remote"`
	Started      time.Time `json:"started"`
	Applications []string  `json:"applications"`
}

type liveSession struct {
	session *Session
	info    SessionInfo
}

// Server exposes target sessions over WebSocket.
type Server struct {
	cfg      config.TargetConfig
	opts     Options
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	router   *gin.Engine
	tracer   *tracing.Tracer
	http     *http.Server
	upgrader websocket.Upgrader

	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup

	mu   sync.Mutex
	live map[string]*liveSession // Protected by mu
}

// NewServer creates a server. development switches gin to debug mode.
func NewServer(cfg config.TargetConfig, logger *logging.Logger, development bool) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)
	tracer := tracing.New("electron-target", logger.Named("trace").Logger)

	if !development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(tracing.HTTPMiddleware(tracer))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg: cfg,
		opts: Options{
			WindowDelay:   cfg.WindowDelay,
			ScriptTimeout: cfg.ScriptTimeout,
			Logger:        logger,
			Metrics:       metrics,
		},
		logger:   logger.Named("target"),
		metrics:  metrics,
		registry: registry,
		router:   router,
		tracer:   tracer,
		upgrader: websocket.Upgrader{
			// Controllers are not browsers; there is no origin to check.
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
		ctx:    ctx,
		cancel: cancel,
		live:   make(map[string]*liveSession),
	}

	router.GET("/ws", s.handleSession)

	admin := router.Group("/", corsMiddleware(cfg.CORSOrigins))
	admin.GET("/healthz", s.health)
	admin.GET("/sessions", s.listSessions)
	admin.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return s
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown.
func (s *Server) Run() error {
	addr := s.cfg.Address()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting target server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, ends every session and waits for
// them to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down target server...")
	s.cancel()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.tracer.Close()
	s.logger.Sync()
	return err
}

// Sessions returns the connected controllers, oldest first.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	live := make([]*liveSession, 0, len(s.live))
	for _, l := range s.live {
		live = append(live, l)
	}
	s.mu.Unlock()

	out := make([]SessionInfo, 0, len(live))
	for _, l := range live {
		info := l.info
		info.Applications = l.session.Applications()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.Sessions()})
}

func (s *Server) handleSession(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	traceID := string(tracing.GetTraceID(c.Request.Context()))
	opts := s.opts
	opts.Logger = s.opts.Logger.With(zap.String("trace_id", traceID))
	session := NewSession(transport.NewWebSocket(conn), opts)

	info := SessionInfo{
		ID:      session.ID(),
		TraceID: traceID,
		Remote:  c.Request.RemoteAddr,
		Started: time.Now(),
	}
	s.mu.Lock()
	s.live[info.ID] = &liveSession{session: session, info: info}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.live, info.ID)
		s.mu.Unlock()
	}()

	if err := session.Serve(s.ctx); err != nil {
		s.logger.Warn("session ended with error", zap.Error(err), zap.String("remote", info.Remote))
	}
}
