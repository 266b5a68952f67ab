package server

import (
	"context"
	"math/rand"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openuno/cardroom/internal/activity"
	"github.com/openuno/cardroom/internal/identity"
	"github.com/openuno/cardroom/internal/lobby"
)

// Server is the WebSocket gateway front door. It owns the connection set;
// session and game state live in the GameService.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	gameService *GameService
	provider    identity.Provider
	metrics     *Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithIdentityProvider swaps the identity verifier.
func WithIdentityProvider(p identity.Provider) Option {
	return func(s *Server) { s.provider = p }
}

// WithActivityLog records lobby and game operations to the given log.
func WithActivityLog(a activity.Log) Option {
	return func(s *Server) {
		s.gameService.activity = a
	}
}

// NewServer creates a WebSocket server over the given registry. The RNG
// seeds game shuffles; pass a seeded source for deterministic games.
func NewServer(registry *lobby.Registry, rng *rand.Rand, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The gateway trusts the identity layer, not the origin.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		provider:    identity.Static{},
		metrics:     NewMetrics(),
	}

	s.gameService = NewGameService(s, registry, rng, logger, s.metrics, activity.Nop{})

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the HTTP handler serving /ws, /health and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return mux
}

// Start starts the WebSocket server and blocks until it stops.
func (s *Server) Start(addr string) error {
	go s.run()

	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}

	s.logger.Info("starting websocket server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down and closes every connection.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.metrics.Connections.Set(float64(total))
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.metrics.Connections.Set(float64(total))
			s.logger.Info("client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// BroadcastAll sends a message to every live connection.
func (s *Server) BroadcastAll(msg *Message) {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.SendMessage(msg)
	}
}

// handleWebSocket upgrades an HTTP request and starts the connection pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(wsConn, s.logger, s.gameService, s.provider)

	select {
	case s.register <- conn:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}

	go func() {
		<-conn.ctx.Done()
		select {
		case s.unregister <- conn:
		case <-s.ctx.Done():
		}
	}()

	conn.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
