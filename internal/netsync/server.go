package netsync

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/arcade/internal/core/observability/log"
)

type ServerConfig struct {
	Listen       string
	Path         string
	Step         time.Duration
	WriteTimeout time.Duration
}

type peer struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	timeout time.Duration
}

func (p *peer) send(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	return nil
}

// Server is the authoritative tick source. Every step it broadcasts a tick
// notification to all connected clients, and it relays each client's input
// messages to the other clients.
type Server struct {
	cfg      ServerConfig
	log      log.Log
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[string]*peer

	ticks    atomic.Uint64
	relayed  atomic.Uint64
	dropped  atomic.Uint64
	running  atomic.Bool
	serveMux *http.ServeMux
}

func NewServer(cfg ServerConfig, logger log.Log) (*Server, error) {
	if cfg.Step <= 0 {
		return nil, ErrInvalidServerStep
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		cfg: cfg,
		log: logger.Named("netsync.server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		peers: make(map[string]*peer),
	}
	s.serveMux = http.NewServeMux()
	s.serveMux.HandleFunc(cfg.Path, s.handleWebSocket)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

// Ticks is the number of tick notifications broadcast so far.
func (s *Server) Ticks() uint64 { return s.ticks.Load() }

// Relayed counts input messages forwarded to at least one peer.
func (s *Server) Relayed() uint64 { return s.relayed.Load() }

// Dropped counts frames from clients that were not valid input messages.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) Peers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// ListenAndServe serves websocket clients on cfg.Listen and broadcasts ticks
// until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}
	defer s.running.Store(false)

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", log.String("addr", s.cfg.Listen), log.String("path", s.cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closePeers()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Run broadcasts one tick notification per step until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Advance()
		}
	}
}

// Advance broadcasts the next tick notification and returns its number.
func (s *Server) Advance() uint64 {
	n := s.ticks.Add(1)
	data, err := encodeMessage(Message{Type: TypeTick, Tick: n})
	if err != nil {
		s.log.Error("encode tick", log.Error(err))
		return n
	}
	s.broadcast(data, "")
	return n
}

func (s *Server) broadcast(data []byte, except string) int {
	s.mu.RLock()
	targets := make([]*peer, 0, len(s.peers))
	for id, p := range s.peers {
		if id != except {
			targets = append(targets, p)
		}
	}
	s.mu.RUnlock()

	sent := 0
	for _, p := range targets {
		if err := p.send(data); err != nil {
			s.log.Warn("dropping peer", log.String("peer", p.id), log.Error(err))
			s.removePeer(p.id)
			continue
		}
		sent++
	}
	return sent
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}

	p := &peer{id: uuid.NewString(), conn: conn, timeout: s.cfg.WriteTimeout}
	s.mu.Lock()
	s.peers[p.id] = p
	s.mu.Unlock()
	s.log.Info("peer connected", log.String("peer", p.id), log.String("remote", conn.RemoteAddr().String()))

	s.readLoop(p)
}

func (s *Server) readLoop(p *peer) {
	defer s.removePeer(p.id)

	for {
		kind, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("peer read failed", log.String("peer", p.id), log.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			s.dropped.Add(1)
			continue
		}
		msg, err := decodeMessage(data)
		if err != nil || msg.Type != TypeInput {
			s.dropped.Add(1)
			s.log.Debug("ignoring message", log.String("peer", p.id), log.Error(err))
			continue
		}
		if s.broadcast(data, p.id) > 0 {
			s.relayed.Add(1)
		}
	}
}

func (s *Server) removePeer(id string) {
	s.mu.Lock()
	p, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if ok {
		_ = p.conn.Close()
		s.log.Info("peer disconnected", log.String("peer", id))
	}
}

func (s *Server) closePeers() {
	s.mu.Lock()
	peers := s.peers
	s.peers = make(map[string]*peer)
	s.mu.Unlock()

	for _, p := range peers {
		p.writeMu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		p.writeMu.Unlock()
		_ = p.conn.Close()
	}
}
