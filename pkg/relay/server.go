// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/internal/pubsub"
)

// ErrNotRunning is returned by operations that need a running server.
var ErrNotRunning = errors.New("relay: server not running")

// Frame is one relayed message. PeerID is the sender, 0 for frames injected
// by the owning process. Type is the websocket opcode the frame arrived with;
// zero means text.
type Frame struct {
	PeerID uint64
	Type   int
	Data   []byte
}

func (f Frame) messageType() int {
	if f.Type == websocket.BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// ServerConfig configures a relay Server.
type ServerConfig struct {
	// Host is the bind address. Defaults to localhost.
	Host string
	// Port to bind. 0 picks an ephemeral port and skips the probe.
	Port int
	// ProbeHost is dialed to detect an existing listener. Defaults to Host.
	ProbeHost string
	// Probe overrides the occupancy check. Defaults to Probe.
	Probe func(ctx context.Context, host string, port int) bool
	// Listen opens the listener. Defaults to net.ListenConfig.Listen.
	Listen func(ctx context.Context, network, addr string) (net.Listener, error)
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Server is the in-process websocket relay. One goroutine owns the peer
// registry and performs all fan-out; connection goroutines talk to it over
// channels.
type Server struct {
	cfg    ServerConfig
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	err      error
	listener net.Listener
	srv      *http.Server

	upgrader   websocket.Upgrader
	registry   *Registry
	taps       *pubsub.Broker[Frame]
	register   chan Peer
	unregister chan Peer
	inbound    chan Frame
	quit       chan struct{}
	loopDone   chan struct{}
	pumps      sync.WaitGroup
	nextID     atomic.Uint64
}

// NewServer creates an unstarted relay.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ProbeHost == "" {
		cfg.ProbeHost = cfg.Host
	}
	if cfg.Probe == nil {
		cfg.Probe = Probe
	}
	if cfg.Listen == nil {
		var lc net.ListenConfig
		cfg.Listen = lc.Listen
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger.Named("relay.server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers connect from the dashboard origin; everything is local.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		registry:   NewRegistry(),
		taps:       pubsub.NewBroker[Frame](0),
		register:   make(chan Peer),
		unregister: make(chan Peer),
		inbound:    make(chan Frame, sendQueueSize),
		quit:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
}

// Start binds the port and begins accepting peers. It is idempotent: a
// running server stays running and a declined or failed server reports its
// terminal state without retrying. Declining is not an error.
func (s *Server) Start(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning, StateDeclined, StateStopped:
		return s.state, nil
	case StateFailed:
		return s.state, s.err
	}
	s.state = StateStarting

	addr := joinHostPort(s.cfg.Host, s.cfg.Port)
	if s.cfg.Port != 0 && s.cfg.Probe(ctx, s.cfg.ProbeHost, s.cfg.Port) {
		s.logger.Info("port already in use, another process owns the relay",
			zap.Int("port", s.cfg.Port))
		s.state = StateDeclined
		return s.state, nil
	}

	ln, err := s.cfg.Listen(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			s.logger.Info("port already in use, another process owns the relay",
				zap.Int("port", s.cfg.Port))
			s.state = StateDeclined
			return s.state, nil
		}
		s.logger.Error("relay failed to start", zap.String("addr", addr), zap.Error(err))
		s.state = StateFailed
		s.err = fmt.Errorf("relay listen %s: %w", addr, err)
		return s.state, s.err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.listener = ln
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.state = StateRunning

	go s.run()
	go s.serve(ln)

	s.logger.Info("relay listening", zap.String("addr", ln.Addr().String()))
	return s.state, nil
}

func (s *Server) serve(ln net.Listener) {
	err := s.srv.Serve(ln)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}

	s.mu.Lock()
	if s.state == StateRunning {
		if errors.Is(err, syscall.EADDRINUSE) {
			s.state = StateDeclined
			s.logger.Info("port taken over by another process, relay declined", zap.Error(err))
		} else {
			s.state = StateFailed
			s.err = fmt.Errorf("relay serve: %w", err)
			s.logger.Error("relay stopped serving", zap.Error(err))
		}
	}
	srv := s.srv
	s.mu.Unlock()

	_ = srv.Close()
	s.stopLoop()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	// Pumps are only added while running so Close never waits on a
	// WaitGroup that is still growing.
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.pumps.Add(2)
	s.mu.Unlock()

	p := newWSPeer(s.nextID.Add(1), conn, s.logger)
	if !s.enqueue(s.register, p) {
		s.pumps.Add(-2)
		_ = conn.Close()
		return
	}
	go func() {
		defer s.pumps.Done()
		p.writePump()
	}()
	go func() {
		defer s.pumps.Done()
		p.readPump(
			func(from *wsPeer, messageType int, data []byte) {
				s.enqueueFrame(Frame{PeerID: from.ID(), Type: messageType, Data: data})
			},
			func(from *wsPeer) {
				s.enqueue(s.unregister, from)
			},
		)
	}()
}

// enqueue hands p to the hub unless the hub has stopped.
func (s *Server) enqueue(ch chan Peer, p Peer) bool {
	select {
	case ch <- p:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Server) enqueueFrame(f Frame) bool {
	select {
	case s.inbound <- f:
		return true
	case <-s.quit:
		return false
	}
}

// run is the hub loop. It is the only writer of the registry.
func (s *Server) run() {
	defer close(s.loopDone)
	for {
		select {
		case p := <-s.register:
			s.registry.Add(p)
			s.logger.Info("client connected", zap.Uint64("peer", p.ID()),
				zap.Int("clients", s.registry.Len()))
			s.taps.Publish(pubsub.CreatedEvent, Frame{PeerID: p.ID()})

		case p := <-s.unregister:
			if s.registry.Remove(p) {
				_ = p.Close()
				s.logger.Info("client disconnected", zap.Uint64("peer", p.ID()),
					zap.Int("clients", s.registry.Len()))
				s.taps.Publish(pubsub.DeletedEvent, Frame{PeerID: p.ID()})
			}

		case f := <-s.inbound:
			s.fanOut(f)

		case <-s.quit:
			for _, p := range s.registry.Drain() {
				_ = p.Close()
			}
			return
		}
	}
}

func (s *Server) fanOut(f Frame) {
	for _, p := range s.registry.Others(f.PeerID) {
		if err := p.Send(f); err != nil {
			s.logger.Debug("dropping peer", zap.Uint64("peer", p.ID()), zap.Error(err))
			if s.registry.Remove(p) {
				_ = p.Close()
			}
		}
	}
	s.taps.Publish(pubsub.UpdatedEvent, f)
}

// Inject relays data to every connected peer as if it came from a peer
// outside the registry.
func (s *Server) Inject(data []byte) error {
	if !s.IsRunning() {
		return ErrNotRunning
	}
	if !s.enqueueFrame(Frame{Type: websocket.TextMessage, Data: data}) {
		return ErrNotRunning
	}
	return nil
}

// Subscribe observes registry and relay activity. Connects arrive as
// CreatedEvent, disconnects as DeletedEvent and relayed frames as
// UpdatedEvent. The channel closes when ctx is done or the server stops.
func (s *Server) Subscribe(ctx context.Context) <-chan pubsub.Event[Frame] {
	return s.taps.Subscribe(ctx)
}

// ConnectionCount returns the number of registered peers.
func (s *Server) ConnectionCount() int {
	return s.registry.Len()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the server to StateFailed, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsRunning reports whether the server is accepting peers.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Addr returns the bound address, or nil before a successful Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound port, or 0 before a successful Start.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Close stops accepting peers, closes every connection and waits for the
// hub to exit. Closing a server that never ran just marks it stopped.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	wasRunning := s.state == StateRunning
	srv := s.srv
	if s.state != StateDeclined && s.state != StateFailed {
		s.state = StateStopped
	}
	s.mu.Unlock()

	s.stopLoop()
	defer s.taps.Shutdown()
	if !wasRunning || srv == nil {
		return nil
	}

	// Hijacked websocket connections are not tracked by http.Server, so
	// Close only stops the listener; the hub closes peers.
	err := srv.Close()

	select {
	case <-s.loopDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	pumpsDone := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(pumpsDone)
	}()
	select {
	case <-pumpsDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("relay close: %w", err)
	}
	return nil
}

func (s *Server) stopLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}
