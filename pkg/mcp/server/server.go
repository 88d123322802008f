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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
	"github.com/teradata-labs/devflow/pkg/mcp/transport"
)

// MethodHandler answers one JSON-RPC method.
type MethodHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Server is a JSON-RPC MCP server. Requests are handled one at a time in
// arrival order.
type Server struct {
	info         protocol.Implementation
	instructions string
	capabilities protocol.ServerCapabilities
	tools        ToolProvider
	resources    ResourceProvider
	validator    *protocol.SchemaValidator
	logger       *zap.Logger

	mu         sync.RWMutex
	handlers   map[string]MethodHandler
	clientInfo *protocol.Implementation

	notifyCh chan []byte
}

// Option configures a Server.
type Option func(*Server)

// WithToolProvider enables tools/list and tools/call.
func WithToolProvider(p ToolProvider) Option {
	return func(s *Server) {
		s.tools = p
		s.capabilities.Tools = &protocol.ToolsCapability{}
		s.handlers["tools/list"] = s.handleToolsList
		s.handlers["tools/call"] = s.handleToolsCall
	}
}

// WithResourceProvider enables resources/list and resources/read.
func WithResourceProvider(p ResourceProvider) Option {
	return func(s *Server) {
		s.resources = p
		s.capabilities.Resources = &protocol.ResourcesCapability{ListChanged: true}
		s.handlers["resources/list"] = s.handleResourcesList
		s.handlers["resources/read"] = s.handleResourcesRead
	}
}

// WithInstructions sets the usage hint returned from initialize.
func WithInstructions(text string) Option {
	return func(s *Server) {
		s.instructions = text
	}
}

// New creates a server identified by name and version.
func New(name, version string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		info:      protocol.Implementation{Name: name, Version: version},
		validator: protocol.NewSchemaValidator(),
		logger:    logger.Named("mcp"),
		handlers:  make(map[string]MethodHandler),
		notifyCh:  make(chan []byte, 16),
	}
	s.handlers["initialize"] = s.handleInitialize
	s.handlers["notifications/initialized"] = s.handleInitialized
	s.handlers["ping"] = s.handlePing
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterHandler adds or replaces the handler for method.
func (s *Server) RegisterHandler(method string, h MethodHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// HandleMessage processes one encoded message and returns the encoded
// response, or nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	var req protocol.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return json.Marshal(protocol.NewErrorResponse(nil, protocol.NewError(protocol.ParseError, "invalid JSON", nil)))
	}
	if err := protocol.ValidateRequest(&req); err != nil {
		return json.Marshal(protocol.NewErrorResponse(req.ID, protocol.NewError(protocol.InvalidRequest, err.Error(), nil)))
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		if req.IsNotification() {
			return nil, nil
		}
		return json.Marshal(protocol.NewErrorResponse(req.ID,
			protocol.NewError(protocol.MethodNotFound, "method not found: "+req.Method, nil)))
	}

	start := time.Now()
	result, err := handler(ctx, req.Params)
	if err != nil {
		s.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if req.IsNotification() {
			return nil, nil
		}
		var rpcErr *protocol.Error
		if !errors.As(err, &rpcErr) {
			rpcErr = protocol.NewError(protocol.InternalError, err.Error(), nil)
		}
		return json.Marshal(protocol.NewErrorResponse(req.ID, rpcErr))
	}
	s.logger.Debug("request handled",
		zap.String("method", req.Method),
		zap.Stringer("id", req.ID),
		zap.Duration("duration", time.Since(start)))

	if req.IsNotification() {
		return nil, nil
	}
	resp, err := protocol.NewResponse(req.ID, result)
	if err != nil {
		return json.Marshal(protocol.NewErrorResponse(req.ID, protocol.NewError(protocol.InternalError, err.Error(), nil)))
	}
	return json.Marshal(resp)
}

// Serve reads requests from t until ctx ends or the transport fails, and
// interleaves queued notifications with responses.
func (s *Server) Serve(ctx context.Context, t transport.Transport) error {
	s.logger.Info("MCP server running", zap.String("name", s.info.Name), zap.String("version", s.info.Version))

	msgCh := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			msg, err := t.Receive(ctx)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case msgCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		case msg := <-msgCh:
			resp, err := s.HandleMessage(ctx, msg)
			if err != nil {
				s.logger.Error("failed to encode response", zap.Error(err))
				continue
			}
			if resp == nil {
				continue
			}
			if err := t.Send(ctx, resp); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		case n := <-s.notifyCh:
			if err := t.Send(ctx, n); err != nil {
				return fmt.Errorf("send notification: %w", err)
			}
		}
	}
}

// NotifyResourceListChanged queues notifications/resources/list_changed.
// It is dropped when the queue is full.
func (s *Server) NotifyResourceListChanged() {
	if s.resources == nil {
		return
	}
	data, err := json.Marshal(protocol.NewNotification("notifications/resources/list_changed", nil))
	if err != nil {
		return
	}
	select {
	case s.notifyCh <- data:
	default:
		s.logger.Debug("notification queue full, dropping resources/list_changed")
	}
}

// ClientInfo returns the client named in initialize, or nil.
func (s *Server) ClientInfo() *protocol.Implementation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientInfo
}

func (s *Server) handleInitialize(_ context.Context, params json.RawMessage) (any, error) {
	var init protocol.InitializeParams
	if err := decodeParams(params, &init); err != nil {
		return nil, err
	}
	version := protocol.NegotiateVersion(init.ProtocolVersion)
	if init.ProtocolVersion != "" && version != init.ProtocolVersion {
		s.logger.Warn("unsupported client protocol version",
			zap.String("requested", init.ProtocolVersion),
			zap.String("offered", version))
	}
	if init.ClientInfo.Name != "" {
		s.mu.Lock()
		info := init.ClientInfo
		s.clientInfo = &info
		s.mu.Unlock()
		s.logger.Info("client connected",
			zap.String("client", init.ClientInfo.Name),
			zap.String("client_version", init.ClientInfo.Version))
	}
	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    s.capabilities,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

func (s *Server) handleInitialized(context.Context, json.RawMessage) (any, error) {
	s.logger.Debug("client initialized")
	return nil, nil
}

func (s *Server) handlePing(context.Context, json.RawMessage) (any, error) {
	return struct{}{}, nil
}
