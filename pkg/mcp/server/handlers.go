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
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
)

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return protocol.NewError(protocol.InvalidParams, fmt.Sprintf("invalid params: %v", err), nil)
	}
	return nil
}

func (s *Server) handleToolsList(ctx context.Context, _ json.RawMessage) (any, error) {
	tools, err := s.tools.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return protocol.ToolListResult{Tools: tools}, nil
}

// handleToolsCall never fails at the JSON-RPC level once the params decode:
// unknown tools, invalid arguments and tool failures all come back as
// isError results the agent can read.
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var call protocol.CallToolParams
	if err := decodeParams(params, &call); err != nil {
		return nil, err
	}
	if call.Name == "" {
		return nil, protocol.NewError(protocol.InvalidParams, "tool name is required", nil)
	}

	tools, err := s.tools.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	var tool *protocol.Tool
	for i := range tools {
		if tools[i].Name == call.Name {
			tool = &tools[i]
			break
		}
	}
	if tool == nil {
		return protocol.ErrorResult(fmt.Errorf("Unknown tool: %s", call.Name)), nil
	}
	if err := s.validator.Validate(*tool, call.Arguments); err != nil {
		s.logger.Debug("tool arguments rejected", zap.String("tool", call.Name), zap.Error(err))
		return protocol.ErrorResult(err), nil
	}

	result, err := s.tools.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return protocol.ErrorResult(err), nil
	}
	return result, nil
}

func (s *Server) handleResourcesList(ctx context.Context, _ json.RawMessage) (any, error) {
	resources, err := s.resources.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return protocol.ResourceListResult{Resources: resources}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (any, error) {
	var read protocol.ReadResourceParams
	if err := decodeParams(params, &read); err != nil {
		return nil, err
	}
	if read.URI == "" {
		return nil, protocol.NewError(protocol.InvalidParams, "resource URI is required", nil)
	}
	result, err := s.resources.ReadResource(ctx, read.URI)
	if err != nil {
		return nil, protocol.NewError(protocol.InvalidParams, err.Error(), map[string]string{"uri": read.URI})
	}
	return result, nil
}
