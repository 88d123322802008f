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

// Package tools exposes the devflow board to MCP agents: one tool per board
// operation, plus every project as a readable resource.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
)

// Instructions is returned to clients from initialize.
const Instructions = "DevFlow tracks projects, features and tasks on a kanban board. " +
	"Call check_in before starting a task and check_out when it is done; " +
	"log_activity records progress in between."

type handler func(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error)

// Toolset implements the MCP tool and resource providers on top of a
// board service.
type Toolset struct {
	svc      *board.Service
	logger   *zap.Logger
	tools    []protocol.Tool
	handlers map[string]handler
}

// New builds the toolset.
func New(svc *board.Service, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	ts := &Toolset{
		svc:    svc,
		logger: logger.Named("tools"),
		tools:  definitions(),
	}
	ts.handlers = map[string]handler{
		"list_projects":         ts.listProjects,
		"create_project":        ts.createProject,
		"get_project":           ts.getProject,
		"update_project":        ts.updateProject,
		"get_or_create_project": ts.getOrCreateProject,
		"list_features":         ts.listFeatures,
		"create_feature":        ts.createFeature,
		"get_feature":           ts.getFeature,
		"update_feature":        ts.updateFeature,
		"create_features_bulk":  ts.createFeaturesBulk,
		"upload_file":           ts.uploadFile,
		"list_files":            ts.listFiles,
		"get_file":              ts.getFile,
		"update_file":           ts.updateFile,
		"list_tasks":            ts.listTasks,
		"get_task":              ts.getTask,
		"create_task":           ts.createTask,
		"create_tasks_bulk":     ts.createTasksBulk,
		"update_task":           ts.updateTask,
		"check_in":              ts.checkIn,
		"check_out":             ts.checkOut,
		"log_activity":          ts.logActivity,
		"get_activity_log":      ts.getActivityLog,
	}
	return ts
}

// ListTools returns the tool definitions.
func (ts *Toolset) ListTools(context.Context) ([]protocol.Tool, error) {
	return ts.tools, nil
}

// CallTool dispatches one call by name.
func (ts *Toolset) CallTool(ctx context.Context, name string, args map[string]any) (*protocol.CallToolResult, error) {
	h, ok := ts.handlers[name]
	if !ok {
		return nil, fmt.Errorf("Unknown tool: %s", name)
	}
	result, err := h(ctx, args)
	if err != nil {
		return nil, err
	}
	ts.logger.Debug("tool call", zap.String("tool", name))
	return result, nil
}

// decode maps validated arguments onto v through JSON.
func decode(args map[string]any, v any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// jsonText renders v as two-space indented JSON without HTML escaping.
func jsonText(v any) (*protocol.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return protocol.TextResult(strings.TrimSuffix(buf.String(), "\n")), nil
}

func text(format string, args ...any) (*protocol.CallToolResult, error) {
	return protocol.TextResult(fmt.Sprintf(format, args...)), nil
}
