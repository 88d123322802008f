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

// Package server dispatches MCP JSON-RPC requests to tool and resource
// providers.
package server

import (
	"context"

	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
)

// ToolProvider supplies the tools the server exposes.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]protocol.Tool, error)
	// CallTool runs a tool whose arguments already passed schema
	// validation. A returned error is reported to the client as a tool
	// error result.
	CallTool(ctx context.Context, name string, args map[string]any) (*protocol.CallToolResult, error)
}

// ResourceProvider supplies readable resources.
type ResourceProvider interface {
	ListResources(ctx context.Context) ([]protocol.Resource, error)
	ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error)
}
