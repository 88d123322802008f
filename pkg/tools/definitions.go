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

package tools

import (
	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
)

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

func str(desc string) map[string]any {
	s := map[string]any{"type": "string"}
	if desc != "" {
		s["description"] = desc
	}
	return s
}

func enum[T ~string](desc string, values []T) map[string]any {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = string(v)
	}
	return map[string]any{"type": "string", "enum": vals, "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func array(desc string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": desc, "items": items, "minItems": 1}
}

func hints(readOnly, destructive bool) *protocol.ToolAnnotations {
	return &protocol.ToolAnnotations{ReadOnlyHint: &readOnly, DestructiveHint: &destructive}
}

var (
	readOnly = hints(true, false)
	mutating = hints(false, false)
)

// definitions lists every tool in the order clients display them.
func definitions() []protocol.Tool {
	return []protocol.Tool{
		// Projects
		{
			Name:        "list_projects",
			Description: "List all projects",
			InputSchema: object(map[string]any{
				"status": enum("Filter by project status (optional)", board.ProjectStatuses),
			}),
			Annotations: readOnly,
		},
		{
			Name:        "create_project",
			Description: "Create a new project",
			InputSchema: object(map[string]any{
				"name":        str("Project name"),
				"description": str("Project description"),
			}, "name"),
			Annotations: mutating,
		},
		{
			Name:        "get_project",
			Description: "Get project details with all features and tasks",
			InputSchema: object(map[string]any{
				"projectId": str("Project ID"),
			}, "projectId"),
			Annotations: readOnly,
		},
		{
			Name:        "update_project",
			Description: "Update project details",
			InputSchema: object(map[string]any{
				"projectId":   str("Project ID"),
				"name":        str("New project name"),
				"description": str("New description"),
				"status":      enum("New status", board.ProjectStatuses),
			}, "projectId"),
			Annotations: mutating,
		},
		{
			Name:        "get_or_create_project",
			Description: "Get a project by name, creating it if it doesn't exist. Use this to ensure a project exists before adding tasks.",
			InputSchema: object(map[string]any{
				"name":        str("Project name to find or create"),
				"description": str("Project description (used only if creating)"),
			}, "name"),
			Annotations: mutating,
		},

		// Features
		{
			Name:        "list_features",
			Description: "List features in a project",
			InputSchema: object(map[string]any{
				"projectId": str("Project ID"),
			}, "projectId"),
			Annotations: readOnly,
		},
		{
			Name:        "create_feature",
			Description: "Create a new feature in a project",
			InputSchema: object(map[string]any{
				"projectId":   str("Project ID"),
				"name":        str("Feature name"),
				"description": str("Feature description"),
			}, "projectId", "name"),
			Annotations: mutating,
		},
		{
			Name:        "get_feature",
			Description: "Get feature details with all tasks",
			InputSchema: object(map[string]any{
				"featureId": str("Feature ID"),
			}, "featureId"),
			Annotations: readOnly,
		},
		{
			Name:        "update_feature",
			Description: "Update an existing feature",
			InputSchema: object(map[string]any{
				"featureId":   str("Feature ID"),
				"name":        str("New feature name"),
				"description": str("New description"),
				"status":      enum("New status", board.FeatureStatuses),
				"order":       integer("New order position"),
			}, "featureId"),
			Annotations: mutating,
		},
		{
			Name:        "create_features_bulk",
			Description: "Create multiple features at once in a project",
			InputSchema: object(map[string]any{
				"projectId": str("Project ID"),
				"features": array("Array of feature objects", object(map[string]any{
					"name":        str("Feature name"),
					"description": str("Feature description"),
				}, "name")),
			}, "projectId", "features"),
			Annotations: mutating,
		},

		// Files
		{
			Name:        "upload_file",
			Description: "Upload a file (markdown, image, etc.) to a project, feature, or task",
			InputSchema: object(map[string]any{
				"name":      str("File name"),
				"type":      enum("File type", board.FileTypes),
				"content":   str("File content (for text files)"),
				"projectId": str("Project ID (optional)"),
				"featureId": str("Feature ID (optional)"),
				"taskId":    str("Task ID (optional)"),
			}, "name", "type", "content"),
			Annotations: mutating,
		},
		{
			Name:        "list_files",
			Description: "List files attached to a project, feature, or task",
			InputSchema: object(map[string]any{
				"projectId": str("Project ID (optional)"),
				"featureId": str("Feature ID (optional)"),
				"taskId":    str("Task ID (optional)"),
			}),
			Annotations: readOnly,
		},
		{
			Name:        "get_file",
			Description: "Get file content",
			InputSchema: object(map[string]any{
				"fileId": str("File ID"),
			}, "fileId"),
			Annotations: readOnly,
		},
		{
			Name:        "update_file",
			Description: "Update file content",
			InputSchema: object(map[string]any{
				"fileId":  str("File ID"),
				"content": str("New file content"),
			}, "fileId", "content"),
			Annotations: mutating,
		},

		// Tasks
		{
			Name:        "list_tasks",
			Description: "List tasks, optionally filtered by project, feature, or status",
			InputSchema: object(map[string]any{
				"projectId": str("Filter by project ID"),
				"featureId": str("Filter by feature ID"),
				"status":    enum("Filter by status", board.TaskStatuses),
			}),
			Annotations: readOnly,
		},
		{
			Name:        "get_task",
			Description: "Get detailed task information with all context and files",
			InputSchema: object(map[string]any{
				"taskId": str("Task ID"),
			}, "taskId"),
			Annotations: readOnly,
		},
		{
			Name:        "create_task",
			Description: "Create a new task. You can specify either projectId or projectName (which will auto-create the project if it doesn't exist).",
			InputSchema: object(map[string]any{
				"projectId":   str("Project ID (optional if projectName is provided)"),
				"projectName": str("Project name - will find or create the project automatically"),
				"featureId":   str("Feature ID (optional)"),
				"title":       str("Task title"),
				"description": str("Task description"),
				"status":      enum("Initial status (defaults to backlog)", board.TaskStatuses),
				"priority":    enum("Task priority", board.Priorities),
				"context":     str("Task context for AI agents"),
			}, "title"),
			Annotations: mutating,
		},
		{
			Name:        "create_tasks_bulk",
			Description: "Create multiple tasks at once. You can specify either projectId or projectName.",
			InputSchema: object(map[string]any{
				"projectId":   str("Project ID (optional if projectName is provided)"),
				"projectName": str("Project name - will find or create the project automatically"),
				"featureId":   str("Feature ID (optional)"),
				"tasks": array("Array of task objects", object(map[string]any{
					"title":       str("Task title"),
					"description": str("Task description"),
					"status":      enum("Initial status", board.TaskStatuses),
					"priority":    enum("Task priority", board.Priorities),
					"context":     str("Task context for AI agents"),
				}, "title")),
			}, "tasks"),
			Annotations: mutating,
		},
		{
			Name:        "update_task",
			Description: "Update an existing task",
			InputSchema: object(map[string]any{
				"taskId":        str("Task ID"),
				"title":         str("New title"),
				"description":   str("New description"),
				"status":        enum("New status", board.TaskStatuses),
				"priority":      enum("New priority", board.Priorities),
				"featureId":     str("Move the task to this feature; empty detaches it"),
				"context":       str("Updated context"),
				"executionPlan": str("Agent's execution plan"),
				"order":         integer("New order position"),
			}, "taskId"),
			Annotations: mutating,
		},

		// Agent workflow
		{
			Name:        "check_in",
			Description: "Agent checks in to work on a task",
			InputSchema: object(map[string]any{
				"taskId":        str("Task ID"),
				"agentName":     str("Agent name"),
				"executionPlan": str("Execution plan"),
			}, "taskId", "agentName"),
			Annotations: mutating,
		},
		{
			Name:        "check_out",
			Description: "Agent checks out from a task",
			InputSchema: object(map[string]any{
				"taskId":    str("Task ID"),
				"agentName": str("Agent name"),
				"summary":   str("Work summary"),
			}, "taskId", "agentName"),
			Annotations: mutating,
		},
		{
			Name:        "log_activity",
			Description: "Log agent activity",
			InputSchema: object(map[string]any{
				"taskId":    str("Task ID"),
				"agentName": str("Agent name"),
				"action":    str("Action performed"),
				"details":   str("Additional details"),
			}, "taskId", "agentName", "action"),
			Annotations: mutating,
		},
		{
			Name:        "get_activity_log",
			Description: "Get activity log for a task",
			InputSchema: object(map[string]any{
				"taskId": str("Task ID"),
			}, "taskId"),
			Annotations: readOnly,
		},
	}
}
