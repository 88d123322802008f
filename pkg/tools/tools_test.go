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
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
	"github.com/teradata-labs/devflow/pkg/mcp/server"
	"github.com/teradata-labs/devflow/pkg/notify"
)

type harness struct {
	t   *testing.T
	ts  *Toolset
	srv *server.Server
	rec *notify.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := board.Open(context.Background(), board.Options{
		DSN:    filepath.Join(t.TempDir(), "devflow.db"),
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &notify.Recorder{}
	ts := New(board.NewService(store, board.ServiceConfig{Notifier: rec, Logger: logger}), logger)
	srv := server.New("devflow-mcp", "test", logger, server.WithToolProvider(ts), server.WithResourceProvider(ts))
	return &harness{t: t, ts: ts, srv: srv, rec: rec}
}

// call goes through the MCP server so schema validation applies.
func (h *harness) call(name string, args map[string]any) protocol.CallToolResult {
	h.t.Helper()
	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(h.t, err)
	out, err := h.srv.HandleMessage(context.Background(), req)
	require.NoError(h.t, err)
	var resp protocol.Response
	require.NoError(h.t, json.Unmarshal(out, &resp))
	require.Nil(h.t, resp.Error)
	var res protocol.CallToolResult
	require.NoError(h.t, json.Unmarshal(resp.Result, &res))
	require.Len(h.t, res.Content, 1)
	return res
}

func (h *harness) ok(name string, args map[string]any) string {
	h.t.Helper()
	res := h.call(name, args)
	require.False(h.t, res.IsError, res.Content[0].Text)
	return res.Content[0].Text
}

func (h *harness) fail(name string, args map[string]any) string {
	h.t.Helper()
	res := h.call(name, args)
	require.True(h.t, res.IsError, res.Content[0].Text)
	return res.Content[0].Text
}

func idAfter(t *testing.T, text, prefix string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(text, prefix), text)
	return strings.Fields(strings.TrimPrefix(text, prefix))[0]
}

func TestDefinitionsMatchHandlers(t *testing.T) {
	ts := New(nil, nil)
	tools, err := ts.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 23)

	seen := map[string]bool{}
	for _, tool := range tools {
		assert.False(t, seen[tool.Name], "duplicate %s", tool.Name)
		seen[tool.Name] = true
		assert.Contains(t, ts.handlers, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.Annotations)
		if err := protocol.ValidateToolArguments(tool, map[string]any{}); err != nil {
			assert.NotContains(t, err.Error(), "compile", tool.Name)
		}
	}
	assert.Len(t, ts.handlers, len(tools))
}

func TestUnknownTool(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Error: Unknown tool: delete_everything", h.fail("delete_everything", nil))

	_, err := h.ts.CallTool(context.Background(), "delete_everything", nil)
	assert.EqualError(t, err, "Unknown tool: delete_everything")
}

func TestProjectTools(t *testing.T) {
	h := newHarness(t)

	id := idAfter(t, h.ok("create_project", map[string]any{"name": "Web <App>", "description": "a & b"}), "Project created: ")

	list := h.ok("list_projects", nil)
	assert.Contains(t, list, `"name": "Web <App>"`, "output is indented and not HTML-escaped")
	var projects []board.Project
	require.NoError(t, json.Unmarshal([]byte(list), &projects))
	require.Len(t, projects, 1)

	assert.Equal(t, "[]", h.ok("list_projects", map[string]any{"status": "archived"}))
	h.fail("list_projects", map[string]any{"status": "paused"})

	assert.Equal(t, "Project "+id+" updated", h.ok("update_project", map[string]any{"projectId": id, "status": "completed"}))
	assert.Equal(t, "Error: Project nope not found", h.fail("update_project", map[string]any{"projectId": "nope", "name": "x"}))

	var detail board.ProjectDetail
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_project", map[string]any{"projectId": id})), &detail))
	assert.Equal(t, board.ProjectCompleted, detail.Project.Status)
	assert.Empty(t, detail.Tasks)

	var found struct {
		Action  string        `json:"action"`
		Project board.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_or_create_project", map[string]any{"name": "web <app>"})), &found))
	assert.Equal(t, "found", found.Action)
	assert.Equal(t, id, found.Project.ID)

	require.NoError(t, json.Unmarshal([]byte(h.ok("get_or_create_project", map[string]any{"name": "Other"})), &found))
	assert.Equal(t, "created", found.Action)

	h.fail("create_project", map[string]any{})
	assert.Equal(t, []notify.Type{notify.ProjectCreated, notify.ProjectUpdated, notify.ProjectCreated}, h.rec.Types())
}

func TestFeatureTools(t *testing.T) {
	h := newHarness(t)
	pid := idAfter(t, h.ok("create_project", map[string]any{"name": "P"}), "Project created: ")

	fid := idAfter(t, h.ok("create_feature", map[string]any{"projectId": pid, "name": "Auth"}), "Feature created: ")
	assert.Equal(t, "Feature "+fid+" updated", h.ok("update_feature", map[string]any{"featureId": fid, "order": 5, "status": "in_progress"}))
	h.fail("update_feature", map[string]any{"featureId": fid, "order": 1.5})

	bulk := h.ok("create_features_bulk", map[string]any{
		"projectId": pid,
		"features":  []any{map[string]any{"name": "A"}, map[string]any{"name": "B", "description": "b"}},
	})
	lines := strings.Split(bulk, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Created 2 features in project "+pid+":", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "- A ("))
	assert.True(t, strings.HasPrefix(lines[2], "- B ("))

	assert.Equal(t, "Error: Project missing not found",
		h.fail("create_features_bulk", map[string]any{"projectId": "missing", "features": []any{map[string]any{"name": "A"}}}))

	var features []board.Feature
	require.NoError(t, json.Unmarshal([]byte(h.ok("list_features", map[string]any{"projectId": pid})), &features))
	require.Len(t, features, 3)
	assert.Equal(t, "A", features[0].Name)
	assert.Equal(t, "Auth", features[2].Name)

	var detail board.FeatureDetail
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_feature", map[string]any{"featureId": fid})), &detail))
	assert.Equal(t, board.FeatureInProgress, detail.Feature.Status)
	assert.Equal(t, "Error: Feature nope not found", h.fail("get_feature", map[string]any{"featureId": "nope"}))
}

func TestFileTools(t *testing.T) {
	h := newHarness(t)
	pid := idAfter(t, h.ok("create_project", map[string]any{"name": "P"}), "Project created: ")

	fileID := idAfter(t, h.ok("upload_file", map[string]any{
		"name": "design.md", "type": "markdown", "content": "# Design", "projectId": pid,
	}), "File uploaded: ")
	h.fail("upload_file", map[string]any{"name": "x", "type": "video", "content": ""})

	var f board.File
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_file", map[string]any{"fileId": fileID})), &f))
	assert.Equal(t, "text/markdown", *f.MimeType)
	assert.Equal(t, int64(8), *f.Size)

	assert.Equal(t, "File "+fileID+" updated", h.ok("update_file", map[string]any{"fileId": fileID, "content": "# Design v2"}))
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_file", map[string]any{"fileId": fileID})), &f))
	assert.Equal(t, "# Design v2", *f.Content)

	var files []board.File
	require.NoError(t, json.Unmarshal([]byte(h.ok("list_files", map[string]any{"projectId": pid})), &files))
	assert.Len(t, files, 1)
	assert.Equal(t, "[]", h.ok("list_files", map[string]any{"taskId": "none"}))

	assert.Equal(t, "Error: File nope not found", h.fail("get_file", map[string]any{"fileId": "nope"}))
}

func TestTaskTools(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t,
		"Error: No project specified and no active project found. Please provide projectId or projectName.",
		h.fail("create_task", map[string]any{"title": "orphan"}))

	created := h.ok("create_task", map[string]any{"projectName": "Auto", "title": "First", "priority": "high"})
	taskID := idAfter(t, created, "Task created: ")
	pid := strings.TrimPrefix(created, "Task created: "+taskID+" in project ")
	assert.NotEmpty(t, pid)

	assert.Equal(t,
		"Error: No project specified. Please provide projectId or projectName.",
		h.fail("create_tasks_bulk", map[string]any{"tasks": []any{map[string]any{"title": "x"}}}))
	assert.Equal(t, "Created 2 tasks in project "+pid, h.ok("create_tasks_bulk", map[string]any{
		"projectId": pid,
		"tasks":     []any{map[string]any{"title": "a"}, map[string]any{"title": "b", "priority": "low"}},
	}))
	h.fail("create_tasks_bulk", map[string]any{"projectId": pid, "tasks": []any{}})
	h.fail("create_tasks_bulk", map[string]any{"projectId": pid, "tasks": []any{map[string]any{"title": "c", "priority": "p0"}}})

	var tasks []board.Task
	require.NoError(t, json.Unmarshal([]byte(h.ok("list_tasks", map[string]any{"projectId": pid})), &tasks))
	require.Len(t, tasks, 3)

	assert.Equal(t, "Task "+taskID+" updated", h.ok("update_task", map[string]any{"taskId": taskID, "status": "todo", "context": "ctx"}))
	assert.Equal(t, "Error: Task nope not found", h.fail("update_task", map[string]any{"taskId": "nope", "title": "x"}))

	require.NoError(t, json.Unmarshal([]byte(h.ok("list_tasks", map[string]any{"status": "todo"})), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)

	var detail board.TaskDetail
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_task", map[string]any{"taskId": taskID})), &detail))
	assert.Equal(t, "ctx", *detail.Task.Context)
	assert.Equal(t, board.PriorityHigh, detail.Task.Priority)
	assert.NotNil(t, detail.Files)

	assert.Equal(t, []notify.Type{notify.ProjectCreated, notify.TaskCreated, notify.TasksCreatedBulk, notify.TaskUpdated}, h.rec.Types())
}

func TestAgentTools(t *testing.T) {
	h := newHarness(t)
	created := h.ok("create_task", map[string]any{"projectName": "P", "title": "Build"})
	taskID := idAfter(t, created, "Task created: ")
	h.rec.Reset()

	assert.Equal(t, "Agent claude checked in to "+taskID,
		h.ok("check_in", map[string]any{"taskId": taskID, "agentName": "claude", "executionPlan": "plan"}))
	assert.Equal(t, "Activity logged for "+taskID,
		h.ok("log_activity", map[string]any{"taskId": taskID, "agentName": "claude", "action": "progress", "details": "50%"}))
	assert.Equal(t, "Agent claude checked out from "+taskID,
		h.ok("check_out", map[string]any{"taskId": taskID, "agentName": "claude", "summary": "done"}))

	h.fail("check_in", map[string]any{"taskId": taskID})
	assert.Equal(t, "Error: Task nope not found", h.fail("check_in", map[string]any{"taskId": "nope", "agentName": "x"}))

	var log []board.Activity
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_activity_log", map[string]any{"taskId": taskID})), &log))
	require.Len(t, log, 3)
	actions := []string{log[0].Action, log[1].Action, log[2].Action}
	assert.ElementsMatch(t, []string{"check_in", "progress", "check_out"}, actions)

	var detail board.TaskDetail
	require.NoError(t, json.Unmarshal([]byte(h.ok("get_task", map[string]any{"taskId": taskID})), &detail))
	assert.Equal(t, board.TaskDone, detail.Task.Status)
	assert.Equal(t, "claude", *detail.Task.AssignedAgent)

	assert.Equal(t, []notify.Type{notify.AgentCheckedIn, notify.ActivityLogged, notify.AgentCheckedOut}, h.rec.Types())
}

func TestResources(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pid := idAfter(t, h.ok("create_project", map[string]any{"name": "P", "description": "d"}), "Project created: ")

	resources, err := h.ts.ListResources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, ProjectURI(pid), resources[0].URI)
	assert.Equal(t, "d", resources[0].Description)

	res, err := h.ts.ReadResource(ctx, ProjectURI(pid))
	require.NoError(t, err)
	var detail board.ProjectDetail
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &detail))
	assert.Equal(t, pid, detail.Project.ID)

	_, err = h.ts.ReadResource(ctx, "devflow://tasks/1")
	assert.Error(t, err)
	_, err = h.ts.ReadResource(ctx, ProjectURI("missing"))
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestIsProjectChange(t *testing.T) {
	assert.True(t, IsProjectChange(notify.ProjectCreated))
	assert.True(t, IsProjectChange(notify.ProjectDeleted))
	assert.False(t, IsProjectChange(notify.TaskCreated))
}
