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
	"fmt"
	"strings"

	"github.com/teradata-labs/devflow/pkg/board"
	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
)

// Projects

func (ts *Toolset) listProjects(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		Status board.ProjectStatus `json:"status"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	projects, err := ts.svc.ListProjects(ctx, in.Status)
	if err != nil {
		return nil, err
	}
	return jsonText(projects)
}

func (ts *Toolset) createProject(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.ProjectInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	p, err := ts.svc.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	return text("Project created: %s", p.ID)
}

func (ts *Toolset) getProject(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string `json:"projectId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	detail, err := ts.svc.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return jsonText(detail)
}

func (ts *Toolset) updateProject(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string `json:"projectId"`
		board.ProjectUpdate
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.UpdateProject(ctx, in.ProjectID, in.ProjectUpdate); err != nil {
		return nil, err
	}
	return text("Project %s updated", in.ProjectID)
}

func (ts *Toolset) getOrCreateProject(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.ProjectInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	p, created, err := ts.svc.GetOrCreateProject(ctx, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	action := "found"
	if created {
		action = "created"
	}
	return jsonText(struct {
		Action  string         `json:"action"`
		Project *board.Project `json:"project"`
	}{action, p})
}

// Features

func (ts *Toolset) listFeatures(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string `json:"projectId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	features, err := ts.svc.ListFeatures(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return jsonText(features)
}

func (ts *Toolset) createFeature(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.FeatureInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	f, err := ts.svc.CreateFeature(ctx, in)
	if err != nil {
		return nil, err
	}
	return text("Feature created: %s", f.ID)
}

func (ts *Toolset) getFeature(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		FeatureID string `json:"featureId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	detail, err := ts.svc.GetFeature(ctx, in.FeatureID)
	if err != nil {
		return nil, err
	}
	return jsonText(detail)
}

func (ts *Toolset) updateFeature(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		FeatureID string `json:"featureId"`
		board.FeatureUpdate
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.UpdateFeature(ctx, in.FeatureID, in.FeatureUpdate); err != nil {
		return nil, err
	}
	return text("Feature %s updated", in.FeatureID)
}

func (ts *Toolset) createFeaturesBulk(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string               `json:"projectId"`
		Features  []board.FeatureInput `json:"features"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	features, err := ts.svc.CreateFeaturesBulk(ctx, in.ProjectID, in.Features)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Created %d features in project %s:", len(features), in.ProjectID)
	for _, f := range features {
		fmt.Fprintf(&b, "\n- %s (%s)", f.Name, f.ID)
	}
	return protocol.TextResult(b.String()), nil
}

// Files

func (ts *Toolset) uploadFile(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.FileInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	f, err := ts.svc.UploadFile(ctx, in)
	if err != nil {
		return nil, err
	}
	return text("File uploaded: %s", f.ID)
}

func (ts *Toolset) listFiles(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string `json:"projectId"`
		FeatureID string `json:"featureId"`
		TaskID    string `json:"taskId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	files, err := ts.svc.ListFiles(ctx, board.FileFilter(in))
	if err != nil {
		return nil, err
	}
	return jsonText(files)
}

func (ts *Toolset) getFile(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		FileID string `json:"fileId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	f, err := ts.svc.GetFile(ctx, in.FileID)
	if err != nil {
		return nil, err
	}
	return jsonText(f)
}

func (ts *Toolset) updateFile(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		FileID  string `json:"fileId"`
		Content string `json:"content"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.UpdateFile(ctx, in.FileID, board.FileUpdate{Content: &in.Content}); err != nil {
		return nil, err
	}
	return text("File %s updated", in.FileID)
}

// Tasks

func (ts *Toolset) listTasks(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		ProjectID string           `json:"projectId"`
		FeatureID string           `json:"featureId"`
		Status    board.TaskStatus `json:"status"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	tasks, err := ts.svc.ListTasks(ctx, board.TaskFilter(in))
	if err != nil {
		return nil, err
	}
	return jsonText(tasks)
}

func (ts *Toolset) getTask(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		TaskID string `json:"taskId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	detail, err := ts.svc.GetTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	return jsonText(detail)
}

func (ts *Toolset) createTask(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.TaskInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	t, err := ts.svc.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	return text("Task created: %s in project %s", t.ID, t.ProjectID)
}

func (ts *Toolset) createTasksBulk(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.BulkTaskInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	tasks, err := ts.svc.CreateTasksBulk(ctx, in)
	if err != nil {
		return nil, err
	}
	return text("Created %d tasks in project %s", len(tasks), tasks[0].ProjectID)
}

func (ts *Toolset) updateTask(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		TaskID string `json:"taskId"`
		board.TaskUpdate
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.UpdateTask(ctx, in.TaskID, in.TaskUpdate); err != nil {
		return nil, err
	}
	return text("Task %s updated", in.TaskID)
}

// Agent workflow

type agentArgs struct {
	TaskID        string `json:"taskId"`
	AgentName     string `json:"agentName"`
	ExecutionPlan string `json:"executionPlan"`
	Summary       string `json:"summary"`
}

func (ts *Toolset) checkIn(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in agentArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.CheckIn(ctx, in.TaskID, in.AgentName, in.ExecutionPlan); err != nil {
		return nil, err
	}
	return text("Agent %s checked in to %s", in.AgentName, in.TaskID)
}

func (ts *Toolset) checkOut(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in agentArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.CheckOut(ctx, in.TaskID, in.AgentName, in.Summary); err != nil {
		return nil, err
	}
	return text("Agent %s checked out from %s", in.AgentName, in.TaskID)
}

func (ts *Toolset) logActivity(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in board.ActivityInput
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if _, err := ts.svc.LogActivity(ctx, in); err != nil {
		return nil, err
	}
	return text("Activity logged for %s", in.TaskID)
}

func (ts *Toolset) getActivityLog(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in struct {
		TaskID string `json:"taskId"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	log, err := ts.svc.ActivityLog(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	return jsonText(log)
}
