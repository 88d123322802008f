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

package board

import (
	"slices"
	"time"
)

// ProjectStatus is the lifecycle of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

// ProjectStatuses lists valid project statuses.
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectArchived, ProjectCompleted}

func (s ProjectStatus) Valid() bool { return slices.Contains(ProjectStatuses, s) }

// FeatureStatus is the lifecycle of a feature.
type FeatureStatus string

const (
	FeaturePlanning   FeatureStatus = "planning"
	FeatureInProgress FeatureStatus = "in_progress"
	FeatureCompleted  FeatureStatus = "completed"
)

// FeatureStatuses lists valid feature statuses.
var FeatureStatuses = []FeatureStatus{FeaturePlanning, FeatureInProgress, FeatureCompleted}

func (s FeatureStatus) Valid() bool { return slices.Contains(FeatureStatuses, s) }

// TaskStatus is a kanban column.
type TaskStatus string

const (
	TaskBacklog     TaskStatus = "backlog"
	TaskTodo        TaskStatus = "todo"
	TaskInProgress  TaskStatus = "in_progress"
	TaskInterrupted TaskStatus = "interrupted"
	TaskDone        TaskStatus = "done"
)

// TaskStatuses lists valid task statuses in board column order.
var TaskStatuses = []TaskStatus{TaskBacklog, TaskTodo, TaskInProgress, TaskInterrupted, TaskDone}

func (s TaskStatus) Valid() bool { return slices.Contains(TaskStatuses, s) }

// Priority ranks tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists valid priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// FileType classifies an attachment.
type FileType string

const (
	FileMarkdown FileType = "markdown"
	FileImage    FileType = "image"
	FilePDF      FileType = "pdf"
	FileOther    FileType = "other"
)

// FileTypes lists valid file types.
var FileTypes = []FileType{FileMarkdown, FileImage, FilePDF, FileOther}

func (t FileType) Valid() bool { return slices.Contains(FileTypes, t) }

// Project is the top-level grouping.
type Project struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description *string       `json:"description" yaml:"description,omitempty"`
	Status      ProjectStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// Feature groups tasks within a project.
type Feature struct {
	ID          string        `json:"id" yaml:"id"`
	ProjectID   string        `json:"projectId" yaml:"projectId"`
	Name        string        `json:"name" yaml:"name"`
	Description *string       `json:"description" yaml:"description,omitempty"`
	Status      FeatureStatus `json:"status" yaml:"status"`
	Order       int           `json:"order" yaml:"order"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// Task is one work item.
type Task struct {
	ID            string     `json:"id" yaml:"id"`
	ProjectID     string     `json:"projectId" yaml:"projectId"`
	FeatureID     *string    `json:"featureId" yaml:"featureId,omitempty"`
	Title         string     `json:"title" yaml:"title"`
	Description   *string    `json:"description" yaml:"description,omitempty"`
	Status        TaskStatus `json:"status" yaml:"status"`
	Priority      Priority   `json:"priority" yaml:"priority"`
	Context       *string    `json:"context" yaml:"context,omitempty"`
	ExecutionPlan *string    `json:"executionPlan" yaml:"executionPlan,omitempty"`
	AssignedAgent *string    `json:"assignedAgent" yaml:"assignedAgent,omitempty"`
	Order         int        `json:"order" yaml:"order"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// File is an attachment on a project, feature or task.
type File struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID *string   `json:"projectId" yaml:"projectId,omitempty"`
	FeatureID *string   `json:"featureId" yaml:"featureId,omitempty"`
	TaskID    *string   `json:"taskId" yaml:"taskId,omitempty"`
	Name      string    `json:"name" yaml:"name"`
	Type      FileType  `json:"type" yaml:"type"`
	Content   *string   `json:"content" yaml:"content,omitempty"`
	Path      *string   `json:"path" yaml:"path,omitempty"`
	MimeType  *string   `json:"mimeType" yaml:"mimeType,omitempty"`
	Size      *int64    `json:"size" yaml:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Activity is one entry in a task's agent log.
type Activity struct {
	ID        string    `json:"id" yaml:"id"`
	TaskID    string    `json:"taskId" yaml:"taskId"`
	AgentName string    `json:"agentName" yaml:"agentName"`
	Action    string    `json:"action" yaml:"action"`
	Details   *string   `json:"details" yaml:"details,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ProjectDetail is a project with everything attached to it.
type ProjectDetail struct {
	Project  *Project   `json:"project" yaml:"project"`
	Features []*Feature `json:"features" yaml:"features"`
	Tasks    []*Task    `json:"tasks" yaml:"tasks"`
	Files    []*File    `json:"files" yaml:"files"`
}

// FeatureDetail is a feature with its tasks and files.
type FeatureDetail struct {
	Feature *Feature `json:"feature"`
	Tasks   []*Task  `json:"tasks"`
	Files   []*File  `json:"files"`
}

// TaskDetail is a task with its files.
type TaskDetail struct {
	Task  *Task   `json:"task"`
	Files []*File `json:"files"`
}

// ProjectInput creates a project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectUpdate changes a project. Nil fields are left alone; an empty name
// is ignored while an empty description clears it.
type ProjectUpdate struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

// FeatureInput creates a feature.
type FeatureInput struct {
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FeatureUpdate changes a feature.
type FeatureUpdate struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *FeatureStatus `json:"status,omitempty"`
	Order       *int           `json:"order,omitempty"`
}

// FileInput uploads a text attachment.
type FileInput struct {
	Name      string   `json:"name"`
	Type      FileType `json:"type"`
	Content   string   `json:"content"`
	ProjectID string   `json:"projectId,omitempty"`
	FeatureID string   `json:"featureId,omitempty"`
	TaskID    string   `json:"taskId,omitempty"`
}

// FileUpdate changes an attachment.
type FileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// FileFilter selects attachments. The most specific set id wins: task,
// then feature, then project. An empty filter lists every file.
type FileFilter struct {
	ProjectID string
	FeatureID string
	TaskID    string
}

// TaskInput creates a task. ProjectName finds or creates a project by name
// when ProjectID is empty.
type TaskInput struct {
	ProjectID   string     `json:"projectId,omitempty"`
	ProjectName string     `json:"projectName,omitempty"`
	FeatureID   string     `json:"featureId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Context     string     `json:"context,omitempty"`
}

// BulkTaskInput creates several tasks in one project.
type BulkTaskInput struct {
	ProjectID   string      `json:"projectId,omitempty"`
	ProjectName string      `json:"projectName,omitempty"`
	FeatureID   string      `json:"featureId,omitempty"`
	Tasks       []TaskInput `json:"tasks"`
}

// TaskUpdate changes a task.
type TaskUpdate struct {
	Title         *string     `json:"title,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Status        *TaskStatus `json:"status,omitempty"`
	Priority      *Priority   `json:"priority,omitempty"`
	FeatureID     *string     `json:"featureId,omitempty"`
	Context       *string     `json:"context,omitempty"`
	ExecutionPlan *string     `json:"executionPlan,omitempty"`
	AssignedAgent *string     `json:"assignedAgent,omitempty"`
	Order         *int        `json:"order,omitempty"`
}

// TaskFilter selects tasks; empty fields match everything.
type TaskFilter struct {
	ProjectID string
	FeatureID string
	Status    TaskStatus
}

// ActivityInput records an agent action.
type ActivityInput struct {
	TaskID    string `json:"taskId"`
	AgentName string `json:"agentName"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
}
