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
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/teradata-labs/devflow/pkg/notify"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Notifier receives a notification after every committed mutation.
	Notifier notify.Notifier
	Logger   *zap.Logger
	// NewID overrides id generation.
	NewID func() string
}

// Service implements the board operations on top of a Store.
type Service struct {
	store    *Store
	notifier notify.Notifier
	logger   *zap.Logger
	newID    func() string
	fold     cases.Caser
}

// NewService creates a Service.
func NewService(store *Store, cfg ServiceConfig) *Service {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		store:    store,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.Named("board"),
		newID:    cfg.NewID,
		fold:     cases.Fold(),
	}
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) now() time.Time {
	return s.store.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) emit(ctx context.Context, m notify.Message) {
	s.notifier.Notify(ctx, m)
}

// Projects

// ListProjects returns projects oldest first, optionally filtered by status.
func (s *Service) ListProjects(ctx context.Context, status ProjectStatus) ([]*Project, error) {
	query := "SELECT " + projectCols + " FROM projects"
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, invalid("unknown project status %q", status)
		}
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	rows, err := s.store.query(ctx, s.store.db, query+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return collect(rows, scanProject)
}

// CreateProject adds an active project.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	p, err := s.createProject(ctx, s.store.db, in)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Created(notify.ProjectCreated, "project", p))
	return p, nil
}

func (s *Service) createProject(ctx context.Context, q querier, in ProjectInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("project name is required")
	}
	now := s.now()
	p := &Project{
		ID:          s.newID(),
		Name:        name,
		Description: optional(in.Description),
		Status:      ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.exec(ctx, q,
		"INSERT INTO projects ("+projectCols+") VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Name, nullablePtr(p.Description), string(p.Status), toMillis(now), toMillis(now),
	); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Debug("project created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// GetProject returns a project with its features, tasks and files.
func (s *Service) GetProject(ctx context.Context, id string) (*ProjectDetail, error) {
	p, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	features, err := s.ListFeatures(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, TaskFilter{ProjectID: id})
	if err != nil {
		return nil, err
	}
	files, err := s.ListFiles(ctx, FileFilter{ProjectID: id})
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: p, Features: features, Tasks: tasks, Files: files}, nil
}

func (s *Service) project(ctx context.Context, id string) (*Project, error) {
	row := s.store.queryRow(ctx, s.store.db, "SELECT "+projectCols+" FROM projects WHERE id = ?", id)
	return one(row, scanProject, "Project", id)
}

// UpdateProject applies u and returns the updated project.
func (s *Service) UpdateProject(ctx context.Context, id string, u ProjectUpdate) (*Project, error) {
	set := &setClause{}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		set.add("name", strings.TrimSpace(*u.Name))
	}
	if u.Description != nil {
		set.add("description", nullable(*u.Description))
	}
	if u.Status != nil && *u.Status != "" {
		if !u.Status.Valid() {
			return nil, invalid("unknown project status %q", *u.Status)
		}
		set.add("status", string(*u.Status))
	}
	set.add("updated_at", toMillis(s.now()))

	if err := s.store.update(ctx, s.store.db, "projects", "Project", id, set); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Updated(notify.ProjectUpdated, "projectId", id, u))
	return p, nil
}

// DeleteProject removes a project and, by cascade, everything in it.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.delete(ctx, "projects", "Project", id); err != nil {
		return err
	}
	s.emit(ctx, notify.Deleted(notify.ProjectDeleted, "projectId", id))
	return nil
}

// GetOrCreateProject returns the oldest project whose name matches name
// case-insensitively, creating one when none does.
func (s *Service) GetOrCreateProject(ctx context.Context, name, description string) (*Project, bool, error) {
	p, err := s.findProjectByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if p != nil {
		return p, false, nil
	}
	p, err = s.CreateProject(ctx, ProjectInput{Name: name, Description: description})
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s *Service) findProjectByName(ctx context.Context, name string) (*Project, error) {
	want := s.fold.String(strings.TrimSpace(name))
	if want == "" {
		return nil, invalid("project name is required")
	}
	projects, err := s.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if s.fold.String(p.Name) == want {
			return p, nil
		}
	}
	return nil, nil
}

// resolveProject picks the project a new task belongs to: an explicit id,
// else a project found or created by name, else (when fallback is set) the
// oldest active project.
func (s *Service) resolveProject(ctx context.Context, id, name string, fallback bool) (string, error) {
	if id != "" {
		if _, err := s.project(ctx, id); err != nil {
			return "", err
		}
		return id, nil
	}
	if strings.TrimSpace(name) != "" {
		p, _, err := s.GetOrCreateProject(ctx, name, "")
		if err != nil {
			return "", err
		}
		return p.ID, nil
	}
	if !fallback {
		return "", noProject("No project specified. Please provide projectId or projectName.")
	}
	active, err := s.ListProjects(ctx, ProjectActive)
	if err != nil {
		return "", err
	}
	if len(active) == 0 {
		return "", noProject("No project specified and no active project found. Please provide projectId or projectName.")
	}
	return active[0].ID, nil
}

// Features

// ListFeatures returns a project's features by position.
func (s *Service) ListFeatures(ctx context.Context, projectID string) ([]*Feature, error) {
	rows, err := s.store.query(ctx, s.store.db,
		"SELECT "+featureCols+" FROM features WHERE project_id = ? ORDER BY sort_order, created_at, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	return collect(rows, scanFeature)
}

// CreateFeature adds a feature in planning at position 0.
func (s *Service) CreateFeature(ctx context.Context, in FeatureInput) (*Feature, error) {
	if _, err := s.project(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	f, err := s.insertFeature(ctx, s.store.db, in, 0)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Created(notify.FeatureCreated, "feature", f))
	return f, nil
}

func (s *Service) insertFeature(ctx context.Context, q querier, in FeatureInput, order int) (*Feature, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("feature name is required")
	}
	now := s.now()
	f := &Feature{
		ID:          s.newID(),
		ProjectID:   in.ProjectID,
		Name:        name,
		Description: optional(in.Description),
		Status:      FeaturePlanning,
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.exec(ctx, q,
		"INSERT INTO features ("+featureCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		f.ID, f.ProjectID, f.Name, nullablePtr(f.Description), string(f.Status), f.Order,
		toMillis(now), toMillis(now),
	); err != nil {
		return nil, fmt.Errorf("create feature: %w", err)
	}
	return f, nil
}

// GetFeature returns a feature with its tasks and files.
func (s *Service) GetFeature(ctx context.Context, id string) (*FeatureDetail, error) {
	f, err := s.feature(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, TaskFilter{FeatureID: id})
	if err != nil {
		return nil, err
	}
	files, err := s.ListFiles(ctx, FileFilter{FeatureID: id})
	if err != nil {
		return nil, err
	}
	return &FeatureDetail{Feature: f, Tasks: tasks, Files: files}, nil
}

func (s *Service) feature(ctx context.Context, id string) (*Feature, error) {
	row := s.store.queryRow(ctx, s.store.db, "SELECT "+featureCols+" FROM features WHERE id = ?", id)
	return one(row, scanFeature, "Feature", id)
}

// UpdateFeature applies u and returns the updated feature.
func (s *Service) UpdateFeature(ctx context.Context, id string, u FeatureUpdate) (*Feature, error) {
	set := &setClause{}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		set.add("name", strings.TrimSpace(*u.Name))
	}
	if u.Description != nil {
		set.add("description", nullable(*u.Description))
	}
	if u.Status != nil && *u.Status != "" {
		if !u.Status.Valid() {
			return nil, invalid("unknown feature status %q", *u.Status)
		}
		set.add("status", string(*u.Status))
	}
	if u.Order != nil {
		set.add("sort_order", *u.Order)
	}
	set.add("updated_at", toMillis(s.now()))

	if err := s.store.update(ctx, s.store.db, "features", "Feature", id, set); err != nil {
		return nil, err
	}
	f, err := s.feature(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Updated(notify.FeatureUpdated, "featureId", id, u))
	return f, nil
}

// DeleteFeature removes a feature. Its tasks stay in the project, detached.
func (s *Service) DeleteFeature(ctx context.Context, id string) error {
	if err := s.store.delete(ctx, "features", "Feature", id); err != nil {
		return err
	}
	s.emit(ctx, notify.Deleted(notify.FeatureDeleted, "featureId", id))
	return nil
}

// CreateFeaturesBulk adds features in one transaction, ordered by their
// position in inputs.
func (s *Service) CreateFeaturesBulk(ctx context.Context, projectID string, inputs []FeatureInput) ([]*Feature, error) {
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, invalid("at least one feature is required")
	}
	created := make([]*Feature, 0, len(inputs))
	err := s.store.withTx(ctx, func(q querier) error {
		for i, in := range inputs {
			in.ProjectID = projectID
			f, err := s.insertFeature(ctx, q, in, i)
			if err != nil {
				return err
			}
			created = append(created, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.New(notify.FeaturesCreatedBulk, "features", created))
	return created, nil
}

// Files

// UploadFile stores a text attachment.
func (s *Service) UploadFile(ctx context.Context, in FileInput) (*File, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("file name is required")
	}
	if !in.Type.Valid() {
		return nil, invalid("unknown file type %q", in.Type)
	}
	now := s.now()
	size := int64(len(in.Content))
	content := in.Content
	f := &File{
		ID:        s.newID(),
		ProjectID: optional(in.ProjectID),
		FeatureID: optional(in.FeatureID),
		TaskID:    optional(in.TaskID),
		Name:      in.Name,
		Type:      in.Type,
		Content:   &content,
		Size:      &size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Type == FileMarkdown {
		mime := "text/markdown"
		f.MimeType = &mime
	}
	if _, err := s.store.exec(ctx, s.store.db,
		"INSERT INTO files ("+fileCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		f.ID, nullablePtr(f.ProjectID), nullablePtr(f.FeatureID), nullablePtr(f.TaskID), f.Name,
		string(f.Type), content, nil, nullablePtr(f.MimeType), size, toMillis(now), toMillis(now),
	); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	s.emit(ctx, notify.Created(notify.FileUploaded, "file", f))
	return f, nil
}

// ListFiles returns attachments selected by filter.
func (s *Service) ListFiles(ctx context.Context, filter FileFilter) ([]*File, error) {
	query := "SELECT " + fileCols + " FROM files"
	var args []any
	switch {
	case filter.TaskID != "":
		query += " WHERE task_id = ?"
		args = append(args, filter.TaskID)
	case filter.FeatureID != "":
		query += " WHERE feature_id = ?"
		args = append(args, filter.FeatureID)
	case filter.ProjectID != "":
		query += " WHERE project_id = ?"
		args = append(args, filter.ProjectID)
	}
	rows, err := s.store.query(ctx, s.store.db, query+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return collect(rows, scanFile)
}

// GetFile returns one attachment with its content.
func (s *Service) GetFile(ctx context.Context, id string) (*File, error) {
	row := s.store.queryRow(ctx, s.store.db, "SELECT "+fileCols+" FROM files WHERE id = ?", id)
	return one(row, scanFile, "File", id)
}

// UpdateFile replaces content (recomputing size) and optionally renames.
func (s *Service) UpdateFile(ctx context.Context, id string, u FileUpdate) (*File, error) {
	set := &setClause{}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		set.add("name", strings.TrimSpace(*u.Name))
	}
	if u.Content != nil {
		set.add("content", *u.Content)
		set.add("size", int64(len(*u.Content)))
	}
	set.add("updated_at", toMillis(s.now()))

	if err := s.store.update(ctx, s.store.db, "files", "File", id, set); err != nil {
		return nil, err
	}
	f, err := s.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Updated(notify.FileUpdated, "fileId", id, nil))
	return f, nil
}

// DeleteFile removes an attachment.
func (s *Service) DeleteFile(ctx context.Context, id string) error {
	if err := s.store.delete(ctx, "files", "File", id); err != nil {
		return err
	}
	s.emit(ctx, notify.Deleted(notify.FileDeleted, "fileId", id))
	return nil
}

// Tasks

// ListTasks returns tasks matching filter by position.
func (s *Service) ListTasks(ctx context.Context, filter TaskFilter) ([]*Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.FeatureID != "" {
		where = append(where, "feature_id = ?")
		args = append(args, filter.FeatureID)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, invalid("unknown task status %q", filter.Status)
		}
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := "SELECT " + taskCols + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := s.store.query(ctx, s.store.db, query+" ORDER BY sort_order, created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collect(rows, scanTask)
}

// GetTask returns a task with its files.
func (s *Service) GetTask(ctx context.Context, id string) (*TaskDetail, error) {
	t, err := s.task(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.ListFiles(ctx, FileFilter{TaskID: id})
	if err != nil {
		return nil, err
	}
	return &TaskDetail{Task: t, Files: files}, nil
}

func (s *Service) task(ctx context.Context, id string) (*Task, error) {
	row := s.store.queryRow(ctx, s.store.db, "SELECT "+taskCols+" FROM tasks WHERE id = ?", id)
	return one(row, scanTask, "Task", id)
}

// CreateTask adds a task. The project comes from ProjectID, else
// ProjectName (found or created), else the oldest active project.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("task title is required")
	}
	if err := validateTaskInput(in); err != nil {
		return nil, err
	}
	projectID, err := s.resolveProject(ctx, in.ProjectID, in.ProjectName, true)
	if err != nil {
		return nil, err
	}
	in.ProjectID = projectID
	t, err := s.insertTask(ctx, s.store.db, in, 0)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Created(notify.TaskCreated, "task", t))
	return t, nil
}

// CreateTasksBulk adds tasks to one project in a transaction, ordered by
// their position in the input. A project must be named by id or name.
func (s *Service) CreateTasksBulk(ctx context.Context, in BulkTaskInput) ([]*Task, error) {
	if len(in.Tasks) == 0 {
		return nil, invalid("at least one task is required")
	}
	for i, t := range in.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return nil, invalid("task %d: title is required", i)
		}
		if err := validateTaskInput(t); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}
	projectID, err := s.resolveProject(ctx, in.ProjectID, in.ProjectName, false)
	if err != nil {
		return nil, err
	}

	created := make([]*Task, 0, len(in.Tasks))
	err = s.store.withTx(ctx, func(q querier) error {
		for i, t := range in.Tasks {
			t.ProjectID = projectID
			if t.FeatureID == "" {
				t.FeatureID = in.FeatureID
			}
			task, err := s.insertTask(ctx, q, t, i)
			if err != nil {
				return err
			}
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.New(notify.TasksCreatedBulk, "tasks", created))
	return created, nil
}

func validateTaskInput(in TaskInput) error {
	if in.Status != "" && !in.Status.Valid() {
		return invalid("unknown task status %q", in.Status)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return invalid("unknown priority %q", in.Priority)
	}
	return nil
}

func (s *Service) insertTask(ctx context.Context, q querier, in TaskInput, order int) (*Task, error) {
	now := s.now()
	t := &Task{
		ID:          s.newID(),
		ProjectID:   in.ProjectID,
		FeatureID:   optional(in.FeatureID),
		Title:       strings.TrimSpace(in.Title),
		Description: optional(in.Description),
		Status:      TaskBacklog,
		Priority:    PriorityMedium,
		Context:     optional(in.Context),
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	if _, err := s.store.exec(ctx, q,
		"INSERT INTO tasks ("+taskCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.ProjectID, nullablePtr(t.FeatureID), t.Title, nullablePtr(t.Description),
		string(t.Status), string(t.Priority), nullablePtr(t.Context), nil, nil, t.Order,
		toMillis(now), toMillis(now),
	); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// UpdateTask applies u and returns the updated task.
func (s *Service) UpdateTask(ctx context.Context, id string, u TaskUpdate) (*Task, error) {
	set := &setClause{}
	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		set.add("title", strings.TrimSpace(*u.Title))
	}
	if u.Description != nil {
		set.add("description", nullable(*u.Description))
	}
	if u.Status != nil && *u.Status != "" {
		if !u.Status.Valid() {
			return nil, invalid("unknown task status %q", *u.Status)
		}
		set.add("status", string(*u.Status))
	}
	if u.Priority != nil && *u.Priority != "" {
		if !u.Priority.Valid() {
			return nil, invalid("unknown priority %q", *u.Priority)
		}
		set.add("priority", string(*u.Priority))
	}
	if u.FeatureID != nil {
		set.add("feature_id", nullable(*u.FeatureID))
	}
	if u.Context != nil {
		set.add("context", nullable(*u.Context))
	}
	if u.ExecutionPlan != nil {
		set.add("execution_plan", nullable(*u.ExecutionPlan))
	}
	if u.AssignedAgent != nil {
		set.add("assigned_agent", nullable(*u.AssignedAgent))
	}
	if u.Order != nil {
		set.add("sort_order", *u.Order)
	}
	set.add("updated_at", toMillis(s.now()))

	if err := s.store.update(ctx, s.store.db, "tasks", "Task", id, set); err != nil {
		return nil, err
	}
	t, err := s.task(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.Updated(notify.TaskUpdated, "taskId", id, u))
	return t, nil
}

// DeleteTask removes a task with its files and activity.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.delete(ctx, "tasks", "Task", id); err != nil {
		return err
	}
	s.emit(ctx, notify.Deleted(notify.TaskDeleted, "taskId", id))
	return nil
}

// Agent workflow

// CheckIn moves a task to in_progress, assigns the agent, stores the plan
// and logs a check_in activity.
func (s *Service) CheckIn(ctx context.Context, taskID, agentName, plan string) (*Task, error) {
	if strings.TrimSpace(agentName) == "" {
		return nil, invalid("agent name is required")
	}
	var details string
	if plan != "" {
		details = mustJSON(map[string]string{"executionPlan": plan})
	}
	err := s.store.withTx(ctx, func(q querier) error {
		set := &setClause{}
		set.add("status", string(TaskInProgress))
		set.add("assigned_agent", agentName)
		set.add("execution_plan", nullable(plan))
		set.add("updated_at", toMillis(s.now()))
		if err := s.store.update(ctx, q, "tasks", "Task", taskID, set); err != nil {
			return err
		}
		_, err := s.insertActivity(ctx, q, ActivityInput{TaskID: taskID, AgentName: agentName, Action: "check_in", Details: details})
		return err
	})
	if err != nil {
		return nil, err
	}
	t, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("agent checked in", zap.String("task", taskID), zap.String("agent", agentName))
	s.emit(ctx, notify.Agent(notify.AgentCheckedIn, taskID, agentName))
	return t, nil
}

// CheckOut marks a task done and logs a check_out activity with the
// optional summary.
func (s *Service) CheckOut(ctx context.Context, taskID, agentName, summary string) (*Task, error) {
	if strings.TrimSpace(agentName) == "" {
		return nil, invalid("agent name is required")
	}
	var details string
	if summary != "" {
		details = mustJSON(map[string]string{"summary": summary})
	}
	err := s.store.withTx(ctx, func(q querier) error {
		set := &setClause{}
		set.add("status", string(TaskDone))
		set.add("updated_at", toMillis(s.now()))
		if err := s.store.update(ctx, q, "tasks", "Task", taskID, set); err != nil {
			return err
		}
		_, err := s.insertActivity(ctx, q, ActivityInput{TaskID: taskID, AgentName: agentName, Action: "check_out", Details: details})
		return err
	})
	if err != nil {
		return nil, err
	}
	t, err := s.task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("agent checked out", zap.String("task", taskID), zap.String("agent", agentName))
	s.emit(ctx, notify.Agent(notify.AgentCheckedOut, taskID, agentName))
	return t, nil
}

// LogActivity appends an entry to a task's activity log.
func (s *Service) LogActivity(ctx context.Context, in ActivityInput) (*Activity, error) {
	if strings.TrimSpace(in.AgentName) == "" || strings.TrimSpace(in.Action) == "" {
		return nil, invalid("agent name and action are required")
	}
	if _, err := s.task(ctx, in.TaskID); err != nil {
		return nil, err
	}
	a, err := s.insertActivity(ctx, s.store.db, in)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, notify.New(notify.ActivityLogged, "taskId", in.TaskID, "agentName", in.AgentName, "action", in.Action))
	return a, nil
}

func (s *Service) insertActivity(ctx context.Context, q querier, in ActivityInput) (*Activity, error) {
	a := &Activity{
		ID:        s.newID(),
		TaskID:    in.TaskID,
		AgentName: in.AgentName,
		Action:    in.Action,
		Details:   optional(in.Details),
		Timestamp: s.now(),
	}
	if _, err := s.store.exec(ctx, q,
		"INSERT INTO agent_activity ("+activityCols+") VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.TaskID, a.AgentName, a.Action, nullablePtr(a.Details), toMillis(a.Timestamp),
	); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}
	return a, nil
}

// ActivityLog returns a task's activity, newest first.
func (s *Service) ActivityLog(ctx context.Context, taskID string) ([]*Activity, error) {
	rows, err := s.store.query(ctx, s.store.db,
		"SELECT "+activityCols+" FROM agent_activity WHERE task_id = ? ORDER BY timestamp DESC, id DESC", taskID)
	if err != nil {
		return nil, fmt.Errorf("activity log: %w", err)
	}
	return collect(rows, scanActivity)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mustJSON(v map[string]string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
