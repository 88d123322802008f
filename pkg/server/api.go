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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/teradata-labs/devflow/pkg/board"
)

// maxBodyBytes bounds request bodies; file uploads are the largest.
const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects", h.listProjects)
	mux.HandleFunc("POST /api/projects", h.createProject)
	mux.HandleFunc("GET /api/projects/{id}", h.getProject)
	mux.HandleFunc("PATCH /api/projects/{id}", h.updateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.deleteProject)

	mux.HandleFunc("GET /api/features", h.listFeatures)
	mux.HandleFunc("POST /api/features", h.createFeature)
	mux.HandleFunc("GET /api/features/{id}", h.getFeature)
	mux.HandleFunc("PATCH /api/features/{id}", h.updateFeature)
	mux.HandleFunc("DELETE /api/features/{id}", h.deleteFeature)

	mux.HandleFunc("GET /api/files", h.listFiles)
	mux.HandleFunc("POST /api/files", h.uploadFile)
	mux.HandleFunc("GET /api/files/{id}", h.getFile)
	mux.HandleFunc("PATCH /api/files/{id}", h.updateFile)
	mux.HandleFunc("DELETE /api/files/{id}", h.deleteFile)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("GET /api/tasks/{id}/activity", h.activityLog)
}

// Projects

func (h *HTTPServer) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context(), board.ProjectStatus(r.URL.Query().Get("status")))
	h.respond(w, http.StatusOK, projects, err)
}

func (h *HTTPServer) createProject(w http.ResponseWriter, r *http.Request) {
	var in board.ProjectInput
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), in)
	h.respond(w, http.StatusCreated, p, err)
}

func (h *HTTPServer) getProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetProject(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, detail, err)
}

func (h *HTTPServer) updateProject(w http.ResponseWriter, r *http.Request) {
	var u board.ProjectUpdate
	if !h.decode(w, r, &u) {
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), r.PathValue("id"), u)
	h.respond(w, http.StatusOK, p, err)
}

func (h *HTTPServer) deleteProject(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, h.svc.DeleteProject(r.Context(), r.PathValue("id")))
}

// Features

func (h *HTTPServer) listFeatures(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		h.writeError(w, fmt.Errorf("%w: projectId is required", board.ErrInvalidArgument))
		return
	}
	features, err := h.svc.ListFeatures(r.Context(), projectID)
	h.respond(w, http.StatusOK, features, err)
}

func (h *HTTPServer) createFeature(w http.ResponseWriter, r *http.Request) {
	var in board.FeatureInput
	if !h.decode(w, r, &in) {
		return
	}
	f, err := h.svc.CreateFeature(r.Context(), in)
	h.respond(w, http.StatusCreated, f, err)
}

func (h *HTTPServer) getFeature(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetFeature(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, detail, err)
}

func (h *HTTPServer) updateFeature(w http.ResponseWriter, r *http.Request) {
	var u board.FeatureUpdate
	if !h.decode(w, r, &u) {
		return
	}
	f, err := h.svc.UpdateFeature(r.Context(), r.PathValue("id"), u)
	h.respond(w, http.StatusOK, f, err)
}

func (h *HTTPServer) deleteFeature(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, h.svc.DeleteFeature(r.Context(), r.PathValue("id")))
}

// Files

func (h *HTTPServer) listFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	files, err := h.svc.ListFiles(r.Context(), board.FileFilter{
		ProjectID: q.Get("projectId"),
		FeatureID: q.Get("featureId"),
		TaskID:    q.Get("taskId"),
	})
	h.respond(w, http.StatusOK, files, err)
}

func (h *HTTPServer) uploadFile(w http.ResponseWriter, r *http.Request) {
	var in board.FileInput
	if !h.decode(w, r, &in) {
		return
	}
	f, err := h.svc.UploadFile(r.Context(), in)
	h.respond(w, http.StatusCreated, f, err)
}

func (h *HTTPServer) getFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFile(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, f, err)
}

func (h *HTTPServer) updateFile(w http.ResponseWriter, r *http.Request) {
	var u board.FileUpdate
	if !h.decode(w, r, &u) {
		return
	}
	f, err := h.svc.UpdateFile(r.Context(), r.PathValue("id"), u)
	h.respond(w, http.StatusOK, f, err)
}

func (h *HTTPServer) deleteFile(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, h.svc.DeleteFile(r.Context(), r.PathValue("id")))
}

// Tasks

func (h *HTTPServer) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.svc.ListTasks(r.Context(), board.TaskFilter{
		ProjectID: q.Get("projectId"),
		FeatureID: q.Get("featureId"),
		Status:    board.TaskStatus(q.Get("status")),
	})
	h.respond(w, http.StatusOK, tasks, err)
}

func (h *HTTPServer) createTask(w http.ResponseWriter, r *http.Request) {
	var in board.TaskInput
	if !h.decode(w, r, &in) {
		return
	}
	t, err := h.svc.CreateTask(r.Context(), in)
	h.respond(w, http.StatusCreated, t, err)
}

func (h *HTTPServer) getTask(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetTask(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, detail, err)
}

func (h *HTTPServer) updateTask(w http.ResponseWriter, r *http.Request) {
	var u board.TaskUpdate
	if !h.decode(w, r, &u) {
		return
	}
	t, err := h.svc.UpdateTask(r.Context(), r.PathValue("id"), u)
	h.respond(w, http.StatusOK, t, err)
}

func (h *HTTPServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	h.respondDeleted(w, h.svc.DeleteTask(r.Context(), r.PathValue("id")))
}

func (h *HTTPServer) activityLog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.svc.GetTask(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	log, err := h.svc.ActivityLog(r.Context(), id)
	h.respond(w, http.StatusOK, log, err)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (h *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		h.writeError(w, fmt.Errorf("%w: %v", board.ErrInvalidArgument, err))
		return false
	}
	return true
}

func (h *HTTPServer) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, status, v)
}

func (h *HTTPServer) respondDeleted(w http.ResponseWriter, err error) {
	h.respond(w, http.StatusOK, successResponse{Success: true}, err)
}

// writeError maps board errors onto status codes. Internal failures are
// logged and answered without detail.
func (h *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, board.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrInvalidArgument), errors.Is(err, board.ErrNoProject):
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", zap.Error(err))
	}
}
