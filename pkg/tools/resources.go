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

	"github.com/teradata-labs/devflow/pkg/mcp/protocol"
	"github.com/teradata-labs/devflow/pkg/notify"
)

const projectURIPrefix = "devflow://projects/"

// ProjectURI is the resource URI of a project.
func ProjectURI(id string) string {
	return projectURIPrefix + id
}

// ListResources exposes every project.
func (ts *Toolset) ListResources(ctx context.Context) ([]protocol.Resource, error) {
	projects, err := ts.svc.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]protocol.Resource, 0, len(projects))
	for _, p := range projects {
		r := protocol.Resource{
			URI:      ProjectURI(p.ID),
			Name:     p.Name,
			MimeType: "application/json",
		}
		if p.Description != nil {
			r.Description = *p.Description
		}
		out = append(out, r)
	}
	return out, nil
}

// ReadResource returns a project with its features, tasks and files.
func (ts *Toolset) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(uri, projectURIPrefix)
	if !ok || id == "" {
		return nil, fmt.Errorf("unknown resource %q", uri)
	}
	detail, err := ts.svc.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := jsonText(detail)
	if err != nil {
		return nil, err
	}
	return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{
		URI:      uri,
		MimeType: "application/json",
		Text:     res.Content[0].Text,
	}}}, nil
}

// IsProjectChange reports notification types that alter the resource list.
func IsProjectChange(t notify.Type) bool {
	switch t {
	case notify.ProjectCreated, notify.ProjectUpdated, notify.ProjectDeleted:
		return true
	}
	return false
}
