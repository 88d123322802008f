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
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Export is a self-contained snapshot of one project.
type Export struct {
	ExportedAt time.Time              `json:"exportedAt" yaml:"exportedAt"`
	Project    *Project               `json:"project" yaml:"project"`
	Features   []*Feature             `json:"features" yaml:"features"`
	Tasks      []*Task                `json:"tasks" yaml:"tasks"`
	Files      []*File                `json:"files" yaml:"files"`
	Activity   map[string][]*Activity `json:"activity" yaml:"activity,omitempty"`
}

// ExportProject collects a project tree including each task's activity.
func (s *Service) ExportProject(ctx context.Context, id string) (*Export, error) {
	detail, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	exp := &Export{
		ExportedAt: s.now(),
		Project:    detail.Project,
		Features:   detail.Features,
		Tasks:      detail.Tasks,
		Files:      detail.Files,
		Activity:   make(map[string][]*Activity),
	}
	for _, t := range detail.Tasks {
		entries, err := s.ActivityLog(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			exp.Activity[t.ID] = entries
		}
	}
	return exp, nil
}

// WriteYAML encodes the export as YAML.
func (e *Export) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}
