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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teradata-labs/devflow/internal/kanban"
	"github.com/teradata-labs/devflow/pkg/board"
)

var boardStatuses []string

var boardCmd = &cobra.Command{
	Use:   "board [project]",
	Short: "Show a project's kanban board in the terminal",
	Long: heredoc.Doc(`
		Render the task columns of a project. The project may be given by id or
		by name (case-insensitive); without one the first active project is
		shown.
	`),
	Example: heredoc.Doc(`
		devflow board
		devflow board "Web App"
		devflow board --status todo --status in_progress
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().StringSliceVar(&boardStatuses, "status", nil, "only show these columns")
}

func runBoard(cmd *cobra.Command, args []string) error {
	logger, _, err := setupLogger()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	svc := board.NewService(store, board.ServiceConfig{Logger: logger})

	ref := ""
	if len(args) == 1 {
		ref = args[0]
	}
	project, err := findProject(ctx, svc, ref)
	if err != nil {
		return err
	}

	columns := make([]board.TaskStatus, 0, len(boardStatuses))
	for _, s := range boardStatuses {
		status := board.TaskStatus(s)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", s)
		}
		columns = append(columns, status)
	}

	tasks, err := svc.ListTasks(ctx, board.TaskFilter{ProjectID: project.ID})
	if err != nil {
		return err
	}

	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	_, err = lipgloss.Fprintln(cmd.OutOrStdout(), kanban.Render(project, tasks, kanban.Options{Width: width, Columns: columns}))
	return err
}

// findProject resolves an id or a name; an empty ref picks the first active
// project.
func findProject(ctx context.Context, svc *board.Service, ref string) (*board.Project, error) {
	if ref == "" {
		active, err := svc.ListProjects(ctx, board.ProjectActive)
		if err != nil {
			return nil, err
		}
		if len(active) == 0 {
			return nil, errors.New("no active project found")
		}
		return active[0], nil
	}

	detail, err := svc.GetProject(ctx, ref)
	if err == nil {
		return detail.Project, nil
	}
	if !errors.Is(err, board.ErrNotFound) {
		return nil, err
	}
	projects, err := svc.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(projects))
	for i, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
		names[i] = p.Name
	}
	if matches := fuzzy.Find(ref, names); len(matches) > 0 {
		return nil, fmt.Errorf("project %q not found (did you mean %q?)", ref, matches[0].Str)
	}
	return nil, fmt.Errorf("project %q not found", ref)
}
