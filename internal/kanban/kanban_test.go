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

package kanban

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/teradata-labs/devflow/pkg/board"
)

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		total, n, want int
	}{
		{0, 5, defaultColumnWidth},
		{200, 5, defaultColumnWidth},
		{100, 5, 18},
		{40, 5, minColumnWidth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnWidth(tt.total, tt.n), "total=%d n=%d", tt.total, tt.n)
	}
}

func TestColumnTitle(t *testing.T) {
	assert.Equal(t, "To Do", ColumnTitle(board.TaskTodo))
	assert.Equal(t, "In Progress", ColumnTitle(board.TaskInProgress))
	assert.Equal(t, "later", ColumnTitle("later"))
}

func TestRender(t *testing.T) {
	agent := "claude"
	p := &board.Project{Name: "Web", Status: board.ProjectActive}
	tasks := []*board.Task{
		{Title: "Login", Status: board.TaskTodo, Priority: board.PriorityHigh},
		{Title: "Deploy", Status: board.TaskInProgress, Priority: board.PriorityUrgent, AssignedAgent: &agent},
	}

	out := Render(p, tasks, Options{})
	for _, want := range []string{"Web", "2 tasks", "Backlog (0)", "To Do (1)", "In Progress (1)", "Done (0)", "Login", "Deploy", "@claude", "urgent", "empty"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Backlog"), strings.Index(out, "Done"))

	only := Render(p, tasks, Options{Columns: []board.TaskStatus{board.TaskDone}})
	assert.Contains(t, only, "Done (0)")
	assert.NotContains(t, only, "Login")
}

func TestRender_TruncatesLongTitles(t *testing.T) {
	p := &board.Project{Name: "Web", Status: board.ProjectActive}
	long := strings.Repeat("x", 80)
	out := ansi.Strip(Render(p, []*board.Task{{Title: long, Status: board.TaskTodo, Priority: board.PriorityLow}}, Options{}))
	assert.NotContains(t, out, long)
	assert.Contains(t, out, "…")
}
