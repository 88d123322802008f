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

// Package kanban renders a project's tasks as board columns for the
// terminal.
package kanban

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/teradata-labs/devflow/pkg/board"
)

const (
	defaultColumnWidth = 28
	minColumnWidth     = 16
)

var (
	colorBorder = lipgloss.Color("#414868")
	colorMuted  = lipgloss.Color("#787C99")
	colorTitle  = lipgloss.Color("#C0CAF5")

	columnColors = map[board.TaskStatus]color.Color{
		board.TaskBacklog:     lipgloss.Color("#565F89"),
		board.TaskTodo:        lipgloss.Color("#7AA2F7"),
		board.TaskInProgress:  lipgloss.Color("#E0AF68"),
		board.TaskInterrupted: lipgloss.Color("#F7768E"),
		board.TaskDone:        lipgloss.Color("#9ECE6A"),
	}

	priorityColors = map[board.Priority]color.Color{
		board.PriorityLow:    lipgloss.Color("#565F89"),
		board.PriorityMedium: lipgloss.Color("#7AA2F7"),
		board.PriorityHigh:   lipgloss.Color("#FF9E64"),
		board.PriorityUrgent: lipgloss.Color("#DB4B4B"),
	}
)

// ColumnTitle is the heading of a status column.
func ColumnTitle(s board.TaskStatus) string {
	switch s {
	case board.TaskBacklog:
		return "Backlog"
	case board.TaskTodo:
		return "To Do"
	case board.TaskInProgress:
		return "In Progress"
	case board.TaskInterrupted:
		return "Interrupted"
	case board.TaskDone:
		return "Done"
	}
	return string(s)
}

// Options controls rendering.
type Options struct {
	// Width is the terminal width; columns shrink to fit when set.
	Width int
	// Columns limits the board to these statuses, in this order.
	Columns []board.TaskStatus
}

// Render draws the project header and one column per status. Tasks are
// expected in board order.
func Render(p *board.Project, tasks []*board.Task, opts Options) string {
	columns := opts.Columns
	if len(columns) == 0 {
		columns = board.TaskStatuses
	}
	width := columnWidth(opts.Width, len(columns))

	byStatus := make(map[board.TaskStatus][]*board.Task, len(columns))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	rendered := make([]string, 0, len(columns))
	for _, s := range columns {
		rendered = append(rendered, renderColumn(s, byStatus[s], width))
	}

	var b strings.Builder
	b.WriteString(header(p, len(tasks)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	return b.String()
}

func columnWidth(total, n int) int {
	if total <= 0 || n == 0 {
		return defaultColumnWidth
	}
	// Each column carries two border cells.
	w := total/n - 2
	if w > defaultColumnWidth {
		return defaultColumnWidth
	}
	return max(w, minColumnWidth)
}

func header(p *board.Project, total int) string {
	name := lipgloss.NewStyle().Bold(true).Foreground(colorTitle).Render(p.Name)
	meta := lipgloss.NewStyle().Foreground(colorMuted).
		Render(fmt.Sprintf("%s · %d tasks", p.Status, total))
	return name + "  " + meta
}

func renderColumn(s board.TaskStatus, tasks []*board.Task, width int) string {
	accent := columnColors[s]
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).
		Render(fmt.Sprintf("%s (%d)", ColumnTitle(s), len(tasks)))

	lines := []string{title}
	if len(tasks) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("empty"))
	}
	for _, t := range tasks {
		lines = append(lines, renderCard(t, width-2))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderCard(t *board.Task, width int) string {
	badge := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render("● " + string(t.Priority))
	title := ansi.Truncate(t.Title, width, "…")
	parts := []string{lipgloss.NewStyle().Foreground(colorTitle).Render(title), badge}
	if t.AssignedAgent != nil && *t.AssignedAgent != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorMuted).Render("@"+*t.AssignedAgent))
	}
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(colorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
