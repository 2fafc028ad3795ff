// internal/output/status.go
package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianshen/codesage/internal/project"
)

var (
	badgeBase = lipgloss.NewStyle().Bold(true)

	statusColors = map[project.Status]lipgloss.AdaptiveColor{
		project.StatusCreated:   {Light: "#666666", Dark: "#999999"},
		project.StatusQueued:    {Light: "#8A6D00", Dark: "#E5C07B"},
		project.StatusAnalyzing: {Light: "#005F87", Dark: "#61AFEF"},
		project.StatusCompleted: {Light: "#2E7D32", Dark: "#98C379"},
		project.StatusFailed:    {Light: "#C62828", Dark: "#E06C75"},
	}

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
)

// StatusBadge renders s in its status color.
func StatusBadge(s project.Status) string {
	style := badgeBase
	if c, ok := statusColors[s]; ok {
		style = style.Foreground(c)
	}
	return style.Render(string(s))
}

// ProjectList renders one line per project: id, name, status and URL.
func ProjectList(projects []*project.Project) string {
	if len(projects) == 0 {
		return dimStyle.Render("No projects.") + "\n"
	}

	nameWidth := 0
	for _, p := range projects {
		nameWidth = max(nameWidth, len(p.Name))
	}

	var b strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&b, "%s  %-*s  %s  %s\n",
			dimStyle.Render(p.ID),
			nameWidth, p.Name,
			StatusBadge(p.Status),
			dimStyle.Render(p.RemoteURL),
		)
		if p.Error != "" {
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render(p.Error))
		}
	}
	return b.String()
}
