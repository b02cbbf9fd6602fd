package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stackrank/internal/model"
)

func (m Model) View() string {
	if m.done || m.pair == nil {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	paneWidth := (width - 6) / 2
	if paneWidth < 28 {
		paneWidth = 28
	}

	left := m.renderPane(m.pair.Candidate, m.focus == paneCandidate, paneWidth)
	right := m.renderPane(m.pair.Probe, m.focus == paneProbe, paneWidth)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question()))
	b.WriteString("\n\n")
	b.WriteString(panes)
	b.WriteString("\n")
	b.WriteString(remainingStyle.Render(fmt.Sprintf("Remaining %d tasks in %q", m.orch.RemainingCount(), m.listTitle)))
	b.WriteString("\n")
	if m.warning != "" {
		b.WriteString(warningStyle.Render("! " + m.warning))
		b.WriteString("\n")
	}
	if m.editing {
		b.WriteString("\n")
		for i := range m.inputs {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString(fieldLabelStyle.Render("enter apply · esc cancel · tab next field"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) question() string {
	if m.orch.RankingChildren() {
		if p := m.orch.ActiveParent(); p != nil {
			return fmt.Sprintf("Which subtask of %q should be done first?", p.Title)
		}
		return "Which subtask should be done first?"
	}
	return "Which task is more important?"
}

func (m Model) renderPane(it *model.Item, focused bool, width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var lines []string
	lines = append(lines, titleStyle.Render(ansi.Truncate(it.Title, inner, "…")))
	if it.IsChild() && it.ParentTitle != "" {
		lines = append(lines, fieldLabelStyle.Render(ansi.Truncate("part of "+it.ParentTitle, inner, "…")))
	}
	if it.Category != "" {
		lines = append(lines, fieldLabelStyle.Render("category ")+it.Category)
	}
	if it.Effort != "" {
		lines = append(lines, fieldLabelStyle.Render("effort   ")+it.Effort)
	}
	if it.Joy != "" {
		lines = append(lines, fieldLabelStyle.Render("joy      ")+it.Joy)
	}
	if it.Link != "" {
		lines = append(lines, fieldLabelStyle.Render("link     ")+ansi.Truncate(it.Link, inner-9, "…"))
	}
	if notes := renderMarkdown(it.Notes, inner); notes != "" {
		lines = append(lines, "", notes)
	}

	style := paneStyle
	if focused {
		style = paneFocusStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}
