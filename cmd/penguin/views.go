package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/penguin-judge/penguin-judge-go/api"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e056fd"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
)

func (m model) View() string {
	var body string
	switch m.view {
	case viewLogin:
		body = m.loginView()
	case viewContest:
		body = m.contestView()
	case viewSubmissions:
		body = m.submissionsView()
	default:
		body = m.homeView()
	}

	var b strings.Builder
	b.WriteString(body)
	if m.errText != "" {
		b.WriteString("\n" + errStyle.Render(m.errText) + "\n")
	}
	b.WriteString("\n" + m.statusBar())
	return b.String()
}

func (m model) statusBar() string {
	who := "not signed in"
	if m.user != nil {
		who = m.user.Name
		if m.user.Admin {
			who += " (admin)"
		}
	}
	return dimStyle.Render(m.store.Path().Value() + "  " + who)
}

func (m model) homeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Penguin Judge") + "\n\n")

	if len(m.contests) == 0 {
		b.WriteString(dimStyle.Render("no contests") + "\n")
	}

	now := time.Now()
	groups := []struct {
		header string
		match  func(api.Contest) bool
	}{
		{"Running", func(c api.Contest) bool { return c.Running(now) }},
		{"Scheduled", func(c api.Contest) bool { return !c.Started(now) }},
		{"Finished", func(c api.Contest) bool { return c.Finished(now) }},
	}
	for _, g := range groups {
		var lines []string
		for i, c := range m.contests {
			if !g.match(c) {
				continue
			}
			line := fmt.Sprintf("%s  %s — %s",
				c.StartTime.Format("2006-01-02 15:04"), c.Title, c.ID)
			if i == m.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(headerStyle.Render(g.header) + "\n")
		b.WriteString(strings.Join(lines, "\n") + "\n\n")
	}

	b.WriteString(dimStyle.Render("enter: open contest  l: login  o: logout  r: reload  q: quit"))
	return b.String()
}

func (m model) contestView() string {
	if m.contest == nil {
		return dimStyle.Render("no contest")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.contest.Title) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s — %s",
		m.contest.StartTime.Format(time.RFC1123),
		m.contest.EndTime.Format(time.RFC1123))) + "\n\n")
	b.WriteString(m.contest.Description + "\n\n")

	switch {
	case m.contest.Problems == nil:
		b.WriteString(dimStyle.Render("loading problems...") + "\n")
	case len(m.contest.Problems) == 0:
		b.WriteString(dimStyle.Render("this contest has no problems") + "\n")
	default:
		b.WriteString(headerStyle.Render("Problems") + "\n")
		for _, p := range m.contest.Problems {
			b.WriteString(fmt.Sprintf("  %-3s %-30s %3d pts  %ds / %dMB\n",
				p.ID, p.Title, p.Score, p.TimeLimit, p.MemoryLimit))
		}
	}

	b.WriteString("\n" + dimStyle.Render("s: submissions  b: back  q: quit"))
	return b.String()
}

func (m model) submissionsView() string {
	var b strings.Builder
	title := "Submissions"
	if m.contest != nil {
		title = m.contest.Title + " — Submissions"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if len(m.submissions) == 0 {
		b.WriteString(dimStyle.Render("no submissions yet") + "\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-10s %-12s %-16s %s",
			"submitted", "problem", "user", "language", "status")) + "\n")
		for _, s := range m.submissions {
			// Environment ids resolve to display names through the
			// store's lookup table.
			lang := m.envs.ByID[s.EnvironmentID].Name
			if lang == "" {
				lang = fmt.Sprintf("env %d", s.EnvironmentID)
			}
			b.WriteString(fmt.Sprintf("%-20s %-10s %-12s %-16s %s\n",
				s.Created.Format("2006-01-02 15:04:05"),
				s.ProblemID, s.UserID, lang, s.Status))
		}
	}

	b.WriteString("\n" + dimStyle.Render("b: back  q: quit"))
	return b.String()
}

func (m model) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in") + "\n\n")
	b.WriteString("  " + m.idInput.View() + "\n")
	b.WriteString("  " + m.pwInput.View() + "\n\n")
	b.WriteString(dimStyle.Render("tab: switch field  enter: sign in  esc: cancel"))
	return b.String()
}
