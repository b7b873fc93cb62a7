package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/nback/internal/session"
)

const stimulusBoxSize = 9

var (
	boxStyle = lipgloss.NewStyle().
			Width(stimulusBoxSize*2).
			Height(stimulusBoxSize).
			Align(lipgloss.Center, lipgloss.Center).
			Bold(true).
			Foreground(lipgloss.Color("#F0F0F0")).
			Background(lipgloss.Color("#3A3A3A"))
	flashStyle      = boxStyle.Background(lipgloss.Color("#000000"))
	hitStyle        = boxStyle.Background(lipgloss.Color("#2E8B57"))
	falseAlarmStyle = boxStyle.Background(lipgloss.Color("#B22222"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.onForm {
		content = m.renderForm()
	} else {
		content = m.renderSession()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderForm() string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("N-back (%d rounds, %d matches)", m.cfg.TotalRounds, m.cfg.MatchCount)),
		"",
		m.inputs[fieldSubject].View(),
		m.inputs[fieldN].View(),
		"",
	}
	if m.formErr != "" {
		lines = append(lines, errorStyle.Render(m.formErr))
	}
	lines = append(lines, footerStyle.Render(helpLine(m.keys.Start, m.keys.NextField, m.keys.Cancel)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderSession() string {
	s := m.state
	switch s.Phase {
	case session.PhaseCountdown:
		return boxStyle.Render(fmt.Sprintf("%d", s.Countdown))
	case session.PhaseFlashing:
		return flashStyle.Render("")
	case session.PhaseDisplaying:
		return stimulusStyle(s.Feedback).Render(s.Stimulus.String())
	case session.PhaseFinished:
		lines := []string{titleStyle.Render("Done"), "", s.Summary()}
		if s.SinkErr != nil {
			lines = append(lines, "", errorStyle.Render("Result not saved: "+s.SinkErr.Error()))
		}
		lines = append(lines, "", footerStyle.Render(helpLine(m.keys.Start, m.keys.Cancel, m.keys.Quit)))
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func stimulusStyle(f session.Feedback) lipgloss.Style {
	switch f {
	case session.FeedbackHit:
		return hitStyle
	case session.FeedbackFalseAlarm:
		return falseAlarmStyle
	default:
		return boxStyle
	}
}

func (m *Model) renderFooter() string {
	var segments []string
	if !m.onForm && m.state.Phase != session.PhaseIdle {
		total := m.state.Config.TotalRounds
		trial := m.state.Index + 1
		if m.state.Phase == session.PhaseFinished {
			trial = total
		}
		segments = append(segments, fmt.Sprintf("%d-back  Trial %d/%d", m.state.Config.N, max(trial, 0), total))
	}
	if m.footer.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%% · %.3fs", m.footer.lastAcc, m.footer.lastRT))
		segments = append(segments, fmt.Sprintf("All-time %.1f%% (%d sessions)", m.footer.allAccuracy(), m.footer.allSessions))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
