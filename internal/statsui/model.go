// Package statsui provides the Bubble Tea history browser.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
)

const (
	tabOverview = iota
	tabSessions
	tabLevels
)

const (
	fieldSubject = iota
	fieldN
	fieldSince
	fieldLast
	fieldWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A9AC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	hitStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	missStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A9AC8")).
			Padding(1, 2)
)

// Source is the history the browser reads from.
type Source interface {
	stats.Source
	ListResponses(ctx context.Context, sessionID int64) ([]model.ResponseRecord, error)
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src Source
	cfg model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	sessions  table.Model
	levels    table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	detail    *model.SessionAggregate
	detailErr string
	responses []model.ResponseRecord
}

// NewModel constructs a stats UI model and loads the initial report.
func NewModel(src Source, cfg model.StatsConfig) *Model {
	m := &Model{
		src:      src,
		cfg:      cfg,
		tabs:     []string{"Overview", "Sessions", "Levels"},
		overview: viewport.New(0, 0),
		sessions: newTable(sessionColumns()),
		levels:   newTable(levelColumns()),
	}
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.detail != nil {
			switch msg.String() {
			case "esc", "enter", "q":
				m.detail = nil
				m.responses = nil
				m.detailErr = ""
			}
			return m, nil
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabSessions {
				m.openDetail()
			}
			return m, nil
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabSessions:
			m.sessions, cmd = m.sessions.Update(msg)
		case tabLevels:
			m.levels, cmd = m.levels.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detail != nil {
		return fitLines(m.renderDetail(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newTable(cols []table.Column) table.Model {
	t := table.New(table.WithColumns(cols), table.WithHeight(1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#2A4A5A"))
	t.SetStyles(styles)
	return t
}

func sessionColumns() []table.Column {
	widths := []int{16, 12, 3, 9, 7, 12, 10}
	cols := make([]table.Column, len(stats.HistoryHeaders))
	for i, title := range stats.HistoryHeaders {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

func levelColumns() []table.Column {
	widths := []int{3, 8, 9, 9, 12, 10}
	cols := make([]table.Column, len(stats.LevelHeaders))
	for i, title := range stats.LevelHeaders {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Subject: "),
		newFilterInput("N: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[fieldSubject].SetValue(m.cfg.Subject)
	m.filterInputs[fieldN].SetValue(optionalInt(m.cfg.N))
	if m.cfg.Since != nil {
		m.filterInputs[fieldSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[fieldSince].SetValue("")
	}
	m.filterInputs[fieldLast].SetValue(optionalInt(m.cfg.Last))
	m.filterInputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func optionalInt(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	// Header and its border take two lines.
	m.sessions.SetWidth(m.width)
	m.sessions.SetHeight(max(1, bodyHeight-2))
	m.levels.SetWidth(m.width)
	m.levels.SetHeight(max(1, bodyHeight-2))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.sessions.Blur()
	m.levels.Blur()
	switch m.activeTab {
	case tabSessions:
		m.sessions.Focus()
	case tabLevels:
		m.levels.Focus()
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.src, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.sessions.SetRows(toRows(stats.HistoryRows(m.report.Sessions)))
	m.sessions.GotoTop()
	m.levels.SetRows(toRows(stats.LevelRows(m.report.Levels)))
	m.levels.GotoTop()
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.overview.SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, m.width))
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	sum := stats.Summarize(sessions)
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", sum.Sessions)),
		metricCard("Avg Accuracy", fmt.Sprintf("%.1f%%", sum.AvgAccuracy)),
		metricCard("Best Accuracy", fmt.Sprintf("%.1f%%", sum.BestAccuracy)),
		metricCard("Avg RT", fmt.Sprintf("%.3fs", sum.AvgRT)),
		metricCard("Highest N", fmt.Sprintf("%d", sum.HighestN)),
	}
	var block string
	if width < 80 {
		block = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		block = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	acc, rt := stats.CurveSeries(sessions, window)
	curves := []string{
		headerStyle.Render(fmt.Sprintf("Learning curves (window %d)", max(window, 1))),
		"Accuracy " + stats.Sparkline(acc),
		"Avg RT   " + stats.Sparkline(rt),
	}
	return block + "\n\n" + strings.Join(curves, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	subject := m.cfg.Subject
	if subject == "" {
		subject = "any"
	}
	n := "any"
	if m.cfg.N > 0 {
		n = strconv.Itoa(m.cfg.N)
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Filter: subject=%s  n=%s  since=%s  last=%s  window=%d  subjects=%d",
		subject, n, since, last, m.cfg.CurveWindow, len(m.report.Subjects))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down  Window: -/=  Filter: /  Quit: q"
	if m.activeTab == tabSessions {
		help = "Nav: left/right  Select: up/down  Details: enter  Filter: /  Quit: q"
	}
	help = headerStyle.Render(help)
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	switch m.activeTab {
	case tabSessions:
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(m.sessions.View(), m.width, height)
	case tabLevels:
		if len(m.report.Levels) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(m.levels.View(), m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (model.StatsConfig, error) {
	cfg := model.StatsConfig{Subject: strings.TrimSpace(m.filterInputs[fieldSubject].Value())}

	var err error
	if cfg.N, err = parseOptionalInt(m.filterInputs[fieldN].Value(), 1); err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid n (use integer >= 1)")
	}
	if raw := strings.TrimSpace(m.filterInputs[fieldSince].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if cfg.Last, err = parseOptionalInt(m.filterInputs[fieldLast].Value(), 0); err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
	}
	if cfg.CurveWindow, err = parseOptionalInt(m.filterInputs[fieldWindow].Value(), 1); err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid curve window (use integer >= 1)")
	}
	if cfg.CurveWindow == 0 {
		cfg.CurveWindow = 1
	}
	return cfg, nil
}

func parseOptionalInt(raw string, minValue int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < minValue {
		return 0, fmt.Errorf("value %d below %d", v, minValue)
	}
	return v, nil
}

func (m *Model) openDetail() {
	if len(m.report.Sessions) == 0 {
		return
	}
	// Rows are newest first.
	idx := len(m.report.Sessions) - 1 - m.sessions.Cursor()
	if idx < 0 || idx >= len(m.report.Sessions) {
		return
	}
	s := m.report.Sessions[idx]
	m.detail = &s
	m.detailErr = ""
	responses, err := m.src.ListResponses(context.Background(), s.SessionID)
	if err != nil {
		m.detailErr = err.Error()
		return
	}
	m.responses = responses
}

func (m *Model) renderDetail() string {
	s := m.detail
	lines := []string{
		cardValueStyle.Render(fmt.Sprintf("Session %s", s.UUID)),
		headerStyle.Render(fmt.Sprintf("%s  subject=%s  n=%d", s.EndedAt.Local().Format("2006-01-02 15:04"), s.SubjectID, s.N)),
		"",
		fmt.Sprintf("Accuracy: %.2f%%", s.Accuracy),
		fmt.Sprintf("Avg RT: %.3fs", s.AvgRTSeconds),
		fmt.Sprintf("Hits: %d/%d  False alarms: %d", s.Hits, s.TotalMatches, s.FalseAlarms),
		"",
	}
	switch {
	case m.detailErr != "":
		lines = append(lines, errorStyle.Render(m.detailErr))
	case len(m.responses) == 0:
		lines = append(lines, headerStyle.Render("No responses recorded."))
	default:
		for _, r := range m.responses {
			line := fmt.Sprintf("#%-3d %6.0fms", r.Index+1, float64(r.ResponseTime.Microseconds())/1000)
			if r.MatchExpected {
				lines = append(lines, hitStyle.Render(line+"  hit"))
			} else {
				lines = append(lines, missStyle.Render(line+"  false alarm"))
			}
		}
	}
	lines = append(lines, "", headerStyle.Render("Esc to close"))
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
