// Package tui provides the Bubble Tea N-back test interface.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/nback/internal/logging"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/schedule"
	"github.com/verte-zerg/nback/internal/session"
	"github.com/verte-zerg/nback/internal/stats"
)

const (
	msgSubjectRequired = "Please enter a user ID."
	msgInvalidN        = "Please enter a valid N (1 <= N < total rounds)"
)

const (
	fieldSubject = iota
	fieldN
)

// History supplies past sessions for the footer.
type History interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

// Options configures a Model.
type Options struct {
	Session   model.SessionConfig
	Subject   string
	Generator session.SequenceSource
	Sink      session.ResultSink
	History   History
	Logger    logging.Logger
}

// Model implements the Bubble Tea test UI.
type Model struct {
	cfg     model.SessionConfig
	ctrl    *session.Controller
	sched   *schedule.Tea
	history History
	logger  logging.Logger
	keys    KeyMap

	inputs  []textinput.Model
	focus   int
	formErr string
	onForm  bool

	state     session.State
	subjectID string

	width  int
	height int

	footer footerStats
}

type footerStats struct {
	subject     string
	hasLast     bool
	lastAcc     float64
	lastRT      float64
	allSessions int
	allAccSum   float64
	lastID      string
}

// NewModel builds the UI and its session controller.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Model{
		cfg:     opts.Session,
		sched:   schedule.NewTea(),
		history: opts.History,
		logger:  logger,
		keys:    DefaultKeyMap(),
		onForm:  true,
		state:   session.State{Phase: session.PhaseIdle, Index: -1},
	}
	m.ctrl = session.NewController(m.sched, opts.Generator, opts.Sink,
		session.WithLogger(logger),
		session.WithListener(m.onState),
	)
	m.initInputs(opts.Subject, opts.Session.N)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns the latest session snapshot.
func (m *Model) State() session.State {
	return m.state
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case schedule.FiredMsg:
		m.sched.Fire(msg)
		return m, m.sched.Flush()
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.onForm {
			return m.updateForm(msg)
		}
		return m.updateSession(msg)
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.submit()
		return m, m.sched.Flush()
	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus(m.focus - 1)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.formErr = ""
	return m, cmd
}

func (m *Model) updateSession(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Respond):
		m.ctrl.Respond()
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.onForm = true
		return m, m.setFocus(fieldSubject)
	case key.Matches(msg, m.keys.Start):
		if m.state.Phase == session.PhaseFinished {
			m.start(m.state.Config, m.subjectID)
		}
	}
	return m, m.sched.Flush()
}

func (m *Model) submit() {
	subject := strings.TrimSpace(m.inputs[fieldSubject].Value())
	if subject == "" {
		m.formErr = msgSubjectRequired
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldN].Value()))
	if err != nil || n < 1 || n >= m.cfg.TotalRounds {
		m.formErr = msgInvalidN
		return
	}
	cfg := m.cfg
	cfg.N = n
	m.start(cfg, subject)
}

func (m *Model) start(cfg model.SessionConfig, subject string) {
	if err := m.ctrl.Start(cfg, subject); err != nil {
		m.logger.Warn("failed to start session", logging.Err(err))
		m.formErr = err.Error()
		m.onForm = true
		return
	}
	m.formErr = ""
	m.onForm = false
	m.subjectID = subject
	if m.footer.subject != subject {
		m.loadFooterStats(subject)
	}
}

func (m *Model) onState(s session.State) {
	m.state = s
	if s.Phase == session.PhaseFinished && s.Result != nil && s.Result.ID != m.footer.lastID {
		m.footer.addResult(*s.Result)
	}
}

func (m *Model) loadFooterStats(subject string) {
	m.footer = footerStats{subject: subject}
	if m.history == nil {
		return
	}
	sessions, err := m.history.ListSessions(context.Background(), model.StatsConfig{Subject: subject})
	if err != nil {
		m.logger.Error("failed to load session history", err, logging.String("subject", subject))
		return
	}
	if len(sessions) == 0 {
		return
	}
	sum := stats.Summarize(sessions)
	last := sessions[len(sessions)-1]
	m.footer.hasLast = true
	m.footer.lastAcc = last.Accuracy
	m.footer.lastRT = last.AvgRTSeconds
	m.footer.allSessions = sum.Sessions
	m.footer.allAccSum = sum.AvgAccuracy * float64(sum.Sessions)
}

func (f *footerStats) addResult(r model.SessionResult) {
	f.lastID = r.ID
	f.hasLast = true
	f.lastAcc = r.AccuracyPercent
	f.lastRT = r.AverageResponseTimeSeconds
	f.allSessions++
	f.allAccSum += r.AccuracyPercent
}

func (f footerStats) allAccuracy() float64 {
	if f.allSessions == 0 {
		return 0
	}
	return f.allAccSum / float64(f.allSessions)
}

func (m *Model) initInputs(subject string, n int) {
	subjectInput := textinput.New()
	subjectInput.Prompt = "User ID: "
	subjectInput.Placeholder = "subject id"
	subjectInput.CharLimit = 64
	subjectInput.SetValue(subject)

	nInput := textinput.New()
	nInput.Prompt = "N: "
	nInput.CharLimit = 3
	if n > 0 {
		nInput.SetValue(strconv.Itoa(n))
	}

	m.inputs = []textinput.Model{subjectInput, nInput}
	m.setFocus(fieldSubject)
}

func (m *Model) setFocus(idx int) tea.Cmd {
	count := len(m.inputs)
	m.focus = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}
