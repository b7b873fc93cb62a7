// Package session implements the timed N-back presentation and response state machine.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/logging"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/schedule"
)

// SequenceSource produces the stimulus sequence for a session.
type SequenceSource interface {
	Generate(n, totalRounds, matchCount int) (model.Sequence, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithListener registers fn to receive a State after every transition.
func WithListener(fn func(State)) Option {
	return func(c *Controller) { c.listener = fn }
}

// WithIDFunc overrides how session identifiers are generated.
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// Controller owns all mutable session state. It is not safe for concurrent
// use: every method and every scheduled callback must run on the same event
// loop.
type Controller struct {
	sched    schedule.Scheduler
	gen      SequenceSource
	sink     ResultSink
	logger   logging.Logger
	listener func(State)
	newID    func() string

	// epoch changes on every start and cancel; callbacks from an older epoch are dropped.
	epoch   uint64
	pending schedule.Handle

	state     State
	seq       model.Sequence
	responses []model.ResponseRecord
	sessionID string
	startedAt time.Time
	lastShown time.Time
}

// NewController returns an idle Controller. sink may be nil.
func NewController(sched schedule.Scheduler, gen SequenceSource, sink ResultSink, opts ...Option) *Controller {
	c := &Controller{
		sched:  sched,
		gen:    gen,
		sink:   sink,
		logger: logging.Nop(),
		newID:  uuid.NewString,
		state:  State{Phase: PhaseIdle, Index: -1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.state
}

// Sequence returns a copy of the current session's sequence.
func (c *Controller) Sequence() model.Sequence {
	out := make(model.Sequence, len(c.seq))
	copy(out, c.seq)
	return out
}

// Responses returns a copy of the responses recorded so far.
func (c *Controller) Responses() []model.ResponseRecord {
	out := make([]model.ResponseRecord, len(c.responses))
	copy(out, c.responses)
	return out
}

// Start validates cfg, generates a fresh sequence and enters the countdown.
// Any session in progress is discarded. On error the state is unchanged.
func (c *Controller) Start(cfg model.SessionConfig, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return fmt.Errorf("%w: subject id is required", generator.ErrInvalidConfig)
	}
	if err := validateTiming(cfg); err != nil {
		return err
	}
	seq, err := c.gen.Generate(cfg.N, cfg.TotalRounds, cfg.MatchCount)
	if err != nil {
		return err
	}

	c.cancelPending()
	c.epoch++
	c.seq = seq
	c.responses = nil
	c.sessionID = c.newID()
	c.startedAt = c.sched.Now()
	c.lastShown = time.Time{}
	c.state = State{
		Phase:     PhaseCountdown,
		SubjectID: subjectID,
		Config:    cfg,
		Countdown: cfg.CountdownSeconds,
		Index:     -1,
	}
	c.logger.Info("session started",
		logging.String("session", c.sessionID),
		logging.String("subject", subjectID),
		logging.Int("n", cfg.N),
		logging.Int("rounds", cfg.TotalRounds),
		logging.Int("matches", cfg.MatchCount),
	)

	if cfg.CountdownSeconds <= 0 {
		c.beginFlash(0)
		return nil
	}
	c.emit()
	c.after(time.Second, c.countdownTick)
	return nil
}

// Respond registers the subject's match signal for the displayed stimulus.
// Only the first signal per stimulus is honored; it restarts the interval
// before the next stimulus. It reports whether the signal was accepted.
func (c *Controller) Respond() bool {
	if c.state.Phase != PhaseDisplaying || c.state.Responded {
		return false
	}
	now := c.sched.Now()
	idx := c.state.Index
	record := model.ResponseRecord{
		Index:         idx,
		MatchExpected: c.seq.IsMatch(idx, c.state.Config.N),
		Responded:     true,
		ResponseTime:  now.Sub(c.lastShown),
	}
	c.responses = append(c.responses, record)
	c.state.Responded = true
	if record.MatchExpected {
		c.state.Feedback = FeedbackHit
	} else {
		c.state.Feedback = FeedbackFalseAlarm
	}
	c.logger.Debug("response",
		logging.Int("index", idx),
		logging.Bool("match", record.MatchExpected),
		logging.Float64("rt_ms", float64(record.ResponseTime.Microseconds())/1000),
	)

	c.cancelPending()
	c.after(c.state.Config.StimulusInterval, c.advance)
	c.emit()
	return true
}

// Cancel abandons the session in progress and returns to idle.
func (c *Controller) Cancel() {
	if !c.state.Phase.Active() {
		return
	}
	c.cancelPending()
	c.epoch++
	c.logger.Info("session cancelled",
		logging.String("session", c.sessionID),
		logging.Int("index", c.state.Index),
	)
	c.seq = nil
	c.responses = nil
	c.state = State{Phase: PhaseIdle, Index: -1}
	c.emit()
}

func (c *Controller) countdownTick() {
	c.state.Countdown--
	if c.state.Countdown <= 0 {
		c.beginFlash(0)
		return
	}
	c.emit()
	c.after(time.Second, c.countdownTick)
}

func (c *Controller) beginFlash(index int) {
	c.state.Phase = PhaseFlashing
	c.state.Countdown = 0
	c.state.Index = index
	c.state.Stimulus = 0
	c.state.Responded = false
	c.state.Feedback = FeedbackNone
	c.emit()
	c.after(c.state.Config.FlashDuration, c.display)
}

func (c *Controller) display() {
	c.state.Phase = PhaseDisplaying
	c.state.Stimulus = c.seq[c.state.Index]
	c.lastShown = c.sched.Now()
	c.emit()
	c.after(c.state.Config.StimulusInterval, c.advance)
}

func (c *Controller) advance() {
	next := c.state.Index + 1
	if next >= len(c.seq) {
		c.finish()
		return
	}
	c.beginFlash(next)
}

func (c *Controller) finish() {
	cfg := c.state.Config
	score := ComputeScore(c.seq, cfg.N, c.responses)
	responses := make([]model.ResponseRecord, len(c.responses))
	copy(responses, c.responses)
	result := model.SessionResult{
		ID:                         c.sessionID,
		SubjectID:                  c.state.SubjectID,
		N:                          cfg.N,
		TotalRounds:                cfg.TotalRounds,
		MatchCount:                 cfg.MatchCount,
		TotalMatches:               score.TotalMatches,
		Hits:                       score.Hits,
		FalseAlarms:                score.FalseAlarms,
		AccuracyPercent:            score.AccuracyPercent,
		AverageResponseTimeSeconds: score.AverageResponseTimeSeconds,
		Responses:                  responses,
		StartedAt:                  c.startedAt,
		EndedAt:                    c.sched.Now(),
	}

	c.state.Phase = PhaseFinished
	c.state.Stimulus = 0
	c.state.Feedback = FeedbackNone
	c.state.Result = &result
	c.logger.Info("session finished",
		logging.String("session", result.ID),
		logging.String("subject", result.SubjectID),
		logging.Float64("accuracy", result.AccuracyPercent),
		logging.Float64("avg_rt_s", result.AverageResponseTimeSeconds),
		logging.Int("hits", result.Hits),
		logging.Int("false_alarms", result.FalseAlarms),
	)
	if c.sink != nil {
		if err := c.sink.Record(context.Background(), result); err != nil {
			c.logger.Error("failed to record session", err, logging.String("session", result.ID))
			c.state.SinkErr = err
		}
	}
	c.emit()
}

func (c *Controller) after(d time.Duration, fn func()) {
	epoch := c.epoch
	c.pending = c.sched.After(d, func() {
		if epoch != c.epoch {
			return
		}
		c.pending = 0
		fn()
	})
}

func (c *Controller) cancelPending() {
	if c.pending == 0 {
		return
	}
	c.sched.Cancel(c.pending)
	c.pending = 0
}

func (c *Controller) emit() {
	if c.listener != nil {
		c.listener(c.state)
	}
}

func validateTiming(cfg model.SessionConfig) error {
	if cfg.StimulusInterval <= 0 {
		return fmt.Errorf("%w: stimulus interval must be > 0", generator.ErrInvalidConfig)
	}
	if cfg.FlashDuration < 0 {
		return fmt.Errorf("%w: flash duration must be >= 0", generator.ErrInvalidConfig)
	}
	if cfg.CountdownSeconds < 0 {
		return fmt.Errorf("%w: countdown must be >= 0", generator.ErrInvalidConfig)
	}
	return nil
}
