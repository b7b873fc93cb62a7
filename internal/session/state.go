package session

import (
	"fmt"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// Phase is the controller's position in the session state machine.
type Phase int

// Session phases.
const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseFlashing
	PhaseDisplaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseFlashing:
		return "flashing"
	case PhaseDisplaying:
		return "displaying"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Active reports whether a session is in progress.
func (p Phase) Active() bool {
	return p == PhaseCountdown || p == PhaseFlashing || p == PhaseDisplaying
}

// Feedback is the visual response to a key press.
type Feedback int

// Feedback kinds.
const (
	FeedbackNone Feedback = iota
	FeedbackHit
	FeedbackFalseAlarm
)

// State is an immutable snapshot of the session, handed to renderers after
// every transition.
type State struct {
	Phase     Phase
	SubjectID string
	Config    model.SessionConfig

	// Countdown is the number of seconds left while in PhaseCountdown.
	Countdown int
	// Index is the current stimulus position, -1 before the first flash.
	Index     int
	Stimulus  model.Stimulus
	Responded bool
	Feedback  Feedback

	Result  *model.SessionResult
	SinkErr error
}

// Summary formats the end-of-session result as two lines.
func (s State) Summary() string {
	if s.Result == nil {
		return ""
	}
	return FormatSummary(*s.Result)
}

// FormatSummary renders accuracy and average response time for display.
func FormatSummary(r model.SessionResult) string {
	return fmt.Sprintf("Accuracy: %.2f%%\nAvg RT: %.3fs", r.AccuracyPercent, r.AverageResponseTimeSeconds)
}

// Default session parameters.
const (
	DefaultN                = 2
	DefaultTotalRounds      = 30
	DefaultMatchCount       = 10
	DefaultStimulusInterval = 500 * time.Millisecond
	DefaultFlashDuration    = 100 * time.Millisecond
	DefaultCountdownSeconds = 3
)

// DefaultConfig returns the standard session shape for lag n.
func DefaultConfig(n int) model.SessionConfig {
	return model.SessionConfig{
		N:                n,
		TotalRounds:      DefaultTotalRounds,
		MatchCount:       DefaultMatchCount,
		StimulusInterval: DefaultStimulusInterval,
		FlashDuration:    DefaultFlashDuration,
		CountdownSeconds: DefaultCountdownSeconds,
	}
}
