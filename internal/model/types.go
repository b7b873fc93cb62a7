// Package model defines shared data structures.
package model

import "time"

// Stimulus is a single letter shown to the subject.
type Stimulus rune

// String returns the letter as text.
func (s Stimulus) String() string {
	if s == 0 {
		return ""
	}
	return string(rune(s))
}

// Sequence is the ordered list of stimuli for one session.
type Sequence []Stimulus

// IsMatch reports whether position i equals the stimulus n steps earlier.
func (s Sequence) IsMatch(i, n int) bool {
	if n < 1 || i < n || i >= len(s) {
		return false
	}
	return s[i] == s[i-n]
}

// SessionConfig defines the parameters of a single session.
type SessionConfig struct {
	N                int
	TotalRounds      int
	MatchCount       int
	StimulusInterval time.Duration
	FlashDuration    time.Duration
	CountdownSeconds int
}

// ResponseRecord captures one honored key press.
type ResponseRecord struct {
	Index         int
	MatchExpected bool
	Responded     bool
	ResponseTime  time.Duration
}

// SessionResult is the terminal record of a completed session.
type SessionResult struct {
	ID                         string
	SubjectID                  string
	N                          int
	TotalRounds                int
	MatchCount                 int
	TotalMatches               int
	Hits                       int
	FalseAlarms                int
	AccuracyPercent            float64
	AverageResponseTimeSeconds float64
	Responses                  []ResponseRecord
	StartedAt                  time.Time
	EndedAt                    time.Time
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Subject     string
	N           int
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID    int64
	UUID         string
	SubjectID    string
	N            int
	EndedAt      time.Time
	TotalMatches int
	Hits         int
	FalseAlarms  int
	Accuracy     float64
	AvgRTSeconds float64
	Responses    int
}

// LevelAggregate aggregates sessions played at the same N.
type LevelAggregate struct {
	N            int
	Sessions     int
	TotalMatches int
	Hits         int
	FalseAlarms  int
	RTSumSeconds float64
	Responses    int
}
