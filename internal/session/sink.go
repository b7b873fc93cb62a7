package session

import (
	"context"
	"errors"

	"github.com/verte-zerg/nback/internal/model"
)

// ResultSink receives each completed session.
type ResultSink interface {
	Record(ctx context.Context, result model.SessionResult) error
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(ctx context.Context, result model.SessionResult) error

// Record implements ResultSink.
func (f SinkFunc) Record(ctx context.Context, result model.SessionResult) error {
	return f(ctx, result)
}

type teeSink []ResultSink

// Tee returns a sink that records to every non-nil sink in order. All sinks
// are attempted; their errors are joined.
func Tee(sinks ...ResultSink) ResultSink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t teeSink) Record(ctx context.Context, result model.SessionResult) error {
	var errs []error
	for _, s := range t {
		if err := s.Record(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
