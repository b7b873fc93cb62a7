package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/verte-zerg/nback/internal/errors"
	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/model"
)

// Settings is the resolved configuration after flags and file values are merged.
type Settings struct {
	Subject    string
	N          int `flag:"n" validate:"gte=1,ltfield=Rounds"`
	Rounds     int `flag:"rounds" validate:"gte=2"`
	Matches    int `flag:"matches" validate:"gte=0"`
	IntervalMs int `flag:"interval-ms" validate:"gt=0"`
	FlashMs    int `flag:"flash-ms" validate:"gte=0"`
	Countdown  int `flag:"countdown" validate:"gte=0,lte=60"`
	CSVPath    string
	CSVEnabled bool
	LogLevel   string `flag:"log-level" validate:"oneof=debug info warn error"`
	Seed       int64
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("flag"); name != "" {
			return "--" + name
		}
		return field.Name
	})
	return v
}

// Validate checks ranges on s and that the requested matches fit the sequence.
func Validate(s Settings) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.NewConfigError("%s", describe(verrs[0]))
		}
		return apperrors.WrapConfigError(err, "invalid settings")
	}
	if err := generator.Validate(s.N, s.Rounds, s.Matches); err != nil {
		return apperrors.WrapConfigError(err, "invalid session shape")
	}
	return nil
}

// SessionConfig converts s into the controller's session parameters.
func (s Settings) SessionConfig() model.SessionConfig {
	return model.SessionConfig{
		N:                s.N,
		TotalRounds:      s.Rounds,
		MatchCount:       s.Matches,
		StimulusInterval: time.Duration(s.IntervalMs) * time.Millisecond,
		FlashDuration:    time.Duration(s.FlashMs) * time.Millisecond,
		CountdownSeconds: s.Countdown,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be < --rounds", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
