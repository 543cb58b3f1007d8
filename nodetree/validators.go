package nodetree

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel wrapped by every validator rejection
var ErrValidation = errors.New("value rejected by validator")

// Validator screens a candidate value before it is sent to the remote.
// Validators never generate traffic.
type Validator interface {
	Validate(v interface{}) error
}

// validatorFor derives the validator from the descriptor's declared kind.
// Vector, Sample and Complex nodes carry structured payloads the server
// interprets, so they pass through.
func validatorFor(d Descriptor) Validator {
	switch d.Kind {
	case Double, Integer:
		if d.HasRange {
			return rangeValidator{min: d.Min, max: d.Max}
		}
		return numberValidator{}
	case Enum:
		return enumValidator{options: d.Options}
	case String:
		return stringValidator{}
	}
	return anyValidator{}
}

type anyValidator struct{}

func (anyValidator) Validate(interface{}) error { return nil }

type numberValidator struct{}

func (numberValidator) Validate(v interface{}) error {
	if _, err := toFloat(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

type rangeValidator struct {
	min, max float64
}

func (r rangeValidator) Validate(v interface{}) error {
	f, err := toFloat(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if f < r.min || f > r.max {
		return fmt.Errorf("%w: %g outside [%g, %g]", ErrValidation, f, r.min, r.max)
	}
	return nil
}

type enumValidator struct {
	options map[int64]string
}

func (e enumValidator) Validate(v interface{}) error {
	if s, ok := v.(string); ok {
		for _, label := range e.options {
			if label == s {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not an option", ErrValidation, s)
	}
	i, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, ok := e.options[i]; !ok {
		return fmt.Errorf("%w: %d is not an option", ErrValidation, i)
	}
	return nil
}

type stringValidator struct{}

func (stringValidator) Validate(v interface{}) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("%w: expected string, got %T", ErrValidation, v)
	}
	return nil
}
