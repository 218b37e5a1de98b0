// Package propgen turns a text description into a prop outline. Generation
// runs off the edit path: callers fire a Request and apply the Outcome later.
package propgen

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyDescription is returned for a blank description.
	ErrEmptyDescription = errors.New("propgen: empty description")
	// ErrInvalidShape is returned when a generator produces an unusable outline.
	ErrInvalidShape = errors.New("propgen: invalid shape")
)

// Result is a generated prop outline.
type Result struct {
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	ViewBox [4]float64 `json:"viewBox"`
}

// Validate checks that r can be drawn.
func (r Result) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return ErrInvalidShape
	}
	if r.ViewBox[2] <= 0 || r.ViewBox[3] <= 0 {
		return ErrInvalidShape
	}
	return nil
}

// Generator produces a prop outline from a description.
type Generator interface {
	Generate(ctx context.Context, description string) (Result, error)
}

// Outcome is the completion of one Request.
type Outcome struct {
	Description string
	Result      Result
	Err         error
}

// Request runs gen in its own goroutine. The returned channel receives
// exactly one Outcome and is then closed.
func Request(ctx context.Context, gen Generator, description string) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		o := Outcome{Description: description}
		if strings.TrimSpace(description) == "" {
			o.Err = ErrEmptyDescription
			out <- o
			return
		}
		res, err := gen.Generate(ctx, description)
		if err == nil {
			err = res.Validate()
		}
		if err != nil {
			o.Err = err
		} else {
			if res.Name == "" {
				res.Name = description
			}
			o.Result = res
		}
		out <- o
	}()
	return out
}
