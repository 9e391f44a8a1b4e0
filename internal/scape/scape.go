package scape

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Observation is whatever the environment shows the policy after a step.
// Concrete scapes document their own observation layout.
type Observation []float64

// Action is a discrete controller input in the ALE action-set convention.
type Action int

// Info carries per-step side-channel values such as score and lives.
type Info map[string]any

// Scape is a steppable game environment driven in lock-step with a policy.
type Scape interface {
	Name() string
	Reset() (Observation, error)
	Step(ctx context.Context, action Action) (Observation, float64, bool, error)
	Lives() int
	Render()
}

// Configurable exposes the environment's internal state as a structured
// document that can be read, mutated and written back without touching the
// policy. A write takes effect on the next reset or step.
type Configurable interface {
	ReadConfig() (Config, error)
	WriteConfig(Config) error
}

// UnsupportedScapeError reports a scape that lacks the configuration side
// channel. It is fatal: the harness refuses to evaluate against an
// unmodifiable environment.
type UnsupportedScapeError struct {
	ScapeName string
}

func (e *UnsupportedScapeError) Error() string {
	return fmt.Sprintf("scape %s does not expose a configuration channel", e.ScapeName)
}

// ConfigRoundTripError reports a configuration write whose read-back does not
// structurally match what was written.
type ConfigRoundTripError struct {
	ScapeName string
	Fields    []FieldDiff
}

type FieldDiff struct {
	Field   string
	Written any
	Read    any
}

func (e *ConfigRoundTripError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for _, diff := range e.Fields {
		fields = append(fields, fmt.Sprintf("%s: wrote=%v read=%v", diff.Field, diff.Written, diff.Read))
	}
	sort.Strings(fields)
	return fmt.Sprintf("config round-trip mismatch on scape %s: %s", e.ScapeName, strings.Join(fields, "; "))
}

// ConfigChannel verifies that the scape supports configuration injection and
// returns the channel handle. Callers run this once at startup.
func ConfigChannel(s Scape) (Configurable, error) {
	channel, ok := s.(Configurable)
	if !ok {
		return nil, &UnsupportedScapeError{ScapeName: s.Name()}
	}
	return channel, nil
}
