package agent

import (
	"fmt"
	"math/rand"

	"peirama/internal/scape"
)

// Policy selects one action per observation. Trained policies live in the
// training subsystem; the harness only needs this surface.
type Policy interface {
	ID() string
	SelectAction(obs scape.Observation) (scape.Action, error)
}

// RandomPolicy samples uniformly from a fixed action set. Useful as a
// baseline and for exercising the harness without a trained model.
type RandomPolicy struct {
	id      string
	actions []scape.Action
	rng     *rand.Rand
}

func NewRandomPolicy(id string, actions []scape.Action, seed int64) (*RandomPolicy, error) {
	if id == "" {
		return nil, fmt.Errorf("policy id is required")
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("policy %s requires at least one action", id)
	}
	return &RandomPolicy{
		id:      id,
		actions: append([]scape.Action(nil), actions...),
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

func (p *RandomPolicy) ID() string {
	return p.id
}

func (p *RandomPolicy) SelectAction(scape.Observation) (scape.Action, error) {
	return p.actions[p.rng.Intn(len(p.actions))], nil
}

// ScriptedPolicy wraps a deterministic action function.
type ScriptedPolicy struct {
	id string
	fn func(scape.Observation) scape.Action
}

func NewScriptedPolicy(id string, fn func(scape.Observation) scape.Action) (*ScriptedPolicy, error) {
	if id == "" {
		return nil, fmt.Errorf("policy id is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("policy %s requires an action function", id)
	}
	return &ScriptedPolicy{id: id, fn: fn}, nil
}

func (p *ScriptedPolicy) ID() string {
	return p.id
}

func (p *ScriptedPolicy) SelectAction(obs scape.Observation) (scape.Action, error) {
	return p.fn(obs), nil
}
