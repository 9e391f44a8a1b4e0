package score

import (
	"context"
	"fmt"
	"math/rand"

	"peirama/internal/scape"
)

// Info keys the tracker adds to every logical step.
const (
	InfoScore = "score"
	InfoLives = "lives"
)

type TrackerConfig struct {
	// Frameskip is the fixed number of low-level steps per logical step.
	// Ignored when FrameskipRange is set. Defaults to 1.
	Frameskip int
	// FrameskipRange, when non-nil, draws the per-step repeat count
	// uniformly from [Lo, Hi).
	FrameskipRange *FrameskipRange
	Seed           int64
}

type FrameskipRange struct {
	Lo int
	Hi int
}

// Tracker wraps a scape so that each logical step also reports the
// cumulative score since the last episode termination. The accumulator is
// declared state of the wrapper, bound to one environment instance.
type Tracker struct {
	scape     scape.Scape
	frameskip int
	skipRange *FrameskipRange
	rng       *rand.Rand
	acc       float64
}

func NewTracker(s scape.Scape, cfg TrackerConfig) (*Tracker, error) {
	if s == nil {
		return nil, fmt.Errorf("scape is required")
	}
	frameskip := cfg.Frameskip
	if frameskip == 0 {
		frameskip = 1
	}
	if frameskip < 1 {
		return nil, fmt.Errorf("frameskip must be at least 1, got %d", frameskip)
	}
	if cfg.FrameskipRange != nil {
		if cfg.FrameskipRange.Lo < 1 || cfg.FrameskipRange.Hi <= cfg.FrameskipRange.Lo {
			return nil, fmt.Errorf("frameskip range must satisfy 1 <= lo < hi, got [%d, %d)", cfg.FrameskipRange.Lo, cfg.FrameskipRange.Hi)
		}
	}
	return &Tracker{
		scape:     s,
		frameskip: frameskip,
		skipRange: cfg.FrameskipRange,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Reset starts a new episode on the underlying scape. The accumulator is not
// touched here: it resets exactly when the environment signals termination.
func (t *Tracker) Reset() (scape.Observation, error) {
	return t.scape.Reset()
}

// Step runs one logical step: the action repeats for the frame-skip count,
// rewards sum into one incremental reward, and the returned info reports the
// score as it stood before this step's reward is folded in. A terminal step
// therefore reports the pre-terminal cumulative score, not the post-reset
// zero.
func (t *Tracker) Step(ctx context.Context, action scape.Action) (scape.Observation, float64, bool, scape.Info, error) {
	repeats := t.frameskip
	if t.skipRange != nil {
		repeats = t.skipRange.Lo + t.rng.Intn(t.skipRange.Hi-t.skipRange.Lo)
	}

	var (
		obs    scape.Observation
		reward float64
		done   bool
	)
	for i := 0; i < repeats; i++ {
		stepObs, stepReward, stepDone, err := t.scape.Step(ctx, action)
		if err != nil {
			return nil, 0, false, nil, err
		}
		obs = stepObs
		reward += stepReward
		done = done || stepDone
	}

	score := t.acc
	if done {
		t.acc = 0.0
	} else {
		t.acc += reward
	}

	info := scape.Info{
		InfoScore: score,
		InfoLives: t.scape.Lives(),
	}
	return obs, reward, done, info, nil
}

func (t *Tracker) Lives() int {
	return t.scape.Lives()
}

func (t *Tracker) Render() {
	t.scape.Render()
}

func (t *Tracker) Scape() scape.Scape {
	return t.scape
}
