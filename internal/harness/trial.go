package harness

import (
	"context"
	"fmt"
	"time"

	"peirama/internal/agent"
	"peirama/internal/score"
)

type TrialParams struct {
	// MaxSteps bounds the logical steps in one trial.
	MaxSteps int
	// SamplePeriod is the sampling cadence; step 0 is always sampled.
	SamplePeriod int
	// Render draws each frame and pauses StepDelay for human observation.
	// Presentation only.
	Render    bool
	StepDelay time.Duration
}

func (p TrialParams) validate() error {
	if p.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", p.MaxSteps)
	}
	if p.SamplePeriod <= 0 {
		return fmt.Errorf("sample period must be positive, got %d", p.SamplePeriod)
	}
	return nil
}

// Sample is one recorded (step, score) point of a trial.
type Sample struct {
	Step  int
	Score float64
}

type TrialOutcome struct {
	Steps      int
	Terminated bool
	FinalScore float64
}

// RunTrial resets the environment and steps the policy against it until the
// step budget runs out or the trial terminates. Termination requires the
// environment's done signal on the last remaining life: a done with more
// lives left is a life loss and stepping continues past it.
func RunTrial(ctx context.Context, policy agent.Policy, tracker *score.Tracker, params TrialParams) ([]Sample, TrialOutcome, error) {
	if err := params.validate(); err != nil {
		return nil, TrialOutcome{}, err
	}

	obs, err := tracker.Reset()
	if err != nil {
		return nil, TrialOutcome{}, fmt.Errorf("reset: %w", err)
	}

	samples := make([]Sample, 0, params.MaxSteps/params.SamplePeriod+1)
	outcome := TrialOutcome{}

	for outcome.Steps < params.MaxSteps && !outcome.Terminated {
		if err := ctx.Err(); err != nil {
			return nil, TrialOutcome{}, err
		}

		action, err := policy.SelectAction(obs)
		if err != nil {
			return nil, TrialOutcome{}, fmt.Errorf("select action at step %d: %w", outcome.Steps, err)
		}

		numLives := tracker.Lives()
		stepObs, _, done, info, err := tracker.Step(ctx, action)
		if err != nil {
			return nil, TrialOutcome{}, fmt.Errorf("step %d: %w", outcome.Steps, err)
		}
		obs = stepObs

		if params.Render {
			tracker.Render()
			if params.StepDelay > 0 {
				time.Sleep(params.StepDelay)
			}
		}

		outcome.Terminated = done && numLives == 1

		scoreValue, err := scoreFromInfo(info)
		if err != nil {
			return nil, TrialOutcome{}, fmt.Errorf("step %d: %w", outcome.Steps, err)
		}
		outcome.FinalScore = scoreValue

		if outcome.Steps%params.SamplePeriod == 0 {
			samples = append(samples, Sample{Step: outcome.Steps, Score: scoreValue})
		}
		outcome.Steps++
	}

	return samples, outcome, nil
}

func scoreFromInfo(info map[string]any) (float64, error) {
	raw, ok := info[score.InfoScore]
	if !ok {
		return 0, fmt.Errorf("step info is missing the %s key", score.InfoScore)
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("step info %s has type %T, want float64", score.InfoScore, raw)
	}
	return value, nil
}
