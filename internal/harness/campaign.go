package harness

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"peirama/internal/agent"
	"peirama/internal/results"
	"peirama/internal/scape"
	"peirama/internal/score"
	"peirama/internal/storage"
)

type CampaignConfig struct {
	// SourceID identifies the trained model under evaluation and tags every
	// record. A fresh UUID is assigned when empty.
	SourceID string
	// OutputDir receives the TSV artifact.
	OutputDir string
	Trials    int
	Trial     TrialParams
	// SkipRoundTripCheck disables read-after-write verification of
	// configuration writes.
	SkipRoundTripCheck bool
	// Store, when set, also persists the campaign and its records.
	Store storage.Store
}

// Campaign evaluates one policy on one environment instance under a
// perturbed configuration, across N trials, and persists the sampled scores.
// It exclusively owns the environment and its configuration channel for the
// duration of the run.
type Campaign struct {
	policy   agent.Policy
	tracker  *score.Tracker
	channel  scape.Configurable
	baseline scape.Config
	cfg      CampaignConfig
}

// NewCampaign verifies the configuration capability up front and captures
// the baseline configuration. An environment without the side channel aborts
// here, before any trial runs.
func NewCampaign(policy agent.Policy, tracker *score.Tracker, cfg CampaignConfig) (*Campaign, error) {
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("score tracker is required")
	}
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.Trials)
	}
	if err := cfg.Trial.validate(); err != nil {
		return nil, err
	}

	channel, err := scape.ConfigChannel(tracker.Scape())
	if err != nil {
		return nil, err
	}
	baseline, err := channel.ReadConfig()
	if err != nil {
		return nil, fmt.Errorf("read baseline config: %w", err)
	}
	if cfg.SourceID == "" {
		cfg.SourceID = uuid.NewString()
	}

	return &Campaign{
		policy:   policy,
		tracker:  tracker,
		channel:  channel,
		baseline: baseline,
		cfg:      cfg,
	}, nil
}

func (c *Campaign) SourceID() string {
	return c.cfg.SourceID
}

func (c *Campaign) Baseline() (scape.Config, error) {
	return c.baseline.Clone()
}

// Run executes the campaign for one variant: the variant configuration is
// written before every trial, the baseline is restored after every trial,
// and the accumulated buffer is flushed once at the end. On a fatal
// mid-campaign error nothing is flushed.
func (c *Campaign) Run(ctx context.Context, variantLabel string, variant scape.Config) (*results.Buffer, string, error) {
	if variantLabel == "" {
		return nil, "", fmt.Errorf("variant label is required")
	}

	buffer := results.NewBuffer()
	for trial := 0; trial < c.cfg.Trials; trial++ {
		if err := c.writeConfig(variant); err != nil {
			return nil, "", fmt.Errorf("trial %d: inject variant config: %w", trial, err)
		}

		samples, _, err := RunTrial(ctx, c.policy, c.tracker, c.cfg.Trial)
		if err != nil {
			return nil, "", fmt.Errorf("trial %d: %w", trial, err)
		}
		for _, sample := range samples {
			buffer.Append(results.Record{
				TrainedEnv: c.cfg.SourceID,
				Trial:      trial,
				Step:       sample.Step,
				Mvmt:       variantLabel,
				Score:      sample.Score,
			})
		}

		// Trial teardown: fresh episode, then baseline restore so no
		// configuration drift survives into later runs.
		if _, err := c.tracker.Reset(); err != nil {
			return nil, "", fmt.Errorf("trial %d: reset: %w", trial, err)
		}
		if err := c.writeConfig(c.baseline); err != nil {
			return nil, "", fmt.Errorf("trial %d: restore baseline config: %w", trial, err)
		}
	}

	artifactPath, err := c.persist(ctx, variantLabel, buffer)
	if err != nil {
		return nil, "", err
	}
	return buffer, artifactPath, nil
}

func (c *Campaign) writeConfig(doc scape.Config) error {
	if err := c.channel.WriteConfig(doc); err != nil {
		return err
	}
	if c.cfg.SkipRoundTripCheck {
		return nil
	}
	readBack, err := c.channel.ReadConfig()
	if err != nil {
		return fmt.Errorf("read back config: %w", err)
	}
	if diffs := doc.Diff(readBack); len(diffs) > 0 {
		return &scape.ConfigRoundTripError{
			ScapeName: c.tracker.Scape().Name(),
			Fields:    diffs,
		}
	}
	return nil
}

func (c *Campaign) persist(ctx context.Context, variantLabel string, buffer *results.Buffer) (string, error) {
	dir := c.cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	artifactPath := results.ArtifactPath(dir, c.tracker.Scape().Name(), variantLabel, c.cfg.SourceID)
	if err := buffer.WriteFile(artifactPath); err != nil {
		return "", fmt.Errorf("write results artifact: %w", err)
	}

	if c.cfg.Store != nil {
		rec := storage.CampaignRecord{
			SourceID:     c.cfg.SourceID,
			Scape:        c.tracker.Scape().Name(),
			Mvmt:         variantLabel,
			Trials:       c.cfg.Trials,
			MaxSteps:     c.cfg.Trial.MaxSteps,
			SamplePeriod: c.cfg.Trial.SamplePeriod,
			ArtifactPath: artifactPath,
			CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := c.cfg.Store.SaveCampaign(ctx, rec, buffer.Records()); err != nil {
			return "", fmt.Errorf("persist campaign: %w", err)
		}
	}
	return artifactPath, nil
}
