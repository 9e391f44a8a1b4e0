package harness

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"peirama/internal/agent"
	"peirama/internal/results"
	"peirama/internal/scape"
	"peirama/internal/score"
	"peirama/internal/storage"
)

// fakeScape is a deterministic configurable environment for harness tests.
// Every step pays one point; the call indices in doneSteps fire the done
// signal once each and cost a life, so a later episode runs past a step
// index that ended an earlier one.
type fakeScape struct {
	cfg       scape.Config
	lives     int
	calls     int
	doneSteps map[int]bool
	// episodeSteps records, per Reset, how many steps the previous episode
	// ran.
	episodeSteps []int

	writes []scape.Config
	// dropField, when set, is omitted from every ReadConfig after the first
	// write, simulating a simulator that silently rejects part of a config.
	dropField string
	wrote     bool
}

func newFakeScape(lives int, doneSteps ...int) *fakeScape {
	done := make(map[int]bool, len(doneSteps))
	for _, s := range doneSteps {
		done[s] = true
	}
	return &fakeScape{
		cfg: scape.Config{
			"enemies": []any{map[string]any{"route": []any{1, 2}}},
			"lives":   lives,
		},
		lives:     lives,
		doneSteps: done,
	}
}

func (f *fakeScape) Name() string { return "fake" }

func (f *fakeScape) Reset() (scape.Observation, error) {
	f.episodeSteps = append(f.episodeSteps, f.calls)
	f.calls = 0
	f.lives, _ = f.cfg["lives"].(int)
	return scape.Observation{0}, nil
}

func (f *fakeScape) Step(context.Context, scape.Action) (scape.Observation, float64, bool, error) {
	done := f.doneSteps[f.calls]
	if done {
		delete(f.doneSteps, f.calls)
		f.lives--
	}
	f.calls++
	return scape.Observation{float64(f.calls)}, 1, done, nil
}

func (f *fakeScape) Lives() int { return f.lives }
func (f *fakeScape) Render()    {}

func (f *fakeScape) ReadConfig() (scape.Config, error) {
	doc, err := f.cfg.Clone()
	if err != nil {
		return nil, err
	}
	if f.wrote && f.dropField != "" {
		delete(doc, f.dropField)
	}
	return doc, nil
}

func (f *fakeScape) WriteConfig(doc scape.Config) error {
	clone, err := doc.Clone()
	if err != nil {
		return err
	}
	if lives, ok := clone["lives"].(float64); ok {
		clone["lives"] = int(lives)
	}
	f.writes = append(f.writes, clone)
	f.cfg = clone
	f.wrote = true
	return nil
}

func noopPolicy(t *testing.T) agent.Policy {
	t.Helper()
	policy, err := agent.NewScriptedPolicy("noop", func(scape.Observation) scape.Action {
		return scape.ActionNoop
	})
	if err != nil {
		t.Fatalf("NewScriptedPolicy: %v", err)
	}
	return policy
}

func newFakeTracker(t *testing.T, s scape.Scape) *score.Tracker {
	t.Helper()
	tracker, err := score.NewTracker(s, score.TrackerConfig{})
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tracker
}

func TestRunTrialSamplesOnPeriodIncludingStepZero(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(1))
	params := TrialParams{MaxSteps: 25, SamplePeriod: 10}

	samples, outcome, err := RunTrial(context.Background(), noopPolicy(t), tracker, params)
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if outcome.Terminated {
		t.Fatal("trial must run out the step budget without a done signal")
	}
	if outcome.Steps != 25 {
		t.Fatalf("steps: got=%d want=25", outcome.Steps)
	}
	if len(samples) != 3 {
		t.Fatalf("sample count: got=%d want=3", len(samples))
	}
	for i, wantStep := range []int{0, 10, 20} {
		if samples[i].Step != wantStep {
			t.Fatalf("sample %d step: got=%d want=%d", i, samples[i].Step, wantStep)
		}
		if samples[i].Score != float64(wantStep) {
			t.Fatalf("sample %d score: got=%v want=%v", i, samples[i].Score, float64(wantStep))
		}
	}
}

func TestRunTrialContinuesPastLifeLoss(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(3, 5, 12, 19))
	params := TrialParams{MaxSteps: 25, SamplePeriod: 10}

	_, outcome, err := RunTrial(context.Background(), noopPolicy(t), tracker, params)
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	// Dones at steps 5 and 12 are life losses; only the done on the last
	// remaining life ends the trial.
	if !outcome.Terminated {
		t.Fatal("trial must terminate on the last-life done")
	}
	if outcome.Steps != 20 {
		t.Fatalf("steps: got=%d want=20", outcome.Steps)
	}
}

func TestRunTrialTerminatesOnLastLife(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(1, 22))
	params := TrialParams{MaxSteps: 25, SamplePeriod: 10}

	samples, outcome, err := RunTrial(context.Background(), noopPolicy(t), tracker, params)
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if !outcome.Terminated {
		t.Fatal("expected termination at the done step")
	}
	if outcome.Steps != 23 {
		t.Fatalf("steps: got=%d want=23", outcome.Steps)
	}
	if len(samples) != 3 {
		t.Fatalf("sample count: got=%d want=3", len(samples))
	}
}

func TestRunTrialValidatesParams(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(1))
	if _, _, err := RunTrial(context.Background(), noopPolicy(t), tracker, TrialParams{MaxSteps: 0, SamplePeriod: 10}); err == nil {
		t.Fatal("expected an error for a zero step budget")
	}
	if _, _, err := RunTrial(context.Background(), noopPolicy(t), tracker, TrialParams{MaxSteps: 10, SamplePeriod: 0}); err == nil {
		t.Fatal("expected an error for a zero sample period")
	}
}

func TestRunTrialHonorsContextCancellation(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := RunTrial(ctx, noopPolicy(t), tracker, TrialParams{MaxSteps: 10, SamplePeriod: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got=%v want=context.Canceled", err)
	}
}

func TestCampaignRunEndToEnd(t *testing.T) {
	fake := newFakeScape(1, 22)
	tracker := newFakeTracker(t, fake)
	store := storage.NewMemoryStore()

	campaign, err := NewCampaign(noopPolicy(t), tracker, CampaignConfig{
		SourceID:  "model7",
		OutputDir: t.TempDir(),
		Trials:    2,
		Trial:     TrialParams{MaxSteps: 25, SamplePeriod: 10},
		Store:     store,
	})
	if err != nil {
		t.Fatalf("NewCampaign: %v", err)
	}

	variant, err := campaign.Baseline()
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	variant["enemies"] = []any{}

	ctx := context.Background()
	buffer, artifactPath, err := campaign.Run(ctx, "No Enemies", variant)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	records := buffer.Records()
	if len(records) != 6 {
		t.Fatalf("record count: got=%d want=6", len(records))
	}
	trialsSeen := make(map[int]int)
	for _, r := range records {
		if r.TrainedEnv != "model7" {
			t.Fatalf("trained_env: got=%s want=model7", r.TrainedEnv)
		}
		if r.Mvmt != "No Enemies" {
			t.Fatalf("mvmt: got=%s want=No Enemies", r.Mvmt)
		}
		trialsSeen[r.Trial]++
	}
	if len(trialsSeen) != 2 || trialsSeen[0] != 3 || trialsSeen[1] != 3 {
		t.Fatalf("per-trial samples: got=%v want 3 each for trials 0 and 1", trialsSeen)
	}

	// The single scheduled done ends trial 0 at step 22; trial 1 runs out
	// the budget. Episode lengths surface in the reset history: each trial
	// contributes a trial-start reset and a teardown reset.
	wantEpisodes := []int{0, 23, 0, 25}
	if !reflect.DeepEqual(fake.episodeSteps, wantEpisodes) {
		t.Fatalf("episode step counts: got=%v want=%v", fake.episodeSteps, wantEpisodes)
	}

	// Variant written before each trial, baseline restored after each.
	if len(fake.writes) != 4 {
		t.Fatalf("config writes: got=%d want=4", len(fake.writes))
	}
	for i, write := range fake.writes {
		enemies, _ := write["enemies"].([]any)
		wantVariant := i%2 == 0
		if wantVariant && len(enemies) != 0 {
			t.Fatalf("write %d: expected the variant (no enemies), got %v", i, write)
		}
		if !wantVariant && len(enemies) == 0 {
			t.Fatalf("write %d: expected the baseline restore, got %v", i, write)
		}
	}

	fromDisk, err := results.ReadFile(artifactPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(fromDisk) != len(records) {
		t.Fatalf("artifact record count: got=%d want=%d", len(fromDisk), len(records))
	}

	_, stored, found, err := store.GetCampaign(ctx, "model7", "No Enemies")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if !found {
		t.Fatal("campaign must be persisted to the store")
	}
	if len(stored) != len(records) {
		t.Fatalf("stored record count: got=%d want=%d", len(stored), len(records))
	}
}

func TestNewCampaignRejectsUnconfigurableScape(t *testing.T) {
	tracker := newFakeTracker(t, plainScape{})
	_, err := NewCampaign(noopPolicy(t), tracker, CampaignConfig{
		Trials: 1,
		Trial:  TrialParams{MaxSteps: 10, SamplePeriod: 5},
	})
	if err == nil {
		t.Fatal("expected an error for a scape without a configuration channel")
	}
	var unsupported *scape.UnsupportedScapeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type: got=%T want=*scape.UnsupportedScapeError", err)
	}
}

// plainScape has no configuration channel.
type plainScape struct{}

func (plainScape) Name() string                      { return "plain" }
func (plainScape) Reset() (scape.Observation, error) { return scape.Observation{0}, nil }
func (plainScape) Step(context.Context, scape.Action) (scape.Observation, float64, bool, error) {
	return scape.Observation{0}, 0, false, nil
}
func (plainScape) Lives() int { return 1 }
func (plainScape) Render()    {}

func TestCampaignDetectsConfigRoundTripFailure(t *testing.T) {
	fake := newFakeScape(1)
	fake.dropField = "enemies"
	tracker := newFakeTracker(t, fake)

	campaign, err := NewCampaign(noopPolicy(t), tracker, CampaignConfig{
		SourceID:  "model7",
		OutputDir: t.TempDir(),
		Trials:    1,
		Trial:     TrialParams{MaxSteps: 10, SamplePeriod: 5},
	})
	if err != nil {
		t.Fatalf("NewCampaign: %v", err)
	}

	variant, err := campaign.Baseline()
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	variant["enemies"] = []any{}

	_, _, err = campaign.Run(context.Background(), "No Enemies", variant)
	var roundTrip *scape.ConfigRoundTripError
	if !errors.As(err, &roundTrip) {
		t.Fatalf("error type: got=%T (%v) want=*scape.ConfigRoundTripError", err, err)
	}
	if len(roundTrip.Fields) == 0 || roundTrip.Fields[0].Field != "enemies" {
		t.Fatalf("diff fields: got=%v want enemies", roundTrip.Fields)
	}
}

func TestCampaignSkipRoundTripCheck(t *testing.T) {
	fake := newFakeScape(1)
	fake.dropField = "enemies"
	tracker := newFakeTracker(t, fake)

	campaign, err := NewCampaign(noopPolicy(t), tracker, CampaignConfig{
		SourceID:           "model7",
		OutputDir:          t.TempDir(),
		Trials:             1,
		Trial:              TrialParams{MaxSteps: 10, SamplePeriod: 5},
		SkipRoundTripCheck: true,
	})
	if err != nil {
		t.Fatalf("NewCampaign: %v", err)
	}

	variant, err := campaign.Baseline()
	if err != nil {
		t.Fatalf("Baseline: %v", err)
	}
	if _, _, err := campaign.Run(context.Background(), "No Enemies", variant); err != nil {
		t.Fatalf("Run with verification disabled: %v", err)
	}
}

func TestNewCampaignAssignsSourceID(t *testing.T) {
	tracker := newFakeTracker(t, newFakeScape(1))
	campaign, err := NewCampaign(noopPolicy(t), tracker, CampaignConfig{
		Trials: 1,
		Trial:  TrialParams{MaxSteps: 10, SamplePeriod: 5},
	})
	if err != nil {
		t.Fatalf("NewCampaign: %v", err)
	}
	if campaign.SourceID() == "" {
		t.Fatal("an empty source id must be replaced with a generated one")
	}
}
