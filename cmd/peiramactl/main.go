package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"peirama/internal/agent"
	"peirama/internal/harness"
	"peirama/internal/results"
	"peirama/internal/scape"
	"peirama/internal/scapeid"
	"peirama/internal/score"
	"peirama/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "eval":
		return runEval(ctx, args[1:])
	case "envs":
		return runEnvs(args[1:])
	case "summary":
		return runSummary(args[1:])
	case "campaigns":
		return runCampaigns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: peiramactl <eval|envs|summary|campaigns> [flags] [key=value ...]", msg)
}

// ambientDefaults are process-environment fallbacks for flags that rarely
// change between invocations on one machine.
type ambientDefaults struct {
	OutputDir string `env:"PEIRAMA_OUT_DIR" envDefault:"results"`
	StoreKind string `env:"PEIRAMA_STORE"`
	DBPath    string `env:"PEIRAMA_DB_PATH" envDefault:"peirama.db"`
	Render    bool   `env:"PEIRAMA_RENDER"`
}

func loadAmbientDefaults() (ambientDefaults, error) {
	var defaults ambientDefaults
	if err := env.Parse(&defaults); err != nil {
		return ambientDefaults{}, fmt.Errorf("parse environment defaults: %w", err)
	}
	if defaults.StoreKind == "" {
		defaults.StoreKind = storage.DefaultStoreKind()
	}
	return defaults, nil
}

func runEval(ctx context.Context, args []string) error {
	defaults, err := loadAmbientDefaults()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	algName := fs.String("alg", "random", "policy algorithm: random|noop")
	envID := fs.String("env", "AmidarToyboxNoFrameskip-v4", "environment id or family name")
	numTimesteps := fs.Int("num-timesteps", 0, "training step budget (training runs in the external subsystem; recorded for provenance only)")
	variantName := fs.String("variant", "no-enemies", "configuration perturbation: no-enemies|single-life|baseline")
	trials := fs.Int("trials", 30, "trials per campaign")
	maxSteps := fs.Int("max-steps", 1000, "logical step budget per trial")
	samplePeriod := fs.Int("sample-period", 10, "record score every N logical steps")
	seed := fs.Int64("seed", 1, "rng seed for policy and frame-skip draws")
	frameskip := fs.Int("frameskip", 1, "low-level steps per logical step")
	frameskipLo := fs.Int("frameskip-lo", 0, "lower bound of a random frame-skip range (0 disables)")
	frameskipHi := fs.Int("frameskip-hi", 0, "exclusive upper bound of a random frame-skip range")
	render := fs.Bool("render", defaults.Render, "render each frame with an inter-step delay")
	stepDelayMS := fs.Int("step-delay-ms", 33, "inter-step delay when rendering, in milliseconds")
	sourceID := fs.String("source-id", "", "identifier of the trained model under evaluation (load_path); random UUID when empty")
	outDir := fs.String("out", defaults.OutputDir, "artifact output directory")
	storeKind := fs.String("store", defaults.StoreKind, "results store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaults.DBPath, "sqlite database path")
	skipVerify := fs.Bool("skip-config-verify", false, "disable read-after-write verification of config injection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := evalRequest{
		Alg:          *algName,
		EnvID:        *envID,
		NumTimesteps: *numTimesteps,
		Variant:      *variantName,
		Trials:       *trials,
		MaxSteps:     *maxSteps,
		SamplePeriod: *samplePeriod,
		Seed:         *seed,
		Frameskip:    *frameskip,
		FrameskipLo:  *frameskipLo,
		FrameskipHi:  *frameskipHi,
		Render:       *render,
		StepDelayMS:  *stepDelayMS,
		SourceID:     *sourceID,
	}
	if err := applyOverrides(&req, fs.Args()); err != nil {
		return err
	}

	registry := scapeid.DefaultRegistry()
	family, canonicalID, err := registry.Resolve(req.EnvID)
	if err != nil {
		return err
	}
	fmt.Printf("env_type: %s\n", family)

	target, err := buildScape(family, canonicalID)
	if err != nil {
		return err
	}

	policy, err := buildPolicy(req.Alg, req.Seed)
	if err != nil {
		return err
	}

	trackerCfg := score.TrackerConfig{Frameskip: req.Frameskip, Seed: req.Seed}
	if req.FrameskipLo > 0 {
		trackerCfg.FrameskipRange = &score.FrameskipRange{Lo: req.FrameskipLo, Hi: req.FrameskipHi}
	}
	tracker, err := score.NewTracker(target, trackerCfg)
	if err != nil {
		return err
	}

	var store storage.Store
	if *storeKind != "" {
		store, err = storage.NewStore(*storeKind, *dbPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = storage.CloseIfSupported(store)
		}()
		if err := store.Init(ctx); err != nil {
			return err
		}
	}

	campaign, err := harness.NewCampaign(policy, tracker, harness.CampaignConfig{
		SourceID:  req.SourceID,
		OutputDir: *outDir,
		Trials:    req.Trials,
		Trial: harness.TrialParams{
			MaxSteps:     req.MaxSteps,
			SamplePeriod: req.SamplePeriod,
			Render:       req.Render,
			StepDelay:    time.Duration(req.StepDelayMS) * time.Millisecond,
		},
		SkipRoundTripCheck: *skipVerify,
		Store:              store,
	})
	if err != nil {
		return err
	}

	label, variant, err := buildVariant(campaign, req.Variant)
	if err != nil {
		return err
	}

	fmt.Printf("Running %s\n", label)
	buffer, artifactPath, err := campaign.Run(ctx, label, variant)
	if err != nil {
		return err
	}

	fmt.Printf("campaign source_id=%s env=%s variant=%s trials=%d samples=%d artifact=%s\n",
		campaign.SourceID(), canonicalID, label, req.Trials, buffer.Len(), artifactPath)
	return printSummaries(buffer.Records())
}

func buildScape(family scapeid.Family, envID string) (scape.Scape, error) {
	if family != scapeid.FamilyToybox {
		return nil, fmt.Errorf("environment %s (family %s) has no in-process simulator; only the %s family is runnable", envID, family, scapeid.FamilyToybox)
	}
	switch envID {
	case "AmidarToyboxNoFrameskip-v4":
		s, err := scape.NewAmidarScape()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("environment %s is registered but not implemented", envID)
	}
}

func buildPolicy(alg string, seed int64) (agent.Policy, error) {
	switch alg {
	case "random":
		policy, err := agent.NewRandomPolicy("random", []scape.Action{
			scape.ActionNoop,
			scape.ActionUp,
			scape.ActionRight,
			scape.ActionLeft,
			scape.ActionDown,
		}, seed)
		if err != nil {
			return nil, err
		}
		return policy, nil
	case "noop":
		policy, err := agent.NewScriptedPolicy("noop", func(scape.Observation) scape.Action {
			return scape.ActionNoop
		})
		if err != nil {
			return nil, err
		}
		return policy, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s (trained policies load through the training subsystem)", alg)
	}
}

// buildVariant derives the perturbed configuration from the campaign's
// captured baseline.
func buildVariant(campaign *harness.Campaign, name string) (string, scape.Config, error) {
	variant, err := campaign.Baseline()
	if err != nil {
		return "", nil, fmt.Errorf("clone baseline config: %w", err)
	}
	switch name {
	case "no-enemies":
		variant["enemies"] = []any{}
		return "No Enemies", variant, nil
	case "single-life":
		variant["lives"] = 1
		return "Single Life", variant, nil
	case "baseline":
		return "Baseline", variant, nil
	default:
		return "", nil, fmt.Errorf("unsupported variant: %s", name)
	}
}

func runEnvs(args []string) error {
	fs := flag.NewFlagSet("envs", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry := scapeid.DefaultRegistry()
	for _, family := range registry.Families() {
		fmt.Printf("%s:\n", family)
		for _, id := range registry.Members(family) {
			fmt.Printf("  %s\n", id)
		}
	}
	return nil
}

func runSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	file := fs.String("file", "", "results artifact (TSV) to summarize")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("summary requires -file")
	}

	records, err := results.ReadFile(*file)
	if err != nil {
		return err
	}
	return printSummaries(records)
}

func runCampaigns(ctx context.Context, args []string) error {
	defaults, err := loadAmbientDefaults()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("campaigns", flag.ContinueOnError)
	storeKind := fs.String("store", defaults.StoreKind, "results store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaults.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	campaigns, err := store.ListCampaigns(ctx)
	if err != nil {
		return err
	}
	for _, rec := range campaigns {
		fmt.Printf("source_id=%s scape=%s variant=%s trials=%d max_steps=%d sample_period=%d artifact=%s created=%s\n",
			rec.SourceID, rec.Scape, rec.Mvmt, rec.Trials, rec.MaxSteps, rec.SamplePeriod, rec.ArtifactPath, rec.CreatedAtUTC)
	}
	return nil
}

func printSummaries(records []results.Record) error {
	summaries, err := results.Summarize(records)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		fmt.Printf("variant=%s trials=%d samples=%d mean_final=%.3f stdev_final=%.3f sem_final=%.3f best_final=%.3f\n",
			s.Mvmt, s.Trials, s.Samples, s.MeanFinal, s.StdevFinal, s.SEMFinal, s.BestFinal)
	}
	return nil
}
