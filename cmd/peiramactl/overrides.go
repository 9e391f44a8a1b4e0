package main

import (
	"fmt"
	"strconv"
	"strings"
)

// evalRequest is the fully resolved shape of one eval invocation: flag
// values first, then trailing key=value overrides on top.
type evalRequest struct {
	Alg          string
	EnvID        string
	NumTimesteps int
	Variant      string
	Trials       int
	MaxSteps     int
	SamplePeriod int
	Seed         int64
	Frameskip    int
	FrameskipLo  int
	FrameskipHi  int
	Render       bool
	StepDelayMS  int
	SourceID     string
}

// applyOverrides folds trailing key=value arguments into the request. The
// key set is closed: an unknown key is an error, never a silent passthrough.
func applyOverrides(req *evalRequest, args []string) error {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return fmt.Errorf("malformed override %q, want key=value", arg)
		}

		var err error
		switch key {
		case "alg":
			req.Alg = value
		case "env":
			req.EnvID = value
		case "variant":
			req.Variant = value
		case "load_path":
			req.SourceID = value
		case "num_timesteps":
			req.NumTimesteps, err = overrideInt(key, value)
		case "n_trials":
			req.Trials, err = overrideInt(key, value)
		case "max_steps":
			req.MaxSteps, err = overrideInt(key, value)
		case "record_period":
			req.SamplePeriod, err = overrideInt(key, value)
		case "seed":
			req.Seed, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				err = fmt.Errorf("override %s: %q is not an integer", key, value)
			}
		case "frameskip":
			req.Frameskip, err = overrideInt(key, value)
		case "frameskip_lo":
			req.FrameskipLo, err = overrideInt(key, value)
		case "frameskip_hi":
			req.FrameskipHi, err = overrideInt(key, value)
		case "render":
			req.Render, err = overrideBool(key, value)
		case "step_delay_ms":
			req.StepDelayMS, err = overrideInt(key, value)
		default:
			return fmt.Errorf("unknown override key %q", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func overrideInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("override %s: %q is not an integer", key, value)
	}
	return n, nil
}

func overrideBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("override %s: %q is not a boolean", key, value)
	}
	return b, nil
}
