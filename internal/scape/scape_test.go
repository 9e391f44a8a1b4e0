package scape

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// bareScape has no configuration channel.
type bareScape struct{}

func (bareScape) Name() string                { return "bare" }
func (bareScape) Reset() (Observation, error) { return nil, nil }
func (bareScape) Step(context.Context, Action) (Observation, float64, bool, error) {
	return nil, 0, false, nil
}
func (bareScape) Lives() int { return 1 }
func (bareScape) Render()    {}

func TestConfigChannelRejectsUnconfigurableScape(t *testing.T) {
	_, err := ConfigChannel(bareScape{})
	if err == nil {
		t.Fatal("expected an error for a scape without a configuration channel")
	}

	var unsupported *UnsupportedScapeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type: got=%T want=*UnsupportedScapeError", err)
	}
	if unsupported.ScapeName != "bare" {
		t.Fatalf("scape name: got=%s want=bare", unsupported.ScapeName)
	}
}

func TestConfigChannelAcceptsAmidar(t *testing.T) {
	s, err := NewAmidarScape()
	if err != nil {
		t.Fatalf("NewAmidarScape: %v", err)
	}

	channel, err := ConfigChannel(s)
	if err != nil {
		t.Fatalf("ConfigChannel: %v", err)
	}
	if _, err := channel.ReadConfig(); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
}

func TestConfigRoundTripErrorMessage(t *testing.T) {
	err := &ConfigRoundTripError{
		ScapeName: "amidar",
		Fields: []FieldDiff{
			{Field: "enemies", Written: []any{}, Read: nil},
		},
	}
	msg := err.Error()
	if !strings.Contains(msg, "amidar") || !strings.Contains(msg, "enemies") {
		t.Fatalf("round-trip error must name the scape and the field, got %q", msg)
	}
}
