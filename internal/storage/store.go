package storage

import (
	"context"

	"peirama/internal/results"
)

// CampaignRecord describes one persisted evaluation campaign.
type CampaignRecord struct {
	SourceID     string `json:"source_id"`
	Scape        string `json:"scape"`
	Mvmt         string `json:"mvmt"`
	Trials       int    `json:"trials"`
	MaxSteps     int    `json:"max_steps"`
	SamplePeriod int    `json:"sample_period"`
	ArtifactPath string `json:"artifact_path"`
	CreatedAtUTC string `json:"created_at_utc"`
}

// Store persists campaigns and their sampled score records. A campaign is
// keyed by (source id, variant label); re-saving overwrites.
type Store interface {
	Init(ctx context.Context) error
	SaveCampaign(ctx context.Context, rec CampaignRecord, records []results.Record) error
	GetCampaign(ctx context.Context, sourceID, mvmt string) (CampaignRecord, []results.Record, bool, error)
	ListCampaigns(ctx context.Context) ([]CampaignRecord, error)
}
