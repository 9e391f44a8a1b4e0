package storage

import (
	"context"
	"sort"
	"sync"

	"peirama/internal/results"
)

type memoryEntry struct {
	rec     CampaignRecord
	records []results.Record
}

type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[campaignKey]memoryEntry
}

type campaignKey struct {
	sourceID string
	mvmt     string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.campaigns == nil {
		s.campaigns = make(map[campaignKey]memoryEntry)
	}
	return nil
}

func (s *MemoryStore) SaveCampaign(_ context.Context, rec CampaignRecord, records []results.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.campaigns == nil {
		s.campaigns = make(map[campaignKey]memoryEntry)
	}
	copied := make([]results.Record, len(records))
	copy(copied, records)
	s.campaigns[campaignKey{sourceID: rec.SourceID, mvmt: rec.Mvmt}] = memoryEntry{rec: rec, records: copied}
	return nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, sourceID, mvmt string) (CampaignRecord, []results.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.campaigns[campaignKey{sourceID: sourceID, mvmt: mvmt}]
	if !ok {
		return CampaignRecord{}, nil, false, nil
	}
	copied := make([]results.Record, len(entry.records))
	copy(copied, entry.records)
	return entry.rec, copied, true, nil
}

func (s *MemoryStore) ListCampaigns(_ context.Context) ([]CampaignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CampaignRecord, 0, len(s.campaigns))
	for _, entry := range s.campaigns {
		out = append(out, entry.rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID == out[j].SourceID {
			return out[i].Mvmt < out[j].Mvmt
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out, nil
}
