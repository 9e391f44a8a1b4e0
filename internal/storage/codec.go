package storage

import (
	"encoding/json"
	"fmt"

	"peirama/internal/results"
)

type recordPayload struct {
	TrainedEnv string  `json:"trained_env"`
	Trial      int     `json:"trial"`
	Step       int     `json:"step"`
	Mvmt       string  `json:"mvmt"`
	Score      float64 `json:"score"`
}

// EncodeRecords serializes sampled records for blob storage.
func EncodeRecords(records []results.Record) ([]byte, error) {
	payload := make([]recordPayload, 0, len(records))
	for _, r := range records {
		payload = append(payload, recordPayload(r))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

func DecodeRecords(data []byte) ([]results.Record, error) {
	var payload []recordPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	records := make([]results.Record, 0, len(payload))
	for _, p := range payload {
		records = append(records, results.Record(p))
	}
	return records, nil
}
