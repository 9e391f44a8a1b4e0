package results

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// VariantSummary aggregates one variant's trials: the score each trial ended
// on, its mean, sample standard deviation and standard error of the mean.
type VariantSummary struct {
	Mvmt        string
	Trials      int
	Samples     int
	MeanFinal   float64
	StdevFinal  float64
	SEMFinal    float64
	BestFinal   float64
	FinalScores []float64
}

// Summarize groups records by variant label and reduces each trial to its
// final sampled score. Records must be in insertion order.
func Summarize(records []Record) ([]VariantSummary, error) {
	type trialKey struct {
		mvmt  string
		trial int
	}

	finals := make(map[trialKey]float64)
	sampleCounts := make(map[string]int)
	trialOrder := make(map[string][]int)
	variantOrder := make([]string, 0)
	seenVariant := make(map[string]bool)

	for _, r := range records {
		key := trialKey{mvmt: r.Mvmt, trial: r.Trial}
		if _, seen := finals[key]; !seen {
			trialOrder[r.Mvmt] = append(trialOrder[r.Mvmt], r.Trial)
		}
		finals[key] = r.Score
		sampleCounts[r.Mvmt]++
		if !seenVariant[r.Mvmt] {
			seenVariant[r.Mvmt] = true
			variantOrder = append(variantOrder, r.Mvmt)
		}
	}

	summaries := make([]VariantSummary, 0, len(variantOrder))
	for _, mvmt := range variantOrder {
		trials := trialOrder[mvmt]
		sort.Ints(trials)
		scores := make([]float64, 0, len(trials))
		for _, trial := range trials {
			scores = append(scores, finals[trialKey{mvmt: mvmt, trial: trial}])
		}

		mean, err := stats.Mean(scores)
		if err != nil {
			return nil, fmt.Errorf("summarize variant %s: %w", mvmt, err)
		}
		best, err := stats.Max(scores)
		if err != nil {
			return nil, fmt.Errorf("summarize variant %s: %w", mvmt, err)
		}
		stdev := 0.0
		if len(scores) > 1 {
			stdev, err = stats.StandardDeviationSample(scores)
			if err != nil {
				return nil, fmt.Errorf("summarize variant %s: %w", mvmt, err)
			}
		}
		sem := 0.0
		if len(scores) > 1 {
			sem = stdev / math.Sqrt(float64(len(scores)))
		}

		summaries = append(summaries, VariantSummary{
			Mvmt:        mvmt,
			Trials:      len(trials),
			Samples:     sampleCounts[mvmt],
			MeanFinal:   mean,
			StdevFinal:  stdev,
			SEMFinal:    sem,
			BestFinal:   best,
			FinalScores: scores,
		})
	}
	return summaries, nil
}
