// Package stats aggregates validated survey records into the dashboard
// summary. It performs no I/O; callers fetch the records first and hand
// them over in the order they want ties in the mode to be resolved.
package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/ecodeclub/ekit/slice"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ErrNoData is returned by Compute for an empty record set.
var ErrNoData = errors.New("stats: no survey responses")

// Record is the aggregation input: one respondent and their parsed scores.
type Record struct {
	DeviceID string
	Scores   []int // len == domain.NumQuestions, values in [1,10]
}

// QuestionStats summarises the answers to a single question.
type QuestionStats struct {
	Index        int                  `json:"index"`
	Label        string               `json:"label"`
	Average      float64              `json:"average"`
	Median       int                  `json:"median"`
	Mode         int                  `json:"mode"`
	StdDev       float64              `json:"std_dev"`
	Distribution [domain.MaxScore]int `json:"distribution"`
}

// Summary is the full dashboard aggregate.
type Summary struct {
	TotalResponses    int             `json:"total_responses"`
	UniqueRespondents int             `json:"unique_respondents"`
	OverallAverage    float64         `json:"overall_average"`
	Questions         []QuestionStats `json:"questions"`
}

// FromResponses parses every record's answers. Records that fail
// validation are left out and counted in skipped.
func FromResponses(in []domain.SurveyResponse) (out []Record, skipped int) {
	out = make([]Record, 0, len(in))
	for _, r := range in {
		scores, err := r.Scores()
		if err != nil {
			skipped++
			continue
		}
		out = append(out, Record{DeviceID: r.DeviceID, Scores: scores})
	}
	return out, skipped
}

// Compute aggregates records. Averages, standard deviations and the overall
// average are rounded to two decimals; the overall average is the mean of
// each record's own mean.
func Compute(records []Record) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoData
	}

	devices := make(map[string]struct{}, len(records))
	var sumOfMeans float64
	for _, r := range records {
		devices[r.DeviceID] = struct{}{}
		sumOfMeans += mean(r.Scores)
	}

	qs := make([]QuestionStats, domain.NumQuestions)
	for i := range qs {
		col := slice.Map(records, func(_ int, r Record) int { return r.Scores[i] })
		qs[i] = question(i, col)
	}

	return Summary{
		TotalResponses:    len(records),
		UniqueRespondents: len(devices),
		OverallAverage:    round2(sumOfMeans / float64(len(records))),
		Questions:         qs,
	}, nil
}

func question(i int, scores []int) QuestionStats {
	avg := mean(scores)

	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	var variance float64
	for _, s := range scores {
		d := float64(s) - avg
		variance += d * d
	}
	variance /= float64(len(scores))

	qs := QuestionStats{
		Index:   i,
		Label:   domain.QuestionLabel(i),
		Average: round2(avg),
		Median:  sorted[len(sorted)/2],
		Mode:    Mode(scores),
		StdDev:  round2(math.Sqrt(variance)),
	}
	for _, s := range scores {
		if s >= domain.MinScore && s <= domain.MaxScore {
			qs.Distribution[s-1]++
		}
	}
	return qs
}

// Mode scans scores in order and keeps the current candidate unless a later
// value occurs strictly more often, so ties resolve to the earliest value.
// It returns 0 for an empty slice.
func Mode(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	freq := make(map[int]int, domain.MaxScore)
	for _, s := range scores {
		freq[s]++
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if freq[s] > freq[best] {
			best = s
		}
	}
	return best
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
