package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes used as the "result" label.
const (
	ResultOK       = "ok"
	ResultBlocked  = "blocked"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultReplayed = "replayed"
	ResultNoData   = "no_data"
)

var (
	// SurveySubmissions counts submission attempts by mode (genuine|test)
	// and result.
	SurveySubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Survey submission attempts by mode and result.",
		},
		[]string{"mode", "result"},
	)

	// DuplicatesBlocked counts submissions rejected because the device is
	// blocked. Status polls do not count.
	DuplicatesBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_duplicates_blocked_total",
			Help: "Submissions rejected because the device already submitted.",
		},
	)

	// SeedRecords counts generated test records by result (ok|error).
	SeedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_seed_records_total",
			Help: "Synthetic test records inserted by result.",
		},
		[]string{"result"},
	)

	// StatsLoads counts dashboard loads by result (ok|no_data|error).
	StatsLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_stats_loads_total",
			Help: "Statistics dashboard loads by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(SurveySubmissions, DuplicatesBlocked, SeedRecords, StatsLoads)
}

// Mode returns the "mode" label for a submission.
func Mode(test bool) string {
	if test {
		return "test"
	}
	return "genuine"
}
