package scoring

import (
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	recentLimit = 5
	trendLimit  = 10
)

// Summarize builds account statistics from records ordered newest first.
// The average is rounded to the nearest whole point.
func Summarize(records []types.StoredAnalysis) types.Stats {
	stats := types.Stats{
		TotalAnalyses:  len(records),
		RecentAnalyses: []types.StoredAnalysis{},
		ScoreTrend:     []float64{},
	}
	if len(records) == 0 {
		return stats
	}

	sum := 0.0
	for _, r := range records {
		sum += r.OverallScore
	}
	stats.AverageScore = int(math.Round(sum / float64(len(records))))

	stats.RecentAnalyses = append(stats.RecentAnalyses, records[:min(recentLimit, len(records))]...)
	for _, r := range records[:min(trendLimit, len(records))] {
		stats.ScoreTrend = append(stats.ScoreTrend, r.OverallScore)
	}
	return stats
}
