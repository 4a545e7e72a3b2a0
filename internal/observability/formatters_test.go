package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
)

func sampleAnalysis() *types.StoredAnalysis {
	return &types.StoredAnalysis{
		AnalysisResult: types.AnalysisResult{
			CandidateName:      "Jane Doe",
			OverallScore:       88,
			Summary:            "Strong backend engineer with deep Go experience.",
			Strengths:          []string{"Go", "Distributed systems"},
			Weaknesses:         []string{"No formal degree"},
			SkillsAnalysis:     types.AnalysisSection{Score: 90},
			ExperienceAnalysis: types.AnalysisSection{Score: 85},
			EducationAnalysis:  types.AnalysisSection{Score: 60},
		},
		ID:        "local-1",
		Timestamp: "2026-03-01T10:15:30Z",
		FileName:  "jane.pdf",
	}
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(sampleAnalysis())
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "jane.pdf")
	assert.Contains(t, output, " 88")
	assert.Contains(t, output, "(50%)")
	assert.Contains(t, output, "(40%)")
	assert.Contains(t, output, "(10%)")
	assert.Contains(t, output, "+ Distributed systems")
	assert.Contains(t, output, "- No formal degree")
}

func TestPrintAnalysis_CustomWeights(t *testing.T) {
	a := sampleAnalysis()
	a.Weights = &types.Weights{Skills: 1, Experience: 1, Education: 2}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(a)

	assert.Contains(t, buf.String(), "(25%)")
	assert.Contains(t, buf.String(), "(50%)")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(nil)
	assert.Empty(t, buf.String())
}

func TestPrintAnalysis_LinesHaveBoxWidth(t *testing.T) {
	a := sampleAnalysis()
	a.Strengths = []string{strings.Repeat("very long strength ", 10)}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(a)

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestPrintHistory(t *testing.T) {
	first := *sampleAnalysis()
	second := *sampleAnalysis()
	second.ID = "local-2"
	second.CandidateName = ""
	second.FileName = "john.docx"

	var buf bytes.Buffer
	NewPrinter(&buf).PrintHistory([]types.StoredAnalysis{first, second}, "local-2")
	output := buf.String()

	assert.Contains(t, output, "2 saved analyses")
	assert.Contains(t, output, "2026-03-01 10:15")
	assert.Contains(t, output, "john.docx")
	assert.Contains(t, output, "* ")
	assert.Contains(t, output, "local-1")
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHistory(nil, "")
	assert.Equal(t, "No saved analyses.\n", buf.String())
}

func TestPrintStats(t *testing.T) {
	stats := types.Stats{
		TotalAnalyses:  2,
		AverageScore:   79,
		RecentAnalyses: []types.StoredAnalysis{*sampleAnalysis()},
		ScoreTrend:     []float64{88, 70},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintStats(stats)
	output := buf.String()

	assert.Contains(t, output, "Total analyses: 2")
	assert.Contains(t, output, "Average score:  79")
	assert.Contains(t, output, "Score trend")
	assert.Contains(t, output, "Jane Doe")
}

func TestPrintStats_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStats(types.Stats{})

	assert.Contains(t, buf.String(), "Total analyses: 0")
	assert.NotContains(t, buf.String(), "Average")
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", barWidth), ScoreBar(0))
	assert.Equal(t, strings.Repeat("█", barWidth), ScoreBar(100))
	assert.Equal(t, strings.Repeat("█", barWidth), ScoreBar(150))
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), ScoreBar(50))
}
