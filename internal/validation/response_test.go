package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeDoe = `{
	"candidateName": "Jane Doe",
	"overallScore": 88,
	"summary": "Strong match for the backend role.",
	"strengths": ["Go", "distributed systems"],
	"weaknesses": ["No Kubernetes"],
	"skillsAnalysis": {"score": 92, "details": "Covers the required stack."},
	"experienceAnalysis": {"score": 85, "details": "Eight years of backend work."},
	"educationAnalysis": {"score": 80, "details": "BSc in Computer Science."}
}`

func TestValidateResponse_Valid(t *testing.T) {
	result, err := ValidateResponse(janeDoe)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", result.CandidateName)
	assert.Equal(t, 88.0, result.OverallScore)
	assert.Equal(t, []string{"Go", "distributed systems"}, result.Strengths)
	assert.Equal(t, 92.0, result.SkillsAnalysis.Score)
	assert.Equal(t, "BSc in Computer Science.", result.EducationAnalysis.Details)
}

func TestValidateResponse_OptionalListsDefaultEmpty(t *testing.T) {
	raw := `{
		"candidateName": "Sam",
		"overallScore": 40,
		"skillsAnalysis": {"score": 40, "details": "a"},
		"experienceAnalysis": {"score": 40, "details": "b"},
		"educationAnalysis": {"score": 40, "details": "c"},
		"interviewQuestions": ["Why Go?"]
	}`
	result, err := ValidateResponse(raw)
	require.NoError(t, err)
	assert.NotNil(t, result.Strengths)
	assert.Empty(t, result.Strengths)
	assert.NotNil(t, result.Weaknesses)
}

func TestValidateResponse_Idempotent(t *testing.T) {
	first, err := ValidateResponse(janeDoe)
	require.NoError(t, err)

	data, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := ValidateResponse(string(data))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateResponse_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{name: "empty", raw: "  "},
		{name: "not json", raw: "The candidate looks great!"},
		{name: "truncated json", raw: `{"candidateName": "Jane"`},
		{name: "array instead of object", raw: `[1, 2]`, wantField: "(root)"},
		{
			name:      "blank candidate name",
			raw:       `{"candidateName": "", "overallScore": 50, "skillsAnalysis": {"score": 1, "details": "a"}, "experienceAnalysis": {"score": 1, "details": "a"}, "educationAnalysis": {"score": 1, "details": "a"}}`,
			wantField: "candidateName",
		},
		{
			name:      "overall score as string",
			raw:       `{"candidateName": "Jane", "overallScore": "85", "skillsAnalysis": {"score": 1, "details": "a"}, "experienceAnalysis": {"score": 1, "details": "a"}, "educationAnalysis": {"score": 1, "details": "a"}}`,
			wantField: "overallScore",
		},
		{
			name:      "missing section",
			raw:       `{"candidateName": "Jane", "overallScore": 85, "skillsAnalysis": {"score": 1, "details": "a"}, "experienceAnalysis": {"score": 1, "details": "a"}}`,
			wantField: "(root)",
		},
		{
			name:      "section missing score",
			raw:       `{"candidateName": "Jane", "overallScore": 85, "skillsAnalysis": {"details": "a"}, "experienceAnalysis": {"score": 1, "details": "a"}, "educationAnalysis": {"score": 1, "details": "a"}}`,
			wantField: "skillsAnalysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateResponse(tt.raw)
			assert.Nil(t, result)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Contains(t, verr.Error(), "invalid analysis response")
		})
	}
}
