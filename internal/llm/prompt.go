package llm

import (
	"strconv"

	"github.com/jonathan/resume-screener/internal/prompts"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/jonathan/resume-screener/internal/validation"
)

const promptFile = "analysis.json"

// Prompt keys in analysis.json
const (
	promptAnalyze           = "analyze-resume"
	promptAnalyzeStrictJSON = "analyze-resume-strict-json"
	promptSystem            = "system-hr-assistant"
)

// BuildAnalysisPrompt renders the analysis prompt. The output depends only on its inputs.
// Both texts are quoted so that instructions inside them are read as content.
// strictJSON embeds the expected JSON shape for providers without schema-constrained output.
func BuildAnalysisPrompt(jobDescription, resumeText string, w types.Weights, strictJSON bool) (string, error) {
	skills, experience, education := w.Percentages()

	key := promptAnalyze
	if strictJSON {
		key = promptAnalyzeStrictJSON
	}
	return prompts.Render(promptFile, key, map[string]string{
		"JobDescription":   validation.QuoteContent("job description", jobDescription),
		"ResumeText":       validation.QuoteContent("resume", resumeText),
		"SkillsWeight":     strconv.Itoa(skills),
		"ExperienceWeight": strconv.Itoa(experience),
		"EducationWeight":  strconv.Itoa(education),
	})
}
