// Package types provides type definitions for structured data used throughout the resume-screener system.
package types

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// Weights controls how much each section contributes to the overall score.
// Values are relative; they do not have to add up to 100.
type Weights struct {
	Skills     float64 `json:"skills" mapstructure:"skills" validate:"gte=0,finite"`
	Experience float64 `json:"experience" mapstructure:"experience" validate:"gte=0,finite"`
	Education  float64 `json:"education" mapstructure:"education" validate:"gte=0,finite"`
}

// DefaultWeights returns the 50/40/10 split used when the user does not pick one.
func DefaultWeights() Weights {
	return Weights{Skills: 50, Experience: 40, Education: 10}
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	return w.Skills + w.Experience + w.Education
}

// Percentages returns each weight as a whole percentage of the total.
// All three are zero when the total is zero.
func (w Weights) Percentages() (skills, experience, education int) {
	total := w.Total()
	if total <= 0 {
		return 0, 0, 0
	}
	pct := func(v float64) int {
		return int(v/total*100 + 0.5)
	}
	return pct(w.Skills), pct(w.Experience), pct(w.Education)
}

// Validate validates the Weights using the validator.
func (w *Weights) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("finite", isFinite); err != nil {
		return err
	}
	return validate.Struct(w)
}

// isFinite rejects infinities and NaN.
func isFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// AnalysisSection is the score and explanation for one evaluated area.
type AnalysisSection struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// AnalysisResult is the canonical, validated output of an analysis provider.
type AnalysisResult struct {
	CandidateName      string          `json:"candidateName"`
	OverallScore       float64         `json:"overallScore"`
	Summary            string          `json:"summary"`
	Strengths          []string        `json:"strengths"`
	Weaknesses         []string        `json:"weaknesses"`
	SkillsAnalysis     AnalysisSection `json:"skillsAnalysis"`
	ExperienceAnalysis AnalysisSection `json:"experienceAnalysis"`
	EducationAnalysis  AnalysisSection `json:"educationAnalysis"`
}

// StoredAnalysis is an AnalysisResult that has been given an identity and a place in history.
type StoredAnalysis struct {
	AnalysisResult
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"` // RFC 3339
	FileName  string   `json:"fileName"`
	Weights   *Weights `json:"weights,omitempty"`
}

// AnalyzeRequest is the input to a single analysis run.
type AnalyzeRequest struct {
	JobDescription string  `json:"jobDescription" validate:"required"`
	ResumeText     string  `json:"resumeText" validate:"required"`
	FileName       string  `json:"fileName,omitempty"`
	Weights        Weights `json:"weights"`
}
