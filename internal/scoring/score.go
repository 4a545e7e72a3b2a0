// Package scoring implements the weighted overall score and the policies that reconcile it
// with the score reported by an analysis provider.
package scoring

import (
	"fmt"
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

// Score bounds
const (
	MinScore = 0
	MaxScore = 100
)

// ComputeOverallScore returns round(Σ score·weight / Σ weight), clamped to [0,100].
// Negative weights count as zero; when every weight is zero the result is 0.
func ComputeOverallScore(skills, experience, education float64, w types.Weights) int {
	ws := nonNegative(w.Skills)
	we := nonNegative(w.Experience)
	wd := nonNegative(w.Education)

	total := ws + we + wd
	if total == 0 {
		return 0
	}

	weighted := (skills*ws + experience*we + education*wd) / total
	return clamp(int(math.Round(weighted)))
}

// ComputeForResult applies ComputeOverallScore to the section scores of a result.
func ComputeForResult(r *types.AnalysisResult, w types.Weights) int {
	return ComputeOverallScore(
		r.SkillsAnalysis.Score,
		r.ExperienceAnalysis.Score,
		r.EducationAnalysis.Score,
		w,
	)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Policy decides what happens to the provider-reported overall score.
type Policy string

const (
	// PolicyTrust keeps the provider's overall score as reported.
	PolicyTrust Policy = "trust"
	// PolicyRecompute replaces the provider's overall score with the weighted formula.
	PolicyRecompute Policy = "recompute"
	// PolicyReject fails the analysis when the provider's score deviates beyond the tolerance.
	PolicyReject Policy = "reject"
)

// DefaultTolerance is the allowed deviation, in points, under PolicyReject.
const DefaultTolerance = 1.0

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyTrust, PolicyRecompute, PolicyReject:
		return Policy(s), nil
	case "":
		return PolicyTrust, nil
	default:
		return "", fmt.Errorf("unknown score policy %q (expected trust, recompute or reject)", s)
	}
}

// ScoreMismatchError is returned under PolicyReject when the reported score is off.
type ScoreMismatchError struct {
	Reported  float64
	Computed  int
	Tolerance float64
}

func (e *ScoreMismatchError) Error() string {
	return fmt.Sprintf("overall score %.1f deviates from weighted score %d by more than %.1f points",
		e.Reported, e.Computed, e.Tolerance)
}

// Reconciler applies a Policy to validated results.
type Reconciler struct {
	Policy    Policy
	Tolerance float64
}

// NewReconciler creates a Reconciler. A non-positive tolerance falls back to DefaultTolerance.
func NewReconciler(policy Policy, tolerance float64) *Reconciler {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if policy == "" {
		policy = PolicyTrust
	}
	return &Reconciler{Policy: policy, Tolerance: tolerance}
}

// Apply reconciles r.OverallScore in place according to the policy.
func (rc *Reconciler) Apply(r *types.AnalysisResult, w types.Weights) error {
	if rc == nil {
		return nil
	}
	switch rc.Policy {
	case PolicyRecompute:
		r.OverallScore = float64(ComputeForResult(r, w))
	case PolicyReject:
		computed := ComputeForResult(r, w)
		if math.Abs(r.OverallScore-float64(computed)) > rc.Tolerance {
			return &ScoreMismatchError{Reported: r.OverallScore, Computed: computed, Tolerance: rc.Tolerance}
		}
	}
	return nil
}
