package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: `Sends the resume and the job description to the configured provider, checks the
result and saves it to your history.

The job comes from --job (a text file), --job-text or --job-url. The resume may be a
.txt, .md, .html, .docx or .pdf file. Weights default to the configured ones and
must be given all together.`,
	RunE: runAnalyze,
}

var (
	analyzeJob        string
	analyzeJobText    string
	analyzeJobURL     string
	analyzeResume     string
	analyzeSkills     float64
	analyzeExperience float64
	analyzeEducation  float64
	analyzeTimeout    time.Duration
	analyzeJSON       bool
)

func init() {
	analyzeCommand.Flags().StringVarP(&analyzeJob, "job", "j", "", "Path to a job description file")
	analyzeCommand.Flags().StringVar(&analyzeJobText, "job-text", "", "Job description text")
	analyzeCommand.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL of a job posting to download")
	analyzeCommand.Flags().StringVarP(&analyzeResume, "resume", "r", "", "Path to the resume file (required)")
	analyzeCommand.Flags().Float64Var(&analyzeSkills, "skills", 0, "Skills weight")
	analyzeCommand.Flags().Float64Var(&analyzeExperience, "experience", 0, "Experience weight")
	analyzeCommand.Flags().Float64Var(&analyzeEducation, "education", 0, "Education weight")
	analyzeCommand.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "Maximum time to wait for the provider")
	analyzeCommand.Flags().BoolVar(&analyzeJSON, "json", false, "Print the saved analysis as JSON")

	_ = analyzeCommand.MarkFlagRequired("resume")
	analyzeCommand.MarkFlagsMutuallyExclusive("job", "job-text", "job-url")
	analyzeCommand.MarkFlagsRequiredTogether("skills", "experience", "education")

	rootCmd.AddCommand(analyzeCommand)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireProvider(); err != nil {
		return err
	}

	resumeText, err := ingestion.ReadFile(analyzeResume)
	if err != nil {
		return err
	}

	job, err := resolveJob(ctx, a, analyzeJob, analyzeJobText, analyzeJobURL)
	if err != nil {
		return err
	}

	weights := a.cfg.Weights
	if cmd.Flags().Changed("skills") {
		weights = types.Weights{Skills: analyzeSkills, Experience: analyzeExperience, Education: analyzeEducation}
	}

	a.logger.Debug("inputs loaded",
		zap.String("resume_path", analyzeResume),
		logger.TextSize("job", job),
		logger.TextSize("resume", resumeText))

	saved, err := a.coord.Submit(ctx, history.SubmitRequest{
		JobDescription: job,
		ResumeText:     resumeText,
		Weights:        weights,
		FileName:       filepath.Base(analyzeResume),
	})
	if err != nil {
		a.logger.Debug("analysis failed", zap.Error(err))
		return err
	}

	if analyzeJSON {
		return writeJSON(cmd, saved)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintAnalysis(&saved)
	return nil
}

// resolveJob returns the job description from whichever source was given.
func resolveJob(ctx context.Context, a *app, path, text, url string) (string, error) {
	switch {
	case url != "":
		job, meta, err := a.jobs.FetchJobDescription(ctx, url)
		if err != nil {
			return "", err
		}
		a.logger.Info("fetched job posting",
			zap.String("url", meta.URL),
			zap.String("platform", meta.Platform),
			zap.Bool("from_cache", meta.FromCache))
		return job, nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read job file: %w", err)
		}
		return ingestion.CleanText(string(data)), nil
	default:
		return strings.TrimSpace(text), nil
	}
}
