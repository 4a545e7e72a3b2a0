package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/resume-screener/internal/fetch"
	"github.com/jonathan/resume-screener/internal/history"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// AnalyzeRequest is the body of POST /analyses. Either JobDescription or
// JobURL must be set.
type AnalyzeRequest struct {
	JobDescription string         `json:"jobDescription"`
	JobURL         string         `json:"jobUrl,omitempty"`
	ResumeText     string         `json:"resumeText"`
	FileName       string         `json:"fileName,omitempty"`
	Weights        *types.Weights `json:"weights,omitempty"`
}

// AnalyzeResponse is returned by both analysis endpoints.
type AnalyzeResponse struct {
	Analysis types.StoredAnalysis `json:"analysis"`
	Job      *ingestion.Metadata  `json:"job,omitempty"` // set when the job came from a URL
}

// handleAnalyze runs an analysis on text sent as JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.analyze(w, r, req)
}

// handleAnalyzeUpload runs an analysis on an uploaded resume file. The form
// carries the file as "resume", the job as "jobDescription" or "jobUrl", and
// optional "skills", "experience" and "education" weights.
func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "The uploaded file is too large.")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "A resume file is required in the \"resume\" field.")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, ingestion.MaxDocumentBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "The uploaded file could not be read.")
		return
	}
	resumeText, err := ingestion.ExtractText(header.Filename, data)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	weights, err := formWeights(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s.analyze(w, r, AnalyzeRequest{
		JobDescription: r.FormValue("jobDescription"),
		JobURL:         r.FormValue("jobUrl"),
		ResumeText:     resumeText,
		FileName:       header.Filename,
		Weights:        weights,
	})
}

// formWeights reads the optional weight fields. All three must be given together.
func formWeights(r *http.Request) (*types.Weights, error) {
	names := []string{"skills", "experience", "education"}
	values := make([]float64, 0, len(names))
	for _, name := range names {
		raw := strings.TrimSpace(r.FormValue(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("weight " + name + " must be a number")
		}
		values = append(values, v)
	}
	switch len(values) {
	case 0:
		return nil, nil
	case len(names):
		return &types.Weights{Skills: values[0], Experience: values[1], Education: values[2]}, nil
	default:
		return nil, errors.New("weights skills, experience and education must be given together")
	}
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, req AnalyzeRequest) {
	jobDescription, meta, err := s.resolveJob(r.Context(), req)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetch.ValidateURL(req.JobURL) != nil {
			s.errorResponse(w, http.StatusBadRequest, "jobUrl must be an http or https URL")
			return
		}
		s.failure(w, r, err)
		return
	}

	weights := *s.cfg.Weights
	if req.Weights != nil {
		weights = *req.Weights
	}

	rec, err := s.deps.Analyzer.Submit(r.Context(), history.SubmitRequest{
		JobDescription: jobDescription,
		ResumeText:     req.ResumeText,
		Weights:        weights,
		FileName:       req.FileName,
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.logger.Info("analysis completed",
		zap.String("id", rec.ID),
		zap.Float64("overall_score", rec.OverallScore))
	s.jsonResponse(w, http.StatusCreated, AnalyzeResponse{Analysis: rec, Job: meta})
}

// resolveJob returns the job description, downloading it when only a URL was given.
func (s *Server) resolveJob(ctx context.Context, req AnalyzeRequest) (string, *ingestion.Metadata, error) {
	if strings.TrimSpace(req.JobDescription) != "" || req.JobURL == "" {
		return req.JobDescription, nil, nil
	}
	if s.deps.Jobs == nil {
		return "", nil, &history.InputError{Field: "jobDescription", Message: "is required (fetching job URLs is not enabled)"}
	}
	return s.deps.Jobs.FetchJobDescription(ctx, req.JobURL)
}
