package db

import (
	"time"

	"github.com/google/uuid"
)

// User is an account able to sign in with a password
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile holds display details for a user (table user_profiles)
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileFields is a partial profile update; nil fields keep their stored value
type ProfileFields struct {
	FullName  *string
	AvatarURL *string
	Company   *string
	Role      *string
}

// Section is a scored analysis area stored as JSONB
type Section struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// Weights are the scoring weights stored with each analysis as JSONB
type Weights struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
}

// AnalysisResult is a row of analysis_results
type AnalysisResult struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	JobDescription     string    `json:"job_description"`
	ResumeText         string    `json:"resume_text"`
	CandidateName      string    `json:"candidate_name"`
	OverallScore       float64   `json:"overall_score"`
	Summary            string    `json:"summary"`
	Strengths          []string  `json:"strengths"`
	Weaknesses         []string  `json:"weaknesses"`
	SkillsAnalysis     Section   `json:"skills_analysis"`
	ExperienceAnalysis Section   `json:"experience_analysis"`
	EducationAnalysis  Section   `json:"education_analysis"`
	Weights            Weights   `json:"weights"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AnalysisStats aggregates a user's saved analyses
type AnalysisStats struct {
	Total   int
	Average int
	Recent  []AnalysisResult
	Trend   []float64
}
