package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, db *DB) uuid.UUID {
	t.Helper()
	id, err := db.CreateUser(context.Background(), "test-"+uuid.New().String()+"@example.com", "hash")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteUser(context.Background(), id) })
	return id
}

func TestIntegration_Migrate_Rerun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	applied, err := db.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied, "second run should apply nothing")
}

func TestIntegration_UserLookup(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	email := "Lookup-" + uuid.New().String() + "@Example.com"
	id, err := db.CreateUser(ctx, email, "hash-1")
	require.NoError(t, err)
	defer db.DeleteUser(ctx, id)

	u, err := db.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash-1", u.PasswordHash)

	exists, err := db.CheckEmailExists(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, db.UpdatePassword(ctx, id, "hash-2"))
	u, err = db.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", u.PasswordHash)

	missing, err := db.GetUserByEmail(ctx, "missing-"+uuid.New().String()+"@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_UserProfileCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	userID := createTestUser(t, db)

	p, err := db.GetUserProfile(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, p)

	name := "Jane Doe"
	p, err = db.CreateUserProfile(ctx, userID, ProfileFields{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.FullName)

	company := "Acme"
	p, err = db.UpdateUserProfile(ctx, userID, ProfileFields{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "Acme", p.Company)

	p, err = db.EnsureUserProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Company)
}

func TestIntegration_AnalysisResults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	owner := createTestUser(t, db)
	other := createTestUser(t, db)

	var saved []*AnalysisResult
	for i, score := range []float64{70, 81, 92} {
		a, err := db.SaveAnalysisResult(ctx, &AnalysisResult{
			UserID:             owner,
			JobDescription:     "jd",
			ResumeText:         "resume",
			CandidateName:      "Candidate",
			OverallScore:       score,
			Strengths:          []string{"Go"},
			SkillsAnalysis:     Section{Score: score, Details: "skills"},
			ExperienceAnalysis: Section{Score: score, Details: "experience"},
			EducationAnalysis:  Section{Score: score, Details: "education"},
			Weights:            Weights{Skills: 50, Experience: 40, Education: 10},
		})
		require.NoError(t, err, "save %d", i)
		saved = append(saved, a)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := db.ListAnalysisResults(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, saved[2].ID, list[0].ID, "newest first")
	assert.Equal(t, []string{"Go"}, list[0].Strengths)
	assert.Empty(t, list[0].Weaknesses)
	assert.Equal(t, "skills", list[0].SkillsAnalysis.Details)

	otherList, err := db.ListAnalysisResults(ctx, other, 0)
	require.NoError(t, err)
	assert.Empty(t, otherList)

	// Another user cannot see or delete the owner's record
	got, err := db.GetAnalysisResult(ctx, other, saved[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	deleted, err := db.DeleteAnalysisResult(ctx, other, saved[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	stats, err := db.GetAnalysisStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 81, stats.Average)
	assert.Equal(t, []float64{92, 81, 70}, stats.Trend)

	deleted, err = db.DeleteAnalysisResult(ctx, owner, saved[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
