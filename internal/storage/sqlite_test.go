package storage

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newCase(submitter, name string) *models.RegisteredCase {
	return &models.RegisteredCase{
		SubmittedBy:       submitter,
		Name:              name,
		Age:               "7",
		ComplainantName:   "Ravi",
		ComplainantMobile: "9876543210",
		LastSeen:          "Central Park",
		BirthMarks:        "scar on left hand",
		FaceMesh:          `{"landmarks":[]}`,
	}
}

func seedCase(t *testing.T, s *SQLiteStore, submitter, name string) string {
	t.Helper()
	id, err := s.CreateRegisteredCase(context.Background(), newCase(submitter, name))
	require.NoError(t, err)
	return id
}

func seedSubmission(t *testing.T, s *SQLiteStore, location string) string {
	t.Helper()
	id, err := s.CreatePublicSubmission(context.Background(), &models.PublicSubmission{
		SubmittedBy: "citizen",
		FaceMesh:    `{"landmarks":[1]}`,
		Location:    location,
		Mobile:      "9000000000",
		BirthMarks:  "scar",
	})
	require.NoError(t, err)
	return id
}

func TestCreateRegisteredCase(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := seedCase(t, s, "admin", "Asha")
	require.NotEmpty(t, id)

	got, err := s.GetRegisteredCase(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, models.StatusNotFound, got.Status)
	assert.Nil(t, got.MatchedWith)
	assert.Nil(t, got.AlertDraft)
	assert.False(t, got.SubmittedOn.IsZero())
	assert.True(t, got.Consistent())
}

func TestCreateRegisteredCaseValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("rejects oversized field", func(t *testing.T) {
		c := newCase("admin", "Asha")
		c.ComplainantMobile = "98765432101"
		_, err := s.CreateRegisteredCase(ctx, c)
		require.ErrorIs(t, err, errs.ErrValidation)
		assert.Contains(t, err.Error(), "complainant_mobile")
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		c := newCase("admin", strings.Repeat("é", maxName))
		_, err := s.CreateRegisteredCase(ctx, c)
		require.NoError(t, err)
	})

	t.Run("rejects missing name", func(t *testing.T) {
		c := newCase("admin", "  ")
		_, err := s.CreateRegisteredCase(ctx, c)
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	cases, err := s.ListRegisteredCases(ctx, "admin", models.FilterAll)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestListRegisteredCasesFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := seedCase(t, s, "admin", "Asha")
	second := seedCase(t, s, "Station-Admin", "Bina")
	seedCase(t, s, "officer", "Chetan")
	pub := seedSubmission(t, s, "Market")
	require.NoError(t, s.UpdateStatusAndMatch(ctx, second, pub))

	t.Run("substring match is case-insensitive", func(t *testing.T) {
		got, err := s.ListRegisteredCases(ctx, "adm", models.FilterAll)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first, got[0].ID)
		assert.Equal(t, second, got[1].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		got, err := s.ListRegisteredCases(ctx, "admin", models.FilterNotFound)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Asha", got[0].Name)

		got, err = s.ListRegisteredCases(ctx, "admin", models.FilterFound)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].MatchedWith)
		assert.Equal(t, pub, *got[0].MatchedWith)
	})

	t.Run("non-ASCII submitter folds case", func(t *testing.T) {
		id := seedCase(t, s, "Élodie", "Dina")

		got, err := s.ListRegisteredCases(ctx, "élo", models.FilterAll)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)

		count, err := s.CountByStatus(ctx, "ÉLO", models.StatusNotFound)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := s.ListRegisteredCases(ctx, "zzz", models.FilterAll)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestListPublicSubmissionsProjection(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := seedSubmission(t, s, "Bus stand")

	training, err := s.ListPublicSubmissions(ctx, models.FilterNotFound, models.ProjectionTraining)
	require.NoError(t, err)
	require.Len(t, training, 1)
	assert.Equal(t, id, training[0].ID)
	assert.Equal(t, `{"landmarks":[1]}`, training[0].FaceMesh)
	assert.Empty(t, training[0].Location)
	assert.Nil(t, training[0].SubmittedOn)

	display, err := s.ListPublicSubmissions(ctx, models.FilterNotFound, models.ProjectionDisplay)
	require.NoError(t, err)
	require.Len(t, display, 1)
	assert.Equal(t, "Bus stand", display[0].Location)
	assert.Equal(t, "9000000000", display[0].Mobile)
	assert.Equal(t, models.StatusNotFound, display[0].Status)
	assert.NotNil(t, display[0].SubmittedOn)
	assert.Empty(t, display[0].FaceMesh)

	found, err := s.ListPublicSubmissions(ctx, models.FilterFound, models.ProjectionDisplay)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDetailProjections(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	caseID := seedCase(t, s, "admin", "Asha")
	pubID := seedSubmission(t, s, "Market")

	d, err := s.GetRegisteredCaseDetail(ctx, caseID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", d.Name)
	assert.Equal(t, "Central Park", d.LastSeen)

	pd, err := s.GetPublicSubmissionDetail(ctx, pubID)
	require.NoError(t, err)
	assert.Equal(t, "Market", pd.Location)

	missing, err := s.GetRegisteredCaseDetail(ctx, "nope")
	require.NoError(t, err)
	assert.True(t, missing.Empty())

	missingPub, err := s.GetPublicSubmissionDetail(ctx, "nope")
	require.NoError(t, err)
	assert.True(t, missingPub.Empty())

	none, err := s.GetRegisteredCase(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateStatusAndMatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("marks both found", func(t *testing.T) {
		caseID := seedCase(t, s, "admin", "Asha")
		pubID := seedSubmission(t, s, "Market")

		require.NoError(t, s.UpdateStatusAndMatch(ctx, caseID, pubID))

		c, err := s.GetRegisteredCase(ctx, caseID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFound, c.Status)
		require.NotNil(t, c.MatchedWith)
		assert.Equal(t, pubID, *c.MatchedWith)
		assert.True(t, c.Consistent())

		p, err := s.GetPublicSubmission(ctx, pubID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFound, p.Status)
	})

	t.Run("second match of the same case conflicts", func(t *testing.T) {
		caseID := seedCase(t, s, "admin", "Bina")
		pubA := seedSubmission(t, s, "A")
		pubB := seedSubmission(t, s, "B")
		require.NoError(t, s.UpdateStatusAndMatch(ctx, caseID, pubA))

		err := s.UpdateStatusAndMatch(ctx, caseID, pubB)
		require.ErrorIs(t, err, errs.ErrConflict)

		// The submission update inside the failed transaction was rolled back.
		p, err := s.GetPublicSubmission(ctx, pubB)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotFound, p.Status)

		c, err := s.GetRegisteredCase(ctx, caseID)
		require.NoError(t, err)
		assert.Equal(t, pubA, *c.MatchedWith)
	})

	t.Run("submission already matched conflicts", func(t *testing.T) {
		first := seedCase(t, s, "admin", "Chetan")
		second := seedCase(t, s, "admin", "Devi")
		pub := seedSubmission(t, s, "C")
		require.NoError(t, s.UpdateStatusAndMatch(ctx, first, pub))

		err := s.UpdateStatusAndMatch(ctx, second, pub)
		require.ErrorIs(t, err, errs.ErrConflict)

		c, err := s.GetRegisteredCase(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotFound, c.Status)
		assert.Nil(t, c.MatchedWith)
	})

	t.Run("missing case rolls back submission", func(t *testing.T) {
		pub := seedSubmission(t, s, "D")
		err := s.UpdateStatusAndMatch(ctx, "missing-case", pub)
		require.ErrorIs(t, err, errs.ErrNotFound)

		p, err := s.GetPublicSubmission(ctx, pub)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNotFound, p.Status)
	})

	t.Run("missing submission", func(t *testing.T) {
		caseID := seedCase(t, s, "admin", "Esha")
		err := s.UpdateStatusAndMatch(ctx, caseID, "missing-pub")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestUpdateStatusAndMatchRace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	caseID := seedCase(t, s, "admin", "Asha")
	pubs := make([]string, 8)
	for i := range pubs {
		pubs[i] = seedSubmission(t, s, "loc")
	}

	var wg sync.WaitGroup
	results := make([]error, len(pubs))
	for i, pub := range pubs {
		wg.Add(1)
		go func(i int, pub string) {
			defer wg.Done()
			results[i] = s.UpdateStatusAndMatch(ctx, caseID, pub)
		}(i, pub)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	found, err := s.ListPublicSubmissions(ctx, models.FilterFound, models.ProjectionTraining)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestWriteGeneratedField(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := seedCase(t, s, "admin", "Asha")

	require.NoError(t, s.WriteGeneratedField(ctx, id, models.FieldAlertDraft, "first"))
	require.NoError(t, s.WriteGeneratedField(ctx, id, models.FieldAlertDraft, "second"))
	require.NoError(t, s.WriteGeneratedField(ctx, id, models.FieldLeadPriority, "lead-1 first"))

	c, err := s.GetRegisteredCase(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, c.AlertDraft)
	assert.Equal(t, "second", *c.AlertDraft)
	require.NotNil(t, c.LeadPriority)
	assert.Nil(t, c.WitnessSummary)

	err = s.WriteGeneratedField(ctx, "missing", models.FieldAlertDraft, "x")
	require.ErrorIs(t, err, errs.ErrNotFound)

	err = s.WriteGeneratedField(ctx, id, models.GeneratedField("name"), "x")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCountByStatusAndTraining(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := seedCase(t, s, "admin", "Asha")
	seedCase(t, s, "admin", "Bina")
	seedCase(t, s, "other", "Chetan")
	pub := seedSubmission(t, s, "Market")
	require.NoError(t, s.UpdateStatusAndMatch(ctx, a, pub))

	found, err := s.CountByStatus(ctx, "admin", models.StatusFound)
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	notFound, err := s.CountByStatus(ctx, "admin", models.StatusNotFound)
	require.NoError(t, err)
	assert.Equal(t, 1, notFound)

	training, err := s.ListTrainingCases(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, training, 1)
	assert.Equal(t, `{"landmarks":[]}`, training[0].FaceMesh)
}

func TestCreatePublicSubmissionValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreatePublicSubmission(ctx, &models.PublicSubmission{FaceMesh: "{}"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.CreatePublicSubmission(ctx, &models.PublicSubmission{Mobile: "1", Email: strings.Repeat("a", maxEmail+1)})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.CreatePublicSubmission(ctx, &models.PublicSubmission{Mobile: "1", Status: "LOST"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestPhotoKey(t *testing.T) {
	assert.Equal(t, "cases/abc/face.jpg", PhotoKey(PhotoOwnerCase, "abc", "face.jpg"))
	assert.Equal(t, "submissions/x/face.jpg", PhotoKey(PhotoOwnerSubmission, "x", "../../face.jpg"))
	assert.Equal(t, "cases/abc/face.png", PhotoKey(PhotoOwnerCase, "abc", `C:\tmp\face.png`))
	assert.Equal(t, "cases/abc/photo", PhotoKey(PhotoOwnerCase, "abc", ""))
}
