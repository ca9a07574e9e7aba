package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"talentos/internal/domain"
	"talentos/internal/pipeline"
	"talentos/mocks"
)

func TestGate_AppliesDefaultsAtBoundary(t *testing.T) {
	repo := new(mocks.MockCandidateRepo)
	gate := pipeline.NewPersistenceGate(repo)
	batchID := uuid.New()

	var inserted *domain.CandidateRecord
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.CandidateRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.CandidateRecord)
		}).Return(nil)

	records := []domain.CandidateRecord{{Name: "Priya Sharma", SourceFile: "priya.pdf"}}
	stored, failed, err := gate.Persist(context.Background(), batchID, records)

	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	assert.Empty(t, failed)

	require.NotNil(t, inserted)
	require.NotNil(t, inserted.Title)
	assert.Equal(t, "Not Specified", *inserted.Title)
	assert.NotNil(t, inserted.Skills)
	assert.Empty(t, inserted.Skills)
	assert.Equal(t, batchID, inserted.BatchID)

	// The caller's slice is left untouched; defaults exist only in storage.
	assert.Nil(t, records[0].Title)
	assert.Nil(t, records[0].Skills)
}

func TestGate_PreservesExtractedFields(t *testing.T) {
	repo := new(mocks.MockCandidateRepo)
	gate := pipeline.NewPersistenceGate(repo)

	title := "Staff Engineer"
	var inserted *domain.CandidateRecord
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.CandidateRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.CandidateRecord)
		}).Return(nil)

	_, _, err := gate.Persist(context.Background(), uuid.New(), []domain.CandidateRecord{
		{Name: "Priya Sharma", Title: &title, Skills: []string{"Go", "Postgres"}, SourceFile: "priya.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", *inserted.Title)
	assert.Equal(t, []string{"Go", "Postgres"}, inserted.Skills)
}

func TestGate_RejectsPlaceholderName(t *testing.T) {
	repo := new(mocks.MockCandidateRepo)
	gate := pipeline.NewPersistenceGate(repo)

	stored, failed, err := gate.Persist(context.Background(), uuid.New(), []domain.CandidateRecord{
		{Name: "Unknown", SourceFile: "mystery.pdf"},
	})

	require.Error(t, err)
	assert.Equal(t, 0, stored)
	assert.Equal(t, []string{"mystery.pdf"}, failed)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGate_InsertFailureCountedNotFatal(t *testing.T) {
	repo := new(mocks.MockCandidateRepo)
	gate := pipeline.NewPersistenceGate(repo)

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(rec *domain.CandidateRecord) bool {
		return rec.SourceFile == "bad.pdf"
	})).Return(errors.New("unique violation"))
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(rec *domain.CandidateRecord) bool {
		return rec.SourceFile != "bad.pdf"
	})).Return(nil)

	stored, failed, err := gate.Persist(context.Background(), uuid.New(), []domain.CandidateRecord{
		{Name: "Priya Sharma", SourceFile: "good.pdf"},
		{Name: "Arun Patel", SourceFile: "bad.pdf"},
		{Name: "Mei Lin", SourceFile: "also-good.pdf"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.Equal(t, []string{"bad.pdf"}, failed)
}
