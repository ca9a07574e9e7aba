package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentos/internal/pipeline"
	"talentos/internal/port"
	"talentos/mocks"
)

func testPool(t *testing.T, k int) *pipeline.CredentialPool {
	t.Helper()
	extractors := make([]port.DocumentExtractor, k)
	embedders := make([]port.Embedder, k)
	for i := 0; i < k; i++ {
		extractors[i] = new(mocks.MockDocumentExtractor)
		embedders[i] = new(mocks.MockEmbedder)
	}
	pool, err := pipeline.NewCredentialPool(extractors, embedders)
	require.NoError(t, err)
	return pool
}

func TestNewCredentialPool_Empty(t *testing.T) {
	_, err := pipeline.NewCredentialPool(nil, nil)
	assert.Error(t, err)
}

func TestNewCredentialPool_MismatchedLists(t *testing.T) {
	extractors := []port.DocumentExtractor{new(mocks.MockDocumentExtractor)}
	_, err := pipeline.NewCredentialPool(extractors, nil)
	assert.Error(t, err)
}

func TestCredentialPool_AssignRotates(t *testing.T) {
	pool := testPool(t, 4)
	require.Equal(t, 4, pool.Size())

	for i := 0; i < 12; i++ {
		assert.Equal(t, i%4, pool.Assign(i).Index)
	}
}

func TestCredentialPool_AssignIsDeterministic(t *testing.T) {
	pool := testPool(t, 3)
	first := pool.Assign(7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.Index, pool.Assign(7).Index)
	}
}
