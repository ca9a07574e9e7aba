package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCandidateJSON_Valid(t *testing.T) {
	data := []byte(`{"name":"Priya Sharma","email":"p@example.com","phone":null,"title":"Engineer","sector":null,"experience":null,"education":null,"summary":null,"skills":["Go"]}`)
	assert.NoError(t, ValidateCandidateJSON(data))
}

func TestValidateCandidateJSON_MinimalObject(t *testing.T) {
	assert.NoError(t, ValidateCandidateJSON([]byte(`{"name":"X"}`)))
}

func TestValidateCandidateJSON_MissingName(t *testing.T) {
	assert.Error(t, ValidateCandidateJSON([]byte(`{"email":"p@example.com"}`)))
}

func TestValidateCandidateJSON_NullName(t *testing.T) {
	assert.Error(t, ValidateCandidateJSON([]byte(`{"name":null}`)))
}

func TestValidateCandidateJSON_WrongSkillsType(t *testing.T) {
	assert.Error(t, ValidateCandidateJSON([]byte(`{"name":"X","skills":"Go, Postgres"}`)))
}

func TestValidateCandidateJSON_NullSkillsAllowed(t *testing.T) {
	assert.NoError(t, ValidateCandidateJSON([]byte(`{"name":"X","skills":null}`)))
}

func TestValidateCandidateJSON_NotJSON(t *testing.T) {
	assert.Error(t, ValidateCandidateJSON([]byte(`not json at all`)))
}
