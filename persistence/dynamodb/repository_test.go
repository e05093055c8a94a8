package dynamodb

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	smithy "github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Exercising against a real table requires a live DynamoDB connection, so
// this suite covers the pure pieces: key construction and error
// classification. See infrastructure/dynamodb/tests for the shape a real
// integration test against a table would take.

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string      { return e.code }
func (e fakeAPIError) ErrorCode() string  { return e.code }
func (e fakeAPIError) ErrorMessage() string { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}

func TestKeys_ScopeEntitiesByPrefix(t *testing.T) {
	assert.Equal(t, "USER#u1", userPK("u1"))
	assert.Equal(t, "TEXT#t1", textSK("t1"))
	assert.Equal(t, "CONCEPT#mitochondrion", conceptSK("mitochondrion"))
	assert.Equal(t, "CONCEPT#u1#mitochondrion", conceptIndexPK("u1", "mitochondrion"))
}

func TestTransactWriteFailureMessage_DistinguishesConditionalCollision(t *testing.T) {
	collision := fakeAPIError{code: "TransactionCanceledException"}
	assert.Contains(t, transactWriteFailureMessage(collision), "already exist")

	other := fakeAPIError{code: "ProvisionedThroughputExceededException"}
	assert.NotContains(t, transactWriteFailureMessage(other), "already exist")

	assert.NotContains(t, transactWriteFailureMessage(errors.New("boom")), "already exist")
}

func TestNew_BuildsRepositoryWithGivenTableAndIndex(t *testing.T) {
	repo := New(&dynamodb.Client{}, "mindmap3d", "ConceptIndex", zap.NewNop())
	require.NotNil(t, repo)
	assert.Equal(t, "mindmap3d", repo.tableName)
	assert.Equal(t, "ConceptIndex", repo.conceptIndex)
}
