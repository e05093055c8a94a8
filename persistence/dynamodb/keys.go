// Package dynamodb persists mind-map texts and concepts in a single
// DynamoDB table: PK/SK composite keys built by small string-formatting
// helpers, plus a ConceptIndex GSI for looking up texts by concept name.
package dynamodb

import "fmt"

// Key prefixes for the single-table layout.
const (
	prefixUser    = "USER#"
	prefixText    = "TEXT#"
	prefixConcept = "CONCEPT#"
)

func userPK(userID string) string {
	return prefixUser + userID
}

func textSK(textID string) string {
	return prefixText + textID
}

func conceptSK(concept string) string {
	return prefixConcept + concept
}

// conceptIndexPK is the ConceptIndex GSI partition key: concepts are
// scoped per user, so lookups still only see that user's texts.
func conceptIndexPK(userID, concept string) string {
	return fmt.Sprintf("%s%s#%s", prefixConcept, userID, concept)
}
