package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"mindmap3d/domain/concept"
	"mindmap3d/pipelineerrors"
)

// Repository is the DynamoDB-backed implementation of the pipeline's
// storage port: it persists TextReferences and per-user concepts, and
// answers concept lookups through a GSI.
type Repository struct {
	client         *dynamodb.Client
	tableName      string
	conceptIndex   string
	logger         *zap.Logger
}

// New creates a Repository against an existing table with a GSI named
// indexName (the ConceptIndex GSI: partition key "GSI1PK", sort key "GSI1SK").
func New(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *Repository {
	return &Repository{client: client, tableName: tableName, conceptIndex: indexName, logger: logger}
}

type textItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	TextID          string   `dynamodbav:"TextID"`
	UserID          string   `dynamodbav:"UserID"`
	Filename        string   `dynamodbav:"Filename"`
	CDNURL          string   `dynamodbav:"CDNURL"`
	SourceURL       string   `dynamodbav:"SourceURL,omitempty"`
	Concepts        []string `dynamodbav:"Concepts"`
	UploadTimestamp string   `dynamodbav:"UploadTimestamp"`
	FileSizeBytes   int64    `dynamodbav:"FileSizeBytes"`
}

type conceptLinkItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	TextID string `dynamodbav:"TextID"`
}

type conceptItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	Name       string  `dynamodbav:"Name"`
	Importance float64 `dynamodbav:"Importance"`
}

// SaveTextReference persists a TextReference and, for each of its concepts,
// a link item in the ConceptIndex GSI so FindTextsByConcept can find it.
func (r *Repository) SaveTextReference(ctx context.Context, ref concept.TextReference) error {
	item := textItem{
		PK:              userPK(ref.UserID),
		SK:              textSK(ref.TextID),
		TextID:          ref.TextID,
		UserID:          ref.UserID,
		Filename:        ref.Filename,
		CDNURL:          ref.CDNURL,
		SourceURL:       ref.SourceURL,
		Concepts:        ref.Concepts,
		UploadTimestamp: ref.UploadTimestamp.Format(time.RFC3339),
		FileSizeBytes:   ref.FileSizeBytes,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pipelineerrors.Storage("failed to marshal text reference", err)
	}

	writes := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: av, ConditionExpression: aws.String("attribute_not_exists(PK)")}},
	}
	for _, c := range ref.Concepts {
		link := conceptLinkItem{
			PK:     userPK(ref.UserID),
			SK:     conceptSK(c) + "#" + ref.TextID,
			GSI1PK: conceptIndexPK(ref.UserID, c),
			GSI1SK: textSK(ref.TextID),
			TextID: ref.TextID,
		}
		linkAV, err := attributevalue.MarshalMap(link)
		if err != nil {
			return pipelineerrors.Storage("failed to marshal concept link", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.tableName), Item: linkAV, ConditionExpression: aws.String("attribute_not_exists(PK)")},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		return pipelineerrors.Storage(transactWriteFailureMessage(err), err)
	}
	return nil
}

// transactWriteFailureMessage distinguishes a cancelled transaction, which
// the attribute_not_exists conditions raise when the text or one of its
// concept links already exists, from every other transaction failure, such
// as throttling or a table problem.
func transactWriteFailureMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "TransactionCanceledException" {
		return "failed to save text reference: one or more items already exist"
	}
	return "failed to save text reference"
}

// SaveUserConcepts persists the current set of concepts known for a user,
// for future deduplication when the same user submits new text.
func (r *Repository) SaveUserConcepts(ctx context.Context, userID string, concepts []concept.Concept) error {
	for _, c := range concepts {
		item := conceptItem{
			PK:         userPK(userID),
			SK:         "KNOWNCONCEPT#" + c.Name,
			Name:       c.Name,
			Importance: c.Importance,
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return pipelineerrors.Storage("failed to marshal concept", err)
		}
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		})
		if err != nil {
			return pipelineerrors.Storage("failed to save user concept", err)
		}
	}
	return nil
}

// LoadUserConcepts returns the concepts previously saved for userID, for
// the coordinator to use as merge hints.
func (r *Repository) LoadUserConcepts(ctx context.Context, userID string) ([]concept.Concept, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("KNOWNCONCEPT#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pipelineerrors.Storage("failed to build query expression", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pipelineerrors.Storage("failed to load user concepts", err)
	}

	concepts := make([]concept.Concept, 0, len(out.Items))
	for _, item := range out.Items {
		var c conceptItem
		if err := attributevalue.UnmarshalMap(item, &c); err != nil {
			continue
		}
		concepts = append(concepts, concept.Concept{Name: c.Name, Importance: c.Importance})
	}
	return concepts, nil
}

// FindTextsByConcept returns every TextReference for userID that contains
// concept, queried through the ConceptIndex GSI.
func (r *Repository) FindTextsByConcept(ctx context.Context, userID, conceptName string) ([]concept.TextReference, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(conceptIndexPK(userID, conceptName)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, pipelineerrors.Storage("failed to build query expression", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.conceptIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pipelineerrors.Storage("failed to query concept index", err)
	}

	refs := make([]concept.TextReference, 0, len(out.Items))
	for _, item := range out.Items {
		var link conceptLinkItem
		if err := attributevalue.UnmarshalMap(item, &link); err != nil {
			continue
		}
		ref, err := r.getTextReference(ctx, userID, link.TextID)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("dangling concept link", zap.String("textID", link.TextID), zap.Error(err))
			}
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (r *Repository) getTextReference(ctx context.Context, userID, textID string) (concept.TextReference, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: textSK(textID)},
		},
	})
	if err != nil {
		return concept.TextReference{}, pipelineerrors.Storage("failed to get text reference", err)
	}
	if out.Item == nil {
		return concept.TextReference{}, pipelineerrors.Storage("text reference not found", fmt.Errorf("textID %s", textID))
	}

	var item textItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return concept.TextReference{}, pipelineerrors.Storage("failed to unmarshal text reference", err)
	}

	uploaded, err := time.Parse(time.RFC3339, item.UploadTimestamp)
	if err != nil {
		uploaded = time.Time{}
	}

	return concept.TextReference{
		TextID:          item.TextID,
		UserID:          item.UserID,
		Filename:        item.Filename,
		CDNURL:          item.CDNURL,
		SourceURL:       item.SourceURL,
		Concepts:        item.Concepts,
		UploadTimestamp: uploaded,
		FileSizeBytes:   item.FileSizeBytes,
	}, nil
}
