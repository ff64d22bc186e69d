// Package dynamodb implements the repositories on a single DynamoDB table.
//
// Key layout:
//
//	JOURNEY#<id>        METADATA              journey snapshot, GSI1PK=JOURNEY
//	SUBJOURNEY#<child>  PARENT#<parent>       parent reference for milestone sync
//	USER#<id>           PROFILE               account, GSI1PK=CUSTOMER#<stripe id>
//	USER#<id>           PROGRESS#<journey>    journey progress
//	USER#<id>           INTERVIEW#<id>        interview preparation
//	USER#<id>           CONN#<connection>     open WebSocket connection
//	VISIBILITY#<type>   <entity id>           admin visibility setting
//	AUDIT#<type>#<id>   <timestamp>#<id>      audit entry
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "prepcoach/pkg/errors"
)

// Client is the subset of the DynamoDB API the repositories use
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Table bundles the client with the table coordinates shared by every repository
type Table struct {
	Client    Client
	Name      string
	IndexName string
	Logger    *zap.Logger
}

// NewTable creates a table handle. indexName defaults to GSI1.
func NewTable(client Client, name, indexName string, logger *zap.Logger) *Table {
	if indexName == "" {
		indexName = "GSI1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{Client: client, Name: name, IndexName: indexName, Logger: logger}
}

const (
	maxBatchWrite  = 25
	maxBatchRetry  = 5
	batchRetryBase = 50 * time.Millisecond
)

func journeyPK(id string) string       { return "JOURNEY#" + id }
func userPK(id string) string          { return "USER#" + id }
func subJourneyPK(id string) string    { return "SUBJOURNEY#" + id }
func visibilityPK(t string) string     { return "VISIBILITY#" + t }
func auditPK(t, id string) string      { return fmt.Sprintf("AUDIT#%s#%s", t, id) }
func customerGSI(id string) string     { return "CUSTOMER#" + id }
func progressSK(journey string) string { return "PROGRESS#" + journey }
func interviewSK(id string) string     { return "INTERVIEW#" + id }
func connectionSK(id string) string    { return "CONN#" + id }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// versionCondition builds the optimistic write guard: a new record must not
// exist yet, an existing one must still carry the version that was read.
func versionCondition(expected int) (expression.Expression, error) {
	var cond expression.ConditionBuilder
	if expected == 0 {
		cond = expression.AttributeNotExists(expression.Name("PK"))
	} else {
		cond = expression.Name("version").Equal(expression.Value(expected))
	}
	return expression.NewBuilder().WithCondition(cond).Build()
}

// putVersioned writes item guarded by versionCondition. A failed guard is a CONFLICT.
func (t *Table) putVersioned(ctx context.Context, item map[string]types.AttributeValue, expected int, resource string) error {
	expr, err := versionCondition(expected)
	if err != nil {
		return pkgerrors.NewInternalError("failed to build condition").WithCause(err)
	}

	_, err = t.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(t.Name),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			if expected == 0 {
				return pkgerrors.NewConflictError(resource + " already exists")
			}
			return pkgerrors.NewConflictError(resource + " was modified concurrently")
		}
		return pkgerrors.NewDatabaseError("put "+resource, err)
	}
	return nil
}

// getItem returns the raw item or nil when it does not exist
func (t *Table) getItem(ctx context.Context, pk, sk, resource string) (map[string]types.AttributeValue, error) {
	out, err := t.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.Name),
		Key:            key(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get "+resource, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// query runs a key condition against the table or, when index is set, the GSI,
// following pagination to the end.
func (t *Table) query(ctx context.Context, cond expression.KeyConditionBuilder, index bool, newestFirst bool, resource string) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build key condition").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if index {
		input.IndexName = aws.String(t.IndexName)
	}
	if newestFirst {
		input.ScanIndexForward = aws.Bool(false)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(t.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query "+resource, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// batchPut writes items in chunks of 25, retrying unprocessed items with backoff
func (t *Table) batchPut(ctx context.Context, items []map[string]types.AttributeValue, resource string) error {
	for start := 0; start < len(items); start += maxBatchWrite {
		end := start + maxBatchWrite
		if end > len(items) {
			end = len(items)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		pending := map[string][]types.WriteRequest{t.Name: requests}
		for attempt := 0; len(pending[t.Name]) > 0; attempt++ {
			if attempt >= maxBatchRetry {
				return pkgerrors.NewDatabaseError("batch write "+resource,
					fmt.Errorf("%d items left unprocessed", len(pending[t.Name])))
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(batchRetryBase * time.Duration(1<<attempt)):
				}
			}

			out, err := t.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return pkgerrors.NewDatabaseError("batch write "+resource, err)
			}
			pending = out.UnprocessedItems
			if len(pending[t.Name]) > 0 {
				t.Logger.Warn("Retrying unprocessed batch items",
					zap.String("resource", resource),
					zap.Int("count", len(pending[t.Name])),
					zap.Int("attempt", attempt+1),
				)
			}
		}
	}
	return nil
}
