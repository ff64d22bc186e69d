package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	pkgerrors "prepcoach/pkg/errors"
)

const lockSK = "LOCK"

func lockPK(resource string) string { return "LOCK#" + resource }

type lockItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	LockID    string `dynamodbav:"lock_id"`
	Owner     string `dynamodbav:"owner"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
	TTL       int64  `dynamodbav:"TTL"`
}

// LockManager hands out leases on LOCK#<resource> items. An expired lease
// can be taken over by the next caller.
type LockManager struct {
	table *Table
	now   func() time.Time
}

// NewLockManager creates a lock manager on the table
func NewLockManager(table *Table) *LockManager {
	return &LockManager{table: table, now: time.Now}
}

// Acquire takes the lock or fails with CONFLICT while another owner holds it
func (m *LockManager) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lease, error) {
	now := m.now()
	expires := now.Add(ttl)
	lockID := owner + "_" + strconv.FormatInt(now.UnixNano(), 10)

	item, err := attributevalue.MarshalMap(lockItem{
		PK:        lockPK(resource),
		SK:        lockSK,
		LockID:    lockID,
		Owner:     owner,
		ExpiresAt: expires.Unix(),
		TTL:       expires.Unix(),
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal lock").WithCause(err)
	}

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name("PK")),
		expression.Name("expires_at").LessThan(expression.Value(now.Unix())),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build condition").WithCause(err)
	}

	_, err = m.table.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(m.table.Name),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("lock %s is held by another owner", resource))
		}
		return nil, pkgerrors.NewDatabaseError("acquire lock", err)
	}

	m.table.Logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("owner", owner),
		zap.Duration("ttl", ttl),
	)
	return &lease{manager: m, resource: resource, lockID: lockID}, nil
}

type lease struct {
	manager  *LockManager
	resource string
	lockID   string
}

// Release deletes the lock item if this lease still owns it
func (l *lease) Release(ctx context.Context) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("lock_id").Equal(expression.Value(l.lockID))).
		Build()
	if err != nil {
		return pkgerrors.NewInternalError("failed to build condition").WithCause(err)
	}

	t := l.manager.table
	_, err = t.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(t.Name),
		Key:                       key(lockPK(l.resource), lockSK),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			t.Logger.Warn("Lock expired before release", zap.String("resource", l.resource))
			return nil
		}
		return pkgerrors.NewDatabaseError("release lock", err)
	}
	return nil
}
