package dynamodb

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"prepcoach/domain/core/entities"
	pkgerrors "prepcoach/pkg/errors"
)

type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK     string `dynamodbav:"GSI1SK,omitempty"`
	EntityType string `dynamodbav:"EntityType"`
	entities.User
}

// UserRepository stores accounts as PROFILE items. Accounts linked to a
// billing customer are indexed on GSI1 by customer id.
type UserRepository struct {
	table *Table
}

// NewUserRepository creates a user repository on table
func NewUserRepository(table *Table) *UserRepository {
	return &UserRepository{table: table}
}

// Save writes the user guarded by its version
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	item := userItem{
		PK:         userPK(user.ID),
		SK:         "PROFILE",
		EntityType: "USER",
		User:       *user,
	}
	item.Version = user.Version + 1
	if user.StripeCustomerID != "" {
		item.GSI1PK = customerGSI(user.StripeCustomerID)
		item.GSI1SK = userPK(user.ID)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal user").WithCause(err)
	}
	if err := r.table.putVersioned(ctx, av, user.Version, "user"); err != nil {
		return err
	}
	user.Version++
	return nil
}

// GetByID returns a user or NOT_FOUND
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	av, err := r.table.getItem(ctx, userPK(id), "PROFILE", "user")
	if err != nil {
		return nil, err
	}
	if av == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return decodeUser(av)
}

// GetByCustomerID returns the user linked to a billing customer or NOT_FOUND
func (r *UserRepository) GetByCustomerID(ctx context.Context, customerID string) (*entities.User, error) {
	items, err := r.table.query(ctx, expression.Key("GSI1PK").Equal(expression.Value(customerGSI(customerID))), true, false, "user by customer")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	// the index is eventually consistent, so reload the authoritative item
	var item userItem
	if err := attributevalue.UnmarshalMap(items[0], &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user").WithCause(err)
	}
	return r.GetByID(ctx, item.ID)
}

func decodeUser(av map[string]types.AttributeValue) (*entities.User, error) {
	var item userItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal user").WithCause(err)
	}
	u := item.User
	return &u, nil
}

type interviewItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	entities.Interview
}

// InterviewRepository stores interviews under their owner's partition, so a
// lookup with another user's id never finds them.
type InterviewRepository struct {
	table *Table
}

// NewInterviewRepository creates an interview repository on table
func NewInterviewRepository(table *Table) *InterviewRepository {
	return &InterviewRepository{table: table}
}

// Save writes the interview guarded by its version
func (r *InterviewRepository) Save(ctx context.Context, interview *entities.Interview) error {
	item := interviewItem{
		PK:         userPK(interview.UserID),
		SK:         interviewSK(interview.ID),
		EntityType: "INTERVIEW",
		Interview:  *interview,
	}
	item.Version = interview.Version + 1

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal interview").WithCause(err)
	}
	if err := r.table.putVersioned(ctx, av, interview.Version, "interview"); err != nil {
		return err
	}
	interview.Version++
	return nil
}

// Get returns an interview owned by userID or NOT_FOUND
func (r *InterviewRepository) Get(ctx context.Context, userID, id string) (*entities.Interview, error) {
	av, err := r.table.getItem(ctx, userPK(userID), interviewSK(id), "interview")
	if err != nil {
		return nil, err
	}
	if av == nil {
		return nil, pkgerrors.NewNotFoundError("interview")
	}
	return decodeInterview(av)
}

// ListByUser returns a user's interviews, newest first
func (r *InterviewRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Interview, error) {
	items, err := r.table.query(ctx, expression.KeyAnd(
		expression.Key("PK").Equal(expression.Value(userPK(userID))),
		expression.KeyBeginsWith(expression.Key("SK"), interviewSK("")),
	), false, false, "interviews")
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Interview, 0, len(items))
	for _, av := range items {
		iv, err := decodeInterview(av)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func decodeInterview(av map[string]types.AttributeValue) (*entities.Interview, error) {
	var item interviewItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal interview").WithCause(err)
	}
	iv := item.Interview
	return &iv, nil
}
