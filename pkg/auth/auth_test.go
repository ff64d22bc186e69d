package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	cfg := JWTConfig{SecretKey: "test-secret", Issuer: "prepcoach", Audience: []string{"prepcoach-api"}}

	gen, err := NewJWTGenerator(cfg)
	require.NoError(t, err)
	val, err := NewJWTValidator(cfg)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "a@example.com", []string{RoleAdmin})
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, []string{RoleAdmin}, claims.Roles)
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	gen, err := NewJWTGenerator(JWTConfig{SecretKey: "one"})
	require.NoError(t, err)
	val, err := NewJWTValidator(JWTConfig{SecretKey: "two"})
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)
	_, err = val.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	expired, err := NewJWTGenerator(JWTConfig{SecretKey: "two", Expiry: -time.Minute})
	require.NoError(t, err)
	token, err = expired.GenerateToken("user-1", "", nil)
	require.NoError(t, err)
	_, err = val.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = val.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u", Roles: []string{RoleAdmin}})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.False(t, (&UserContext{UserID: "u"}).IsAdmin())
}

func TestTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(2, time.Hour)
	defer l.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "buckets are per key")

	require.NoError(t, l.Reset(ctx, "1.2.3.4"))
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

type fakeCounterStore struct {
	err   error
	count int
}

func (f *fakeCounterStore) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.count++
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
		"Count": &types.AttributeValueMemberN{Value: strconv.Itoa(f.count)},
	}}, nil
}

func (f *fakeCounterStore) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.count = 0
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()

	store := &fakeCounterStore{}
	l := NewDistributedRateLimiter(store, "table", 5, time.Minute, "USER")
	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	store.err = &types.ConditionalCheckFailedException{}
	ok, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok, "condition failure means the window is full")

	store.err = errors.New("throttled")
	ok, err = l.Allow(ctx, "user-1")
	assert.Error(t, err)
	assert.True(t, ok, "storage errors fail open")
}
