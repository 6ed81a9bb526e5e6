package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authcore-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// RecordFailedAttempt counts a login failure into the rolling window that
// started at or after windowStart, restarting the window when the previous
// one has lapsed. Both writes are conditional, so concurrent failures each
// land: two simultaneous wrong passwords count as two attempts, not one.
// Returns the attempt count inside the current window.
func (r *UserRepo) RecordFailedAttempt(ctx context.Context, userID string, now, windowStart int64) (int, error) {
	for i := 0; i < 2; i++ {
		attempts, err := r.bumpFailedAttempts(ctx, userID, windowStart)
		if err == nil {
			return attempts, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		err = r.restartFailureWindow(ctx, userID, now, windowStart)
		if err == nil {
			return 1, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		// A concurrent failure restarted the window first; count into it.
	}
	return 0, fmt.Errorf("record failed attempt: %w", domain.ErrConflict)
}

// bumpFailedAttempts increments the counter only while the current window is
// still live (first_failed_at >= windowStart).
func (r *UserRepo) bumpFailedAttempts(ctx context.Context, userID string, windowStart int64) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		UpdateExpression:    aws.String("ADD #fa :one"),
		ConditionExpression: aws.String("#ff >= :ws"),
		ExpressionAttributeNames: map[string]string{
			"#fa": fieldFailedAttempts,
			"#ff": fieldFirstFailedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":ws":  &types.AttributeValueMemberN{Value: strconv.FormatInt(windowStart, 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, translateConditionErr(err)
	}
	var attempts int
	if err := attributevalue.Unmarshal(out.Attributes[fieldFailedAttempts], &attempts); err != nil {
		return 0, fmt.Errorf("unmarshal attempt count: %w", err)
	}
	return attempts, nil
}

// restartFailureWindow resets the counter to 1 only while the window is
// still stale (first_failed_at < windowStart, or never set).
func (r *UserRepo) restartFailureWindow(ctx context.Context, userID string, now, windowStart int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		UpdateExpression:    aws.String("SET #fa = :one, #ff = :now"),
		ConditionExpression: aws.String("attribute_not_exists(#ff) OR #ff < :ws"),
		ExpressionAttributeNames: map[string]string{
			"#fa": fieldFailedAttempts,
			"#ff": fieldFirstFailedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
			":ws":  &types.AttributeValueMemberN{Value: strconv.FormatInt(windowStart, 10)},
		},
	})
	return translateConditionErr(err)
}

// Lock sets the lockout deadline once the failure threshold is reached.
func (r *UserRepo) Lock(ctx context.Context, userID string, lockedUntil int64) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldLockedUntil: lockedUntil,
	})
}

// ResetLockout clears the failure counter and any active lock after a
// successful verification.
func (r *UserRepo) ResetLockout(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldFailedAttempts: 0,
		fieldFirstFailedAt:  int64(0),
		fieldLockedUntil:    int64(0),
	})
}

// SetMfaEnabled flips the user's MFA flag.
func (r *UserRepo) SetMfaEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldMfaEnabled: enabled,
	})
}
