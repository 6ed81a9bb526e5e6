package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/authcore-api/internal/domain"
)

// MfaCodeRepo manages one-time MFA codes.
// PK: user_id — one outstanding code per user; Put replaces (and thereby
// invalidates) any previous code. ExpiresAt doubles as the DynamoDB TTL.
type MfaCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMfaCodeRepo(client *dynamodb.Client, tableName string) *MfaCodeRepo {
	return &MfaCodeRepo{client: client, tableName: tableName}
}

func (r *MfaCodeRepo) Put(ctx context.Context, c *domain.MfaCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal mfa code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MfaCodeRepo) Get(ctx context.Context, userID string) (*domain.MfaCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("mfa code not found: %w", domain.ErrNotFound)
	}
	var c domain.MfaCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Consume marks the code consumed, conditional on it being unconsumed and
// still carrying the hash the caller verified. A re-sent code or a racing
// verify makes the condition fail with domain.ErrConflict, so a consumed
// code can never validate twice.
func (r *MfaCodeRepo) Consume(ctx context.Context, userID, codeHash string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldConsumed: true})
	if err != nil {
		return err
	}
	ce, err := buildConditionExpr(map[string]interface{}{
		fieldConsumed: false,
		fieldCodeHash: codeHash,
	})
	if err != nil {
		return err
	}
	names, values := ue.merge(ce)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(ce.Expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return translateConditionErr(err)
}

func (r *MfaCodeRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}
