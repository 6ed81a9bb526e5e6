package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authcore-api/internal/domain"
)

// RecoveryCodeRepo manages single-use MFA recovery codes.
// PK: user_id, SK: code_hash.
type RecoveryCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecoveryCodeRepo(client *dynamodb.Client, tableName string) *RecoveryCodeRepo {
	return &RecoveryCodeRepo{client: client, tableName: tableName}
}

func (r *RecoveryCodeRepo) Put(ctx context.Context, c *domain.RecoveryCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal recovery code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume marks one code used, conditional on it being unused. A reused or
// unknown code fails the condition (or the lookup) and surfaces as
// domain.ErrConflict / domain.ErrNotFound.
func (r *RecoveryCodeRepo) Consume(ctx context.Context, userID, codeHash string) error {
	now := time.Now().UTC()
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldUsed:   true,
		fieldUsedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	ce, err := buildConditionExpr(map[string]interface{}{fieldUsed: false})
	if err != nil {
		return err
	}
	// attribute_exists guards against UpdateItem upserting a row for a code
	// that was never issued.
	condExpr := "attribute_exists(user_id) AND " + ce.Expr
	names, values := ue.merge(ce)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", userID, "code_hash", codeHash),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(condExpr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return translateConditionErr(err)
}

// DeleteAll removes every recovery code for the user (MFA disable or batch
// regeneration).
func (r *RecoveryCodeRepo) DeleteAll(ctx context.Context, userID string) error {
	hashes, err := r.listHashes(ctx, userID)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("user_id", userID, "code_hash", h),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecoveryCodeRepo) listHashes(ctx context.Context, userID string) ([]string, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ProjectionExpression: aws.String("code_hash"),
	})
	if err != nil {
		return nil, err
	}
	var hashes []string
	for _, item := range out.Items {
		if h, ok := item["code_hash"].(*types.AttributeValueMemberS); ok {
			hashes = append(hashes, h.Value)
		}
	}
	return hashes, nil
}
