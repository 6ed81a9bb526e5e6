package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authcore-api/internal/domain"
)

// DeviceTrustRepo manages device-trust tokens.
// PK: user_id, SK: token_hash. ExpiresAt doubles as the DynamoDB TTL.
type DeviceTrustRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDeviceTrustRepo(client *dynamodb.Client, tableName string) *DeviceTrustRepo {
	return &DeviceTrustRepo{client: client, tableName: tableName}
}

func (r *DeviceTrustRepo) Put(ctx context.Context, t *domain.DeviceTrustToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal device trust token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DeviceTrustRepo) Get(ctx context.Context, userID, tokenHash string) (*domain.DeviceTrustToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "token_hash", tokenHash),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("device trust token not found: %w", domain.ErrNotFound)
	}
	var t domain.DeviceTrustToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteAll removes every trust token for the user (MFA disable).
func (r *DeviceTrustRepo) DeleteAll(ctx context.Context, userID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ProjectionExpression: aws.String("token_hash"),
	})
	if err != nil {
		return err
	}
	for _, item := range out.Items {
		h, ok := item["token_hash"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("user_id", userID, "token_hash", h.Value),
		}); err != nil {
			return err
		}
	}
	return nil
}
