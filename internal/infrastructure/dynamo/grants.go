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

// GrantRepo manages company access grants.
// PK: user_id, SK: company_id.
type GrantRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewGrantRepo(client *dynamodb.Client, tableName string) *GrantRepo {
	return &GrantRepo{client: client, tableName: tableName}
}

func (r *GrantRepo) Put(ctx context.Context, g *domain.CompanyAccessGrant) error {
	item, err := attributevalue.MarshalMap(g)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *GrantRepo) Get(ctx context.Context, userID, companyID string) (*domain.CompanyAccessGrant, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "company_id", companyID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("grant not found: %w", domain.ErrNotFound)
	}
	var g domain.CompanyAccessGrant
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActiveByUser returns the user's active grants.
func (r *GrantRepo) ListActiveByUser(ctx context.Context, userID string) ([]domain.CompanyAccessGrant, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var grants []domain.CompanyAccessGrant
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

// TouchLastAccessed records a company switch on the grant.
func (r *GrantRepo) TouchLastAccessed(ctx context.Context, userID, companyID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldLastAccessedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", userID, "company_id", companyID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
