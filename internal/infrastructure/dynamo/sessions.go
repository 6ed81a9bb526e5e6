package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authcore-api/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the sessions table.
// State transitions are conditional writes: the row must currently be in the
// state the transition starts from, and a lost race surfaces as
// domain.ErrConflict. No in-process locking anywhere.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	return err
}

// TransitionToVerified flips a pending session to verified in one conditional
// write: sets the new expiry windows, marks MFA verified and replaces the
// payload (pending marker cleared). Fails with domain.ErrConflict if the
// session is no longer pending.
func (r *SessionRepo) TransitionToVerified(ctx context.Context, sessionID string, idleExpiresAt, absExpiresAt int64, data map[string]string) error {
	return r.updateIfState(ctx, sessionID, domain.SessionPending, map[string]interface{}{
		fieldState:         string(domain.SessionVerified),
		fieldMfaVerified:   true,
		fieldIdleExpiresAt: idleExpiresAt,
		fieldAbsExpiresAt:  absExpiresAt,
		fieldData:          data,
	})
}

// ExtendIdle moves the idle expiry of a verified session. The state condition
// makes a racing revoke win: a terminal session refuses the write with
// domain.ErrConflict.
func (r *SessionRepo) ExtendIdle(ctx context.Context, sessionID string, idleExpiresAt int64) error {
	return r.updateIfState(ctx, sessionID, domain.SessionVerified, map[string]interface{}{
		fieldIdleExpiresAt: idleExpiresAt,
	})
}

// SetActiveCompany switches the session's active company; only verified
// sessions may switch.
func (r *SessionRepo) SetActiveCompany(ctx context.Context, sessionID, companyID string) error {
	return r.updateIfState(ctx, sessionID, domain.SessionVerified, map[string]interface{}{
		fieldActiveCompanyID: companyID,
	})
}

// TransitionToTerminal marks the session revoked or expired. Idempotent: a
// session that is already terminal is left untouched and no error is
// returned, so revoking twice is harmless and revoke always beats touch.
func (r *SessionRepo) TransitionToTerminal(ctx context.Context, sessionID string, to domain.SessionState) error {
	if !to.Terminal() {
		return fmt.Errorf("%q is not a terminal state: %w", to, domain.ErrBadRequest)
	}
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldState:   string(to),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	names, values := ue.merge(&updateExpr{
		Names: map[string]string{"#st": fieldState},
		Values: map[string]types.AttributeValue{
			":pending":  &types.AttributeValueMemberS{Value: string(domain.SessionPending)},
			":verified": &types.AttributeValueMemberS{Value: string(domain.SessionVerified)},
		},
	})
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("session_id", sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#st = :pending OR #st = :verified"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err = translateConditionErr(err); errors.Is(err, domain.ErrConflict) {
		return nil
	}
	return err
}

// ListByUser returns all sessions owned by userID via the user_id GSI.
func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var sessions []domain.Session
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepo) updateIfState(ctx context.Context, sessionID string, from domain.SessionState, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ce, err := buildConditionExpr(map[string]interface{}{fieldState: string(from)})
	if err != nil {
		return err
	}
	names, values := ue.merge(ce)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("session_id", sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(ce.Expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return translateConditionErr(err)
}
