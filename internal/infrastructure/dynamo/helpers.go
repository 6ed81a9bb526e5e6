package dynamo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/authcore-api/internal/domain"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// updateExpr bundles a DynamoDB expression with its name/value placeholders.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET
// expression. Fields are sorted so the generated expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (*updateExpr, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	keys := sortedKeys(updates)
	ue := &updateExpr{
		Expr:   "SET ",
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		ue.Names[nameKey] = k
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ue, nil
}

// buildConditionExpr converts a map of field->expected value into a condition
// expression ANDing all equality checks. Placeholders are prefixed with "c"
// so they never collide with buildUpdateExpr output on the same request.
func buildConditionExpr(conds map[string]interface{}) (*updateExpr, error) {
	if len(conds) == 0 {
		return nil, fmt.Errorf("no conditions")
	}
	keys := sortedKeys(conds)
	ce := &updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	for i, k := range keys {
		nameKey := fmt.Sprintf("#c%d", i)
		valueKey := fmt.Sprintf(":c%d", i)
		ce.Names[nameKey] = k
		av, err := attributevalue.Marshal(conds[k])
		if err != nil {
			return nil, fmt.Errorf("marshal condition %s: %w", k, err)
		}
		ce.Values[valueKey] = av
		if i > 0 {
			ce.Expr += " AND "
		}
		ce.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ce, nil
}

// merge combines another expression's placeholders into this one, returning
// the combined name/value maps UpdateItem expects.
func (ue *updateExpr) merge(other *updateExpr) (map[string]string, map[string]types.AttributeValue) {
	names := make(map[string]string, len(ue.Names)+len(other.Names))
	values := make(map[string]types.AttributeValue, len(ue.Values)+len(other.Values))
	for k, v := range ue.Names {
		names[k] = v
	}
	for k, v := range other.Names {
		names[k] = v
	}
	for k, v := range ue.Values {
		values[k] = v
	}
	for k, v := range other.Values {
		values[k] = v
	}
	return names, values
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// translateConditionErr maps a failed ConditionExpression to domain.ErrConflict
// so services can treat lost conditional writes as state conflicts.
func translateConditionErr(err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("conditional write failed: %w", domain.ErrConflict)
	}
	return err
}
