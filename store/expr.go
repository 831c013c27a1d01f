package store

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// projection builds a projection over the key attributes of t plus the
// named attributes. Duplicate names are projected once and each name is a
// top-level attribute, dots included. It reports false when a name holds a
// bracket, which no projection can address; callers then read whole items.
func projection(t Table, names ...string) (expression.ProjectionBuilder, bool) {
	seen := make(map[string]bool)
	var proj expression.ProjectionBuilder
	for _, name := range append(t.KeyAttributes(), names...) {
		if name == "" || seen[name] {
			continue
		}
		if strings.ContainsAny(name, "[]") {
			return expression.ProjectionBuilder{}, false
		}
		seen[name] = true
		proj = proj.AddNames(expression.NameNoDotSplit(name))
	}
	return proj, true
}

// withProjection adds the projection of names to b when one can be built.
func withProjection(b expression.Builder, t Table, names ...string) expression.Builder {
	if proj, ok := projection(t, names...); ok {
		return b.WithProjection(proj)
	}
	return b
}

// projectGet restricts input to the key attributes of t plus names. The
// input is left reading whole items when no projection applies.
func projectGet(input *dynamodb.GetItemInput, t Table, names ...string) error {
	proj, ok := projection(t, names...)
	if !ok {
		return nil
	}
	expr, err := buildExpr(expression.NewBuilder().WithProjection(proj))
	if err != nil {
		return err
	}
	input.ProjectionExpression = expr.Projection()
	input.ExpressionAttributeNames = expr.Names()
	return nil
}

// keyEqual builds the key condition attr == value.
func keyEqual(attr, value string) expression.KeyConditionBuilder {
	return expression.Key(attr).Equal(expression.Value(value))
}

func buildExpr(b expression.Builder) (expression.Expression, error) {
	expr, err := b.Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("build expression: %w", err)
	}
	return expr, nil
}
