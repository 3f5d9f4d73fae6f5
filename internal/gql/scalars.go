package gql

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"
)

// Decimal is a fixed point number serialized as a string with two decimal places.
// Input accepts numbers or numeric strings.
var Decimal = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Decimal",
	Description: "Fixed point decimal number, serialized as a string.",
	Serialize:   serializeDecimal,
	ParseValue:  parseDecimalValue,
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			return parseDecimalString(v.Value)
		case *ast.IntValue:
			return parseDecimalString(v.Value)
		case *ast.FloatValue:
			return parseDecimalString(v.Value)
		}
		return nil
	},
})

func serializeDecimal(value interface{}) interface{} {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return v.StringFixed(2)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil
		}
		return d.StringFixed(2)
	}
	return nil
}

func parseDecimalValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return parseDecimalString(v)
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case decimal.Decimal:
		return v
	}
	return nil
}

func parseDecimalString(s string) interface{} {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}
