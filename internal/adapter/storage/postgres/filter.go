package postgres

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Op is a filter comparison operator.
type Op int

const (
	OpEq Op = iota // equality, the default
	OpLt
	OpLe
	OpGt
	OpGe
	OpNe
	OpIn
	OpNotIn
	OpIs
	OpIsNot
	OpLike
	OpILike
)

// Cond is one typed filter condition: {field, operator, value}.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, v any) Cond     { return Cond{Field: field, Op: OpEq, Value: v} }
func Lt(field string, v any) Cond     { return Cond{Field: field, Op: OpLt, Value: v} }
func Le(field string, v any) Cond     { return Cond{Field: field, Op: OpLe, Value: v} }
func Gt(field string, v any) Cond     { return Cond{Field: field, Op: OpGt, Value: v} }
func Ge(field string, v any) Cond     { return Cond{Field: field, Op: OpGe, Value: v} }
func Ne(field string, v any) Cond     { return Cond{Field: field, Op: OpNe, Value: v} }
func In(field string, v any) Cond     { return Cond{Field: field, Op: OpIn, Value: v} }
func NotIn(field string, v any) Cond  { return Cond{Field: field, Op: OpNotIn, Value: v} }
func Is(field string, v any) Cond     { return Cond{Field: field, Op: OpIs, Value: v} }
func IsNot(field string, v any) Cond  { return Cond{Field: field, Op: OpIsNot, Value: v} }
func Like(field string, v any) Cond   { return Cond{Field: field, Op: OpLike, Value: v} }
func ILike(field string, v any) Cond  { return Cond{Field: field, Op: OpILike, Value: v} }

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var opSQL = map[Op]string{
	OpEq: "=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=", OpNe: "<>",
	OpLike: "LIKE", OpILike: "ILIKE",
}

// Where renders conditions into a " WHERE ..." clause with positional
// placeholders starting at $1, joined with AND. Conditions with an unknown
// operator or a malformed field name are a caller error.
func Where(conds ...Cond) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	var (
		parts []string
		args  []any
	)
	next := 1

	for _, c := range conds {
		if !identRe.MatchString(c.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", c.Field)
		}

		switch c.Op {
		case OpEq, OpLt, OpLe, OpGt, OpGe, OpNe, OpLike, OpILike:
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Field, opSQL[c.Op], next))
			args = append(args, c.Value)
			next++

		case OpIn, OpNotIn:
			vals, err := expandSlice(c.Value)
			if err != nil {
				return "", nil, fmt.Errorf("filter field %q: %w", c.Field, err)
			}
			placeholders := make([]string, len(vals))
			for i, v := range vals {
				placeholders[i] = fmt.Sprintf("$%d", next)
				args = append(args, v)
				next++
			}
			kw := "IN"
			if c.Op == OpNotIn {
				kw = "NOT IN"
			}
			parts = append(parts, fmt.Sprintf("%s %s (%s)", c.Field, kw, strings.Join(placeholders, ", ")))

		case OpIs, OpIsNot:
			kw := "IS"
			if c.Op == OpIsNot {
				kw = "IS NOT"
			}
			switch v := c.Value.(type) {
			case nil:
				parts = append(parts, fmt.Sprintf("%s %s NULL", c.Field, kw))
			case bool:
				lit := "FALSE"
				if v {
					lit = "TRUE"
				}
				parts = append(parts, fmt.Sprintf("%s %s %s", c.Field, kw, lit))
			default:
				return "", nil, fmt.Errorf("filter field %q: IS accepts nil or bool, got %T", c.Field, c.Value)
			}

		default:
			return "", nil, fmt.Errorf("filter field %q: unknown operator %d", c.Field, c.Op)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// expandSlice flattens a slice value into []any for IN/NOT IN rendering.
func expandSlice(v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("IN requires a slice value, got %T", v)
	}
	if rv.Len() == 0 {
		return nil, fmt.Errorf("IN requires a non-empty slice")
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
