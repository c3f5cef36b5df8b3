// Package database builds the parameterised SELECT statements shared by the repositories.
package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	Between            ConditionType = "BETWEEN"
	Any                ConditionType = "ANY"
	Custom             ConditionType = "CUSTOM"
	defaultLimit                     = -1
	// maxAliasParts is the maximum number of parts when splitting on " AS ".
	maxAliasParts = 2
)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery *string
}

// Range is the value of a Between condition.
type Range struct {
	Low, High any
}

func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // panic prevents misuse; custom conditions must provide raw SQL via WhereRawCond.
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereBetween matches low <= field <= high.
func WhereBetween(field string, low, high any) Condition {
	return WhereCond(field, Between, Range{Low: low, High: high})
}

// WhereRawCond adds a raw SQL predicate. Each "?" in rawQuery is replaced by the next
// positional parameter.
func WhereRawCond(rawQuery string, params ...any) Condition {
	queryStr := rawQuery
	return Condition{Type: Custom, rawQuery: &queryStr, Value: params}
}

type ListQueryOptions struct {
	Table      string
	Alias      string
	Joins      []string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    []string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table: table,
		Limit: defaultLimit,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithAlias sets the table alias used by qualified columns.
func WithAlias(alias string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Alias = alias }
}

// WithJoin appends a raw JOIN clause. Callers pass static SQL only.
func WithJoin(join string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Joins = append(o.Joins, join) }
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithConditions appends several conditions.
func WithConditions(conds ...Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, conds...) }
}

// WithOrderBy appends an ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		dir := "ASC"
		if strings.EqualFold(direction, "desc") {
			dir = "DESC"
		}
		o.OrderBy = append(o.OrderBy, sanitizeQualifiedIdentifier(column)+" "+dir)
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset skips the first offset rows. Non-positive values are ignored.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset > 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// sanitizeIdentifier wraps a single string identifier for sanitization.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// sanitizeQualifiedIdentifier sanitizes qualified identifiers like "table.column".
func sanitizeQualifiedIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// processColumnSpec sanitizes "col" or "tbl.col AS alias".
func processColumnSpec(columnSpec string) string {
	parts := strings.SplitN(columnSpec, " AS ", maxAliasParts)
	col := sanitizeQualifiedIdentifier(strings.TrimSpace(parts[0]))
	if len(parts) == maxAliasParts {
		return col + " AS " + sanitizeIdentifier(strings.TrimSpace(parts[1]))
	}
	return col
}

func buildFromClause(options *ListQueryOptions) string {
	from := sanitizeIdentifier(options.Table)
	if options.Alias != "" {
		from += " " + sanitizeIdentifier(options.Alias)
	}
	for _, j := range options.Joins {
		from += " " + j
	}
	return from
}

func buildSelectClause(options *ListQueryOptions) string {
	if options.CountOnly {
		return "SELECT COUNT(*)"
	}
	if len(options.Columns) == 0 {
		return "SELECT *"
	}
	cols := make([]string, len(options.Columns))
	for i, c := range options.Columns {
		cols[i] = processColumnSpec(c)
	}
	return "SELECT " + strings.Join(cols, ", ")
}

// BuildListQuery renders the SELECT statement and its positional arguments.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	var sb strings.Builder
	sb.WriteString(buildSelectClause(options))
	sb.WriteString(" FROM ")
	sb.WriteString(buildFromClause(options))

	where, args := buildWhereClause(options.Conditions, 1)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if !options.CountOnly {
		if len(options.OrderBy) > 0 {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(strings.Join(options.OrderBy, ", "))
		}
		if options.Limit >= 0 {
			sb.WriteString(" LIMIT ")
			sb.WriteString(strconv.Itoa(options.Limit))
		}
		if options.Offset > 0 {
			sb.WriteString(" OFFSET ")
			sb.WriteString(strconv.Itoa(options.Offset))
		}
	}
	return sb.String(), args
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }

func handleCustomCondition(cond Condition, paramCount int) (string, []any, int) {
	params, _ := cond.Value.([]any)
	var sb strings.Builder
	used := 0
	for _, r := range *cond.rawQuery {
		if r == '?' && used < len(params) {
			sb.WriteString(placeholder(paramCount))
			paramCount++
			used++
			continue
		}
		sb.WriteRune(r)
	}
	return "(" + sb.String() + ")", params[:used], paramCount
}

func processCondition(cond Condition, paramCount int) (string, []any, int) {
	field := sanitizeQualifiedIdentifier(cond.Field)
	switch cond.Type {
	case Custom:
		return handleCustomCondition(cond, paramCount)
	case Between:
		rng, ok := cond.Value.(Range)
		if !ok {
			return "", nil, paramCount
		}
		clause := fmt.Sprintf("%s BETWEEN %s AND %s", field, placeholder(paramCount), placeholder(paramCount+1))
		return clause, []any{rng.Low, rng.High}, paramCount + 2
	case Any:
		return fmt.Sprintf("%s = ANY(%s)", field, placeholder(paramCount)), []any{cond.Value}, paramCount + 1
	default:
		return fmt.Sprintf("%s %s %s", field, cond.Type, placeholder(paramCount)), []any{cond.Value}, paramCount + 1
	}
}

func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any) {
	clauses := make([]string, 0, len(inputConditions))
	var args []any
	n := startParamIndex
	for _, cond := range inputConditions {
		clause, condArgs, next := processCondition(cond, n)
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
		n = next
	}
	return strings.Join(clauses, " AND "), args
}
