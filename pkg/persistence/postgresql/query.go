package postgresql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/n8njson/directory/pkg/persistence"
)

// textColumns can be compared with string operators and are unset when NULL or empty.
var textColumns = map[persistence.Field]bool{
	persistence.FieldTitle:         true,
	persistence.FieldAITitle:       true,
	persistence.FieldDescription:   true,
	persistence.FieldAIDescription: true,
	persistence.FieldStatus:        true,
	persistence.FieldAICategory:    true,
	persistence.FieldComplexity:    true,
	persistence.FieldUseCase:       true,
	persistence.FieldWorkflowHash:  true,
	persistence.FieldSlug:          true,
}

var scalarColumns = map[persistence.Field]bool{
	persistence.FieldID:         true,
	persistence.FieldNodeCount:  true,
	persistence.FieldPopularity: true,
	persistence.FieldCreatedAt:  true,
	persistence.FieldUpdatedAt:  true,
}

// whereBuilder renders query filters into a parameterized WHERE clause.
type whereBuilder struct {
	args []any
}

func (b *whereBuilder) param(value any) string {
	b.args = append(b.args, value)

	return "$" + strconv.Itoa(len(b.args))
}

func (b *whereBuilder) build(filters []persistence.AnyOf) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	groups := make([]string, 0, len(filters))

	for _, group := range filters {
		alternatives := make([]string, 0, len(group))

		for _, condition := range group {
			clause, err := b.condition(condition)
			if err != nil {
				return "", err
			}

			alternatives = append(alternatives, clause)
		}

		groups = append(groups, "("+strings.Join(alternatives, " OR ")+")")
	}

	return " WHERE " + strings.Join(groups, " AND "), nil
}

func (b *whereBuilder) condition(c persistence.Condition) (string, error) {
	column := string(c.Field)
	isText := textColumns[c.Field]
	isList := persistence.ListFields[c.Field]

	if !isText && !isList && !scalarColumns[c.Field] {
		return "", fmt.Errorf("%w: field %q", persistence.ErrUnsupportedQuery, c.Field)
	}

	switch {
	case c.Op == persistence.OpIsNull && isText:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil
	case c.Op == persistence.OpIsNull:
		return column + " IS NULL", nil
	case c.Op == persistence.OpEq && !isList:
		return fmt.Sprintf("%s = %s", column, b.param(c.Value)), nil
	case c.Op == persistence.OpIEq && isText:
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, b.param(fmt.Sprint(c.Value))), nil
	case c.Op == persistence.OpILike && isText:
		return fmt.Sprintf("%s ILIKE %s", column, b.param("%"+escapeLike(fmt.Sprint(c.Value))+"%")), nil
	case c.Op == persistence.OpContains && isList:
		return fmt.Sprintf("%s = ANY(%s)", b.param(fmt.Sprint(c.Value)), column), nil
	case c.Op == persistence.OpContainsFold && isList:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS element WHERE LOWER(element) = LOWER(%s))",
			column, b.param(fmt.Sprint(c.Value))), nil
	default:
		return "", fmt.Errorf("%w: operator %q on field %q", persistence.ErrUnsupportedQuery, c.Op, c.Field)
	}
}

// orderClause sorts text by byte order and breaks ties by insertion time.
func orderClause(query *persistence.Query) (string, error) {
	if query.OrderBy == "" {
		return " ORDER BY created_at ASC, id ASC", nil
	}

	if !textColumns[query.OrderBy] && !scalarColumns[query.OrderBy] {
		return "", fmt.Errorf("%w: cannot order by %q", persistence.ErrUnsupportedQuery, query.OrderBy)
	}

	column := string(query.OrderBy)
	if textColumns[query.OrderBy] {
		column += ` COLLATE "C"`
	}

	direction := "ASC"
	if query.Descending {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s, created_at ASC, id ASC", column, direction), nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
