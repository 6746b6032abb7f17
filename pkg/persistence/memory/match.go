package memory

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
)

// Apply evaluates a query against a slice of templates. Input order breaks
// sort ties, so callers should pass rows in insertion order.
func Apply(templates []*models.Template, query *persistence.Query) (*persistence.FindResult, error) {
	if query == nil {
		query = persistence.NewQuery()
	}

	matched := make([]*models.Template, 0, len(templates))

	for _, template := range templates {
		ok, err := Matches(template, query.Filters)
		if err != nil {
			return nil, err
		}

		if ok {
			matched = append(matched, template)
		}
	}

	if query.OrderBy != "" {
		err := sortTemplates(matched, query.OrderBy, query.Descending)
		if err != nil {
			return nil, err
		}
	}

	result := &persistence.FindResult{}
	if query.Count {
		result.TotalCount = int64(len(matched))
	}

	start := min(max(query.Offset, 0), len(matched))

	end := len(matched)
	if query.Limit > 0 {
		end = min(start+query.Limit, len(matched))
	}

	result.Templates = matched[start:end]

	return result, nil
}

// Matches reports whether the template satisfies every filter group.
func Matches(template *models.Template, filters []persistence.AnyOf) (bool, error) {
	for _, group := range filters {
		ok, err := matchesAny(template, group)
		if err != nil {
			return false, err
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func matchesAny(template *models.Template, group persistence.AnyOf) (bool, error) {
	for _, condition := range group {
		ok, err := matchCondition(template, condition)
		if err != nil {
			return false, err
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

func matchCondition(template *models.Template, condition persistence.Condition) (bool, error) {
	value, err := fieldValue(template, condition.Field)
	if err != nil {
		return false, err
	}

	switch condition.Op {
	case persistence.OpIsNull:
		return isZero(value), nil
	case persistence.OpEq:
		return equal(value, condition.Value), nil
	case persistence.OpIEq:
		text, ok := value.(string)

		return ok && strings.EqualFold(text, stringValue(condition.Value)), nil
	case persistence.OpILike:
		text, ok := value.(string)

		return ok && strings.Contains(strings.ToLower(text), strings.ToLower(stringValue(condition.Value))), nil
	case persistence.OpContains:
		list, ok := value.([]string)

		return ok && slices.Contains(list, stringValue(condition.Value)), nil
	case persistence.OpContainsFold:
		list, ok := value.([]string)
		if !ok {
			return false, nil
		}

		want := stringValue(condition.Value)

		return slices.ContainsFunc(list, func(item string) bool { return strings.EqualFold(item, want) }), nil
	default:
		return false, fmt.Errorf("%w: operator %q", persistence.ErrUnsupportedQuery, condition.Op)
	}
}

func fieldValue(t *models.Template, field persistence.Field) (any, error) {
	switch field {
	case persistence.FieldID:
		return t.ID, nil
	case persistence.FieldTitle:
		return t.Title, nil
	case persistence.FieldAITitle:
		return t.AITitle, nil
	case persistence.FieldDescription:
		return t.Description, nil
	case persistence.FieldAIDescription:
		return t.AIDescription, nil
	case persistence.FieldStatus:
		return string(t.Status), nil
	case persistence.FieldCategories:
		return t.Categories, nil
	case persistence.FieldAICategory:
		return t.AICategory, nil
	case persistence.FieldIndustries:
		return t.AIIndustries, nil
	case persistence.FieldRoles:
		return t.AIRoles, nil
	case persistence.FieldComplexity:
		return string(t.Complexity), nil
	case persistence.FieldUseCase:
		return t.UseCase, nil
	case persistence.FieldAppsUsed:
		return t.AIAppsUsed, nil
	case persistence.FieldAIUseCases:
		return t.AIUseCases, nil
	case persistence.FieldTags:
		return t.AITags, nil
	case persistence.FieldWorkflowHash:
		return t.WorkflowHash, nil
	case persistence.FieldNodeCount:
		return t.NodeCount, nil
	case persistence.FieldNodesUsed:
		return t.NodesUsed, nil
	case persistence.FieldPopularity:
		return t.PopularityScore, nil
	case persistence.FieldSlug:
		return t.Slug, nil
	case persistence.FieldCreatedAt:
		return t.CreatedAt, nil
	case persistence.FieldUpdatedAt:
		return t.UpdatedAt, nil
	default:
		return nil, fmt.Errorf("%w: field %q", persistence.ErrUnsupportedQuery, field)
	}
}

func isZero(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case []string:
		return v == nil
	case time.Time:
		return v.IsZero()
	default:
		return false
	}
}

func equal(value, want any) bool {
	switch v := value.(type) {
	case string:
		return v == stringValue(want)
	case int:
		w, ok := want.(int)

		return ok && v == w
	case time.Time:
		w, ok := want.(time.Time)

		return ok && v.Equal(w)
	default:
		return false
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func sortTemplates(templates []*models.Template, field persistence.Field, descending bool) error {
	if persistence.ListFields[field] {
		return fmt.Errorf("%w: cannot order by list field %q", persistence.ErrUnsupportedQuery, field)
	}

	var sortErr error

	sort.SliceStable(templates, func(i, j int) bool {
		a, err := fieldValue(templates[i], field)
		if err != nil {
			sortErr = err

			return false
		}

		b, _ := fieldValue(templates[j], field)

		if descending {
			return less(b, a)
		}

		return less(a, b)
	})

	return sortErr
}

func less(a, b any) bool {
	switch x := a.(type) {
	case string:
		return x < b.(string)
	case int:
		return x < b.(int)
	case time.Time:
		return x.Before(b.(time.Time))
	case bool:
		return !x && b.(bool)
	default:
		return false
	}
}
