package postgresql

import (
	"testing"

	"github.com/n8njson/directory/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereBuilder(t *testing.T) {
	b := &whereBuilder{}

	where, err := b.build([]persistence.AnyOf{
		{persistence.Eq(persistence.FieldStatus, "published"), persistence.IsNull(persistence.FieldStatus)},
		{persistence.ILike(persistence.FieldTitle, "a_b"), persistence.ContainsFold(persistence.FieldTags, "crm")},
		{persistence.Contains(persistence.FieldCategories, "Sales")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		" WHERE (status = $1 OR (status IS NULL OR status = ''))"+
			" AND (title ILIKE $2 OR EXISTS (SELECT 1 FROM unnest(ai_tags) AS element WHERE LOWER(element) = LOWER($3)))"+
			" AND ($4 = ANY(categories))",
		where)
	assert.Equal(t, []any{"published", `%a\_b%`, "crm", "Sales"}, b.args)
}

func TestWhereBuilder_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		condition persistence.Condition
	}{
		{name: "unknown field", condition: persistence.Eq("title; DROP TABLE templates", "x")},
		{name: "ilike on list", condition: persistence.ILike(persistence.FieldTags, "x")},
		{name: "contains on text", condition: persistence.Contains(persistence.FieldTitle, "x")},
		{name: "eq on list", condition: persistence.Eq(persistence.FieldTags, "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&whereBuilder{}).build([]persistence.AnyOf{{tt.condition}})
			assert.True(t, persistence.IsUnsupportedQuery(err))
		})
	}
}

func TestOrderClause(t *testing.T) {
	clause, err := orderClause(persistence.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY created_at ASC, id ASC", clause)

	clause, err = orderClause(persistence.NewQuery().Order(persistence.FieldTitle, false))
	require.NoError(t, err)
	assert.Equal(t, ` ORDER BY title COLLATE "C" ASC, created_at ASC, id ASC`, clause)

	clause, err = orderClause(persistence.NewQuery().Order(persistence.FieldNodeCount, true))
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY node_count DESC, created_at ASC, id ASC", clause)

	_, err = orderClause(persistence.NewQuery().Order(persistence.FieldTags, true))
	assert.True(t, persistence.IsUnsupportedQuery(err))
}
