package persistence

// Field names a template column.
type Field string

const (
	FieldID            Field = "id"
	FieldTitle         Field = "title"
	FieldAITitle       Field = "ai_title"
	FieldDescription   Field = "description"
	FieldAIDescription Field = "ai_description"
	FieldStatus        Field = "status"
	FieldCategories    Field = "categories"
	FieldAICategory    Field = "ai_categories"
	FieldIndustries    Field = "ai_industries"
	FieldRoles         Field = "ai_roles"
	FieldComplexity    Field = "complexity_level"
	FieldUseCase       Field = "use_case"
	FieldAppsUsed      Field = "ai_apps_used"
	FieldAIUseCases    Field = "ai_use_cases"
	FieldTags          Field = "ai_tags"
	FieldWorkflowHash  Field = "workflow_hash"
	FieldNodeCount     Field = "node_count"
	FieldNodesUsed     Field = "nodes_used"
	FieldPopularity    Field = "popularity_score"
	FieldSlug          Field = "slug"
	FieldCreatedAt     Field = "created_at"
	FieldUpdatedAt     Field = "updated_at"
)

// ListFields are the columns holding string lists.
var ListFields = map[Field]bool{
	FieldCategories: true,
	FieldIndustries: true,
	FieldRoles:      true,
	FieldAppsUsed:   true,
	FieldAIUseCases: true,
	FieldTags:       true,
	FieldNodesUsed:  true,
}

// Operator is a comparison supported by every store.
type Operator string

const (
	OpEq           Operator = "eq"            // Exact equality
	OpIEq          Operator = "ieq"           // Case-insensitive string equality
	OpILike        Operator = "ilike"         // Case-insensitive substring
	OpIsNull       Operator = "is_null"       // Value is unset
	OpContains     Operator = "contains"      // List holds the element
	OpContainsFold Operator = "contains_fold" // List holds the element, ignoring case
)

// Condition compares one field against a value.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

func Eq(field Field, value any) Condition { return Condition{Field: field, Op: OpEq, Value: value} }
func IEq(field Field, value string) Condition {
	return Condition{Field: field, Op: OpIEq, Value: value}
}
func ILike(field Field, value string) Condition {
	return Condition{Field: field, Op: OpILike, Value: value}
}
func IsNull(field Field) Condition { return Condition{Field: field, Op: OpIsNull} }
func Contains(field Field, value string) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

func ContainsFold(field Field, value string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: value}
}

// AnyOf is satisfied when at least one of its conditions holds.
type AnyOf []Condition

// Query selects templates. Filters are ANDed; each filter is an OR group.
type Query struct {
	Filters    []AnyOf
	OrderBy    Field
	Descending bool
	Limit      int // 0 means unbounded
	Offset     int
	Count      bool
}

// NewQuery returns an empty query matching every row.
func NewQuery() *Query {
	return &Query{}
}

// Where adds a group of alternatives that must hold.
func (q *Query) Where(conditions ...Condition) *Query {
	if len(conditions) > 0 {
		q.Filters = append(q.Filters, AnyOf(conditions))
	}

	return q
}

// Visible restricts the query to published rows and legacy rows with no status.
func (q *Query) Visible() *Query {
	return q.Where(Eq(FieldStatus, "published"), IsNull(FieldStatus))
}

// Order sets the sort field.
func (q *Query) Order(field Field, descending bool) *Query {
	q.OrderBy = field
	q.Descending = descending

	return q
}

// Window sets a half-open [offset, offset+limit) row window.
func (q *Query) Window(offset, limit int) *Query {
	q.Offset = offset
	q.Limit = limit

	return q
}

// WithCount asks the store for the total number of matching rows.
func (q *Query) WithCount() *Query {
	q.Count = true

	return q
}
