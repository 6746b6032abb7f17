package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/n8njson/directory/pkg/cache"
	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/otelhelper"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/slug"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sort keys accepted by List.
const (
	SortRecent       = "recent"
	SortPopular      = "popular"
	SortAlphabetical = "alphabetical"
	SortNodeCount    = "node_count"
)

// FilterAll is the UI's "no filter" value.
const FilterAll = "All"

const (
	// DefaultWindow is used when an offset is given without a limit.
	DefaultWindow = 50

	// BrowsePageSize is the number of templates per taxonomy page.
	BrowsePageSize = 12

	// FilterOptionsKey is the cache key for FilterOptions.
	FilterOptionsKey = "filter_options"

	// DefaultFilterOptionsTTL bounds how long cached filter options live.
	DefaultFilterOptionsTTL = 5 * time.Minute
)

// TaxonomyKind names a browsable facet.
type TaxonomyKind string

const (
	TaxonomyCategory TaxonomyKind = "category"
	TaxonomyIndustry TaxonomyKind = "industry"
	TaxonomyRole     TaxonomyKind = "role"
)

// ParseTaxonomyKind validates a facet name.
func ParseTaxonomyKind(kind string) (TaxonomyKind, error) {
	switch TaxonomyKind(kind) {
	case TaxonomyCategory, TaxonomyIndustry, TaxonomyRole:
		return TaxonomyKind(kind), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTaxonomy, kind)
	}
}

// TemplateFilters selects and orders a page of templates.
type TemplateFilters struct {
	Search     string
	Category   string
	Industry   string
	Role       string
	Complexity string
	UseCase    string
	SortBy     string
	Limit      int // 0 means unset
	Offset     int // 0 means unset
}

// TemplateList is one page of display-shaped templates.
type TemplateList struct {
	Templates []models.TemplateDisplay `json:"templates"`
	Total     int64                    `json:"total"`
}

// FilterOptions are the distinct facet values present in the directory.
type FilterOptions struct {
	Categories       []string `json:"categories"`
	Industries       []string `json:"industries"`
	Roles            []string `json:"roles"`
	UseCases         []string `json:"use_cases"`
	ComplexityLevels []string `json:"complexity_levels"`
}

// Values returns the options for a taxonomy kind.
func (o *FilterOptions) Values(kind TaxonomyKind) []string {
	switch kind {
	case TaxonomyCategory:
		return o.Categories
	case TaxonomyIndustry:
		return o.Industries
	case TaxonomyRole:
		return o.Roles
	default:
		return nil
	}
}

// Stats summarises the directory.
type Stats struct {
	Total        int64          `json:"total"`
	ByComplexity map[string]int `json:"by_complexity"`
	ByUseCase    map[string]int `json:"by_use_case"`
}

// BrowsePage is one page of a taxonomy listing.
type BrowsePage struct {
	Kind       TaxonomyKind             `json:"kind"`
	Slug       string                   `json:"slug"`
	Name       string                   `json:"name"`
	Templates  []models.TemplateDisplay `json:"templates"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	TotalPages int                      `json:"total_pages"`
}

// Catalog answers listing, facet and statistics queries.
type Catalog struct {
	persistence persistence.Persistence
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *metrics.Metrics
}

// NewCatalog creates a catalog service. Cache, tracer and metrics may be nil.
func NewCatalog(
	p persistence.Persistence,
	c cache.Cache,
	logger *slog.Logger,
	tracer trace.Tracer,
	m *metrics.Metrics,
) *Catalog {
	if c == nil {
		c = cache.Noop{}
	}

	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Catalog{
		persistence: p,
		cache:       c,
		cacheTTL:    DefaultFilterOptionsTTL,
		logger:      logger.With("module", "catalog"),
		tracer:      tracer,
		metrics:     m,
	}
}

// WithCacheTTL overrides how long filter options are cached.
func (c *Catalog) WithCacheTTL(ttl time.Duration) *Catalog {
	c.cacheTTL = ttl

	return c
}

// HealthCheck checks the health of the persistence layer.
func (c *Catalog) HealthCheck(ctx context.Context) (string, bool) {
	if c.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := c.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns visible templates matching the filters.
func (c *Catalog) List(ctx context.Context, filters TemplateFilters) (*TemplateList, error) {
	start := time.Now()

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = SortRecent
	}

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "catalog.list",
		attribute.String(otelhelper.SearchKey, filters.Search),
		attribute.String(otelhelper.SortKey, sortBy))
	defer span.End()

	query, err := buildListQuery(filters, sortBy)
	if err != nil {
		return nil, err
	}

	result, err := c.persistence.TemplateRepository().Find(ctx, query)
	if err != nil {
		otelhelper.SetError(span, err)
		c.logger.ErrorContext(ctx, "failed to list templates", "error", err)

		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates := make([]models.TemplateDisplay, 0, len(result.Templates))
	for _, template := range result.Templates {
		templates = append(templates, models.ToDisplay(template))
	}

	promoteTitleMatches(templates, strings.Fields(filters.Search))

	span.SetAttributes(attribute.Int(otelhelper.ResultCountKey, len(templates)))

	if c.metrics != nil {
		c.metrics.RecordListQuery(sortBy, strings.TrimSpace(filters.Search) != "", time.Since(start).Seconds())
	}

	return &TemplateList{Templates: templates, Total: result.TotalCount}, nil
}

func buildListQuery(filters TemplateFilters, sortBy string) (*persistence.Query, error) {
	if filters.Limit < 0 || filters.Offset < 0 {
		return nil, NewValidationError("List", "INVALID_PAGINATION",
			"limit and offset must not be negative", ErrInvalidPagination)
	}

	query := persistence.NewQuery().Visible().WithCount()

	for _, token := range strings.Fields(filters.Search) {
		query.Where(
			persistence.ILike(persistence.FieldTitle, token),
			persistence.ILike(persistence.FieldAITitle, token),
			persistence.ILike(persistence.FieldDescription, token),
			persistence.ILike(persistence.FieldAIDescription, token),
			persistence.ContainsFold(persistence.FieldAppsUsed, token),
			persistence.ContainsFold(persistence.FieldAIUseCases, token),
			persistence.ContainsFold(persistence.FieldTags, token),
		)
	}

	if isSet(filters.Category) {
		query.Where(persistence.Contains(persistence.FieldCategories, filters.Category))
	}

	if isSet(filters.Industry) {
		query.Where(persistence.Contains(persistence.FieldIndustries, filters.Industry))
	}

	if isSet(filters.Role) {
		query.Where(persistence.Contains(persistence.FieldRoles, filters.Role))
	}

	if isSet(filters.Complexity) {
		level := models.ComplexityFromLabel(filters.Complexity)
		query.Where(persistence.Eq(persistence.FieldComplexity, string(level)))
	}

	if isSet(filters.UseCase) {
		query.Where(persistence.Eq(persistence.FieldUseCase, filters.UseCase))
	}

	switch sortBy {
	case SortRecent:
		query.Order(persistence.FieldCreatedAt, true)
	case SortPopular:
		query.Order(persistence.FieldPopularity, true)
	case SortAlphabetical:
		query.Order(persistence.FieldTitle, false)
	case SortNodeCount:
		query.Order(persistence.FieldNodeCount, true)
	default:
		return nil, NewValidationError("List", "INVALID_SORT_FIELD",
			fmt.Sprintf("unsupported sort %q", sortBy), ErrInvalidSortField)
	}

	limit := filters.Limit
	if filters.Offset > 0 && limit == 0 {
		limit = DefaultWindow
	}

	query.Window(filters.Offset, limit)

	return query, nil
}

func isSet(filter string) bool {
	return filter != "" && filter != FilterAll
}

// promoteTitleMatches moves templates whose title contains every token to the
// front, keeping the store order within each group.
func promoteTitleMatches(templates []models.TemplateDisplay, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	lowered := make([]string, len(tokens))
	for i, token := range tokens {
		lowered[i] = strings.ToLower(token)
	}

	titleMatch := func(t models.TemplateDisplay) bool {
		title := strings.ToLower(t.Title)
		for _, token := range lowered {
			if !strings.Contains(title, token) {
				return false
			}
		}

		return true
	}

	sort.SliceStable(templates, func(i, j int) bool {
		return titleMatch(templates[i]) && !titleMatch(templates[j])
	})
}

// FilterOptions returns the distinct facet values across every stored template.
func (c *Catalog) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "catalog.filter_options")
	defer span.End()

	var cached FilterOptions

	hit, err := c.cache.Get(ctx, FilterOptionsKey, &cached)
	if err != nil {
		c.logger.WarnContext(ctx, "filter options cache read failed", "error", err)
	}

	c.recordCache(hit)

	if hit {
		return &cached, nil
	}

	result, err := c.persistence.TemplateRepository().Find(ctx, persistence.NewQuery())
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load filter options: %w", err)
	}

	options := collectFilterOptions(result.Templates)

	err = c.cache.Set(ctx, FilterOptionsKey, options, c.cacheTTL)
	if err != nil {
		c.logger.WarnContext(ctx, "filter options cache write failed", "error", err)
	}

	return options, nil
}

func collectFilterOptions(templates []*models.Template) *FilterOptions {
	categories := map[string]struct{}{}
	industries := map[string]struct{}{}
	roles := map[string]struct{}{}
	useCases := map[string]struct{}{}
	levels := map[string]struct{}{}

	for _, t := range templates {
		addAll(categories, t.Categories)
		addAll(industries, t.AIIndustries)
		addAll(roles, t.AIRoles)

		if t.UseCase != "" {
			useCases[t.UseCase] = struct{}{}
		}

		if t.Complexity != "" {
			levels[models.ComplexityLabel(t.Complexity)] = struct{}{}
		}
	}

	return &FilterOptions{
		Categories:       sortedKeys(categories),
		Industries:       sortedKeys(industries),
		Roles:            sortedKeys(roles),
		UseCases:         sortedKeys(useCases),
		ComplexityLevels: sortedKeys(levels),
	}
}

func addAll(set map[string]struct{}, values []string) {
	for _, value := range values {
		set[value] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// InvalidateFilterOptions drops the cached facet values.
func (c *Catalog) InvalidateFilterOptions(ctx context.Context) {
	err := c.cache.Delete(ctx, FilterOptionsKey)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate filter options", "error", err)
	}
}

// Stats counts every stored template by complexity label and use case.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "catalog.stats")
	defer span.End()

	result, err := c.persistence.TemplateRepository().Find(ctx, persistence.NewQuery().WithCount())
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load template stats: %w", err)
	}

	stats := &Stats{
		Total:        result.TotalCount,
		ByComplexity: map[string]int{},
		ByUseCase:    map[string]int{},
	}

	for _, t := range result.Templates {
		if t.Complexity != "" {
			stats.ByComplexity[models.ComplexityLabel(t.Complexity)]++
		}

		if t.UseCase != "" {
			stats.ByUseCase[t.UseCase]++
		}
	}

	return stats, nil
}

// Browse lists one page of templates for the facet value whose slug matches.
func (c *Catalog) Browse(ctx context.Context, kind TaxonomyKind, pageSlug string, page int) (*BrowsePage, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "catalog.browse",
		attribute.String(otelhelper.TaxonomyKindKey, string(kind)),
		attribute.String(otelhelper.TemplateSlugKey, pageSlug))
	defer span.End()

	kind, err := ParseTaxonomyKind(string(kind))
	if err != nil {
		return nil, err
	}

	options, err := c.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}

	values := options.Values(kind)

	idx := slices.IndexFunc(values, func(value string) bool { return slug.Make(value) == pageSlug })
	if idx < 0 {
		return nil, persistence.NewTemplateError("Browse", "", persistence.ErrTemplateNotFound)
	}

	name := values[idx]

	if page < 1 {
		page = 1
	}

	filters := TemplateFilters{
		SortBy: SortRecent,
		Limit:  BrowsePageSize,
		Offset: (page - 1) * BrowsePageSize,
	}

	switch kind {
	case TaxonomyCategory:
		filters.Category = name
	case TaxonomyIndustry:
		filters.Industry = name
	case TaxonomyRole:
		filters.Role = name
	}

	list, err := c.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &BrowsePage{
		Kind:       kind,
		Slug:       pageSlug,
		Name:       name,
		Templates:  list.Templates,
		Total:      list.Total,
		Page:       page,
		TotalPages: int(math.Ceil(float64(list.Total) / BrowsePageSize)),
	}, nil
}

func (c *Catalog) recordCache(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCache(FilterOptionsKey, hit)
	}
}
