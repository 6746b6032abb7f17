package models

import (
	"strings"

	"github.com/n8njson/directory/pkg/slug"
)

// Integration is an app a template connects to.
type Integration struct {
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
}

// TemplateDisplay is the listing/page projection of a Template.
type TemplateDisplay struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Slug         string         `json:"slug"`
	Nodes        int            `json:"nodes"`
	Complexity   string         `json:"complexity"`
	Industries   []string       `json:"industries"`
	Integrations []Integration  `json:"integrations"`
	UseCases     []string       `json:"use_cases"`
	HowWorks     string         `json:"how_works,omitempty"`
	SetupSteps   []string       `json:"setup_steps"`
	Categories   []string       `json:"categories"`
	Roles        []string       `json:"roles"`
	Tags         []string       `json:"tags"`
	Workflow     map[string]any `json:"workflow_json,omitempty"`
	Source       string         `json:"source,omitempty"`
}

// ComplexityLabel maps a stored complexity level to its display label.
// Unknown levels are shown as Beginner.
func ComplexityLabel(level Complexity) string {
	switch Complexity(strings.ToLower(string(level))) {
	case ComplexityMedium:
		return ComplexityLabelIntermediate
	case ComplexityComplex:
		return ComplexityLabelAdvanced
	default:
		return ComplexityLabelBeginner
	}
}

// ComplexityFromLabel maps a display label to the stored level. Unrecognized
// labels pass through lower-cased.
func ComplexityFromLabel(label string) Complexity {
	switch label {
	case ComplexityLabelBeginner:
		return ComplexitySimple
	case ComplexityLabelIntermediate:
		return ComplexityMedium
	case ComplexityLabelAdvanced:
		return ComplexityComplex
	default:
		return Complexity(strings.ToLower(label))
	}
}

// ToDisplay projects a stored template into its display form.
func ToDisplay(t *Template) TemplateDisplay {
	title := t.DisplayTitle()

	description := t.Description
	if t.AIDescription != "" {
		description = t.AIDescription
	}

	templateSlug := t.Slug
	if templateSlug == "" {
		templateSlug = slug.Make(title)
	}

	integrations := make([]Integration, 0, len(t.AIAppsUsed))
	for _, app := range t.AIAppsUsed {
		integrations = append(integrations, Integration{Name: app})
	}

	categories := []string{}
	if t.AICategory != "" {
		categories = []string{t.AICategory}
	} else if len(t.Categories) > 0 {
		categories = t.Categories
	}

	return TemplateDisplay{
		ID:           t.ID,
		Title:        title,
		Description:  description,
		Slug:         templateSlug,
		Nodes:        t.NodeCount,
		Complexity:   ComplexityLabel(t.Complexity),
		Industries:   orEmpty(t.AIIndustries),
		Integrations: integrations,
		UseCases:     orEmpty(t.AIUseCases),
		HowWorks:     strings.Join(t.AIHowWorks, "\n\n"),
		SetupSteps:   orEmpty(t.AISetupSteps),
		Categories:   categories,
		Roles:        orEmpty(t.AIRoles),
		Tags:         orEmpty(t.AITags),
		Workflow:     t.Workflow,
		Source:       t.Source,
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
