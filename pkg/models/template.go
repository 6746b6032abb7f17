package models

import "time"

// TemplateStatus represents the publication state of a template.
type TemplateStatus string

const (
	TemplateStatusUnset     TemplateStatus = ""               // Legacy rows, treated as published
	TemplateStatusPublished TemplateStatus = "published"      // Listed and addressable
	TemplateStatusPending   TemplateStatus = "pending_review" // Awaiting admin approval
)

// Complexity is the stored complexity level of a workflow.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Display labels used by listing pages and filters.
const (
	ComplexityLabelBeginner     = "Beginner"
	ComplexityLabelIntermediate = "Intermediate"
	ComplexityLabelAdvanced     = "Advanced"
)

// Template is a persisted workflow template record.
type Template struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	AITitle       string         `json:"ai_title,omitempty"`
	Description   string         `json:"description"`
	AIDescription string         `json:"ai_description,omitempty"`
	Workflow      map[string]any `json:"workflow_json"`
	NodeCount     int            `json:"node_count"`
	NodesUsed     []string       `json:"nodes_used"`
	Source        string         `json:"source,omitempty"`
	SourceURL     string         `json:"source_url,omitempty"`
	Categories    []string       `json:"categories"`
	AICategory    string         `json:"ai_categories,omitempty"`
	UseCase       string         `json:"use_case,omitempty"`
	Complexity    Complexity     `json:"complexity_level"`
	HasTriggers   bool           `json:"has_triggers"`
	HasAINodes    bool           `json:"has_ai_nodes"`
	WorkflowHash  string         `json:"workflow_hash,omitempty"`

	// AI enrichment, filled in by a background process.
	AIUseCases   []string `json:"ai_use_cases,omitempty"`
	AIHowWorks   []string `json:"ai_how_works,omitempty"`
	AISetupSteps []string `json:"ai_setup_steps,omitempty"`
	AIAppsUsed   []string `json:"ai_apps_used,omitempty"`
	AIRoles      []string `json:"ai_roles,omitempty"`
	AIIndustries []string `json:"ai_industries,omitempty"`
	AITags       []string `json:"ai_tags,omitempty"`

	PopularityScore int            `json:"popularity_score"`
	Status          TemplateStatus `json:"status,omitempty"`
	Slug            string         `json:"slug,omitempty"`

	ContributorEmail   string `json:"contributor_email,omitempty"`
	ContributorName    string `json:"contributor_name,omitempty"`
	ContributorContact string `json:"contributor_contact,omitempty"`
	ContributorWebsite string `json:"contributor_website,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayTitle prefers the AI-revised title over the canonical one.
func (t *Template) DisplayTitle() string {
	if t.AITitle != "" {
		return t.AITitle
	}

	return t.Title
}
