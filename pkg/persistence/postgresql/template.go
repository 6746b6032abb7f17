package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lib/pq"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
)

const templateColumns = `
			id
		  , title
		  , ai_title
		  , description
		  , ai_description
		  , workflow_json
		  , node_count
		  , nodes_used
		  , source
		  , source_url
		  , categories
		  , ai_categories
		  , use_case
		  , complexity_level
		  , has_triggers
		  , has_ai_nodes
		  , workflow_hash
		  , ai_use_cases
		  , ai_how_works
		  , ai_setup_steps
		  , ai_apps_used
		  , ai_roles
		  , ai_industries
		  , ai_tags
		  , popularity_score
		  , status
		  , slug
		  , contributor_email
		  , contributor_name
		  , contributor_contact
		  , contributor_website
		  , created_at
		  , updated_at`

const uniqueViolation = "23505"

// TemplateRepository handles template-related database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// Find translates the query into SQL.
func (r *TemplateRepository) Find(ctx context.Context, query *persistence.Query) (*persistence.FindResult, error) {
	if query == nil {
		query = persistence.NewQuery()
	}

	builder := &whereBuilder{}

	where, err := builder.build(query.Filters)
	if err != nil {
		return nil, persistence.NewTemplateError("Find", "", err)
	}

	order, err := orderClause(query)
	if err != nil {
		return nil, persistence.NewTemplateError("Find", "", err)
	}

	result := &persistence.FindResult{}

	if query.Count {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM templates"+where, builder.args...).Scan(&result.TotalCount)
		if err != nil {
			return nil, fmt.Errorf("failed to count templates: %w", err)
		}
	}

	statement := "SELECT" + templateColumns + " FROM templates" + where + order

	args := builder.args
	if query.Limit > 0 {
		args = append(args, query.Limit)
		statement += " LIMIT $" + strconv.Itoa(len(args))
	}

	if query.Offset > 0 {
		args = append(args, query.Offset)
		statement += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	result.Templates = make([]*models.Template, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		result.Templates = append(result.Templates, template)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return result, nil
}

// Insert stores a new template row.
func (r *TemplateRepository) Insert(ctx context.Context, template *models.Template) error {
	args, err := templateArgs(template)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
	`, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewTemplateError("Insert", template.ID, persistence.ErrTemplateAlreadyExists)
		}

		return fmt.Errorf("failed to insert template %s: %w", template.ID, err)
	}

	return nil
}

// Update overwrites every column of an existing row.
func (r *TemplateRepository) Update(ctx context.Context, template *models.Template) error {
	args, err := templateArgs(template)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE templates SET
			title = $2, ai_title = $3, description = $4, ai_description = $5, workflow_json = $6,
			node_count = $7, nodes_used = $8, source = $9, source_url = $10, categories = $11,
			ai_categories = $12, use_case = $13, complexity_level = $14, has_triggers = $15,
			has_ai_nodes = $16, workflow_hash = $17, ai_use_cases = $18, ai_how_works = $19,
			ai_setup_steps = $20, ai_apps_used = $21, ai_roles = $22, ai_industries = $23,
			ai_tags = $24, popularity_score = $25, status = $26, slug = $27,
			contributor_email = $28, contributor_name = $29, contributor_contact = $30,
			contributor_website = $31, created_at = $32, updated_at = $33
		WHERE id = $1
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update template %s: %w", template.ID, err)
	}

	return requireRow(result, "Update", template.ID)
}

// Delete removes a template row.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}

	return requireRow(result, "Delete", id)
}

func requireRow(result sql.Result, op, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.NewTemplateError(op, id, persistence.ErrTemplateNotFound)
	}

	return nil
}

func templateArgs(t *models.Template) ([]any, error) {
	workflowJSON, err := json.Marshal(t.Workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow for template %s: %w", t.ID, err)
	}

	return []any{
		t.ID,
		t.Title,
		nullString(t.AITitle),
		t.Description,
		nullString(t.AIDescription),
		workflowJSON,
		t.NodeCount,
		pq.StringArray(t.NodesUsed),
		nullString(t.Source),
		nullString(t.SourceURL),
		pq.StringArray(t.Categories),
		nullString(t.AICategory),
		nullString(t.UseCase),
		nullString(string(t.Complexity)),
		t.HasTriggers,
		t.HasAINodes,
		nullString(t.WorkflowHash),
		pq.StringArray(t.AIUseCases),
		pq.StringArray(t.AIHowWorks),
		pq.StringArray(t.AISetupSteps),
		pq.StringArray(t.AIAppsUsed),
		pq.StringArray(t.AIRoles),
		pq.StringArray(t.AIIndustries),
		pq.StringArray(t.AITags),
		t.PopularityScore,
		nullString(string(t.Status)),
		nullString(t.Slug),
		nullString(t.ContributorEmail),
		nullString(t.ContributorName),
		nullString(t.ContributorContact),
		nullString(t.ContributorWebsite),
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func scanTemplate(rows *sql.Rows) (*models.Template, error) {
	var (
		t                                                  models.Template
		aiTitle, aiDescription, source, sourceURL          sql.NullString
		aiCategory, useCase, complexity, hash, status, slg sql.NullString
		email, name, contact, website                      sql.NullString
		workflowJSON                                       []byte
		nodesUsed, categories, useCases, howWorks          pq.StringArray
		setupSteps, apps, roles, industries, tags          pq.StringArray
	)

	err := rows.Scan(
		&t.ID, &t.Title, &aiTitle, &t.Description, &aiDescription, &workflowJSON,
		&t.NodeCount, &nodesUsed, &source, &sourceURL, &categories, &aiCategory, &useCase,
		&complexity, &t.HasTriggers, &t.HasAINodes, &hash, &useCases, &howWorks, &setupSteps,
		&apps, &roles, &industries, &tags, &t.PopularityScore, &status, &slg,
		&email, &name, &contact, &website, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(workflowJSON) > 0 {
		err = json.Unmarshal(workflowJSON, &t.Workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow_json: %w", err)
		}
	}

	t.AITitle = aiTitle.String
	t.AIDescription = aiDescription.String
	t.Source = source.String
	t.SourceURL = sourceURL.String
	t.AICategory = aiCategory.String
	t.UseCase = useCase.String
	t.Complexity = models.Complexity(complexity.String)
	t.WorkflowHash = hash.String
	t.Status = models.TemplateStatus(status.String)
	t.Slug = slg.String
	t.ContributorEmail = email.String
	t.ContributorName = name.String
	t.ContributorContact = contact.String
	t.ContributorWebsite = website.String
	t.NodesUsed = nodesUsed
	t.Categories = categories
	t.AIUseCases = useCases
	t.AIHowWorks = howWorks
	t.AISetupSteps = setupSteps
	t.AIAppsUsed = apps
	t.AIRoles = roles
	t.AIIndustries = industries
	t.AITags = tags

	return &t, nil
}
