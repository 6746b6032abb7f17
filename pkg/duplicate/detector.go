package duplicate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/n8njson/directory/pkg/persistence"
)

// Threshold is the similarity a candidate must exceed to be reported.
const Threshold = 0.70

// maxTitleTokens bounds how many title words seed the candidate query.
const maxTitleTokens = 3

// Match identifies a stored template.
type Match struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SimilarTemplate is a near-duplicate candidate with its score.
type SimilarTemplate struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Result is the outcome of a duplicate check.
type Result struct {
	IsDuplicate      bool              `json:"is_duplicate"`
	ExactMatch       *Match            `json:"exact_match,omitempty"`
	SimilarTemplates []SimilarTemplate `json:"similar_templates,omitempty"`
}

// Detector checks submissions against stored templates of any status.
type Detector struct {
	repo   persistence.TemplateRepository
	logger *slog.Logger
}

// NewDetector creates a detector over the given repository.
func NewDetector(repo persistence.TemplateRepository, logger *slog.Logger) *Detector {
	return &Detector{
		repo:   repo,
		logger: logger.With("module", "duplicate_detector"),
	}
}

// Check looks for an exact digest match first and, failing that, for stored
// templates with a similar title, the same node count and overlapping node types.
func (d *Detector) Check(ctx context.Context, digest, title string, nodeCount int, nodeTypes []string) (*Result, error) {
	if digest != "" {
		exact, err := d.repo.Find(ctx, persistence.NewQuery().
			Where(persistence.Eq(persistence.FieldWorkflowHash, digest)).
			Window(0, 1))
		if err != nil {
			return nil, fmt.Errorf("failed to look up workflow hash: %w", err)
		}

		if len(exact.Templates) > 0 {
			match := exact.Templates[0]
			d.logger.InfoContext(ctx, "exact duplicate found", "template_id", match.ID, "workflow_hash", digest)

			return &Result{
				IsDuplicate: true,
				ExactMatch:  &Match{ID: match.ID, Title: match.Title},
			}, nil
		}
	}

	similar, err := d.similar(ctx, title, nodeCount, nodeTypes)
	if err != nil {
		return nil, err
	}

	return &Result{SimilarTemplates: similar}, nil
}

func (d *Detector) similar(ctx context.Context, title string, nodeCount int, nodeTypes []string) ([]SimilarTemplate, error) {
	tokens := strings.Fields(title)
	if len(tokens) > maxTitleTokens {
		tokens = tokens[:maxTitleTokens]
	}

	similar := make([]SimilarTemplate, 0)
	if len(tokens) == 0 {
		return similar, nil
	}

	titleMatches := make([]persistence.Condition, 0, len(tokens))
	for _, token := range tokens {
		titleMatches = append(titleMatches, persistence.ILike(persistence.FieldTitle, token))
	}

	candidates, err := d.repo.Find(ctx, persistence.NewQuery().
		Where(titleMatches...).
		Where(persistence.Eq(persistence.FieldNodeCount, nodeCount)))
	if err != nil {
		return nil, fmt.Errorf("failed to query similar templates: %w", err)
	}

	for _, candidate := range candidates.Templates {
		score := Similarity(nodeTypes, candidate.NodesUsed)
		if score > Threshold {
			similar = append(similar, SimilarTemplate{ID: candidate.ID, Title: candidate.Title, Similarity: score})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})

	return similar, nil
}
