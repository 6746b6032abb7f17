package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/n8njson/directory/pkg/workflowdoc"
)

const describedNodeTypes = 3

// FormSubmission is the payload posted by the public contribution form.
type FormSubmission struct {
	Email          string `json:"email"           validate:"required,email"`
	FullName       string `json:"full-name"       validate:"required"`
	ContactInfo    string `json:"contact-info"`
	Website        string `json:"website"`
	AutomationJSON string `json:"automation-json" validate:"required"`
}

// FromForm turns a contribution form into a review submission. The title comes
// from the workflow's name or title, falling back to the contributor's name;
// the description is generated from the node list.
func FromForm(form FormSubmission) (SubmissionRequest, error) {
	email := strings.TrimSpace(form.Email)
	fullName := strings.TrimSpace(form.FullName)
	raw := strings.TrimSpace(form.AutomationJSON)

	switch {
	case email == "":
		return SubmissionRequest{}, NewValidationError("FromForm", "EMAIL_REQUIRED", "email is required", ErrEmailRequired)
	case fullName == "":
		return SubmissionRequest{}, NewValidationError("FromForm", "NAME_REQUIRED", "full name is required", ErrNameRequired)
	case raw == "":
		return SubmissionRequest{}, NewValidationError("FromForm", "WORKFLOW_REQUIRED", "automation JSON is required", ErrWorkflowRequired)
	}

	doc, err := workflowdoc.Parse([]byte(raw))
	if err != nil {
		message := "invalid workflow: " + err.Error()
		if errors.Is(err, workflowdoc.ErrInvalidJSON) {
			message = "invalid JSON format, make sure you copied the complete JSON from the n8n export"
		}

		return SubmissionRequest{}, NewValidationError("FromForm", "INVALID_WORKFLOW", message, ErrInvalidWorkflow)
	}

	return SubmissionRequest{
		Title:              formTitle(doc, fullName),
		Description:        formDescription(doc, fullName),
		Workflow:           doc,
		ContributorEmail:   email,
		ContributorName:    fullName,
		ContributorContact: strings.TrimSpace(form.ContactInfo),
		ContributorWebsite: strings.TrimSpace(form.Website),
	}, nil
}

func formTitle(doc map[string]any, fullName string) string {
	for _, key := range []string{"name", "title"} {
		if value, ok := doc[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}

	return fullName + "'s n8n Template"
}

func formDescription(doc map[string]any, fullName string) string {
	nodeCount := len(workflowdoc.Nodes(doc))

	var names []string

	seen := map[string]bool{}

	for _, nodeType := range workflowdoc.NodeTypes(doc) {
		name := workflowdoc.FriendlyNodeName(nodeType)
		if seen[name] {
			continue
		}

		seen[name] = true
		names = append(names, name)
	}

	listed := names
	if len(listed) > describedNodeTypes {
		listed = listed[:describedNodeTypes]
	}

	var b strings.Builder

	fmt.Fprintf(&b, "A %d-node n8n workflow using %s", nodeCount, strings.Join(listed, ", "))

	if extra := len(names) - describedNodeTypes; extra > 0 {
		fmt.Fprintf(&b, " and %d more", extra)
	}

	fmt.Fprintf(&b, ". Contributed by %s.", fullName)

	return b.String()
}
