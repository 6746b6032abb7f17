// Package workflowdoc inspects exported automation workflow documents: a JSON
// object holding a list of typed nodes and a connection map between them.
package workflowdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/n8njson/directory/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrInvalidJSON indicates the document is not parseable JSON.
	ErrInvalidJSON = errors.New("invalid JSON format")

	// ErrInvalidWorkflow indicates the document does not have a workflow shape.
	ErrInvalidWorkflow = errors.New("invalid workflow")
)

const nodeTypePrefix = "n8n-nodes-base."

const schema = `{
	"type": "object",
	"required": ["nodes"],
	"properties": {
		"name": {"type": "string"},
		"nodes": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["type"],
				"properties": {
					"type": {"type": "string", "minLength": 1}
				}
			}
		},
		"connections": {"type": "object"}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// Metadata is derived from a workflow's node list.
type Metadata struct {
	NodeCount   int
	NodesUsed   []string
	HasTriggers bool
	HasAINodes  bool
}

// Parse decodes and validates a raw workflow document.
func Parse(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidJSON)
	}

	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks a decoded document against the workflow JSON schema.
func Validate(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("%w: document is empty", ErrInvalidWorkflow)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}

	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidWorkflow, strings.Join(details, "; "))
	}

	return nil
}

// Nodes returns the node objects of a document, skipping malformed entries.
func Nodes(doc map[string]any) []map[string]any {
	raw, ok := doc["nodes"].([]any)
	if !ok {
		return nil
	}

	nodes := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if node, ok := item.(map[string]any); ok {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// NodeTypes returns the distinct node type tags in first-seen order.
func NodeTypes(doc map[string]any) []string {
	seen := make(map[string]bool)
	types := []string{}

	for _, node := range Nodes(doc) {
		nodeType, _ := node["type"].(string)
		if nodeType == "" || seen[nodeType] {
			continue
		}

		seen[nodeType] = true
		types = append(types, nodeType)
	}

	return types
}

// ExtractMetadata derives node statistics from a document.
func ExtractMetadata(doc map[string]any) Metadata {
	types := NodeTypes(doc)

	meta := Metadata{
		NodeCount: len(Nodes(doc)),
		NodesUsed: types,
	}

	for _, nodeType := range types {
		lower := strings.ToLower(nodeType)

		if strings.Contains(lower, "trigger") || strings.Contains(nodeType, "webhook") {
			meta.HasTriggers = true
		}

		if isAINode(lower) {
			meta.HasAINodes = true
		}
	}

	return meta
}

func isAINode(lowerType string) bool {
	for _, marker := range []string{"ai", "openai", "anthropic", "claude", "gpt"} {
		if strings.Contains(lowerType, marker) {
			return true
		}
	}

	return false
}

// DetermineComplexity grades a workflow by size and by how many of its node
// types need custom code, credentials or external endpoints.
func DetermineComplexity(nodeCount int, nodeTypes []string) models.Complexity {
	heavy := 0

	for _, nodeType := range nodeTypes {
		for _, marker := range []string{"code", "function", "Function", "ai", "webhook", "http", "database", "sql"} {
			if strings.Contains(nodeType, marker) {
				heavy++

				break
			}
		}
	}

	switch {
	case nodeCount <= 3 && heavy == 0:
		return models.ComplexitySimple
	case nodeCount <= 8 && heavy <= 2:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

// FriendlyNodeName turns a node type tag such as "n8n-nodes-base.httpRequest"
// into "http Request".
func FriendlyNodeName(nodeType string) string {
	name := strings.TrimPrefix(nodeType, nodeTypePrefix)

	var b strings.Builder

	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}

		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}
