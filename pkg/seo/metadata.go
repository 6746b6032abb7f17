package seo

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/slug"
)

const (
	SiteName             = "n8n json"
	maxDescriptionLength = 160
)

type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	SiteName    string `json:"site_name,omitempty"`
	Type        string `json:"type"`
}

type TwitterCard struct {
	Card        string `json:"card"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Metadata describes a page for search engines and social previews.
type Metadata struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Canonical   string      `json:"canonical,omitempty"`
	OpenGraph   OpenGraph   `json:"open_graph"`
	Twitter     TwitterCard `json:"twitter"`
}

func newMetadata(title, description, shortDescription, canonical, ogType string) Metadata {
	return Metadata{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OpenGraph: OpenGraph{
			Title:       title,
			Description: shortDescription,
			URL:         canonical,
			SiteName:    SiteName,
			Type:        ogType,
		},
		Twitter: TwitterCard{
			Card:        "summary_large_image",
			Title:       title,
			Description: shortDescription,
		},
	}
}

// SiteMetadata describes the home page.
func SiteMetadata(baseURL string) Metadata {
	description := "The #1 FREE n8n Template Directory. Discover thousands of automation templates for n8n workflows."

	return newMetadata(SiteName+" - Free n8n Template Directory", description, description, strings.TrimRight(baseURL, "/"), "website")
}

// TemplateMetadata describes a template detail page.
func TemplateMetadata(baseURL string, template models.TemplateDisplay) Metadata {
	description := truncate(template.Description, maxDescriptionLength)
	canonical := strings.TrimRight(baseURL, "/") + "/template/" + template.Slug

	return newMetadata(template.Title+" | "+SiteName, description, description, canonical, "article")
}

// BrowseMetadata describes a category, industry or role page.
func BrowseMetadata(baseURL, kind, pageSlug string, total int64) Metadata {
	name := slug.TitleGuess(pageSlug)
	lower := strings.ToLower(name)
	title := fmt.Sprintf("%s Templates | %s", name, SiteName)
	short := fmt.Sprintf("Discover %d %s automation templates for n8n workflows.", total, lower)
	long := fmt.Sprintf("%s Browse ready-to-use templates to streamline your %s processes.", short, lower)
	canonical := strings.TrimRight(baseURL, "/") + "/" + kind + "/" + pageSlug

	return newMetadata(title, long, short, canonical, "website")
}

// NotFoundMetadata describes a missing taxonomy page.
func NotFoundMetadata(kind string) Metadata {
	name := slug.TitleGuess(kind)

	return Metadata{
		Title:       fmt.Sprintf("%s Not Found | %s", name, SiteName),
		Description: fmt.Sprintf("The requested %s was not found in our template directory.", strings.ToLower(kind)),
	}
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)

	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
