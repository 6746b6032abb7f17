// Package seo builds the sitemap and page metadata for crawlers and link previews.
package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/n8njson/directory/pkg/slug"
)

type ChangeFrequency string

const (
	ChangeDaily  ChangeFrequency = "daily"
	ChangeWeekly ChangeFrequency = "weekly"
	ChangeYearly ChangeFrequency = "yearly"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one sitemap entry.
type URL struct {
	Loc             string          `xml:"loc"`
	LastModified    string          `xml:"lastmod"`
	ChangeFrequency ChangeFrequency `xml:"changefreq"`
	Priority        string          `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Taxonomy lists the browsable option names.
type Taxonomy struct {
	Categories []string
	Industries []string
	Roles      []string
}

// Sitemap lists the static pages followed by one page per taxonomy option.
// A nil taxonomy yields only the static pages.
func Sitemap(baseURL string, taxonomy *Taxonomy, now time.Time) []URL {
	base := strings.TrimRight(baseURL, "/")
	lastModified := now.UTC().Format(time.RFC3339)

	entry := func(path string, frequency ChangeFrequency, priority float64) URL {
		return URL{
			Loc:             base + path,
			LastModified:    lastModified,
			ChangeFrequency: frequency,
			Priority:        formatPriority(priority),
		}
	}

	urls := []URL{
		entry("", ChangeDaily, 1),
		entry("/terms", ChangeYearly, 0.3),
		entry("/privacy", ChangeYearly, 0.3),
	}

	if taxonomy == nil {
		return urls
	}

	for _, group := range []struct {
		kind  string
		names []string
	}{
		{kind: "category", names: taxonomy.Categories},
		{kind: "industry", names: taxonomy.Industries},
		{kind: "role", names: taxonomy.Roles},
	} {
		for _, name := range group.names {
			urls = append(urls, entry("/"+group.kind+"/"+slug.Make(name), ChangeWeekly, 0.8))
		}
	}

	return urls
}

// RenderXML encodes the entries as a sitemaps.org urlset document.
func RenderXML(urls []URL) ([]byte, error) {
	body, err := xml.MarshalIndent(urlSet{Xmlns: sitemapNamespace, URLs: urls}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

func formatPriority(priority float64) string {
	return fmt.Sprintf("%.1f", priority)
}
