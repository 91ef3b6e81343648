package ado

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// buildURLPattern matches the web UI form of a classic pipeline link:
// https://dev.azure.com/{org}/{project}/_build?definitionId={id}
var buildURLPattern = regexp.MustCompile(`^https://dev\.azure\.com/([^/]+)/([^/]+)/_build\?definitionId=(\d+)$`)

// Definition identifies a classic build definition within an organization.
type Definition struct {
	Organization string
	Project      string
	ID           string
}

// BaseURL returns the project-scoped API base for the definition.
func (d Definition) BaseURL() string {
	return fmt.Sprintf("https://dev.azure.com/%s/%s", d.Organization, d.Project)
}

// YAMLEndpoint returns the server-side YAML rendering endpoint for the definition.
func (d Definition) YAMLEndpoint() string {
	return fmt.Sprintf("%s/_apis/build/definitions/%s/yaml", d.BaseURL(), d.ID)
}

// ParseBuildURL extracts a Definition from a web UI pipeline link.
// Returns false if the line is not a recognized pipeline URL.
func ParseBuildURL(raw string) (Definition, bool) {
	m := buildURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Definition{}, false
	}
	return Definition{Organization: m[1], Project: m[2], ID: m[3]}, true
}

// ParseDefinitionURL extracts a Definition from an API definition URL of the form
// https://dev.azure.com/{org}/{project}/_apis/build/definitions/{id}/yaml.
func ParseDefinitionURL(raw string) (Definition, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Definition{}, fmt.Errorf("parse pipeline url: %w", err)
	}
	if !strings.Contains(parsed.Host, "dev.azure.com") {
		return Definition{}, fmt.Errorf("unsupported pipeline url host: %q", parsed.Host)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	// {org}/{project}/_apis/build/definitions/{id}/yaml
	if len(parts) < 6 || parts[2] != "_apis" || parts[3] != "build" || parts[4] != "definitions" {
		return Definition{}, fmt.Errorf("unsupported pipeline url format: %q", raw)
	}

	return Definition{
		Organization: parts[0],
		Project:      parts[1],
		ID:           parts[5],
	}, nil
}
