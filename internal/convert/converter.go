// Package convert migrates Azure DevOps classic build definitions to YAML
// pipelines: it fetches the server-side YAML rendering of each definition and
// pushes it to a new branch in a repository of the owning project.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vijaysplendor/migaccel/internal/ado"
)

// Outcome records the result of converting a single definition.
type Outcome struct {
	Definition ado.Definition `json:"definition"`
	Repo       string         `json:"repo,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	Error      string         `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// Ok reports whether the conversion succeeded.
func (o Outcome) Ok() bool { return o.Error == "" }

// Summary aggregates a batch run.
type Summary struct {
	Outcomes  []Outcome `json:"outcomes"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   []string  `json:"skipped,omitempty"` // input lines that were not pipeline URLs
}

// API is the subset of the Azure DevOps client the converter needs.
type API interface {
	DefinitionYAML(ctx context.Context, d ado.Definition) (string, error)
	Repositories(ctx context.Context, org, project string) ([]ado.Repository, error)
	DefaultBranchCommit(ctx context.Context, org, project, repoID string) (string, error)
	CreateBranchWithYAML(ctx context.Context, d ado.Definition, repoID, yamlContent string) (string, error)
}

// Converter runs the classic-to-YAML migration for a batch of definitions.
type Converter struct {
	api API
}

// New creates a Converter backed by the given API client.
func New(api API) *Converter {
	return &Converter{api: api}
}

// Run processes every definition sequentially. A failing definition is
// recorded in the summary and does not stop the batch.
func (c *Converter) Run(ctx context.Context, defs []ado.Definition) (*Summary, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no pipeline definitions to convert")
	}

	sum := &Summary{}
	for _, d := range defs {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		start := time.Now()
		out := c.convertOne(ctx, d)
		out.Duration = time.Since(start).Truncate(time.Millisecond)

		if out.Ok() {
			sum.Succeeded++
			slog.Info("converted pipeline", "definition", d.ID, "project", d.Project, "branch", out.Branch)
		} else {
			sum.Failed++
			slog.Error("pipeline conversion failed", "definition", d.ID, "project", d.Project, "error", out.Error)
		}
		sum.Outcomes = append(sum.Outcomes, out)
	}

	return sum, nil
}

// convertOne fetches the YAML rendering and pushes it to a target repository.
func (c *Converter) convertOne(ctx context.Context, d ado.Definition) Outcome {
	out := Outcome{Definition: d}

	yamlContent, err := c.api.DefinitionYAML(ctx, d)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	repos, err := c.api.Repositories(ctx, d.Organization, d.Project)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if len(repos) == 0 {
		out.Error = fmt.Sprintf("no repositories found in project %s", d.Project)
		return out
	}

	target := pickTargetRepo(repos, d.Project)
	out.Repo = target.Name
	slog.Debug("selected target repository", "definition", d.ID, "repo", target.Name)

	// the push creates a fresh branch, but the repo must have a default
	// branch to be a usable migration target
	if _, err := c.api.DefaultBranchCommit(ctx, d.Organization, d.Project, target.ID); err != nil {
		out.Error = err.Error()
		return out
	}

	branch, err := c.api.CreateBranchWithYAML(ctx, d, target.ID, yamlContent)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Branch = branch
	return out
}

// pickTargetRepo prefers the repository named after the project, otherwise
// the first repository listed.
func pickTargetRepo(repos []ado.Repository, project string) ado.Repository {
	for _, r := range repos {
		if r.Name == project {
			return r
		}
	}
	return repos[0]
}
