package ado

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const apiVersion = "6.0"

// zeroObjectID is the ref "old object id" used when creating a new branch.
const zeroObjectID = "0000000000000000000000000000000000000000"

// Client talks to the Azure DevOps REST API using PAT basic auth.
type Client struct {
	http    *http.Client
	baseURL string // overridable for tests; empty means https://dev.azure.com
	auth    string // precomputed Authorization header value
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the https://dev.azure.com base. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client authenticating with the given personal access token.
// The token is embedded in the Authorization header and never logged.
func NewClient(pat string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 60 * time.Second},
		auth: "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+pat)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) url(path string) string {
	base := c.baseURL
	if base == "" {
		base = "https://dev.azure.com"
	}
	return base + path
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// apiError drains the response body into an error message.
func apiError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, bytes.TrimSpace(msg))
}

// DefinitionYAML fetches the server-side YAML rendering of a classic build definition.
func (c *Client) DefinitionYAML(ctx context.Context, d Definition) (string, error) {
	url := c.url(fmt.Sprintf("/%s/%s/_apis/build/definitions/%s/yaml?api-version=%s",
		d.Organization, d.Project, d.ID, apiVersion))

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch definition yaml: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("fetch definition yaml", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read definition yaml: %w", err)
	}
	return string(data), nil
}

// Repository is a git repository within a project.
type Repository struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repositories lists the git repositories of a project.
func (c *Client) Repositories(ctx context.Context, org, project string) ([]Repository, error) {
	url := c.url(fmt.Sprintf("/%s/%s/_apis/git/repositories?api-version=%s", org, project, apiVersion))

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list repositories", resp)
	}

	var out struct {
		Value []Repository `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode repositories: %w", err)
	}

	slog.Debug("listed repositories", "project", project, "count", len(out.Value))
	return out.Value, nil
}

// LatestCommit returns the head commit of the given branch, or "" if the
// branch does not exist.
func (c *Client) LatestCommit(ctx context.Context, org, project, repoID, branch string) (string, error) {
	url := c.url(fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/refs?filter=heads/%s&api-version=%s",
		org, project, repoID, branch, apiVersion))

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("get refs: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apiError("get refs", resp)
	}

	var out struct {
		Value []struct {
			ObjectID string `json:"objectId"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode refs: %w", err)
	}
	if len(out.Value) == 0 {
		return "", nil
	}
	return out.Value[0].ObjectID, nil
}

// DefaultBranchCommit resolves the head of master, falling back to main.
func (c *Client) DefaultBranchCommit(ctx context.Context, org, project, repoID string) (string, error) {
	for _, branch := range []string{"master", "main"} {
		commit, err := c.LatestCommit(ctx, org, project, repoID, branch)
		if err != nil {
			return "", err
		}
		if commit != "" {
			slog.Debug("resolved default branch", "repo", repoID, "branch", branch, "commit", commit)
			return commit, nil
		}
	}
	return "", fmt.Errorf("repository %s has neither master nor main branch", repoID)
}

// pushRequest is the body of a git pushes API call.
type pushRequest struct {
	RefUpdates []refUpdate  `json:"refUpdates"`
	Commits    []pushCommit `json:"commits"`
}

type refUpdate struct {
	Name        string `json:"name"`
	OldObjectID string `json:"oldObjectId"`
}

type pushCommit struct {
	Comment string       `json:"comment"`
	Changes []pushChange `json:"changes"`
}

type pushChange struct {
	ChangeType string      `json:"changeType"`
	Item       pushItem    `json:"item"`
	NewContent pushContent `json:"newContent"`
}

type pushItem struct {
	Path string `json:"path"`
}

type pushContent struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// CreateBranchWithYAML creates branch converted-pipeline-<id> in the repository
// with the YAML committed at /pipelines/converted-pipeline-<id>.yaml.
func (c *Client) CreateBranchWithYAML(ctx context.Context, d Definition, repoID, yamlContent string) (string, error) {
	branch := fmt.Sprintf("converted-pipeline-%s", d.ID)
	path := fmt.Sprintf("/pipelines/converted-pipeline-%s.yaml", d.ID)

	body := pushRequest{
		RefUpdates: []refUpdate{{
			Name:        "refs/heads/" + branch,
			OldObjectID: zeroObjectID,
		}},
		Commits: []pushCommit{{
			Comment: fmt.Sprintf("Add converted YAML pipeline (definition ID: %s)", d.ID),
			Changes: []pushChange{{
				ChangeType: "add",
				Item:       pushItem{Path: path},
				NewContent: pushContent{Content: yamlContent, ContentType: "rawText"},
			}},
		}},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode push: %w", err)
	}

	url := c.url(fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/pushes?api-version=%s",
		d.Organization, d.Project, repoID, apiVersion))

	resp, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create branch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", apiError("create branch", resp)
	}

	slog.Info("created converted pipeline branch", "branch", branch, "path", path)
	return branch, nil
}
