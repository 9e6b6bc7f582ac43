package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"testviewer/internal/config"
	"testviewer/internal/domain"
)

const (
	acceptHeader   = "application/vnd.github.v3+json"
	pageSize       = 100
	requestTimeout = 60 * time.Second
)

// Client talks to the GitHub Actions REST API for one repository
type Client struct {
	baseURL     string
	token       string
	owner       string
	repo        string
	maxDownload int64
	http        *http.Client
	logger      zerolog.Logger
}

// NewClient creates a Client for the configured repository
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.APIBase, "/"),
		token:       cfg.Token,
		owner:       cfg.Owner,
		repo:        cfg.Repo,
		maxDownload: cfg.MaxArtifactSize,
		http:        &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
}

type runsResponse struct {
	TotalCount   int       `json:"total_count"`
	WorkflowRuns []wireRun `json:"workflow_runs"`
}

type wireRun struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HeadBranch string `json:"head_branch"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	WorkflowID int64  `json:"workflow_id"`
	RunNumber  int    `json:"run_number"`
	Actor      struct {
		Login string `json:"login"`
	} `json:"actor"`
}

func (w wireRun) toDomain() domain.WorkflowRun {
	return domain.WorkflowRun{
		ID:           w.ID,
		Name:         w.Name,
		HeadBranch:   w.HeadBranch,
		Status:       w.Status,
		Conclusion:   w.Conclusion,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
		WorkflowID:   w.WorkflowID,
		WorkflowName: w.Name,
		RunNumber:    w.RunNumber,
		Actor:        w.Actor.Login,
	}
}

type artifactsResponse struct {
	TotalCount int               `json:"total_count"`
	Artifacts  []domain.Artifact `json:"artifacts"`
}

// ListRuns returns the most recent workflow runs of the repository, newest first
func (c *Client) ListRuns(ctx context.Context) ([]domain.WorkflowRun, error) {
	var resp runsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/actions/runs?per_page=%d", c.repoPath(), pageSize), &resp); err != nil {
		return nil, err
	}
	runs := make([]domain.WorkflowRun, 0, len(resp.WorkflowRuns))
	for _, w := range resp.WorkflowRuns {
		runs = append(runs, w.toDomain())
	}
	return runs, nil
}

// GetRun returns a single workflow run
func (c *Client) GetRun(ctx context.Context, runID int64) (domain.WorkflowRun, error) {
	var w wireRun
	if err := c.getJSON(ctx, fmt.Sprintf("%s/actions/runs/%d", c.repoPath(), runID), &w); err != nil {
		return domain.WorkflowRun{}, err
	}
	return w.toDomain(), nil
}

// ListArtifacts returns the artifacts uploaded by a run
func (c *Client) ListArtifacts(ctx context.Context, runID int64) ([]domain.Artifact, error) {
	var resp artifactsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/actions/runs/%d/artifacts?per_page=%d", c.repoPath(), runID, pageSize), &resp); err != nil {
		return nil, err
	}
	if resp.Artifacts == nil {
		return []domain.Artifact{}, nil
	}
	return resp.Artifacts, nil
}

// DownloadArtifact fetches the zip archive of an artifact
func (c *Client) DownloadArtifact(ctx context.Context, artifactID int64) ([]byte, error) {
	url := fmt.Sprintf("%s/actions/artifacts/%d/zip", c.repoPath(), artifactID)
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if c.maxDownload > 0 {
		body = io.LimitReader(resp.Body, c.maxDownload+1)
	}
	blob, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %d: %v", ErrTransport, artifactID, err)
	}
	if c.maxDownload > 0 && int64(len(blob)) > c.maxDownload {
		return nil, fmt.Errorf("%w: artifact %d exceeds %d bytes", ErrTransport, artifactID, c.maxDownload)
	}
	c.logger.Debug().Int64("artifact", artifactID).Int("bytes", len(blob)).Msg("Downloaded artifact")
	return blob, nil
}

func (c *Client) repoPath() string {
	return fmt.Sprintf("%s/repos/%s/%s", c.baseURL, c.owner, c.repo)
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, url, err)
	}
	return nil
}

// do performs an authenticated GET and returns the response when the status is 2xx.
// Redirects (artifact downloads point at blob storage) are followed by the HTTP client.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	c.logger.Debug().Str("url", url).Msg("GitHub request")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, URL: url, Message: apiMessage(resp.Body)}
	}
	return resp, nil
}

func apiMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(data, &payload) == nil {
		return payload.Message
	}
	return ""
}
