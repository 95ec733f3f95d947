package github

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

// Options configures the GitHub commit source
type Options struct {
	Token      string
	BaseURL    string  // empty = https://api.github.com/
	PerPage    int     // 0 = API default (30)
	RateLimit  float64 // requests per second, 0 = unlimited
	HTTPClient *http.Client
}

// Client wraps the GitHub API client with rate limiting.
// It reads a single page of commits per repository; history beyond the first
// page is not followed, so totals undercount busy repositories.
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	perPage     int
	logger      *slog.Logger
}

// NewClient creates a new GitHub client
func NewClient(opts Options) (*Client, error) {
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid github base url %q: %v", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, 1),
		perPage:     opts.PerPage,
		logger:      slog.Default().With("component", "github"),
	}, nil
}

// FetchCommits retrieves the first page of commits for identity/repo.
// Failures are returned as typed errors: transport, HTTP status or malformed
// response.
func (c *Client) FetchCommits(ctx context.Context, identity, repo string) ([]models.CommitRecord, error) {
	repoPath := identity + "/" + repo

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Transport(fmt.Errorf("rate limiter: %w", err), repoPath)
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: c.perPage},
	}

	commits, resp, err := c.client.Repositories.ListCommits(ctx, identity, repo, opts)
	if err != nil {
		return nil, classifyError(err, resp, repoPath)
	}

	if resp != nil && resp.Rate.Limit > 0 {
		c.logger.Debug("github rate limit",
			"repo", repoPath,
			"remaining", resp.Rate.Remaining,
			"limit", resp.Rate.Limit)
	}

	records := make([]models.CommitRecord, 0, len(commits))
	for i, commit := range commits {
		record, err := convertCommit(commit)
		if err != nil {
			return nil, errors.MalformedResponse(fmt.Errorf("commit %d: %w", i, err), repoPath)
		}
		records = append(records, record)
	}

	return records, nil
}

// convertCommit maps a GitHub commit to a CommitRecord. The committer date is
// the only field the engine depends on, so its absence is an error.
func convertCommit(commit *github.RepositoryCommit) (models.CommitRecord, error) {
	if commit == nil || commit.Commit == nil {
		return models.CommitRecord{}, fmt.Errorf("missing commit payload")
	}

	committer := commit.GetCommit().GetCommitter()
	if committer == nil || committer.Date == nil {
		return models.CommitRecord{}, fmt.Errorf("commit %s missing committer date", commit.GetSHA())
	}

	return models.CommitRecord{
		SHA:           commit.GetSHA(),
		Message:       commit.GetCommit().GetMessage(),
		AuthorName:    commit.GetCommit().GetAuthor().GetName(),
		CommitterName: committer.GetName(),
		CommittedAt:   committer.Date.Time,
		URL:           commit.GetHTMLURL(),
	}, nil
}

// classifyError maps go-github and transport errors onto the fetch taxonomy
func classifyError(err error, resp *github.Response, repoPath string) error {
	var errResp *github.ErrorResponse
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError

	switch {
	case stderrors.As(err, &errResp) && errResp.Response != nil:
		return errors.HTTPStatusWithCause(err, repoPath, errResp.Response.StatusCode, statusText(errResp.Response))
	case stderrors.As(err, &rateErr) && rateErr.Response != nil:
		return errors.HTTPStatusWithCause(err, repoPath, rateErr.Response.StatusCode, statusText(rateErr.Response))
	case stderrors.As(err, &abuseErr) && abuseErr.Response != nil:
		return errors.HTTPStatusWithCause(err, repoPath, abuseErr.Response.StatusCode, statusText(abuseErr.Response))
	case isDecodeError(err):
		return errors.MalformedResponse(err, repoPath)
	}

	if resp != nil && resp.Response != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return errors.HTTPStatusWithCause(err, repoPath, resp.StatusCode, statusText(resp.Response))
	}

	return errors.Transport(err, repoPath)
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) ||
		stderrors.Is(err, io.ErrUnexpectedEOF)
}

// statusText extracts "Not Found" from "404 Not Found"
func statusText(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
