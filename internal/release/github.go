package release

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
)

// GitHubFeed lists releases through the GitHub REST API.
type GitHubFeed struct {
	client *github.Client
}

// GitHubOption configures a GitHubFeed.
type GitHubOption func(*githubConfig)

type githubConfig struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(cfg *githubConfig) {
		cfg.httpClient = c
	}
}

// WithBaseURL points the feed at a different API root. Used by tests.
func WithBaseURL(u string) GitHubOption {
	return func(cfg *githubConfig) {
		cfg.baseURL = u
	}
}

// WithToken authenticates API calls, raising the rate limit.
func WithToken(token string) GitHubOption {
	return func(cfg *githubConfig) {
		cfg.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) GitHubOption {
	return func(cfg *githubConfig) {
		cfg.userAgent = ua
	}
}

// NewGitHubFeed creates a feed backed by the GitHub API.
func NewGitHubFeed(opts ...GitHubOption) (*GitHubFeed, error) {
	cfg := &githubConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	client := github.NewClient(cfg.httpClient)
	if cfg.token != "" {
		client = client.WithAuthToken(cfg.token)
	}
	if cfg.userAgent != "" {
		client.UserAgent = cfg.userAgent
	}
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubFeed{client: client}, nil
}

// ListReleases returns one page of releases.
func (g *GitHubFeed) ListReleases(ctx context.Context, repo Repo, page, perPage int) ([]FeedRelease, error) {
	releases, _, err := g.client.Repositories.ListReleases(ctx, repo.Owner, repo.Name, &github.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, err
	}

	items := make([]FeedRelease, 0, len(releases))
	for _, rel := range releases {
		item := FeedRelease{
			Tag:        rel.GetTagName(),
			Draft:      rel.GetDraft(),
			Prerelease: rel.GetPrerelease(),
			SourceURL:  rel.GetZipballURL(),
		}
		for _, a := range rel.Assets {
			item.Assets = append(item.Assets, Asset{
				Name: a.GetName(),
				URL:  a.GetBrowserDownloadURL(),
			})
		}
		items = append(items, item)
	}
	return items, nil
}
