// Package release resolves a package version to a published release and
// selects the release asset built for the host.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

const (
	// Latest selects the newest published, non-prerelease release.
	Latest = "latest"

	// PageSize is the number of releases requested per feed page.
	PageSize = 10
)

var (
	// ErrReleaseNotFound is returned when no release matches the requested version.
	ErrReleaseNotFound = errors.New("release not found")

	// ErrNoMatchingAsset is returned when no asset of a release fits the host.
	ErrNoMatchingAsset = errors.New("no matching asset")

	// ErrFeed wraps failures of the release feed itself.
	ErrFeed = errors.New("release feed unavailable")
)

// Repo identifies a repository on the release host.
type Repo struct {
	Owner string
	Name  string
}

// String returns owner/name.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
}

// Release is a resolved release.
type Release struct {
	Version   string  // tag as published
	SourceURL string  // source archive, empty if not offered
	Assets    []Asset // candidate downloads
}

// FeedRelease is one entry of a release feed page.
type FeedRelease struct {
	Tag        string
	Draft      bool
	Prerelease bool
	SourceURL  string
	Assets     []Asset
}

// Feed lists releases of a repository, newest first, one page at a time.
// Pages are numbered from 1. An empty page marks the end of the feed.
type Feed interface {
	ListReleases(ctx context.Context, repo Repo, page, perPage int) ([]FeedRelease, error)
}

// Resolver picks one release from a Feed by version policy.
type Resolver struct {
	feed   Feed
	logger *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a resolver over feed.
func NewResolver(feed Feed, opts ...ResolverOption) *Resolver {
	r := &Resolver{feed: feed}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Or(r.logger)
	return r
}

// Resolve finds the release for version, which is Latest or a tag with or
// without a leading "v". Pages are scanned in order and the first match
// wins; later pages are never requested once a page yields a match. The first
// empty page ends the search with ErrReleaseNotFound.
func (r *Resolver) Resolve(ctx context.Context, repo Repo, version string) (*Release, error) {
	if version == "" {
		version = Latest
	}
	match := matcher(version)

	for page := 1; ; page++ {
		r.logger.Debug("listing releases", "repo", repo, "page", page)

		items, err := r.feed.ListReleases(ctx, repo, page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("list releases of %s: %w: %w", repo, ErrFeed, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: %s@%s", ErrReleaseNotFound, repo, version)
		}

		for _, item := range items {
			if match(item) {
				return &Release{
					Version:   item.Tag,
					SourceURL: item.SourceURL,
					Assets:    item.Assets,
				}, nil
			}
		}
	}
}

func matcher(version string) func(FeedRelease) bool {
	if version == Latest {
		return func(item FeedRelease) bool {
			return !item.Draft && !item.Prerelease
		}
	}
	return func(item FeedRelease) bool {
		return item.Tag == version || item.Tag == "v"+version
	}
}
