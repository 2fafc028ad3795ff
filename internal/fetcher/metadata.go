package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/xanzy/go-gitlab"

	"github.com/julianshen/codesage/internal/logging"
)

// Metadata describes a hosted repository.
type Metadata struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
	Stars         int    `json:"stars,omitempty"`
	Host          string `json:"host,omitempty"`
}

// MetadataResolver looks up repository metadata on GitHub and GitLab. Any
// other remote, and any lookup failure, resolves to the name taken from the
// URL.
type MetadataResolver struct {
	github     *github.Client
	gitlab     *gitlab.Client
	gitlabHost string
	logger     *slog.Logger
}

// MetadataOption configures a MetadataResolver.
type MetadataOption func(*MetadataResolver)

// WithGitHubClient replaces the GitHub client.
func WithGitHubClient(c *github.Client) MetadataOption {
	return func(r *MetadataResolver) { r.github = c }
}

// WithGitLabClient replaces the GitLab client. host is the hostname whose
// URLs are routed to it.
func WithGitLabClient(c *gitlab.Client, host string) MetadataOption {
	return func(r *MetadataResolver) {
		r.gitlab = c
		r.gitlabHost = strings.ToLower(host)
	}
}

// WithMetadataLogger sets the logger.
func WithMetadataLogger(l *slog.Logger) MetadataOption {
	return func(r *MetadataResolver) { r.logger = logging.OrDiscard(l) }
}

// NewMetadataResolver creates a resolver for github.com and the GitLab
// instance at gitlabBaseURL. Empty tokens use anonymous access.
func NewMetadataResolver(githubToken, gitlabToken, gitlabBaseURL string, opts ...MetadataOption) (*MetadataResolver, error) {
	gh := github.NewClient(nil)
	if githubToken != "" {
		gh = gh.WithAuthToken(githubToken)
	}

	var glOpts []gitlab.ClientOptionFunc
	host := "gitlab.com"
	if gitlabBaseURL != "" {
		glOpts = append(glOpts, gitlab.WithBaseURL(gitlabBaseURL))
		if h, _, ok := repoPath(strings.TrimRight(gitlabBaseURL, "/") + "/x/y"); ok {
			host = h
		}
	}
	gl, err := gitlab.NewClient(gitlabToken, glOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	r := &MetadataResolver{github: gh, gitlab: gl, gitlabHost: host, logger: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns metadata for rawURL. It never fails: lookups that cannot
// be made or that error fall back to the URL-derived name.
func (r *MetadataResolver) Resolve(ctx context.Context, rawURL string) Metadata {
	fallback := Metadata{Name: ProjectNameFromURL(rawURL)}
	host, path, ok := repoPath(rawURL)
	if !ok {
		return fallback
	}
	fallback.Host = host

	var (
		md  Metadata
		err error
	)
	switch {
	case host == "github.com" && r.github != nil:
		md, err = r.fromGitHub(ctx, path)
	case host == r.gitlabHost && r.gitlab != nil:
		md, err = r.fromGitLab(ctx, path)
	default:
		return fallback
	}
	if err != nil {
		r.logger.Warn("repository metadata lookup failed", "url", rawURL, "host", host, "error", err)
		return fallback
	}
	md.Host = host
	if md.Name == "" {
		md.Name = fallback.Name
	}
	return md
}

func (r *MetadataResolver) fromGitHub(ctx context.Context, path string) (Metadata, error) {
	owner, name, ok := strings.Cut(path, "/")
	if !ok || strings.Contains(name, "/") {
		return Metadata{}, fmt.Errorf("unexpected github path %q", path)
	}
	repo, _, err := r.github.Repositories.Get(ctx, owner, name)
	if err != nil {
		return Metadata{}, fmt.Errorf("getting github repository: %w", err)
	}
	return Metadata{
		Name:          repo.GetName(),
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
	}, nil
}

func (r *MetadataResolver) fromGitLab(ctx context.Context, path string) (Metadata, error) {
	p, _, err := r.gitlab.Projects.GetProject(path, nil, gitlab.WithContext(ctx))
	if err != nil {
		return Metadata{}, fmt.Errorf("getting gitlab project: %w", err)
	}
	return Metadata{
		Name:          p.Name,
		Description:   p.Description,
		DefaultBranch: p.DefaultBranch,
		Stars:         p.StarCount,
	}, nil
}
