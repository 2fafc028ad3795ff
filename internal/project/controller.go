package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianshen/codesage/internal/docgen"
	"github.com/julianshen/codesage/internal/fetcher"
	"github.com/julianshen/codesage/internal/logging"
	"github.com/julianshen/codesage/internal/model"
	"github.com/julianshen/codesage/internal/store"
)

// Store is the document persistence the Controller writes through.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	Where(ctx context.Context, collection, field string, value any) ([]store.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// Fetcher materializes a repository for the duration of fn.
type Fetcher interface {
	WithCheckout(ctx context.Context, url string, fn func(dir string) error) error
}

// Walker extracts an AnalysisResult from a directory.
type Walker interface {
	Walk(ctx context.Context, root string) (*model.AnalysisResult, error)
}

// Documenter runs the documentation stages over a result.
type Documenter interface {
	Run(ctx context.Context, info docgen.ProjectInfo, result *model.AnalysisResult) error
}

// MetadataResolver looks up hosted repository metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) fetcher.Metadata
}

// Controller drives project creation and analysis runs. Concurrent runs on
// the same project are not excluded; their writes may interleave.
type Controller struct {
	store    Store
	fetcher  Fetcher
	walker   Walker
	docs     Documenter
	metadata MetadataResolver
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithMetadataResolver enables repository metadata lookup.
func WithMetadataResolver(r MetadataResolver) Option {
	return func(c *Controller) { c.metadata = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = logging.OrDiscard(l) }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator sets the project id generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// NewController creates a Controller over its collaborators.
func NewController(s Store, f Fetcher, w Walker, d Documenter, opts ...Option) *Controller {
	c := &Controller{
		store:   s,
		fetcher: f,
		walker:  w,
		docs:    d,
		logger:  logging.NewDiscardLogger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateProject records a new project owned by owner in status created.
func (c *Controller) CreateProject(ctx context.Context, owner, url string) (*Project, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if err := fetcher.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	now := c.now().UTC()
	p := &Project{
		ID:        c.newID(),
		Name:      fetcher.ProjectNameFromURL(url),
		RemoteURL: url,
		OwnerUID:  owner,
		Status:    StatusCreated,
		Settings:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.Set(ctx, store.Projects, p.ID, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	c.logger.Info("project created", "project", p.ID, "name", p.Name, "owner", owner)
	return p, nil
}

// ListProjects returns the projects owned by owner, oldest first.
func (c *Controller) ListProjects(ctx context.Context, owner string) ([]*Project, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	docs, err := c.store.Where(ctx, store.Projects, "owner_uid", owner)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]*Project, 0, len(docs))
	for _, d := range docs {
		var p Project
		if err := d.Decode(&p); err != nil {
			c.logger.Warn("skipping undecodable project", "project", d.ID, "error", err)
			continue
		}
		p.ID = d.ID
		projects = append(projects, &p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.Before(projects[j].CreatedAt)
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

// GetProject returns the project id if owner owns it.
func (c *Controller) GetProject(ctx context.Context, owner, id string) (*Project, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	p, err := c.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerUID != owner {
		return nil, ErrForbidden
	}
	return p, nil
}

// DeleteProject removes the project id and its stored analysis if owner
// owns it.
func (c *Controller) DeleteProject(ctx context.Context, owner, id string) error {
	if _, err := c.GetProject(ctx, owner, id); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, store.AnalysisCollection(id), store.LatestAnalysisID); err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	if err := c.store.Delete(ctx, store.Projects, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	c.logger.Info("project deleted", "project", id, "owner", owner)
	return nil
}

// RequestAnalysis marks the project queued and starts RunAnalysis in the
// background. The queued write happens before it returns; the run itself
// outlives ctx's cancellation.
func (c *Controller) RequestAnalysis(ctx context.Context, owner, id string) (*Project, error) {
	p, err := c.GetProject(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := c.setStatus(ctx, id, StatusQueued, nil); err != nil {
		return nil, err
	}
	p.Status = StatusQueued
	p.Error = ""

	runCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.RunAnalysis(runCtx, id, p.RemoteURL); err != nil {
			c.logger.Warn("analysis run failed", "project", id, "error", err)
		}
	}()
	return p, nil
}

// Wait blocks until every background run started by RequestAnalysis has
// finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// RunAnalysis performs fetch, walk, documentation and persistence for the
// project id, moving it to analyzing and then to exactly one terminal state.
// The returned error is also recorded on the project, including a failure
// to record analyzing.
func (c *Controller) RunAnalysis(ctx context.Context, id, url string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panic: %v", r)
		}
		if err == nil {
			return
		}
		c.logger.Warn("analysis failed", "project", id, "fetch", fetcher.IsFetchError(err), "error", err)
		if ferr := c.setStatus(ctx, id, StatusFailed, map[string]any{"error": err.Error()}); ferr != nil {
			c.logger.Error("recording failed status", "project", id, "error", ferr)
		}
	}()

	if err = c.setStatus(ctx, id, StatusAnalyzing, nil); err != nil {
		return err
	}
	c.logger.Info("analysis started", "project", id, "url", url)

	result, info, err := c.analyze(ctx, url)
	if err != nil {
		return err
	}
	result.AnalyzedAt = c.now().UTC()
	if err := c.store.Set(ctx, store.AnalysisCollection(id), store.LatestAnalysisID, result); err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}

	summary := result.Summarize()
	fields := map[string]any{
		"summary":     summary,
		"analyzed_at": result.AnalyzedAt,
	}
	if info.Description != "" {
		fields["description"] = info.Description
	}
	if err := c.setStatus(ctx, id, StatusCompleted, fields); err != nil {
		return err
	}
	c.logger.Info("analysis completed",
		"project", id,
		"files", summary.Files,
		"classes", summary.Classes,
		"functions", summary.Functions,
		"methods", summary.Methods,
	)
	return nil
}

func (c *Controller) analyze(ctx context.Context, url string) (*model.AnalysisResult, docgen.ProjectInfo, error) {
	info := docgen.ProjectInfo{Name: fetcher.ProjectNameFromURL(url), URL: url}
	if c.metadata != nil {
		md := c.metadata.Resolve(ctx, url)
		if md.Name != "" {
			info.Name = md.Name
		}
		info.Description = md.Description
	}

	var result *model.AnalysisResult
	err := c.fetcher.WithCheckout(ctx, url, func(dir string) error {
		var werr error
		result, werr = c.walker.Walk(ctx, dir)
		return werr
	})
	if err != nil {
		return nil, info, err
	}

	if err := c.docs.Run(ctx, info, result); err != nil {
		return nil, info, fmt.Errorf("documenting: %w", err)
	}
	return result, info, nil
}

// GetLatestAnalysis returns the most recent completed analysis of id.
func (c *Controller) GetLatestAnalysis(ctx context.Context, id string) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	err := c.store.Get(ctx, store.AnalysisCollection(id), store.LatestAnalysisID, &result)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("analysis of %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading analysis: %w", err)
	}
	return &result, nil
}

func (c *Controller) loadProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := c.store.Get(ctx, store.Projects, id, &p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	p.ID = id
	return &p, nil
}

// setStatus is the only writer of the status field.
func (c *Controller) setStatus(ctx context.Context, id string, s Status, extra map[string]any) error {
	fields := map[string]any{
		"status":     s,
		"updated_at": c.now().UTC(),
	}
	if s != StatusFailed {
		fields["error"] = nil
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := c.store.Merge(ctx, store.Projects, id, fields); err != nil {
		return fmt.Errorf("setting status %s: %w", s, err)
	}
	level := slog.LevelDebug
	if s.IsTerminal() {
		level = slog.LevelInfo
	}
	c.logger.Log(ctx, level, "project status changed", "project", id, "status", s)
	return nil
}
