// Package fetcher materializes a remote repository into an ephemeral local
// directory with shallow git clones.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/julianshen/codesage/internal/logging"
)

// Fetcher clones repositories into temporary directories.
type Fetcher struct {
	gitBinary string
	depth     int
	timeout   time.Duration
	workDir   string
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithGitBinary sets the git executable.
func WithGitBinary(path string) Option {
	return func(f *Fetcher) {
		if path != "" {
			f.gitBinary = path
		}
	}
}

// WithDepth sets the clone depth. Zero clones full history.
func WithDepth(depth int) Option {
	return func(f *Fetcher) { f.depth = depth }
}

// WithTimeout bounds each clone. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithWorkDir sets the parent directory for checkouts. Empty uses the
// system temporary directory.
func WithWorkDir(dir string) Option {
	return func(f *Fetcher) { f.workDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrDiscard(l) }
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		gitBinary: "git",
		depth:     1,
		timeout:   5 * time.Minute,
		logger:    logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Checkout is a cloned working tree. It is owned by one run and must be
// closed to remove it.
type Checkout struct {
	Dir string
	URL string

	once sync.Once
	err  error
}

// Close removes the checkout directory. It is safe to call more than once.
func (c *Checkout) Close() error {
	c.once.Do(func() {
		c.err = os.RemoveAll(c.Dir)
	})
	return c.err
}

// Fetch clones rawURL into a fresh temporary directory. Failures are
// returned as *FetchError and leave nothing on disk.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Checkout, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Kind: KindInvalidURL, Err: err}
	}

	parent, err := os.MkdirTemp(f.workDir, "codesage-*")
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: KindCloneFailed, Err: fmt.Errorf("creating work directory: %w", err)}
	}
	co := &Checkout{Dir: parent, URL: rawURL}

	if err := f.clone(ctx, rawURL, parent); err != nil {
		if rmErr := co.Close(); rmErr != nil {
			f.logger.Warn("checkout cleanup failed", "dir", parent, "error", rmErr)
		}
		return nil, err
	}
	f.logger.Info("repository fetched", "url", rawURL, "dir", parent)
	return co, nil
}

// WithCheckout fetches rawURL, calls fn with the checkout directory, and
// removes the directory on every exit path.
func (f *Fetcher) WithCheckout(ctx context.Context, rawURL string, fn func(dir string) error) (err error) {
	co, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := co.Close(); cerr != nil {
			f.logger.Warn("checkout cleanup failed", "dir", co.Dir, "error", cerr)
		}
	}()
	return fn(co.Dir)
}

func (f *Fetcher) clone(ctx context.Context, rawURL, dir string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{"clone"}
	if f.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(f.depth), "--single-branch")
	}
	args = append(args, "--quiet", "--", rawURL, dir)

	cmd := exec.CommandContext(ctx, f.gitBinary, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		f.logger.Debug("git clone finished", "url", rawURL, "elapsed", time.Since(start))
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &FetchError{URL: rawURL, Kind: KindUnreachable, Err: fmt.Errorf("git clone: %w", ctxErr)}
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return &FetchError{URL: rawURL, Kind: KindCloneFailed, Err: fmt.Errorf("running git: %w", err)}
	}
	msg := bytes.TrimSpace(stderr.Bytes())
	return &FetchError{
		URL:  rawURL,
		Kind: classify(string(msg)),
		Err:  fmt.Errorf("git clone: %s: %w", msg, err),
	}
}
