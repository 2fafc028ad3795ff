package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindInvalidURL  Kind = "invalid_url"
	KindUnreachable Kind = "unreachable"
	KindAuthFailed  Kind = "auth_failed"
	KindCloneFailed Kind = "clone_failed"
)

// FetchError reports a repository that could not be materialized. It is
// distinct from an analysis that found nothing.
type FetchError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

var (
	authMarkers = []string{
		"authentication failed",
		"could not read username",
		"could not read password",
		"terminal prompts disabled",
		"permission denied (publickey",
		"403",
		"401",
	}
	unreachableMarkers = []string{
		"could not resolve host",
		"connection refused",
		"connection timed out",
		"operation timed out",
		"network is unreachable",
		"no route to host",
		"repository not found",
		"does not exist",
		"does not appear to be a git repository",
		"not found",
	}
)

// classify maps git stderr to a failure kind.
func classify(stderr string) Kind {
	s := strings.ToLower(stderr)
	for _, m := range authMarkers {
		if strings.Contains(s, m) {
			return KindAuthFailed
		}
	}
	for _, m := range unreachableMarkers {
		if strings.Contains(s, m) {
			return KindUnreachable
		}
	}
	return KindCloneFailed
}
