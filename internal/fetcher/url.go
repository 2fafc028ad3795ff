package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var scpLikeRe = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^\s:][^\s]*$`)

// ValidateURL accepts http(s), ssh, git and file URLs, scp-like
// user@host:path remotes, and absolute local paths.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("empty repository URL")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return errors.New("repository URL contains whitespace")
	}
	if strings.HasPrefix(raw, "-") {
		return errors.New("repository URL must not start with '-'")
	}
	if filepath.IsAbs(raw) {
		return nil
	}
	if !strings.Contains(raw, "://") {
		if scpLikeRe.MatchString(raw) {
			return nil
		}
		return fmt.Errorf("unsupported repository URL %q", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing repository URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		if u.Host == "" {
			return fmt.Errorf("repository URL %q has no host", raw)
		}
	case "file":
		if u.Path == "" {
			return fmt.Errorf("repository URL %q has no path", raw)
		}
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return nil
}

// ProjectNameFromURL returns the last path segment of a repository URL with
// any ".git" suffix removed.
func ProjectNameFromURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// repoPath returns the host and the "owner/name" path of a hosted
// repository URL, or ok=false for local paths and unparseable input.
func repoPath(raw string) (host, path string, ok bool) {
	if filepath.IsAbs(raw) {
		return "", "", false
	}
	if !strings.Contains(raw, "://") {
		if !scpLikeRe.MatchString(raw) {
			return "", "", false
		}
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		host, path = raw[at+1:colon], raw[colon+1:]
	} else {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "file" {
			return "", "", false
		}
		host, path = u.Hostname(), u.Path
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || !strings.Contains(path, "/") {
		return "", "", false
	}
	return strings.ToLower(host), path, true
}
