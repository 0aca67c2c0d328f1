// Package repo reads commit history from the git checkout the bot runs from.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Commit is one entry of the history
type Commit struct {
	SHA     string
	Time    time.Time
	Message string
}

// Short returns the first n characters of the SHA
func (c Commit) Short(n int) string {
	if len(c.SHA) <= n {
		return c.SHA
	}
	return c.SHA[:n]
}

// Repo is a handle on a local git repository. Git invocations through the
// handle are serialized.
type Repo struct {
	mu  sync.Mutex
	dir string

	// URL is the web URL of the origin remote, without a trailing ".git".
	URL string
}

// Discover finds the repository containing dir
func Discover(ctx context.Context, dir string) (*Repo, error) {
	top, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	r := &Repo{dir: strings.TrimSpace(top)}

	remote, err := runGit(ctx, r.dir, "remote", "get-url", "origin")
	if err != nil {
		return nil, fmt.Errorf("repository has no origin remote: %w", err)
	}
	r.URL = WebURL(strings.TrimSpace(remote))
	return r, nil
}

// Dir returns the top-level directory of the repository
func (r *Repo) Dir() string {
	return r.dir
}

// WebURL converts a remote URL to its browsable form
func WebURL(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")
	// git@github.com:owner/name
	if rest, ok := strings.CutPrefix(remote, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if found {
			return "https://" + host + "/" + path
		}
	}
	return remote
}

// CommitURL links to a commit on the remote
func (r *Repo) CommitURL(sha string) string {
	return r.URL + "/commit/" + sha
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// RecentCommits returns up to n commits reachable from HEAD in topological
// order, newest first.
func (r *Repo) RecentCommits(ctx context.Context, n int) ([]Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := runGit(ctx, r.dir, "log", "--topo-order",
		"-n", strconv.Itoa(n),
		"--format=%H"+fieldSep+"%ct"+fieldSep+"%B"+recordSep)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if rec == "" {
			continue
		}
		parts := strings.SplitN(rec, fieldSep, 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected git log record %q", rec)
		}
		secs, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid commit time %q: %w", parts[1], err)
		}
		commits = append(commits, Commit{
			SHA:     parts[0],
			Time:    time.Unix(secs, 0).UTC(),
			Message: strings.TrimSpace(parts[2]),
		})
	}
	return commits, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %v failed: %w (stderr: %s)", args, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
