package utils

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// revisionQueryTimeout bounds every revision-pointer query.
const revisionQueryTimeout = 10 * time.Second

// GitOperations answers version-control queries for arbitrary directories.
// It never mutates repository state.
type GitOperations struct{}

// NewGitOperations creates a new GitOperations instance.
func NewGitOperations() *GitOperations {
	return &GitOperations{}
}

// CheckGitRepo reports whether dir carries version-control metadata.
func (g *GitOperations) CheckGitRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// HeadRevision returns the identifier of the current revision pointer of
// dir, or the empty string when dir is not under version control or the
// query fails. The query is bounded in time and a failure is never fatal:
// change detection simply degrades to "unavailable".
func (g *GitOperations) HeadRevision(ctx context.Context, dir string) string {
	if !g.CheckGitRepo(dir) {
		return ""
	}

	queryCtx, cancel := context.WithTimeout(ctx, revisionQueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(queryCtx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(output))
}

// RevisionChanged reports whether two fingerprints of the same directory
// differ. An empty fingerprint on either side means change detection was
// unavailable, so no change is claimed.
func RevisionChanged(before string, after string) bool {
	if before == "" || after == "" {
		return false
	}
	return before != after
}
