// Package gitbranch reads the checked-out branch of a git working copy.
package gitbranch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrDetached = errors.New("detached HEAD")

var runGitFn = func(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.Output()
}

// Current returns the short branch name checked out in dir.
func Current(ctx context.Context, dir string) (string, error) {
	out, err := runGitFn(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	branch := strings.TrimSpace(string(out))
	switch branch {
	case "":
		return "", errors.New("git rev-parse: empty output")
	case "HEAD":
		return "", ErrDetached
	}
	return branch, nil
}
