// Package workspace resolves the root directory of the repository the
// process is running in.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotInRepository indicates the workspace root could not be determined.
var ErrNotInRepository = errors.New("not in a git repository")

// Resolver returns the root directory of the current workspace.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// CommandRunner executes an external command in dir and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// CommandError wraps a failed subprocess with its combined output.
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Cmd + ": " + e.Output
	}
	return e.Cmd + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Cmd:    name + " " + strings.Join(args, " "),
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// GitResolver asks git for the top-level directory of the working tree.
type GitResolver struct {
	dir    string
	runner CommandRunner
}

// Option configures a GitResolver.
type Option func(*GitResolver)

// WithDir sets the directory git is run from. Defaults to the process
// working directory.
func WithDir(dir string) Option {
	return func(g *GitResolver) {
		g.dir = dir
	}
}

// WithRunner swaps the command runner, mainly for tests.
func WithRunner(r CommandRunner) Option {
	return func(g *GitResolver) {
		g.runner = r
	}
}

func NewGitResolver(opts ...Option) *GitResolver {
	g := &GitResolver{runner: ExecRunner{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitResolver) Resolve(ctx context.Context) (string, error) {
	out, err := g.runner.Run(ctx, g.dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotInRepository, err)
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", ErrNotInRepository
	}
	return root, nil
}

// Static is a Resolver that always returns the same root.
type Static string

func (s Static) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", ErrNotInRepository
	}
	return string(s), nil
}
