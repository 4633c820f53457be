// Package cli wires the extract-session commands together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/sessionsync/internal/config"
	"github.com/MikeSquared-Agency/sessionsync/internal/hermes"
	"github.com/MikeSquared-Agency/sessionsync/internal/locator"
	"github.com/MikeSquared-Agency/sessionsync/internal/session"
	"github.com/MikeSquared-Agency/sessionsync/internal/store"
	"github.com/MikeSquared-Agency/sessionsync/internal/transcript"
	"github.com/MikeSquared-Agency/sessionsync/internal/workspace"
)

// Deps holds everything the commands need from the outside world.
type Deps struct {
	Config config.Config
	// Resolver overrides the git resolver. Tests set it; production leaves it nil.
	Resolver workspace.Resolver
	Logger   *slog.Logger
}

// DefaultDeps loads configuration from the environment and installs the
// configured logger as the slog default.
func DefaultDeps() *Deps {
	cfg := config.Load()
	logger := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	return &Deps{
		Config: cfg,
		Logger: logger,
	}
}

// Shared flags.
type options struct {
	workspace     string
	projectsDir   string
	skipMalformed bool
	publish       bool
	store         bool
}

// NewRootCommand builds `extract-session [session-id]`.
func NewRootCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "extract-session [session-id]",
		Short: "Print the conversation text of a Claude Code session",
		Long: `Print the user and assistant text of a Claude Code session transcript.

The transcript is looked up under the projects directory for the current git
repository. Without a session id the most recently modified transcript is used.
Tool calls, tool results, progress events, file snapshots and <system-reminder>
blocks are dropped.

Examples:
  extract-session
  extract-session 0f9c2d1e-5b7a-4c1e-9d2f-3a4b5c6d7e8f
  extract-session --publish --store`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			return runExtract(cmd.Context(), cmd.OutOrStdout(), deps, opts, sessionID)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.workspace, "workspace", "", "Workspace root to use instead of asking git")
	pf.StringVar(&opts.projectsDir, "projects-dir", "", "Transcript root (default $SESSIONSYNC_PROJECTS_DIR or ~/.claude/projects)")
	pf.BoolVar(&opts.skipMalformed, "skip-malformed", false, "Skip undecodable transcript lines instead of failing")

	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish the extraction to NATS (needs NATS_URL)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Archive the extraction in Postgres (needs DATABASE_URL)")

	cmd.AddCommand(newListCommand(deps, opts))
	cmd.AddCommand(newServeCommand(deps, opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, deps *Deps, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", userMessage(err))
		return 1
	}
	return 0
}

// userMessage keeps subprocess output and wrapped internals off the terminal
// for the expected failure kinds.
func userMessage(err error) string {
	switch {
	case errors.Is(err, workspace.ErrNotInRepository):
		return workspace.ErrNotInRepository.Error()
	default:
		return err.Error()
	}
}

func runExtract(ctx context.Context, out io.Writer, deps *Deps, opts *options, sessionID string) error {
	var sinks []session.Option

	if opts.publish {
		if deps.Config.NatsURL == "" {
			return errors.New("--publish requires NATS_URL")
		}
		client, err := hermes.NewClient(ctx, deps.Config.NatsURL, deps.Config.NatsToken, deps.Logger)
		if err != nil {
			return err
		}
		defer client.Close()
		sinks = append(sinks, session.WithPublisher(client, deps.Config.Subject))
	}

	if opts.store {
		if deps.Config.DatabaseURL == "" {
			return errors.New("--store requires DATABASE_URL")
		}
		db, err := store.New(ctx, deps.Config.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, session.WithArchive(db))
	}

	svc := newService(deps, opts, sinks...)
	t, err := svc.Extract(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, t.Text)

	return svc.Sync(ctx, t)
}

func newLocator(deps *Deps, opts *options) *locator.Locator {
	projectsDir := deps.Config.ProjectsDir
	if opts.projectsDir != "" {
		projectsDir = config.ExpandHome(opts.projectsDir)
	}

	var resolver workspace.Resolver = workspace.NewGitResolver()
	switch {
	case opts.workspace != "":
		resolver = workspace.Static(opts.workspace)
	case deps.Resolver != nil:
		resolver = deps.Resolver
	}
	return locator.New(projectsDir, resolver)
}

func newService(deps *Deps, opts *options, sinks ...session.Option) *session.Service {
	ext := transcript.New(
		transcript.WithSkipMalformed(opts.skipMalformed),
		transcript.WithLogger(deps.Logger),
	)
	return session.New(newLocator(deps, opts), ext, deps.Logger, sinks...)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
