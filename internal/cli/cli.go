package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bsmartlabs/supa/internal/authtoken"
	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envstore/platform"
	"github.com/bsmartlabs/supa/internal/envstore/scaleway"
	"github.com/bsmartlabs/supa/internal/logger"
	"github.com/bsmartlabs/supa/internal/mgmtapi"
	"github.com/bsmartlabs/supa/internal/projectctx"
	"github.com/bsmartlabs/supa/internal/providers"
	"github.com/bsmartlabs/supa/internal/similar"
)

// managementAPI is the part of the management API client the commands use.
type managementAPI interface {
	GetAuthConfig(ctx context.Context, ref string) (map[string]any, error)
	UpdateAuthConfig(ctx context.Context, ref string, patch map[string]any) (map[string]any, error)
	GetPostgrestConfig(ctx context.Context, ref string) (map[string]any, error)
	GetProjectAPIKeys(ctx context.Context, ref string, reveal bool) ([]mgmtapi.APIKey, error)
}

type Dependencies struct {
	Version string
	Commit  string
	Date    string

	Stdin  io.Reader
	Getwd  func() (string, error)
	Getenv func(string) string

	IsTerminal   func(io.Reader) bool
	ReadPassword func(io.Reader) (string, error)

	ResolveConfig  func(context.Context, projectctx.Options) (*projectctx.ConfigContext, error)
	ResolveProject func(context.Context, projectctx.Options) (*projectctx.ProjectContext, error)
	NewAPIClient   func(token string, log *slog.Logger) (managementAPI, error)
	OpenEnvStore   func(cfg config.ProjectConfig, token string, log *slog.Logger) (envstore.Store, error)
	SaveToken      func(token string) (string, error)
	DeleteToken    func() (bool, error)
	SaveConfig     func(*config.Loaded) error

	Registry *providers.Registry
}

func DefaultDependencies(version, commit, date string) Dependencies {
	deps := Dependencies{
		Version:        version,
		Commit:         commit,
		Date:           date,
		Stdin:          os.Stdin,
		Getwd:          os.Getwd,
		Getenv:         os.Getenv,
		IsTerminal:     projectctx.IsInteractive,
		ReadPassword:   readPassword,
		ResolveConfig:  projectctx.ResolveConfig,
		ResolveProject: projectctx.ResolveProjectContext,
		SaveToken:      authtoken.Save,
		DeleteToken:    authtoken.Delete,
		SaveConfig:     config.Save,
	}
	deps.NewAPIClient = func(token string, log *slog.Logger) (managementAPI, error) {
		client, err := mgmtapi.New(deps.Getenv(mgmtapi.BaseURLEnv), token,
			mgmtapi.WithLogger(log),
			mgmtapi.WithUserAgent("supa/"+version),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	deps.OpenEnvStore = func(cfg config.ProjectConfig, token string, log *slog.Logger) (envstore.Store, error) {
		switch cfg.EnvStoreProvider() {
		case config.EnvStoreScaleway:
			store, err := scaleway.Open(*cfg.EnvStore, "")
			if err != nil {
				return nil, err
			}
			return store, nil
		default:
			client, err := mgmtapi.New(deps.Getenv(mgmtapi.BaseURLEnv), token,
				mgmtapi.WithLogger(log),
				mgmtapi.WithUserAgent("supa/"+version),
			)
			if err != nil {
				return nil, err
			}
			return platform.New(client), nil
		}
	}
	return deps
}

func (d Dependencies) validate() error {
	if d.Stdin == nil || d.Getwd == nil || d.Getenv == nil || d.IsTerminal == nil || d.ReadPassword == nil ||
		d.ResolveConfig == nil || d.ResolveProject == nil || d.NewAPIClient == nil || d.OpenEnvStore == nil ||
		d.SaveToken == nil || d.DeleteToken == nil || d.SaveConfig == nil {
		return errors.New("internal error: missing dependencies")
	}
	return nil
}

// Run executes one command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, deps Dependencies) int {
	return RunContext(context.Background(), args, stdout, stderr, deps)
}

// RunContext is Run with a context that cancels remote calls.
func RunContext(runCtx context.Context, args []string, stdout, stderr io.Writer, deps Dependencies) int {
	if err := deps.validate(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if len(args) < 2 {
		_ = printMainUsage(stderr)
		return 1
	}

	var global globalOptions
	fs := flag.NewFlagSet("supa", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _ = printMainUsage(stderr) }
	bindGlobalOptionFlags(fs, &global)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	ctx := commandContext{
		runCtx: runCtx,
		stdin:  deps.Stdin,
		stdout: stdout,
		stderr: stderr,
		global: global,
		deps:   deps,
		log:    logger.FromEnv(deps.Getenv, global.debug, stderr),
	}

	rest := fs.Args()
	if len(rest) == 0 {
		_ = printMainUsage(stderr)
		return 1
	}
	if rest[0] == "help" {
		return runHelp(ctx, rest[1:])
	}

	def, argv, ok := lookupCommand(rest)
	if !ok {
		return unknownCommand(ctx, rest)
	}
	return runCommand(ctx, def, argv)
}

func runHelp(ctx commandContext, words []string) int {
	if len(words) == 0 {
		if err := printMainUsage(ctx.stdout); err != nil {
			return 1
		}
		return 0
	}
	if def, _, ok := lookupCommand(words); ok {
		if err := printCommandUsage(ctx.stdout, def); err != nil {
			return 1
		}
		return 0
	}
	if group := normalizeWords(words); isGroup(group) {
		if err := printGroupUsage(ctx.stdout, strings.Join(group, " ")); err != nil {
			return 1
		}
		return 0
	}
	return ctx.fail(usageError(fmt.Errorf("unknown command for help: %s", strings.Join(words, " "))))
}

// unknownCommand prints the group listing for a bare group such as
// "project env", and a suggestion otherwise.
func unknownCommand(ctx commandContext, rest []string) int {
	words := normalizeWords(rest)
	prefix := longestGroupPrefix(words)
	if len(prefix) > 0 && len(prefix) == len(words) {
		group := strings.Join(prefix, " ")
		if len(rest) > len(prefix) && !isHelpFlag(rest[len(prefix)]) {
			return ctx.fail(usageError(fmt.Errorf("missing subcommand for %s (one of: %s)", group, strings.Join(nextWords(prefix), ", "))))
		}
		if err := printGroupUsage(ctx.stdout, group); err != nil {
			return 1
		}
		return 0
	}
	if len(words) == 0 {
		return ctx.fail(usageError(fmt.Errorf("unknown command: %s", rest[0])))
	}

	bad := words[len(prefix)]
	msg := fmt.Sprintf("unknown command: %s", strings.TrimSpace(strings.Join(prefix, " ")+" "+bad))
	if hint := similar.Hint(similar.Find(bad, nextWords(prefix))); hint != "" {
		msg += ". " + hint
	}
	return ctx.fail(usageError(errors.New(msg)))
}

func isHelpFlag(s string) bool {
	return s == "-h" || s == "--help" || s == "-help"
}
