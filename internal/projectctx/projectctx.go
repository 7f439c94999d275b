// Package projectctx resolves what a project-scoped command runs against:
// the loaded config, the branch, the profile, the project ref and the access
// token. Failures come back tagged with their exit-code kind.
package projectctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/term"

	"github.com/bsmartlabs/supa/internal/authtoken"
	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/gitbranch"
	"github.com/bsmartlabs/supa/internal/profile"
)

var (
	ErrNoProjectRef = errors.New("no project ref configured: set project_id in supabase/config.json")
	ErrNotTTY       = errors.New("interactive mode requires a TTY; use --json for non-interactive output")
)

var (
	currentBranchFn = gitbranch.Current
	resolveTokenFn  = authtoken.Resolve
	isTerminalFn    = term.IsTerminal
)

type Options struct {
	Cwd        string
	ConfigPath string
	// Profile is the --profile override; empty means branch matching.
	Profile string
	Log     *slog.Logger
}

type ConfigContext struct {
	Cwd    string
	Loaded *config.Loaded
	Branch string
	// BranchDetected is false when Branch is the fallback.
	BranchDetected bool
	Resolution     profile.Resolution
}

// Profile returns the resolved profile, nil when none applied.
func (c *ConfigContext) Profile() *config.NamedProfile {
	return c.Resolution.Profile
}

func (c *ConfigContext) ProfileName() string {
	if c.Resolution.Profile == nil {
		return ""
	}
	return c.Resolution.Profile.Name
}

type ProjectContext struct {
	*ConfigContext
	ProjectRef string
	Token      authtoken.Token
}

func logger(opts Options) *slog.Logger {
	if opts.Log != nil {
		return opts.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ResolveConfig loads the project config and resolves branch and profile.
// A missing profile is not an error here.
func ResolveConfig(ctx context.Context, opts Options) (*ConfigContext, error) {
	log := logger(opts)

	loaded, err := config.Load(opts.Cwd, opts.ConfigPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, exitcode.Wrap(exitcode.KindConfigNotFound, err)
		}
		return nil, exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("load config: %w", err))
	}
	for _, w := range loaded.Warnings {
		log.Warn("config warning", "path", loaded.Path, "warning", w)
	}

	branch, detected := detectBranch(ctx, opts.Cwd, log)

	res, err := profile.Resolve(loaded.Cfg, opts.Profile, branch)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.KindProfileNotFound, err)
	}
	cc := &ConfigContext{
		Cwd:            opts.Cwd,
		Loaded:         loaded,
		Branch:         branch,
		BranchDetected: detected,
		Resolution:     res,
	}
	log.Debug("resolved profile", "branch", branch, "profile", cc.ProfileName(), "source", string(res.Source), "pattern", res.Pattern)
	return cc, nil
}

func detectBranch(ctx context.Context, dir string, log *slog.Logger) (string, bool) {
	branch, err := currentBranchFn(ctx, dir)
	if err != nil || branch == "" {
		log.Debug("branch detection failed; using fallback", "fallback", profile.DefaultBranch, "error", err)
		return profile.DefaultBranch, false
	}
	return branch, true
}

// ResolveProjectContext is ResolveConfig plus the project ref for the
// resolved profile and an access token.
func ResolveProjectContext(ctx context.Context, opts Options) (*ProjectContext, error) {
	cc, err := ResolveConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	ref := cc.Loaded.Cfg.ProjectRef(cc.Profile())
	if ref == "" {
		if name := cc.ProfileName(); name != "" {
			return nil, exitcode.Wrap(exitcode.KindConfigNotFound, fmt.Errorf("profile %q: %w", name, ErrNoProjectRef))
		}
		return nil, exitcode.Wrap(exitcode.KindConfigNotFound, ErrNoProjectRef)
	}

	tok, err := resolveTokenFn(cc.Loaded.Root)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.KindAuthFailure, err)
	}
	logger(opts).Debug("resolved project", "project_ref", ref, "token_source", string(tok.Source))

	return &ProjectContext{ConfigContext: cc, ProjectRef: ref, Token: tok}, nil
}

// IsInteractive reports whether r is a terminal.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isTerminalFn(int(f.Fd()))
}

// RequireTTY fails unless stdin is a terminal. Call it before any prompt.
func RequireTTY(stdin io.Reader) error {
	return CheckTTY(IsInteractive(stdin))
}

// CheckTTY is RequireTTY for callers that already know whether input is
// interactive.
func CheckTTY(interactive bool) error {
	if interactive {
		return nil
	}
	return exitcode.Wrap(exitcode.KindGeneric, ErrNotTTY)
}
