package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envsync"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/projectctx"
	"github.com/bsmartlabs/supa/internal/providers"
)

type commandContext struct {
	runCtx context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	global globalOptions
	deps   Dependencies
	log    *slog.Logger
}

// commandRuntime is what a command's Run receives.
type commandRuntime struct {
	commandContext
	ctx    context.Context
	def    commandDef
	parsed *parsedCommand
	in     *bufio.Reader
}

func (r *commandRuntime) options() (projectctx.Options, error) {
	cwd, err := r.deps.Getwd()
	if err != nil {
		return projectctx.Options{}, fmt.Errorf("get working directory: %w", err)
	}
	return projectctx.Options{
		Cwd:        cwd,
		ConfigPath: r.global.configPath,
		Profile:    r.global.profile,
		Log:        r.log,
	}, nil
}

func (r *commandRuntime) resolveConfig() (*projectctx.ConfigContext, error) {
	opts, err := r.options()
	if err != nil {
		return nil, err
	}
	return r.deps.ResolveConfig(r.ctx, opts)
}

func (r *commandRuntime) resolveProject() (*projectctx.ProjectContext, error) {
	opts, err := r.options()
	if err != nil {
		return nil, err
	}
	return r.deps.ResolveProject(r.ctx, opts)
}

func (r *commandRuntime) apiClient(pc *projectctx.ProjectContext) (managementAPI, error) {
	client, err := r.deps.NewAPIClient(pc.Token.Value, r.log)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

// envService opens the configured env store scoped to the project.
func (r *commandRuntime) envService(pc *projectctx.ProjectContext) (*envsync.Service, error) {
	store, err := r.deps.OpenEnvStore(pc.Loaded.Cfg, pc.Token.Value, r.log)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("open env store: %w", err))
	}
	r.log.Debug("opened env store", "provider", pc.Loaded.Cfg.EnvStoreProvider(), "project_ref", pc.ProjectRef)
	return envsync.New(envstore.BindScope(store, pc.ProjectRef), pc.Loaded.Root, r.log), nil
}

func (r *commandRuntime) registry() *providers.Registry {
	if r.deps.Registry == nil {
		r.deps.Registry = providers.Default(nil, r.log)
	}
	return r.deps.Registry
}
