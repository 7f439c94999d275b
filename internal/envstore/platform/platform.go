// Package platform is the env store backed by the Management API's
// environment endpoints.
package platform

import (
	"context"
	"errors"

	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/mgmtapi"
)

type environmentAPI interface {
	ListEnvironments(ctx context.Context, ref string) ([]envvar.Environment, error)
	CreateEnvironment(ctx context.Context, ref, name, from string) (envvar.Environment, error)
	DeleteEnvironment(ctx context.Context, ref, name string) error
	SeedEnvironment(ctx context.Context, ref, name, from string, vars []envvar.Variable) error
	ListEnvVariables(ctx context.Context, ref, env string, opts mgmtapi.ListVariablesOptions) ([]envvar.Variable, error)
	BulkUpsertEnvVariables(ctx context.Context, ref, env string, vars []envvar.Variable, prune bool) error
	SetEnvVariable(ctx context.Context, ref, env, branch string, v envvar.Variable) error
	DeleteEnvVariable(ctx context.Context, ref, env, branch, key string) error
}

type Store struct {
	api environmentAPI
}

var _ envstore.Store = (*Store)(nil)

func New(api environmentAPI) *Store {
	return &Store{api: api}
}

func translate(err error) error {
	if errors.Is(err, mgmtapi.ErrEnvironmentAPIUnavailable) {
		return envstore.ErrNotImplemented
	}
	return err
}

func (s *Store) ListVariables(ctx context.Context, ref string, target envstore.Target, opts envstore.ListOptions) ([]envvar.Variable, error) {
	vars, err := s.api.ListEnvVariables(ctx, ref, target.Environment, mgmtapi.ListVariablesOptions{
		Branch:  target.Branch,
		Decrypt: opts.Decrypt,
	})
	return vars, translate(err)
}

func (s *Store) BulkUpsert(ctx context.Context, ref, environment string, vars []envvar.Variable, prune bool) error {
	return translate(s.api.BulkUpsertEnvVariables(ctx, ref, environment, vars, prune))
}

func (s *Store) SetVariable(ctx context.Context, ref string, target envstore.Target, v envvar.Variable) error {
	return translate(s.api.SetEnvVariable(ctx, ref, target.Environment, target.Branch, v))
}

func (s *Store) DeleteVariable(ctx context.Context, ref string, target envstore.Target, key string) error {
	return translate(s.api.DeleteEnvVariable(ctx, ref, target.Environment, target.Branch, key))
}

func (s *Store) ListEnvironments(ctx context.Context, ref string) ([]envvar.Environment, error) {
	envs, err := s.api.ListEnvironments(ctx, ref)
	return envs, translate(err)
}

func (s *Store) CreateEnvironment(ctx context.Context, ref, name, from string) (envvar.Environment, error) {
	env, err := s.api.CreateEnvironment(ctx, ref, name, from)
	return env, translate(err)
}

func (s *Store) DeleteEnvironment(ctx context.Context, ref, name string) error {
	return translate(s.api.DeleteEnvironment(ctx, ref, name))
}

func (s *Store) SeedEnvironment(ctx context.Context, ref, target, from string) error {
	return translate(s.api.SeedEnvironment(ctx, ref, target, from, nil))
}
