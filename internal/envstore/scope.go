package envstore

import (
	"context"

	"github.com/bsmartlabs/supa/internal/envvar"
)

// ProjectStore is a Store bound to one project ref.
type ProjectStore interface {
	ProjectRef() string
	ListVariables(ctx context.Context, target Target, opts ListOptions) ([]envvar.Variable, error)
	BulkUpsert(ctx context.Context, environment string, vars []envvar.Variable, prune bool) error
	SetVariable(ctx context.Context, target Target, v envvar.Variable) error
	DeleteVariable(ctx context.Context, target Target, key string) error
	ListEnvironments(ctx context.Context) ([]envvar.Environment, error)
	CreateEnvironment(ctx context.Context, name, from string) (envvar.Environment, error)
	DeleteEnvironment(ctx context.Context, name string) error
	SeedEnvironment(ctx context.Context, target, from string) error
}

type scopedStore struct {
	base Store
	ref  string
}

// BindScope returns base with every call addressed to ref.
func BindScope(base Store, ref string) ProjectStore {
	return &scopedStore{base: base, ref: ref}
}

func (s *scopedStore) ProjectRef() string { return s.ref }

func (s *scopedStore) ListVariables(ctx context.Context, target Target, opts ListOptions) ([]envvar.Variable, error) {
	return s.base.ListVariables(ctx, s.ref, withDefaultEnvironment(target), opts)
}

func (s *scopedStore) BulkUpsert(ctx context.Context, environment string, vars []envvar.Variable, prune bool) error {
	if environment == "" {
		environment = envvar.DefaultEnvironment
	}
	return s.base.BulkUpsert(ctx, s.ref, environment, vars, prune)
}

func (s *scopedStore) SetVariable(ctx context.Context, target Target, v envvar.Variable) error {
	return s.base.SetVariable(ctx, s.ref, withDefaultEnvironment(target), v)
}

func (s *scopedStore) DeleteVariable(ctx context.Context, target Target, key string) error {
	return s.base.DeleteVariable(ctx, s.ref, withDefaultEnvironment(target), key)
}

func (s *scopedStore) ListEnvironments(ctx context.Context) ([]envvar.Environment, error) {
	return s.base.ListEnvironments(ctx, s.ref)
}

func (s *scopedStore) CreateEnvironment(ctx context.Context, name, from string) (envvar.Environment, error) {
	return s.base.CreateEnvironment(ctx, s.ref, name, from)
}

func (s *scopedStore) DeleteEnvironment(ctx context.Context, name string) error {
	return s.base.DeleteEnvironment(ctx, s.ref, name)
}

func (s *scopedStore) SeedEnvironment(ctx context.Context, target, from string) error {
	return s.base.SeedEnvironment(ctx, s.ref, target, from)
}

func withDefaultEnvironment(t Target) Target {
	if t.Environment == "" {
		t.Environment = envvar.DefaultEnvironment
	}
	return t
}
