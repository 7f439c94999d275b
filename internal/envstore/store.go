// Package envstore defines the remote environment-variable store that the env
// commands talk to. Backends live in subpackages.
package envstore

import (
	"context"
	"errors"

	"github.com/bsmartlabs/supa/internal/envvar"
)

var (
	// ErrNotImplemented is returned by backends whose remote API does not
	// exist yet.
	ErrNotImplemented     = errors.New("environment API not yet available")
	ErrEnvironmentMissing = errors.New("environment not found")
	ErrEnvironmentExists  = errors.New("environment already exists")
	ErrVariableMissing    = errors.New("variable not found")
)

// Target addresses an environment, optionally narrowed to a branch override.
type Target struct {
	Environment string
	Branch      string
}

type ListOptions struct {
	// Decrypt returns secret values. Without it they come back empty.
	Decrypt bool
}

type VariableLister interface {
	ListVariables(ctx context.Context, ref string, target Target, opts ListOptions) ([]envvar.Variable, error)
}

type VariableWriter interface {
	BulkUpsert(ctx context.Context, ref, environment string, vars []envvar.Variable, prune bool) error
	SetVariable(ctx context.Context, ref string, target Target, v envvar.Variable) error
	DeleteVariable(ctx context.Context, ref string, target Target, key string) error
}

type EnvironmentManager interface {
	ListEnvironments(ctx context.Context, ref string) ([]envvar.Environment, error)
	CreateEnvironment(ctx context.Context, ref, name, from string) (envvar.Environment, error)
	DeleteEnvironment(ctx context.Context, ref, name string) error
	SeedEnvironment(ctx context.Context, ref, target, from string) error
}

type Store interface {
	VariableLister
	VariableWriter
	EnvironmentManager
}
