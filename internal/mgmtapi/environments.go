package mgmtapi

import (
	"context"
	"errors"

	"github.com/bsmartlabs/supa/internal/envvar"
)

// ErrEnvironmentAPIUnavailable is returned by every environment endpoint
// until the Management API exposes them.
var ErrEnvironmentAPIUnavailable = errors.New("environment API not yet available")

type ListVariablesOptions struct {
	Branch  string
	Decrypt bool
}

func (c *Client) ListEnvironments(ctx context.Context, ref string) ([]envvar.Environment, error) {
	return nil, ErrEnvironmentAPIUnavailable
}

func (c *Client) CreateEnvironment(ctx context.Context, ref, name, from string) (envvar.Environment, error) {
	return envvar.Environment{}, ErrEnvironmentAPIUnavailable
}

func (c *Client) DeleteEnvironment(ctx context.Context, ref, name string) error {
	return ErrEnvironmentAPIUnavailable
}

func (c *Client) SeedEnvironment(ctx context.Context, ref, name, from string, vars []envvar.Variable) error {
	return ErrEnvironmentAPIUnavailable
}

func (c *Client) ListEnvVariables(ctx context.Context, ref, env string, opts ListVariablesOptions) ([]envvar.Variable, error) {
	return nil, ErrEnvironmentAPIUnavailable
}

func (c *Client) BulkUpsertEnvVariables(ctx context.Context, ref, env string, vars []envvar.Variable, prune bool) error {
	return ErrEnvironmentAPIUnavailable
}

func (c *Client) SetEnvVariable(ctx context.Context, ref, env, branch string, v envvar.Variable) error {
	return ErrEnvironmentAPIUnavailable
}

func (c *Client) DeleteEnvVariable(ctx context.Context, ref, env, branch, key string) error {
	return ErrEnvironmentAPIUnavailable
}
