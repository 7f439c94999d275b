package envsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/exitcode"
)

func (s *Service) Environments(ctx context.Context) ([]envvar.Environment, error) {
	envs, err := s.store.ListEnvironments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	return envs, nil
}

func (s *Service) CreateEnvironment(ctx context.Context, name, from string) (envvar.Environment, error) {
	if err := envvar.ValidateCustomName(name); err != nil {
		return envvar.Environment{}, exitcode.Wrap(exitcode.KindValidation, err)
	}
	env, err := s.store.CreateEnvironment(ctx, name, from)
	if err != nil {
		return envvar.Environment{}, tagStoreError(fmt.Errorf("create environment %s: %w", name, err))
	}
	return env, nil
}

func (s *Service) DeleteEnvironment(ctx context.Context, name string) error {
	if envvar.IsReserved(name) {
		return exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("environment %q is reserved and cannot be deleted", name))
	}
	if err := s.store.DeleteEnvironment(ctx, name); err != nil {
		return tagStoreError(fmt.Errorf("delete environment %s: %w", name, err))
	}
	return nil
}

// Seed copies from's base variables into target, overwriting shared keys.
func (s *Service) Seed(ctx context.Context, target, from string) error {
	if from == "" {
		return exitcode.Wrap(exitcode.KindValidation, errors.New("seed requires a source environment"))
	}
	if target == from {
		return exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("cannot seed environment %q from itself", target))
	}
	if err := s.store.SeedEnvironment(ctx, target, from); err != nil {
		return tagStoreError(fmt.Errorf("seed %s from %s: %w", target, from, err))
	}
	return nil
}

func tagStoreError(err error) error {
	switch {
	case errors.Is(err, envstore.ErrEnvironmentMissing),
		errors.Is(err, envstore.ErrEnvironmentExists),
		errors.Is(err, envstore.ErrVariableMissing):
		return exitcode.Wrap(exitcode.KindValidation, err)
	}
	return err
}
