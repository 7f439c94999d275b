package envsync

import (
	"context"
	"fmt"

	"github.com/bsmartlabs/supa/internal/dotenv"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/secretcontract"
)

type SetInput struct {
	Target envstore.Target
	Key    string
	Value  string
	// Secret forces the flag. When nil the existing remote flag is kept, and
	// new keys are judged by name.
	Secret *bool
}

func (s *Service) Set(ctx context.Context, in SetInput) (envvar.Variable, error) {
	if !dotenv.IsValidKey(in.Key) {
		return envvar.Variable{}, exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("invalid variable name %q", in.Key))
	}
	v := envvar.Variable{Key: in.Key, Value: in.Value}
	switch {
	case in.Secret != nil:
		v.Secret = *in.Secret
	default:
		current, err := s.store.ListVariables(ctx, in.Target, envstore.ListOptions{})
		if err != nil {
			return envvar.Variable{}, tagStoreError(fmt.Errorf("list variables: %w", err))
		}
		if existing, ok := envvar.Index(current)[in.Key]; ok {
			v.Secret = existing.Secret
		} else {
			v.Secret = secretcontract.IsSensitiveKey(in.Key)
		}
	}
	if err := s.store.SetVariable(ctx, in.Target, v); err != nil {
		return envvar.Variable{}, tagStoreError(fmt.Errorf("set %s: %w", in.Key, err))
	}
	return v, nil
}

func (s *Service) Unset(ctx context.Context, target envstore.Target, key string) error {
	if err := s.store.DeleteVariable(ctx, target, key); err != nil {
		return tagStoreError(fmt.Errorf("unset %s: %w", key, err))
	}
	return nil
}

// List returns the variables of target with secret values blanked.
func (s *Service) List(ctx context.Context, target envstore.Target) ([]envvar.Variable, error) {
	vars, err := s.store.ListVariables(ctx, target, envstore.ListOptions{})
	if err != nil {
		return nil, tagStoreError(fmt.Errorf("list variables: %w", err))
	}
	return vars, nil
}
