package scaleway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
)

const (
	pathPrefix      = "/supabase/"
	branchSeparator = "."
)

// Store keeps each environment of a project in one opaque secret named after
// the environment, under the path /supabase/<ref>. Branch overrides live in
// "<env>.<branch>" secrets next to it.
type Store struct {
	api secretAPI
}

var _ envstore.Store = (*Store)(nil)

func New(api secretAPI) *Store {
	return &Store{api: api}
}

type payload struct {
	Variables []envvar.Variable `json:"variables"`
}

func secretPath(ref string) string { return pathPrefix + ref }

func secretName(target envstore.Target) string {
	if target.Branch == "" {
		return target.Environment
	}
	return target.Environment + branchSeparator + sanitizeBranch(target.Branch)
}

func sanitizeBranch(branch string) string {
	var b strings.Builder
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func (s *Store) find(ctx context.Context, ref, name string) (*secretRecord, error) {
	path := secretPath(ref)
	items, err := s.api.ListSecrets(ctx, path, name)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name && items[i].Path == path {
			return &items[i], nil
		}
	}
	return nil, nil
}

// read returns the variables in the named secret; exists is false when the
// secret was never created.
func (s *Store) read(ctx context.Context, ref, name string) (vars []envvar.Variable, exists bool, err error) {
	rec, err := s.find(ctx, ref, name)
	if err != nil || rec == nil {
		return nil, false, err
	}
	vars, err = s.readRecord(ctx, *rec)
	return vars, true, err
}

func (s *Store) readRecord(ctx context.Context, rec secretRecord) ([]envvar.Variable, error) {
	data, err := s.api.AccessLatest(ctx, rec.ID)
	if errors.Is(err, errNoVersion) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", rec.Name, err)
	}
	return p.Variables, nil
}

func (s *Store) write(ctx context.Context, ref, name string, vars []envvar.Variable) error {
	rec, err := s.find(ctx, ref, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil {
		created, err := s.api.CreateSecret(ctx, name, secretPath(ref))
		if err != nil {
			return err
		}
		rec = &created
	}
	if vars == nil {
		vars = []envvar.Variable{}
	}
	data, err := json.Marshal(payload{Variables: vars})
	if err != nil {
		return fmt.Errorf("encode secret %s: %w", name, err)
	}
	return s.api.CreateSecretVersion(ctx, rec.ID, data)
}

func (s *Store) requireEnvironment(ctx context.Context, ref, name string) error {
	if envvar.IsReserved(name) {
		return nil
	}
	rec, err := s.find(ctx, ref, name)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s", envstore.ErrEnvironmentMissing, name)
	}
	return nil
}

func (s *Store) ListVariables(ctx context.Context, ref string, target envstore.Target, opts envstore.ListOptions) ([]envvar.Variable, error) {
	if err := s.requireEnvironment(ctx, ref, target.Environment); err != nil {
		return nil, err
	}
	vars, _, err := s.read(ctx, ref, target.Environment)
	if err != nil {
		return nil, err
	}
	if target.Branch != "" {
		overrides, _, err := s.read(ctx, ref, secretName(target))
		if err != nil {
			return nil, err
		}
		vars = upsert(vars, overrides)
	}
	out := make([]envvar.Variable, len(vars))
	copy(out, vars)
	if !opts.Decrypt {
		for i := range out {
			if out[i].Secret {
				out[i].Value = ""
			}
		}
	}
	return out, nil
}

func (s *Store) BulkUpsert(ctx context.Context, ref, environment string, vars []envvar.Variable, prune bool) error {
	if err := s.requireEnvironment(ctx, ref, environment); err != nil {
		return err
	}
	next := vars
	if !prune {
		current, _, err := s.read(ctx, ref, environment)
		if err != nil {
			return err
		}
		next = upsert(current, vars)
	}
	return s.write(ctx, ref, environment, dedupe(next))
}

func (s *Store) SetVariable(ctx context.Context, ref string, target envstore.Target, v envvar.Variable) error {
	if err := s.requireEnvironment(ctx, ref, target.Environment); err != nil {
		return err
	}
	name := secretName(target)
	current, _, err := s.read(ctx, ref, name)
	if err != nil {
		return err
	}
	return s.write(ctx, ref, name, upsert(current, []envvar.Variable{v}))
}

func (s *Store) DeleteVariable(ctx context.Context, ref string, target envstore.Target, key string) error {
	if err := s.requireEnvironment(ctx, ref, target.Environment); err != nil {
		return err
	}
	name := secretName(target)
	current, _, err := s.read(ctx, ref, name)
	if err != nil {
		return err
	}
	kept := make([]envvar.Variable, 0, len(current))
	for _, v := range current {
		if v.Key != key {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(current) {
		return fmt.Errorf("%w: %s", envstore.ErrVariableMissing, key)
	}
	return s.write(ctx, ref, name, kept)
}

func (s *Store) ListEnvironments(ctx context.Context, ref string) ([]envvar.Environment, error) {
	path := secretPath(ref)
	items, err := s.api.ListSecrets(ctx, path, "")
	if err != nil {
		return nil, err
	}

	byName := make(map[string]secretRecord)
	var custom []string
	for _, item := range items {
		if item.Path != path || strings.Contains(item.Name, branchSeparator) {
			continue
		}
		byName[item.Name] = item
		if !envvar.IsReserved(item.Name) {
			custom = append(custom, item.Name)
		}
	}
	sort.Strings(custom)

	out := make([]envvar.Environment, 0, len(custom)+3)
	add := func(name string, isDefault bool) error {
		count := 0
		if rec, ok := byName[name]; ok {
			vars, err := s.readRecord(ctx, rec)
			if err != nil {
				return err
			}
			count = len(vars)
		}
		out = append(out, envvar.Environment{Name: name, IsDefault: isDefault, VariableCount: &count})
		return nil
	}
	for _, name := range envvar.ReservedEnvironments() {
		if err := add(name, true); err != nil {
			return nil, err
		}
	}
	for _, name := range custom {
		if err := add(name, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CreateEnvironment(ctx context.Context, ref, name, from string) (envvar.Environment, error) {
	if err := envvar.ValidateCustomName(name); err != nil {
		return envvar.Environment{}, err
	}
	rec, err := s.find(ctx, ref, name)
	if err != nil {
		return envvar.Environment{}, err
	}
	if rec != nil {
		return envvar.Environment{}, fmt.Errorf("%w: %s", envstore.ErrEnvironmentExists, name)
	}

	var vars []envvar.Variable
	if from != "" {
		if err := s.requireEnvironment(ctx, ref, from); err != nil {
			return envvar.Environment{}, err
		}
		if vars, _, err = s.read(ctx, ref, from); err != nil {
			return envvar.Environment{}, err
		}
	}
	if err := s.write(ctx, ref, name, vars); err != nil {
		return envvar.Environment{}, err
	}
	count := len(vars)
	return envvar.Environment{Name: name, VariableCount: &count}, nil
}

func (s *Store) DeleteEnvironment(ctx context.Context, ref, name string) error {
	if envvar.IsReserved(name) {
		return fmt.Errorf("environment %q is reserved and cannot be deleted", name)
	}
	path := secretPath(ref)
	items, err := s.api.ListSecrets(ctx, path, "")
	if err != nil {
		return err
	}
	var doomed []secretRecord
	found := false
	for _, item := range items {
		if item.Path != path {
			continue
		}
		switch {
		case item.Name == name:
			found = true
			doomed = append(doomed, item)
		case strings.HasPrefix(item.Name, name+branchSeparator):
			doomed = append(doomed, item)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", envstore.ErrEnvironmentMissing, name)
	}
	for _, item := range doomed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.api.DeleteSecret(ctx, item.ID); err != nil {
			return err
		}
	}
	return nil
}

// SeedEnvironment copies from's variables into target. Keys present in both
// take the value from from.
func (s *Store) SeedEnvironment(ctx context.Context, ref, target, from string) error {
	if target == from {
		return fmt.Errorf("cannot seed environment %q from itself", target)
	}
	if err := s.requireEnvironment(ctx, ref, target); err != nil {
		return err
	}
	if err := s.requireEnvironment(ctx, ref, from); err != nil {
		return err
	}
	source, _, err := s.read(ctx, ref, from)
	if err != nil {
		return err
	}
	current, _, err := s.read(ctx, ref, target)
	if err != nil {
		return err
	}
	return s.write(ctx, ref, target, upsert(current, source))
}

// upsert overlays incoming onto current by key. Existing keys keep their
// position, new keys are appended in incoming order.
func upsert(current, incoming []envvar.Variable) []envvar.Variable {
	out := make([]envvar.Variable, len(current), len(current)+len(incoming))
	copy(out, current)
	pos := make(map[string]int, len(out))
	for i, v := range out {
		pos[v.Key] = i
	}
	for _, v := range incoming {
		if i, ok := pos[v.Key]; ok {
			out[i] = v
			continue
		}
		pos[v.Key] = len(out)
		out = append(out, v)
	}
	return out
}

func dedupe(vars []envvar.Variable) []envvar.Variable {
	return upsert(nil, vars)
}
