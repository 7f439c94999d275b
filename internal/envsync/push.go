package envsync

import (
	"context"
	"fmt"

	"github.com/bsmartlabs/supa/internal/dotenv"
	"github.com/bsmartlabs/supa/internal/envdiff"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/secretcontract"
)

type PushOptions struct {
	Environment string
	Prune       bool
}

type PushPlan struct {
	Environment string
	Path        string
	Prune       bool
	Local       []envvar.Variable
	Entries     []envdiff.Entry
	// Unannotated lists added keys whose secret status was not set in the
	// local file. Callers decide them with MarkSecret before applying.
	Unannotated []string
}

func (p *PushPlan) HasChanges() bool { return envdiff.HasChanges(p.Entries) }

func (p *PushPlan) Summary() envdiff.Summary { return envdiff.Summarize(p.Entries) }

// MarkSecret sets the secret flag of key in both the upload and the diff.
func (p *PushPlan) MarkSecret(key string, secret bool) {
	for i := range p.Local {
		if p.Local[i].Key == key {
			p.Local[i].Secret = secret
		}
	}
	for i := range p.Entries {
		if p.Entries[i].Key == key {
			p.Entries[i].Secret = secret
		}
	}
}

// ApplyHeuristic decides every unannotated key from its name.
func (p *PushPlan) ApplyHeuristic() {
	for _, key := range p.Unannotated {
		p.MarkSecret(key, secretcontract.IsSensitiveKey(key))
	}
}

// PlanPush diffs the local .env file against the remote environment.
// Remote values are fetched decrypted so secret changes are detected, but the
// plan's Format output masks them.
func (s *Service) PlanPush(ctx context.Context, opts PushOptions) (*PushPlan, error) {
	env := opts.Environment
	if env == "" {
		env = envvar.DefaultEnvironment
	}

	path, raw, exists, err := s.readLocal()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w at %s: run `supa project env pull` first", ErrNoLocalFile, path)
	}
	file, err := dotenv.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	remote, err := s.store.ListVariables(ctx, envstore.Target{Environment: env}, envstore.ListOptions{Decrypt: true})
	if err != nil {
		return nil, tagStoreError(fmt.Errorf("list variables: %w", err))
	}

	remoteByKey := envvar.Index(remote)
	local := dedupe(file.Variables)
	for i := range local {
		r, ok := remoteByKey[local[i].Key]
		switch {
		case !ok:
		case r.Value == local[i].Value:
			// Unchanged keys produce no diff entry, so their flag must not move.
			local[i].Secret = r.Secret
		case r.Secret:
			local[i].Secret = true
		}
	}

	entries := envdiff.Compute(local, remote, envdiff.Options{Prune: opts.Prune})
	var unannotated []string
	for _, e := range entries {
		if e.Type == envdiff.Added && !e.Secret {
			unannotated = append(unannotated, e.Key)
		}
	}
	s.log.Debug("planned push", "environment", env, "entries", len(entries), "prune", opts.Prune)

	return &PushPlan{
		Environment: env,
		Path:        path,
		Prune:       opts.Prune,
		Local:       local,
		Entries:     entries,
		Unannotated: unannotated,
	}, nil
}

// ApplyPush uploads the local variables. With Prune the remote environment
// ends up holding exactly them.
func (s *Service) ApplyPush(ctx context.Context, plan *PushPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.BulkUpsert(ctx, plan.Environment, plan.Local, plan.Prune); err != nil {
		return fmt.Errorf("upsert variables: %w", err)
	}
	return nil
}

// dedupe keeps the last value of each key at the position of its first
// occurrence.
func dedupe(vars []envvar.Variable) []envvar.Variable {
	idx := envvar.Index(vars)
	keys := envvar.Keys(vars)
	out := make([]envvar.Variable, 0, len(keys))
	for _, k := range keys {
		out = append(out, idx[k])
	}
	return out
}
