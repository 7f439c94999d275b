package envsync

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/bsmartlabs/supa/internal/dotenv"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
)

type PullPlan struct {
	Target  envstore.Target
	Path    string
	Content []byte
	// Existing is true when a local file is already present.
	Existing bool
	Changed  bool
	// Diff is a unified diff from the local file to Content, set when an
	// existing file would change.
	Diff       string
	Written    []string
	SecretKeys []string
}

// NeedsConfirmation reports whether applying the plan overwrites local edits.
func (p *PullPlan) NeedsConfirmation() bool {
	return p.Existing && p.Changed
}

func pullHeader(target envstore.Target) string {
	if target.Branch != "" {
		return fmt.Sprintf("Pulled from %s (branch %s)", target.Environment, target.Branch)
	}
	return "Pulled from " + target.Environment
}

// PlanPull fetches remote variables and renders the file pull would write.
// Nothing is written.
func (s *Service) PlanPull(ctx context.Context, target envstore.Target) (*PullPlan, error) {
	if target.Environment == "" {
		target.Environment = envvar.DefaultEnvironment
	}
	vars, err := s.store.ListVariables(ctx, target, envstore.ListOptions{})
	if err != nil {
		return nil, tagStoreError(fmt.Errorf("list variables: %w", err))
	}

	path, existing, exists, err := s.readLocal()
	if err != nil {
		return nil, err
	}

	content := dotenv.Render(dotenv.File{
		Header:    []string{pullHeader(target)},
		Variables: vars,
	})
	plain, secret := envvar.Partition(vars)
	plan := &PullPlan{
		Target:     target,
		Path:       path,
		Content:    content,
		Existing:   exists,
		Changed:    !exists || !bytes.Equal(existing, content),
		Written:    envvar.Keys(plain),
		SecretKeys: envvar.Keys(secret),
	}
	if plan.NeedsConfirmation() {
		plan.Diff, err = unifiedDiff(path, existing, content)
		if err != nil {
			return nil, err
		}
	}
	s.log.Debug("planned pull", "environment", target.Environment, "branch", target.Branch, "variables", len(plain), "secrets_skipped", len(secret))
	return plan, nil
}

// ApplyPull writes the planned file with owner-only permissions.
func (s *Service) ApplyPull(plan *PullPlan) error {
	if !plan.Changed {
		return nil
	}
	if err := writeFileFn(plan.Path, plan.Content, 0o600, true); err != nil {
		return fmt.Errorf("write %s: %w", plan.Path, err)
	}
	return nil
}

func unifiedDiff(path string, before, after []byte) (string, error) {
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path + " (local)",
		ToFile:   path + " (remote)",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}
	return out, nil
}
