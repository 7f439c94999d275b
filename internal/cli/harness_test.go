package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bsmartlabs/supa/internal/authtoken"
	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/logger"
	"github.com/bsmartlabs/supa/internal/mgmtapi"
	"github.com/bsmartlabs/supa/internal/profile"
	"github.com/bsmartlabs/supa/internal/projectctx"
	"github.com/bsmartlabs/supa/internal/providers"
)

const sampleConfig = `{
  "project_id": "toplevelref",
  "profiles": {
    "feature": {"mode": "remote", "workflow": "git", "branches": ["feature/*"], "project_id": "featureref"},
    "main": {"mode": "remote", "workflow": "dashboard", "branches": ["main"]}
  }
}`

type fakeAPI struct {
	auth      map[string]any
	postgrest map[string]any
	keys      []mgmtapi.APIKey
	err       error

	patches   []map[string]any
	lastRef   string
	revealArg bool
}

func (f *fakeAPI) GetAuthConfig(_ context.Context, ref string) (map[string]any, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return f.auth, nil
}

func (f *fakeAPI) UpdateAuthConfig(_ context.Context, ref string, patch map[string]any) (map[string]any, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	f.patches = append(f.patches, patch)
	return patch, nil
}

func (f *fakeAPI) GetPostgrestConfig(_ context.Context, ref string) (map[string]any, error) {
	f.lastRef = ref
	if f.err != nil {
		return nil, f.err
	}
	return f.postgrest, nil
}

func (f *fakeAPI) GetProjectAPIKeys(_ context.Context, ref string, reveal bool) ([]mgmtapi.APIKey, error) {
	f.lastRef = ref
	f.revealArg = reveal
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

// memStore keeps variables per "<env>" and "<env>.<branch>".
type memStore struct {
	vars     map[string][]envvar.Variable
	custom   []string
	err      error
	lastRef  string
	upserted []envvar.Variable
	pruned   bool
	seeded   [2]string
}

func newMemStore() *memStore {
	return &memStore{vars: map[string][]envvar.Variable{}}
}

func storeKey(t envstore.Target) string {
	if t.Branch != "" {
		return t.Environment + "." + t.Branch
	}
	return t.Environment
}

func (m *memStore) ListVariables(_ context.Context, ref string, t envstore.Target, opts envstore.ListOptions) ([]envvar.Variable, error) {
	m.lastRef = ref
	if m.err != nil {
		return nil, m.err
	}
	out := make([]envvar.Variable, 0, len(m.vars[storeKey(t)]))
	for _, v := range m.vars[storeKey(t)] {
		if v.Secret && !opts.Decrypt {
			v.Value = ""
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memStore) BulkUpsert(_ context.Context, ref, env string, vars []envvar.Variable, prune bool) error {
	m.lastRef = ref
	if m.err != nil {
		return m.err
	}
	m.upserted = append([]envvar.Variable(nil), vars...)
	m.pruned = prune
	m.vars[env] = append([]envvar.Variable(nil), vars...)
	return nil
}

func (m *memStore) SetVariable(_ context.Context, ref string, t envstore.Target, v envvar.Variable) error {
	m.lastRef = ref
	if m.err != nil {
		return m.err
	}
	key := storeKey(t)
	for i := range m.vars[key] {
		if m.vars[key][i].Key == v.Key {
			m.vars[key][i] = v
			return nil
		}
	}
	m.vars[key] = append(m.vars[key], v)
	return nil
}

func (m *memStore) DeleteVariable(_ context.Context, ref string, t envstore.Target, key string) error {
	m.lastRef = ref
	if m.err != nil {
		return m.err
	}
	k := storeKey(t)
	for i, v := range m.vars[k] {
		if v.Key == key {
			m.vars[k] = append(m.vars[k][:i], m.vars[k][i+1:]...)
			return nil
		}
	}
	return envstore.ErrVariableMissing
}

func (m *memStore) ListEnvironments(_ context.Context, ref string) ([]envvar.Environment, error) {
	m.lastRef = ref
	if m.err != nil {
		return nil, m.err
	}
	var out []envvar.Environment
	for _, name := range envvar.ReservedEnvironments() {
		n := len(m.vars[name])
		out = append(out, envvar.Environment{Name: name, IsDefault: true, VariableCount: &n})
	}
	for _, name := range m.custom {
		out = append(out, envvar.Environment{Name: name})
	}
	return out, nil
}

func (m *memStore) CreateEnvironment(_ context.Context, ref, name, from string) (envvar.Environment, error) {
	m.lastRef = ref
	if m.err != nil {
		return envvar.Environment{}, m.err
	}
	for _, c := range m.custom {
		if c == name {
			return envvar.Environment{}, envstore.ErrEnvironmentExists
		}
	}
	m.custom = append(m.custom, name)
	if from != "" {
		m.vars[name] = append([]envvar.Variable(nil), m.vars[from]...)
	}
	return envvar.Environment{Name: name}, nil
}

func (m *memStore) DeleteEnvironment(_ context.Context, ref, name string) error {
	m.lastRef = ref
	if m.err != nil {
		return m.err
	}
	for i, c := range m.custom {
		if c == name {
			m.custom = append(m.custom[:i], m.custom[i+1:]...)
			return nil
		}
	}
	return envstore.ErrEnvironmentMissing
}

func (m *memStore) SeedEnvironment(_ context.Context, ref, target, from string) error {
	m.lastRef = ref
	if m.err != nil {
		return m.err
	}
	m.seeded = [2]string{target, from}
	m.vars[target] = append([]envvar.Variable(nil), m.vars[from]...)
	return nil
}

type harness struct {
	t        *testing.T
	root     string
	branch   string
	input    string
	terminal bool
	password string
	env      map[string]string

	api   *fakeAPI
	store *memStore

	saved      *config.Loaded
	savedToken string
	openErr    error

	stdout bytes.Buffer
	stderr bytes.Buffer
	deps   Dependencies
	// ctx replaces context.Background for the next runs when set.
	ctx context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		root:   t.TempDir(),
		branch: "feature/login",
		env:    map[string]string{},
		api:    &fakeAPI{auth: map[string]any{}, postgrest: map[string]any{}},
		store:  newMemStore(),
	}
	h.writeConfig(sampleConfig)

	h.deps = Dependencies{
		Version:      "1.2.3",
		Commit:       "abc123",
		Date:         "2026-01-02",
		Stdin:        strings.NewReader(""),
		Getwd:        func() (string, error) { return h.root, nil },
		Getenv:       func(k string) string { return h.env[k] },
		IsTerminal:   func(io.Reader) bool { return h.terminal },
		ReadPassword: func(io.Reader) (string, error) { return h.password, nil },
		ResolveConfig: func(_ context.Context, opts projectctx.Options) (*projectctx.ConfigContext, error) {
			return h.resolveConfig(opts)
		},
		ResolveProject: func(_ context.Context, opts projectctx.Options) (*projectctx.ProjectContext, error) {
			cc, err := h.resolveConfig(opts)
			if err != nil {
				return nil, err
			}
			ref := cc.Loaded.Cfg.ProjectRef(cc.Profile())
			if ref == "" {
				return nil, exitcode.Wrap(exitcode.KindConfigNotFound, projectctx.ErrNoProjectRef)
			}
			return &projectctx.ProjectContext{
				ConfigContext: cc,
				ProjectRef:    ref,
				Token:         authtoken.Token{Value: "tok", Source: authtoken.SourceEnv},
			}, nil
		},
		NewAPIClient: func(string, *slog.Logger) (managementAPI, error) { return h.api, nil },
		OpenEnvStore: func(config.ProjectConfig, string, *slog.Logger) (envstore.Store, error) {
			if h.openErr != nil {
				return nil, h.openErr
			}
			return h.store, nil
		},
		SaveToken: func(tok string) (string, error) {
			h.savedToken = tok
			return "/home/test/.supabase/access-token", nil
		},
		DeleteToken: func() (bool, error) { return h.savedToken != "", nil },
		SaveConfig: func(l *config.Loaded) error {
			h.saved = l
			return nil
		},
		Registry: providers.Default(nil, logger.Discard()),
	}
	return h
}

func (h *harness) resolveConfig(opts projectctx.Options) (*projectctx.ConfigContext, error) {
	loaded, err := config.Load(opts.Cwd, opts.ConfigPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, exitcode.Wrap(exitcode.KindConfigNotFound, err)
		}
		return nil, exitcode.Wrap(exitcode.KindValidation, err)
	}
	res, err := profile.Resolve(loaded.Cfg, opts.Profile, h.branch)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.KindProfileNotFound, err)
	}
	return &projectctx.ConfigContext{
		Cwd:            opts.Cwd,
		Loaded:         loaded,
		Branch:         h.branch,
		BranchDetected: true,
		Resolution:     res,
	}, nil
}

func (h *harness) writeConfig(body string) {
	h.t.Helper()
	h.writeFile(config.DefaultConfigName, body)
}

func (h *harness) writeFile(rel, body string) {
	h.t.Helper()
	path := filepath.Join(h.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		h.t.Fatalf("write %s: %v", rel, err)
	}
}

func (h *harness) readFile(rel string) string {
	h.t.Helper()
	b, err := os.ReadFile(filepath.Join(h.root, rel))
	if err != nil {
		h.t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	h.deps.Stdin = strings.NewReader(h.input)
	if h.ctx != nil {
		return RunContext(h.ctx, append([]string{"supa"}, args...), &h.stdout, &h.stderr, h.deps)
	}
	return Run(append([]string{"supa"}, args...), &h.stdout, &h.stderr, h.deps)
}

func (h *harness) expect(code int, args ...string) {
	h.t.Helper()
	if got := h.run(args...); got != code {
		h.t.Fatalf("supa %s: expected exit %d, got %d\nstdout=%s\nstderr=%s",
			strings.Join(args, " "), code, got, h.stdout.String(), h.stderr.String())
	}
}

func (h *harness) decode(v any) {
	h.t.Helper()
	if err := json.Unmarshal(h.stdout.Bytes(), v); err != nil {
		h.t.Fatalf("decode stdout: %v\n%s", err, h.stdout.String())
	}
}

func (h *harness) expectErrorDoc(kind string, code int) errorDocument {
	h.t.Helper()
	var doc errorDocument
	h.decode(&doc)
	if doc.Status != "error" || doc.Error != kind || doc.ExitCode != code || doc.Message == "" {
		h.t.Fatalf("unexpected error document: %#v", doc)
	}
	return doc
}
