package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bsmartlabs/supa/internal/canonical"
	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/providers"
	"github.com/bsmartlabs/supa/internal/secretcontract"
)

var configValidateCommandDef = commandDef{
	Name:    "config validate",
	Summary: "Check config.json for hardcoded secrets",
	Doc: commandDoc{
		Synopsis: "supa config validate",
		Description: []string{
			"Loads supabase/config.json and checks every sensitive field holds an env(NAME) reference.",
		},
		Notes: []string{
			"Exits 5 when a sensitive field holds a literal value.",
		},
	},
	Run: runConfigValidate,
}

var configPullCommandDef = commandDef{
	Name:    "project config pull",
	Summary: "Update config.json api/auth sections from the remote project",
	Flags: []commandFlagDef{
		{Name: "dry-run", Kind: commandFlagBool, Help: "Print the sections without writing config.json"},
	},
	Doc: commandDoc{
		Synopsis: "supa project config pull [--dry-run]",
		Description: []string{
			"Fetches the PostgREST and auth settings of the resolved project and writes them to the api and auth sections.",
		},
		Notes: []string{
			"Provider secrets are written as env(SUPABASE_AUTH_EXTERNAL_<PROVIDER>_SECRET) references, never as values.",
			"Other keys of config.json are kept.",
		},
		Examples: []string{
			"supa project config pull --dry-run",
		},
	},
	Run: runConfigPull,
}

type configValidateDocument struct {
	Status     string   `json:"status"`
	ConfigPath string   `json:"config_path"`
	Warnings   []string `json:"warnings,omitempty"`
}

func runConfigValidate(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	cc, err := r.resolveConfig()
	if err != nil {
		return err
	}
	if err := checkSensitiveFields(cc.Loaded.Cfg); err != nil {
		return err
	}
	doc := configValidateDocument{Status: "valid", ConfigPath: cc.Loaded.Path, Warnings: cc.Loaded.Warnings}
	return r.emit(doc, func(out *usageWriter) {
		out.f("Config is valid: %s\n", doc.ConfigPath)
		for _, w := range doc.Warnings {
			out.f("warning: %s\n", w)
		}
	})
}

// checkSensitiveFields runs the sensitive-field policy and turns violations
// into a validation error.
func checkSensitiveFields(cfg config.ProjectConfig) error {
	doc, err := cfg.Document()
	if err != nil {
		return err
	}
	violations := secretcontract.ValidateNoHardcodedSecrets(doc)
	if len(violations) == 0 {
		return nil
	}
	return exitcode.Wrap(exitcode.KindValidation, fmt.Errorf(
		"%d sensitive field(s) hold literal values:\n\n%s",
		len(violations), strings.Join(violations, "\n\n"),
	))
}

type configPullDocument struct {
	Status     string         `json:"status"`
	ProjectRef string         `json:"project_ref"`
	ConfigPath string         `json:"config_path"`
	DryRun     bool           `json:"dry_run"`
	API        map[string]any `json:"api"`
	Auth       map[string]any `json:"auth"`
}

func runConfigPull(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	pc, err := r.resolveProject()
	if err != nil {
		return err
	}
	api, err := r.apiClient(pc)
	if err != nil {
		return err
	}

	postgrest, err := api.GetPostgrestConfig(r.ctx, pc.ProjectRef)
	if err != nil {
		return fmt.Errorf("fetch api config: %w", err)
	}
	remoteAuth, err := api.GetAuthConfig(r.ctx, pc.ProjectRef)
	if err != nil {
		return fmt.Errorf("fetch auth config: %w", err)
	}

	cfg := &pc.Loaded.Cfg
	cfg.API = apiSectionFromRemote(cfg.API, postgrest)
	cfg.Auth = authSectionFromRemote(cfg.Auth, remoteAuth, r.registry())
	if err := checkSensitiveFields(*cfg); err != nil {
		return err
	}

	dryRun := r.parsed.Bool("dry-run")
	if !dryRun {
		if err := r.deps.SaveConfig(pc.Loaded); err != nil {
			return err
		}
	}

	doc := configPullDocument{
		Status:     "success",
		ProjectRef: pc.ProjectRef,
		ConfigPath: pc.Loaded.Path,
		DryRun:     dryRun,
		API:        cfg.API,
		Auth:       cfg.Auth,
	}
	return r.emit(doc, func(out *usageWriter) {
		if dryRun {
			out.line("Dry run: config.json not written.")
			out.line()
			if out.err == nil {
				out.err = writeJSON(out.w, map[string]any{"api": doc.API, "auth": doc.Auth})
			}
			return
		}
		out.f("Updated api and auth in %s from project %s\n", doc.ConfigPath, doc.ProjectRef)
		if names := providerSecretVars(doc.Auth); len(names) > 0 {
			out.line()
			out.line("Provider secrets are read from:")
			for _, name := range names {
				out.f("  %s\n", name)
			}
		}
	})
}

func apiSectionFromRemote(current, remote map[string]any) map[string]any {
	out := cloneMap(current)
	if v, ok := remote["db_schema"].(string); ok {
		out["schemas"] = splitList(v)
	}
	if v, ok := remote["db_extra_search_path"].(string); ok {
		out["extra_search_path"] = splitList(v)
	}
	if v, ok := remote["max_rows"].(float64); ok {
		out["max_rows"] = int(v)
	}
	return out
}

func authSectionFromRemote(current, remote map[string]any, reg *providers.Registry) map[string]any {
	out := cloneMap(current)
	if v, ok := remote["site_url"].(string); ok && v != "" {
		out["site_url"] = v
	}
	if v, ok := remote["uri_allow_list"].(string); ok && v != "" {
		out["additional_redirect_urls"] = splitList(v)
	}
	if v, ok := remote["jwt_exp"].(float64); ok {
		out["jwt_expiry"] = int(v)
	}
	if v, ok := remote["disable_signup"].(bool); ok {
		out["enable_signup"] = !v
	}

	external, _ := out["external"].(map[string]any)
	external = cloneMap(external)
	for _, def := range reg.All() {
		cfg := providers.ParseFromRemote(def, remote)
		if cfg == nil {
			continue
		}
		external[def.Key] = providerSection(def, *cfg)
	}
	if len(external) > 0 {
		out["external"] = external
	}
	return out
}

// providerSection is the auth.external.<key> entry for cfg. The secret is
// always an env reference.
func providerSection(def providers.Definition, cfg providers.Config) map[string]any {
	entry := map[string]any{
		"enabled": cfg.Enabled != nil && *cfg.Enabled,
		"secret":  canonical.EnvRef(def.SecretEnvVar()),
	}
	if cfg.ClientID != nil {
		entry["client_id"] = *cfg.ClientID
	}
	if cfg.RedirectURI != nil {
		entry["redirect_uri"] = *cfg.RedirectURI
	}
	if cfg.URL != nil {
		entry["url"] = *cfg.URL
	}
	if cfg.SkipNonceCheck != nil {
		entry["skip_nonce_check"] = *cfg.SkipNonceCheck
	}
	return entry
}

func providerSecretVars(auth map[string]any) []string {
	external, _ := auth["external"].(map[string]any)
	var out []string
	for _, v := range external {
		entry, _ := v.(map[string]any)
		if s, ok := entry["secret"].(string); ok {
			if name, ok := canonical.ExtractEnvRef(s); ok {
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
