package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/providers"
	"github.com/bsmartlabs/supa/internal/similar"
)

var authProviderListCommandDef = commandDef{
	Name:    "project auth-provider list",
	Summary: "List configured OAuth providers",
	Doc: commandDoc{
		Synopsis: "supa project auth-provider list",
		Description: []string{
			"Shows the OAuth providers of the resolved project that are enabled or have a client id.",
		},
		Notes: []string{
			"'supa project auth ...' is accepted for 'supa project auth-provider ...'.",
		},
		Examples: []string{
			"supa project auth-provider list",
			"supa project auth list --json",
		},
	},
	Run: runAuthProviderList,
}

var authProviderAddCommandDef = commandDef{
	Name:    "project auth-provider add",
	Summary: "Configure an OAuth provider",
	Flags: []commandFlagDef{
		{Name: "client-id", Kind: commandFlagString, ValueName: "<id>", Help: "OAuth client ID"},
		{Name: "secret", Kind: commandFlagString, ValueName: "<secret>", Help: "OAuth client secret"},
		{Name: "secret-from-env", Kind: commandFlagString, ValueName: "<var>", Help: "Read the client secret from this environment variable"},
		{Name: "url", Kind: commandFlagString, ValueName: "<url>", Help: "Provider URL (azure, gitlab, keycloak, workos)"},
		{Name: "redirect-uri", Kind: commandFlagString, ValueName: "<uri>", Help: "Custom redirect URI (default: project callback URL)"},
		{Name: "skip-nonce-check", Kind: commandFlagBool, Help: "Skip nonce validation"},
		{Name: "dry-run", Kind: commandFlagBool, Help: "Preview the change without applying it"},
		{Name: "yes", Kind: commandFlagBool, Help: "Skip the confirmation prompt"},
	},
	Doc: commandDoc{
		Synopsis: "supa project auth-provider add [provider] [options]",
		Description: []string{
			"Enables an OAuth provider on the remote project and records it under auth.external.<provider> in config.json.",
			"Missing values are prompted for on a terminal.",
		},
		Notes: []string{
			"config.json stores the secret as env(SUPABASE_AUTH_EXTERNAL_<PROVIDER>_SECRET), never the value.",
			"With --json every value must be given as a flag and --yes is required.",
		},
		Examples: []string{
			"supa project auth-provider add",
			"supa project auth-provider add github --client-id abc123 --secret-from-env GITHUB_SECRET --yes",
		},
	},
	Run: runAuthProviderAdd,
}

var authProviderEnableCommandDef = commandDef{
	Name:    "project auth-provider enable",
	Summary: "Enable an OAuth provider",
	Flags: []commandFlagDef{
		{Name: "dry-run", Kind: commandFlagBool, Help: "Preview the change without applying it"},
	},
	Doc: commandDoc{
		Synopsis: "supa project auth-provider enable <provider> [--dry-run]",
	},
	Run: func(r *commandRuntime) error { return runAuthProviderToggle(r, true) },
}

var authProviderDisableCommandDef = commandDef{
	Name:    "project auth-provider disable",
	Summary: "Disable an OAuth provider",
	Flags: []commandFlagDef{
		{Name: "dry-run", Kind: commandFlagBool, Help: "Preview the change without applying it"},
	},
	Doc: commandDoc{
		Synopsis: "supa project auth-provider disable <provider> [--dry-run]",
	},
	Run: func(r *commandRuntime) error { return runAuthProviderToggle(r, false) },
}

type providerStatus struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	Enabled  bool   `json:"enabled"`
	ClientID string `json:"clientId,omitempty"`
}

type providerListDocument struct {
	Providers []providerStatus `json:"providers"`
	Total     int              `json:"total"`
	// Fallback is set when the provider schema could not be loaded and only
	// the built-in providers were checked.
	Fallback bool `json:"fallback,omitempty"`
}

func runAuthProviderList(r *commandRuntime) error {
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
	remote, err := api.GetAuthConfig(r.ctx, pc.ProjectRef)
	if err != nil {
		return fmt.Errorf("fetch provider configuration: %w", err)
	}

	reg := r.registry()
	list := []providerStatus{}
	for _, def := range reg.All() {
		cfg := providers.ParseFromRemote(def, remote)
		if cfg == nil {
			continue
		}
		st := providerStatus{Name: def.DisplayName, Key: def.Key, Enabled: cfg.Enabled != nil && *cfg.Enabled}
		if cfg.ClientID != nil {
			st.ClientID = *cfg.ClientID
		}
		list = append(list, st)
	}

	doc := providerListDocument{Providers: list, Total: len(list), Fallback: reg.IsFallback()}
	return r.emit(doc, func(out *usageWriter) {
		if doc.Fallback {
			out.line("warning: provider schema unavailable; only Google, GitHub and Apple were checked.")
		}
		if len(list) == 0 {
			out.line("No OAuth providers configured.")
			out.line()
			out.line("Run supa project auth-provider add to configure one.")
			return
		}
		enabled := 0
		table(out, func(tw *usageWriter) {
			tw.line("NAME\tSTATUS\tCLIENT ID")
			for _, p := range list {
				status := "disabled"
				if p.Enabled {
					status = "enabled"
					enabled++
				}
				clientID := "-"
				if p.ClientID != "" {
					clientID = providers.MaskSecret(p.ClientID)
				}
				tw.f("%s\t%s\t%s\n", p.Name, status, clientID)
			}
		})
		out.line()
		out.f("%d provider(s) configured (%d enabled, %d disabled)\n", len(list), enabled, len(list)-enabled)
	})
}

// findProvider looks name up in the registry. Unknown names are validation
// errors with suggestions.
func (r *commandRuntime) findProvider(name string) (providers.Definition, error) {
	reg := r.registry()
	def, ok := reg.Find(name)
	if ok {
		return def, nil
	}
	msg := fmt.Sprintf("unknown provider %q", name)
	if hint := similar.Hint(reg.Suggest(name)); hint != "" {
		msg += ". " + hint
	}
	return providers.Definition{}, exitcode.Wrap(exitcode.KindValidation, errors.New(msg))
}

type providerChangeDocument struct {
	Status       string         `json:"status"`
	Provider     string         `json:"provider"`
	ProjectRef   string         `json:"project_ref"`
	DryRun       bool           `json:"dry_run"`
	Payload      map[string]any `json:"payload"`
	CallbackURL  string         `json:"callback_url,omitempty"`
	SecretEnvVar string         `json:"secret_env_var,omitempty"`
}

func runAuthProviderAdd(r *commandRuntime) error {
	args, err := r.args(0, 1)
	if err != nil {
		return err
	}
	pc, err := r.resolveProject()
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if name, err = r.flagOrPrompt("", name, "Provider ("+strings.Join(r.registry().Keys(), ", ")+"): "); err != nil {
		return err
	}
	def, err := r.findProvider(name)
	if err != nil {
		return err
	}

	cfg := providers.Config{Enabled: providers.Bool(true)}
	clientID, err := r.flagOrPrompt("client-id", r.parsed.String("client-id"), def.DisplayName+" client ID: ")
	if err != nil {
		return err
	}
	cfg.ClientID = providers.String(clientID)

	secret, err := r.providerSecret(def)
	if err != nil {
		return err
	}
	cfg.Secret = providers.String(secret)

	if def.HasURL {
		u, err := r.flagOrPrompt("url", r.parsed.String("url"), def.DisplayName+" URL: ")
		if err != nil {
			return err
		}
		cfg.URL = providers.String(u)
	} else if r.parsed.IsSet("url") {
		r.notice("warning: %s does not take a custom URL; --url ignored", def.DisplayName)
	}
	if v := r.parsed.String("redirect-uri"); v != "" {
		cfg.RedirectURI = providers.String(v)
	}
	if r.parsed.IsSet("skip-nonce-check") {
		cfg.SkipNonceCheck = providers.Bool(r.parsed.Bool("skip-nonce-check"))
	}

	loaded := pc.Loaded
	loaded.Cfg.Auth = withProviderSection(loaded.Cfg.Auth, def, cfg)
	if err := checkSensitiveFields(loaded.Cfg); err != nil {
		return err
	}

	payload := providers.BuildPayload(def, cfg)
	doc := providerChangeDocument{
		Status:       "success",
		Provider:     def.Key,
		ProjectRef:   pc.ProjectRef,
		Payload:      maskPayload(def, payload),
		SecretEnvVar: def.SecretEnvVar(),
	}
	if cfg.RedirectURI == nil {
		doc.CallbackURL = providers.CallbackURL(pc.ProjectRef)
	}

	if r.parsed.Bool("dry-run") {
		doc.Status = "dry_run"
		doc.DryRun = true
		return r.emit(doc, func(out *usageWriter) { printProviderChange(out, def, doc) })
	}

	if err := r.confirm(fmt.Sprintf("Configure %s for project %s?", def.DisplayName, pc.ProjectRef)); err != nil {
		return err
	}
	api, err := r.apiClient(pc)
	if err != nil {
		return err
	}
	if _, err := api.UpdateAuthConfig(r.ctx, pc.ProjectRef, payload); err != nil {
		return fmt.Errorf("update auth config: %w", err)
	}
	if err := r.deps.SaveConfig(loaded); err != nil {
		return err
	}

	return r.emit(doc, func(out *usageWriter) {
		printProviderChange(out, def, doc)
		out.line()
		out.f("Store the client secret for other environments with:\n  supa project env set %s --secret\n", doc.SecretEnvVar)
	})
}

// flagOrPrompt returns value, or asks for it on a terminal. name is the flag
// reported when input is not interactive.
func (r *commandRuntime) flagOrPrompt(name, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	if r.global.json || !r.interactive() {
		if name == "" {
			return "", usageError(fmt.Errorf("usage: %s", r.def.Doc.Synopsis))
		}
		return "", usageError(fmt.Errorf("--%s is required", name))
	}
	v, err := r.ask(prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", usageError(errors.New("value required: " + strings.TrimSuffix(strings.TrimSpace(prompt), ":")))
	}
	return v, nil
}

func (r *commandRuntime) providerSecret(def providers.Definition) (string, error) {
	if v := r.parsed.String("secret"); v != "" {
		return v, nil
	}
	if name := r.parsed.String("secret-from-env"); name != "" {
		v := r.deps.Getenv(name)
		if v == "" {
			return "", exitcode.Wrap(exitcode.KindValidation, fmt.Errorf("environment variable %s is empty or not set", name))
		}
		return v, nil
	}
	if v := r.deps.Getenv(def.SecretEnvVar()); v != "" {
		return v, nil
	}
	if r.global.json || !r.interactive() {
		return "", usageError(errors.New("--secret or --secret-from-env is required"))
	}
	v, err := r.askSecret(def.DisplayName + " client secret: ")
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", usageError(errors.New("client secret is empty"))
	}
	return v, nil
}

func withProviderSection(auth map[string]any, def providers.Definition, cfg providers.Config) map[string]any {
	out := cloneMap(auth)
	external, _ := out["external"].(map[string]any)
	external = cloneMap(external)
	external[def.Key] = providerSection(def, cfg)
	out["external"] = external
	return out
}

func maskPayload(def providers.Definition, payload map[string]any) map[string]any {
	out := cloneMap(payload)
	key := def.FlatKey("secret")
	if s, ok := out[key].(string); ok {
		out[key] = providers.MaskSecret(s)
	}
	return out
}

func printProviderChange(out *usageWriter, def providers.Definition, doc providerChangeDocument) {
	if doc.DryRun {
		out.f("Dry run: %s would be configured for project %s with:\n", def.DisplayName, doc.ProjectRef)
	} else {
		out.f("%s configured for project %s\n", def.DisplayName, doc.ProjectRef)
	}
	keys := make([]string, 0, len(doc.Payload))
	for k := range doc.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	table(out, func(tw *usageWriter) {
		for _, k := range keys {
			tw.f("  %s\t%v\n", k, doc.Payload[k])
		}
	})
	if doc.CallbackURL != "" {
		out.line()
		out.f("Callback URL (register it with %s):\n  %s\n", def.DisplayName, doc.CallbackURL)
	}
}

type providerToggleDocument struct {
	Status     string         `json:"status"`
	Provider   string         `json:"provider"`
	ProjectRef string         `json:"project_ref"`
	Enabled    bool           `json:"enabled"`
	DryRun     bool           `json:"dry_run"`
	Payload    map[string]any `json:"payload"`
}

func runAuthProviderToggle(r *commandRuntime, enabled bool) error {
	args, err := r.args(1, 1)
	if err != nil {
		return err
	}
	pc, err := r.resolveProject()
	if err != nil {
		return err
	}
	def, err := r.findProvider(args[0])
	if err != nil {
		return err
	}

	payload := providers.BuildPayload(def, providers.Config{Enabled: providers.Bool(enabled)})
	doc := providerToggleDocument{
		Status:     "success",
		Provider:   def.Key,
		ProjectRef: pc.ProjectRef,
		Enabled:    enabled,
		DryRun:     r.parsed.Bool("dry-run"),
		Payload:    payload,
	}
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}

	if !doc.DryRun {
		if err := checkSensitiveFields(pc.Loaded.Cfg); err != nil {
			return err
		}
		api, err := r.apiClient(pc)
		if err != nil {
			return err
		}
		if _, err := api.UpdateAuthConfig(r.ctx, pc.ProjectRef, payload); err != nil {
			return fmt.Errorf("update auth config: %w", err)
		}
		if setProviderEnabled(pc.Loaded.Cfg.Auth, def.Key, enabled) {
			if err := r.deps.SaveConfig(pc.Loaded); err != nil {
				return err
			}
		}
	} else {
		doc.Status = "dry_run"
	}

	return r.emit(doc, func(out *usageWriter) {
		if doc.DryRun {
			out.f("Dry run: would set %s=%t on project %s\n", def.FlatKey("enabled"), enabled, doc.ProjectRef)
			return
		}
		out.f("%s %s for project %s\n", def.DisplayName, verb, doc.ProjectRef)
	})
}

// setProviderEnabled updates auth.external.<key>.enabled in place and
// reports whether the provider is recorded in config.json.
func setProviderEnabled(auth map[string]any, key string, enabled bool) bool {
	external, _ := auth["external"].(map[string]any)
	entry, ok := external[key].(map[string]any)
	if !ok {
		return false
	}
	entry["enabled"] = enabled
	return true
}
