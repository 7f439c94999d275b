package cli

import (
	"errors"
	"fmt"

	"github.com/bsmartlabs/supa/internal/envdiff"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/envsync"
	"github.com/bsmartlabs/supa/internal/envvar"
	"github.com/bsmartlabs/supa/internal/projectctx"
	"github.com/bsmartlabs/supa/internal/secretcontract"
)

var (
	environmentFlag = commandFlagDef{
		Name:      "environment",
		Kind:      commandFlagString,
		ValueName: "<name>",
		Default:   envvar.DefaultEnvironment,
		Help:      "Remote environment",
	}
	branchFlag = commandFlagDef{
		Name:      "branch",
		Kind:      commandFlagString,
		ValueName: "<name>",
		Help:      "Branch override within the environment",
	}
	yesFlag    = commandFlagDef{Name: "yes", Kind: commandFlagBool, Help: "Skip the confirmation prompt"}
	dryRunFlag = commandFlagDef{Name: "dry-run", Kind: commandFlagBool, Help: "Show the changes without applying them"}
)

var envPullCommandDef = commandDef{
	Name:    "project env pull",
	Summary: "Write remote variables to supabase/.env",
	Flags:   []commandFlagDef{environmentFlag, branchFlag, yesFlag},
	Doc: commandDoc{
		Synopsis: "supa project env pull [--environment <name>] [--branch <name>] [--yes]",
		Description: []string{
			"Renders the environment's non-secret variables into supabase/.env (mode 0600).",
		},
		Notes: []string{
			"Secret values are never written; a footer comment lists the secret keys that were left out.",
			"When supabase/.env exists and would change, a diff is shown and confirmation is required.",
		},
		Examples: []string{
			"supa project env pull",
			"supa project env pull --environment preview --yes",
		},
	},
	Run: runEnvPull,
}

var envPushCommandDef = commandDef{
	Name:    "project env push",
	Summary: "Upload supabase/.env to a remote environment",
	Flags: []commandFlagDef{
		environmentFlag,
		{Name: "prune", Kind: commandFlagBool, Help: "Delete remote variables missing from the local file"},
		dryRunFlag,
		yesFlag,
	},
	Doc: commandDoc{
		Synopsis: "supa project env push [--environment <name>] [--prune] [--dry-run] [--yes]",
		Description: []string{
			"Compares supabase/.env with the remote environment, shows the changes and uploads them.",
		},
		Notes: []string{
			"Mark a variable secret with a '# @secret' comment on the line before it or after its value.",
			"New variables without a marker are prompted for on a terminal; otherwise names like *_KEY, *_SECRET or *_TOKEN are treated as secret.",
			"A variable that is secret remotely stays secret.",
			"With --json, --yes is required unless --dry-run is given.",
		},
		Examples: []string{
			"supa project env push --dry-run",
			"supa project env push --environment production --prune --yes",
		},
	},
	Run: runEnvPush,
}

var envSetCommandDef = commandDef{
	Name:    "project env set",
	Summary: "Set one variable",
	Flags: []commandFlagDef{
		environmentFlag,
		branchFlag,
		{Name: "secret", Kind: commandFlagBool, Help: "Store the variable as secret"},
	},
	Doc: commandDoc{
		Synopsis: "supa project env set <KEY> [VALUE] [--environment <name>] [--branch <name>] [--secret]",
		Description: []string{
			"Creates or updates a variable. Without VALUE it is read from stdin, without echo on a terminal.",
		},
		Notes: []string{
			"Without --secret an existing variable keeps its secret flag; a new one is judged by its name.",
		},
		Examples: []string{
			`supa project env set API_URL "https://api.example.com"`,
			"supa project env set STRIPE_KEY --secret --environment production",
		},
	},
	Run: runEnvSet,
}

var envUnsetCommandDef = commandDef{
	Name:    "project env unset",
	Summary: "Delete one variable",
	Flags:   []commandFlagDef{environmentFlag, branchFlag, yesFlag},
	Doc: commandDoc{
		Synopsis: "supa project env unset <KEY> [--environment <name>] [--branch <name>] [--yes]",
	},
	Run: runEnvUnset,
}

var envListCommandDef = commandDef{
	Name:    "project env list",
	Aliases: []string{"ls"},
	Summary: "List variables of an environment",
	Flags:   []commandFlagDef{environmentFlag, branchFlag},
	Doc: commandDoc{
		Synopsis: "supa project env list [--environment <name>] [--branch <name>]",
		Notes: []string{
			"Secret values are shown as " + envvar.SecretPlaceholder + ".",
		},
	},
	Run: runEnvList,
}

var envListEnvironmentsCommandDef = commandDef{
	Name:    "project env list-environments",
	Aliases: []string{"envs", "environments"},
	Summary: "List remote environments",
	Doc: commandDoc{
		Synopsis: "supa project env list-environments",
	},
	Run: runEnvListEnvironments,
}

var envCreateCommandDef = commandDef{
	Name:    "project env create",
	Summary: "Create a custom environment",
	Flags: []commandFlagDef{
		{Name: "from", Kind: commandFlagString, ValueName: "<env>", Help: "Copy variables from this environment"},
	},
	Doc: commandDoc{
		Synopsis: "supa project env create <NAME> [--from <env>]",
		Notes: []string{
			"Names use letters, digits, hyphens and underscores. development, preview and production are reserved.",
		},
		Examples: []string{
			"supa project env create staging --from production",
		},
	},
	Run: runEnvCreate,
}

var envDeleteCommandDef = commandDef{
	Name:    "project env delete",
	Aliases: []string{"remove", "rm"},
	Summary: "Delete a custom environment",
	Flags:   []commandFlagDef{yesFlag},
	Doc: commandDoc{
		Synopsis: "supa project env delete <NAME> [--yes]",
		Notes: []string{
			"Reserved environments cannot be deleted.",
		},
	},
	Run: runEnvDelete,
}

var envSeedCommandDef = commandDef{
	Name:    "project env seed",
	Summary: "Copy variables from another environment",
	Flags: []commandFlagDef{
		{Name: "from", Kind: commandFlagString, ValueName: "<env>", Help: "Source environment"},
		yesFlag,
	},
	Doc: commandDoc{
		Synopsis: "supa project env seed <TARGET> --from <env> [--yes]",
		Description: []string{
			"Copies the source environment's variables into TARGET, overwriting keys both define.",
		},
		Notes: []string{
			"Branch overrides of the source are not copied.",
		},
		Examples: []string{
			"supa project env seed preview --from development",
		},
	},
	Run: runEnvSeed,
}

func (r *commandRuntime) target() envstore.Target {
	return envstore.Target{
		Environment: r.parsed.String("environment"),
		Branch:      r.parsed.String("branch"),
	}
}

func (r *commandRuntime) openEnv() (*projectctx.ProjectContext, *envsync.Service, error) {
	pc, err := r.resolveProject()
	if err != nil {
		return nil, nil, err
	}
	svc, err := r.envService(pc)
	if err != nil {
		return nil, nil, err
	}
	return pc, svc, nil
}

type envPullDocument struct {
	Status      string   `json:"status"`
	Environment string   `json:"environment"`
	Branch      string   `json:"branch,omitempty"`
	Path        string   `json:"path"`
	Written     []string `json:"written"`
	SecretKeys  []string `json:"secret_keys"`
}

func runEnvPull(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	plan, err := svc.PlanPull(r.ctx, r.target())
	if err != nil {
		return err
	}

	doc := envPullDocument{
		Status:      "success",
		Environment: plan.Target.Environment,
		Branch:      plan.Target.Branch,
		Path:        plan.Path,
		Written:     nonNil(plan.Written),
		SecretKeys:  nonNil(plan.SecretKeys),
	}
	if !plan.Changed {
		doc.Status = "unchanged"
		return r.emit(doc, func(out *usageWriter) {
			out.f("%s is up to date with %s.\n", plan.Path, plan.Target.Environment)
		})
	}
	if plan.NeedsConfirmation() {
		if !r.global.json {
			out := usageWriter{w: r.stderr}
			out.line(plan.Diff)
			if out.err != nil {
				return outputError(out.err)
			}
		}
		if err := r.confirm(fmt.Sprintf("Overwrite %s?", plan.Path)); err != nil {
			return err
		}
	}
	if err := svc.ApplyPull(plan); err != nil {
		return err
	}

	return r.emit(doc, func(out *usageWriter) {
		out.f("Wrote %d variable(s) from %s to %s\n", len(doc.Written), plan.Target.Environment, plan.Path)
		if len(doc.SecretKeys) > 0 {
			out.f("Skipped %d secret(s): %v\n", len(doc.SecretKeys), doc.SecretKeys)
		}
	})
}

type envPushDocument struct {
	Status      string          `json:"status"`
	Environment string          `json:"environment"`
	Prune       bool            `json:"prune"`
	Summary     envdiff.Summary `json:"summary"`
	Changes     []envdiff.Entry `json:"changes"`
}

func runEnvPush(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	plan, err := svc.PlanPush(r.ctx, envsync.PushOptions{
		Environment: r.parsed.String("environment"),
		Prune:       r.parsed.Bool("prune"),
	})
	if err != nil {
		return err
	}

	doc := envPushDocument{Environment: plan.Environment, Prune: plan.Prune}
	if !plan.HasChanges() {
		doc.Status = "no_changes"
		doc.Changes = []envdiff.Entry{}
		return r.emit(doc, func(out *usageWriter) { out.line(envdiff.NoChanges) })
	}

	if err := r.classifySecrets(plan); err != nil {
		return err
	}
	doc.Summary = plan.Summary()
	doc.Changes = envdiff.Redact(plan.Entries)

	dryRun := r.parsed.Bool("dry-run")
	if !r.global.json {
		// A diff shown ahead of a confirmation goes to stderr, like pull.
		out := usageWriter{w: r.stderr}
		if dryRun {
			out.w = r.stdout
		}
		out.line(envdiff.Format(plan.Entries))
		out.line()
		out.f("%d to add, %d to change, %d to remove in %s\n",
			doc.Summary.Additions, doc.Summary.Changes, doc.Summary.Removals, plan.Environment)
		if out.err != nil {
			return outputError(out.err)
		}
	}
	if dryRun {
		doc.Status = "dry_run"
		if r.global.json {
			return outputError(writeJSON(r.stdout, doc))
		}
		return nil
	}

	if err := r.confirm(fmt.Sprintf("Push these changes to %s?", plan.Environment)); err != nil {
		return err
	}
	if err := svc.ApplyPush(r.ctx, plan); err != nil {
		return err
	}
	doc.Status = "success"
	return r.emit(doc, func(out *usageWriter) {
		out.f("Pushed to %s.\n", plan.Environment)
	})
}

// classifySecrets decides the secret flag of new unannotated variables, by
// asking on a terminal and by name otherwise.
func (r *commandRuntime) classifySecrets(plan *envsync.PushPlan) error {
	if len(plan.Unannotated) == 0 {
		return nil
	}
	if r.global.json || r.parsed.Bool("yes") || !r.interactive() {
		plan.ApplyHeuristic()
		return nil
	}
	for _, key := range plan.Unannotated {
		secret, err := r.askYesNo(fmt.Sprintf("Mark %s as secret?", key), secretcontract.IsSensitiveKey(key))
		if err != nil {
			return err
		}
		plan.MarkSecret(key, secret)
	}
	return nil
}

type envVariableDocument struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Branch      string `json:"branch,omitempty"`
	Key         string `json:"key"`
	Secret      bool   `json:"secret"`
}

func runEnvSet(r *commandRuntime) error {
	args, err := r.args(1, 2)
	if err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if value, err = r.askSecret("Value for " + key + ": "); err != nil {
			return err
		}
	}

	in := envsync.SetInput{Target: r.target(), Key: key, Value: value}
	if r.parsed.IsSet("secret") {
		secret := r.parsed.Bool("secret")
		in.Secret = &secret
	}
	v, err := svc.Set(r.ctx, in)
	if err != nil {
		return err
	}

	doc := envVariableDocument{Status: "success", Environment: envOrDefault(in.Target.Environment), Branch: in.Target.Branch, Key: v.Key, Secret: v.Secret}
	return r.emit(doc, func(out *usageWriter) {
		kind := "variable"
		if v.Secret {
			kind = "secret"
		}
		out.f("Set %s %s in %s\n", kind, v.Key, describeTarget(in.Target))
	})
}

func runEnvUnset(r *commandRuntime) error {
	args, err := r.args(1, 1)
	if err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	target := r.target()
	if err := r.confirm(fmt.Sprintf("Delete %s from %s?", args[0], describeTarget(target))); err != nil {
		return err
	}
	if err := svc.Unset(r.ctx, target, args[0]); err != nil {
		return err
	}
	doc := envVariableDocument{Status: "success", Environment: envOrDefault(target.Environment), Branch: target.Branch, Key: args[0]}
	return r.emit(doc, func(out *usageWriter) {
		out.f("Deleted %s from %s\n", args[0], describeTarget(target))
	})
}

type envListDocument struct {
	Environment string            `json:"environment"`
	Branch      string            `json:"branch,omitempty"`
	Variables   []envvar.Variable `json:"variables"`
}

func runEnvList(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	target := r.target()
	vars, err := svc.List(r.ctx, target)
	if err != nil {
		return err
	}

	shown := make([]envvar.Variable, 0, len(vars))
	for _, v := range vars {
		v.Value = v.DisplayValue()
		shown = append(shown, v)
	}
	doc := envListDocument{Environment: envOrDefault(target.Environment), Branch: target.Branch, Variables: shown}
	return r.emit(doc, func(out *usageWriter) {
		if len(shown) == 0 {
			out.f("No variables in %s.\n", describeTarget(target))
			return
		}
		table(out, func(tw *usageWriter) {
			tw.line("KEY\tVALUE\tSECRET")
			for _, v := range shown {
				secret := "no"
				if v.Secret {
					secret = "yes"
				}
				tw.f("%s\t%s\t%s\n", v.Key, v.Value, secret)
			}
		})
	})
}

type environmentsDocument struct {
	Environments []envvar.Environment `json:"environments"`
}

func runEnvListEnvironments(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	envs, err := svc.Environments(r.ctx)
	if err != nil {
		return err
	}
	if envs == nil {
		envs = []envvar.Environment{}
	}
	return r.emit(environmentsDocument{Environments: envs}, func(out *usageWriter) {
		table(out, func(tw *usageWriter) {
			tw.line("NAME\tVARIABLES\tDEFAULT")
			for _, e := range envs {
				count := "-"
				if e.VariableCount != nil {
					count = fmt.Sprint(*e.VariableCount)
				}
				def := ""
				if e.IsDefault {
					def = "yes"
				}
				tw.f("%s\t%s\t%s\n", e.Name, count, def)
			}
		})
	})
}

type environmentDocument struct {
	Status      string             `json:"status"`
	Environment envvar.Environment `json:"environment"`
	From        string             `json:"from,omitempty"`
}

func runEnvCreate(r *commandRuntime) error {
	args, err := r.args(1, 1)
	if err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	from := r.parsed.String("from")
	env, err := svc.CreateEnvironment(r.ctx, args[0], from)
	if err != nil {
		return err
	}
	return r.emit(environmentDocument{Status: "success", Environment: env, From: from}, func(out *usageWriter) {
		if from != "" {
			out.f("Created environment %s from %s\n", env.Name, from)
			return
		}
		out.f("Created environment %s\n", env.Name)
	})
}

func runEnvDelete(r *commandRuntime) error {
	args, err := r.args(1, 1)
	if err != nil {
		return err
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	name := args[0]
	if envvar.IsReserved(name) {
		return svc.DeleteEnvironment(r.ctx, name)
	}
	if err := r.confirm(fmt.Sprintf("Delete environment %s and all its variables?", name)); err != nil {
		return err
	}
	if err := svc.DeleteEnvironment(r.ctx, name); err != nil {
		return err
	}
	return r.emit(environmentDocument{Status: "success", Environment: envvar.Environment{Name: name}}, func(out *usageWriter) {
		out.f("Deleted environment %s\n", name)
	})
}

type seedDocument struct {
	Status string `json:"status"`
	Target string `json:"target"`
	From   string `json:"from"`
}

func runEnvSeed(r *commandRuntime) error {
	args, err := r.args(1, 1)
	if err != nil {
		return err
	}
	from := r.parsed.String("from")
	if from == "" {
		return usageError(errors.New("--from is required"))
	}
	_, svc, err := r.openEnv()
	if err != nil {
		return err
	}
	target := args[0]
	if target == from {
		return svc.Seed(r.ctx, target, from)
	}
	if err := r.confirm(fmt.Sprintf("Copy variables from %s into %s, overwriting shared keys?", from, target)); err != nil {
		return err
	}
	if err := svc.Seed(r.ctx, target, from); err != nil {
		return err
	}
	return r.emit(seedDocument{Status: "success", Target: target, From: from}, func(out *usageWriter) {
		out.f("Seeded %s from %s\n", target, from)
	})
}

func envOrDefault(env string) string {
	if env == "" {
		return envvar.DefaultEnvironment
	}
	return env
}

func describeTarget(t envstore.Target) string {
	env := envOrDefault(t.Environment)
	if t.Branch != "" {
		return env + " (branch " + t.Branch + ")"
	}
	return env
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
