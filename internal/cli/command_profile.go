package cli

import "github.com/bsmartlabs/supa/internal/profile"

var profileCommandDef = commandDef{
	Name:    "profile",
	Summary: "Show the profile and project ref for the current branch",
	Doc: commandDoc{
		Synopsis: "supa profile",
		Description: []string{
			"Resolves the git branch and the profile that applies to it, as every project command does.",
		},
		Notes: []string{
			"An explicit --profile wins over branch matching; otherwise the first profile with a matching branch pattern, then default_profile.",
			"When the branch cannot be read, main is assumed.",
		},
		Examples: []string{
			"supa profile",
			"supa profile --profile production --json",
		},
	},
	Run: runProfile,
}

type profileDocument struct {
	ConfigPath     string   `json:"config_path"`
	Branch         string   `json:"branch"`
	BranchDetected bool     `json:"branch_detected"`
	Profile        *string  `json:"profile"`
	Source         string   `json:"source"`
	Pattern        string   `json:"pattern,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	Workflow       string   `json:"workflow,omitempty"`
	ProjectRef     string   `json:"project_ref,omitempty"`
	Profiles       []string `json:"profiles"`
}

func runProfile(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	cc, err := r.resolveConfig()
	if err != nil {
		return err
	}

	doc := profileDocument{
		ConfigPath:     cc.Loaded.Path,
		Branch:         cc.Branch,
		BranchDetected: cc.BranchDetected,
		Source:         string(cc.Resolution.Source),
		Pattern:        cc.Resolution.Pattern,
		ProjectRef:     cc.Loaded.Cfg.ProjectRef(cc.Profile()),
		Profiles:       cc.Loaded.Cfg.Profiles.Names(),
	}
	if p := cc.Profile(); p != nil {
		name := p.Name
		doc.Profile = &name
		doc.Mode = p.Mode
		doc.Workflow = p.Workflow
	}

	return r.emit(doc, func(out *usageWriter) {
		table(out, func(tw *usageWriter) {
			tw.f("Config:\t%s\n", doc.ConfigPath)
			branch := doc.Branch
			if !doc.BranchDetected {
				branch += " (not detected)"
			}
			tw.f("Branch:\t%s\n", branch)
			tw.f("Profile:\t%s\n", describeProfile(doc))
			if doc.Mode != "" {
				tw.f("Mode:\t%s\n", doc.Mode)
			}
			if doc.Workflow != "" {
				tw.f("Workflow:\t%s\n", doc.Workflow)
			}
			ref := doc.ProjectRef
			if ref == "" {
				ref = "(not set)"
			}
			tw.f("Project:\t%s\n", ref)
		})
	})
}

func describeProfile(doc profileDocument) string {
	if doc.Profile == nil {
		return "none (no branch pattern matched; pass --profile)"
	}
	switch profile.Source(doc.Source) {
	case profile.SourceBranch:
		return *doc.Profile + " (branch match: " + doc.Pattern + ")"
	case profile.SourceExplicit:
		return *doc.Profile + " (--profile)"
	case profile.SourceDefault:
		return *doc.Profile + " (default_profile)"
	default:
		return *doc.Profile
	}
}
