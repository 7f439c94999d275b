package cli

import (
	"fmt"
	"time"

	"github.com/bsmartlabs/supa/internal/mgmtapi"
)

var apiKeysCommandDef = commandDef{
	Name:    "project api-keys",
	Summary: "List the project's API keys",
	Flags: []commandFlagDef{
		{Name: "reveal", Kind: commandFlagBool, Help: "Show full key values"},
	},
	Doc: commandDoc{
		Synopsis: "supa project api-keys [--reveal]",
		Description: []string{
			"Lists API keys of the project resolved from the current profile.",
		},
		Notes: []string{
			"Keys longer than 24 characters are shortened unless --reveal is given.",
			"Role and expiry of legacy JWT keys are read from the token itself and are not verified.",
		},
		Examples: []string{
			"supa project api-keys",
			"supa project api-keys --reveal --json",
		},
	},
	Run: runAPIKeys,
}

type apiKeyView struct {
	mgmtapi.APIKey
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type apiKeysDocument struct {
	Status     string       `json:"status"`
	ProjectRef string       `json:"project_ref"`
	APIKeys    []apiKeyView `json:"api_keys"`
}

func runAPIKeys(r *commandRuntime) error {
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
	reveal := r.parsed.Bool("reveal")
	keys, err := api.GetProjectAPIKeys(r.ctx, pc.ProjectRef, reveal)
	if err != nil {
		return fmt.Errorf("load api keys: %w", err)
	}

	views := make([]apiKeyView, 0, len(keys))
	for _, k := range keys {
		view := apiKeyView{APIKey: k}
		if k.Type == "" || k.Type == mgmtapi.KeyTypeLegacy {
			if claims, ok := mgmtapi.DecodeLegacyKey(k.APIKey); ok {
				view.Role = claims.Role
				view.ExpiresAt = claims.ExpiresAt
			}
		}
		views = append(views, view)
	}

	doc := apiKeysDocument{Status: "success", ProjectRef: pc.ProjectRef, APIKeys: views}
	return r.emit(doc, func(out *usageWriter) {
		if len(views) == 0 {
			out.line("No API keys found")
			return
		}
		out.f("API Keys for %s\n\n", pc.ProjectRef)
		table(out, func(tw *usageWriter) {
			tw.line("NAME\tTYPE\tKEY\tROLE\tEXPIRES")
			for _, v := range views {
				tw.f("%s\t%s\t%s\t%s\t%s\n",
					dash(v.Name), dash(v.Type), mgmtapi.MaskAPIKey(v.APIKey.APIKey, reveal), dash(v.Role), formatExpiry(v.ExpiresAt))
			}
		})
		if !reveal {
			out.line()
			out.line("Tip: Use --reveal to show full API keys")
		}
	})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
