package cli

import (
	"errors"

	"github.com/bsmartlabs/supa/internal/authtoken"
)

var loginCommandDef = commandDef{
	Name:    "login",
	Summary: "Store a management API access token",
	Flags: []commandFlagDef{
		{Name: "token", Kind: commandFlagString, ValueName: "<token>", Help: "Access token (default: prompt, or read from stdin)"},
	},
	Doc: commandDoc{
		Synopsis: "supa login [--token <token>]",
		Description: []string{
			"Saves the token to ~/.supabase/access-token with mode 0600.",
		},
		Notes: []string{
			authtoken.EnvVar + " in the environment or in supabase/.env.local takes precedence over the stored token.",
			"Without --token the token is read without echo on a terminal, or as one line from stdin.",
		},
		Examples: []string{
			"supa login",
			"echo \"$TOKEN\" | supa login",
		},
	},
	Run: runLogin,
}

var logoutCommandDef = commandDef{
	Name:    "logout",
	Summary: "Remove the stored access token",
	Doc: commandDoc{
		Synopsis: "supa logout",
	},
	Run: runLogout,
}

type loginDocument struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

func runLogin(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	token := r.parsed.String("token")
	if token == "" {
		v, err := r.askSecret("Access token: ")
		if err != nil {
			return err
		}
		token = v
	}
	if token == "" {
		return usageError(errors.New("access token is empty"))
	}

	path, err := r.deps.SaveToken(token)
	if err != nil {
		return err
	}
	return r.emit(loginDocument{Status: "success", Path: path}, func(out *usageWriter) {
		out.f("Access token saved to %s\n", path)
	})
}

type logoutDocument struct {
	Status  string `json:"status"`
	Removed bool   `json:"removed"`
}

func runLogout(r *commandRuntime) error {
	if _, err := r.args(0, 0); err != nil {
		return err
	}
	removed, err := r.deps.DeleteToken()
	if err != nil {
		return err
	}
	return r.emit(logoutDocument{Status: "success", Removed: removed}, func(out *usageWriter) {
		if removed {
			out.line("Access token removed.")
			return
		}
		out.line("No stored access token.")
	})
}
