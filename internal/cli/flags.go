package cli

import (
	"flag"
	"strings"

	"github.com/bsmartlabs/supa/internal/config"
)

const (
	globalConfigFlagUsage  = "Path to " + config.DefaultConfigName + " (default: search upward from cwd)"
	globalProfileFlagUsage = "Profile override (default: match the current git branch)"
	globalJSONFlagUsage    = "Machine-readable JSON output"
	globalDebugFlagUsage   = "Log debug diagnostics to stderr"
)

type globalOptions struct {
	configPath string
	profile    string
	json       bool
	debug      bool
}

func reorderFlags(argv []string, takesValue map[string]bool) []string {
	// The flag package stops at the first positional argument; move flags
	// first so they can appear anywhere on the command line.
	var flags []string
	var positional []string

	normalize := func(tok string) string {
		tok = strings.TrimLeft(tok, "-")
		if i := strings.IndexByte(tok, '='); i >= 0 {
			tok = tok[:i]
		}
		return tok
	}

	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		if tok == "--" {
			positional = append(positional, argv[i+1:]...)
			break
		}
		if strings.HasPrefix(tok, "-") && tok != "-" {
			flags = append(flags, tok)
			name := normalize(tok)
			if takesValue[name] && !strings.Contains(tok, "=") && i+1 < len(argv) {
				flags = append(flags, argv[i+1])
				i++
			}
			continue
		}
		positional = append(positional, tok)
	}

	return append(flags, positional...)
}

func bindGlobalOptionFlags(fs *flag.FlagSet, opts *globalOptions) {
	fs.StringVar(&opts.configPath, "config", opts.configPath, globalConfigFlagUsage)
	fs.StringVar(&opts.profile, "profile", opts.profile, globalProfileFlagUsage)
	fs.BoolVar(&opts.json, "json", opts.json, globalJSONFlagUsage)
	fs.BoolVar(&opts.debug, "debug", opts.debug, globalDebugFlagUsage)
}

func withGlobalFlagSpecs(spec map[string]bool) map[string]bool {
	out := make(map[string]bool, len(spec)+4)
	out["config"] = true
	out["profile"] = true
	out["json"] = false
	out["debug"] = false
	for key, value := range spec {
		out[key] = value
	}
	return out
}
