package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bsmartlabs/supa/internal/config"
)

type usageWriter struct {
	w   io.Writer
	err error
}

func (u *usageWriter) line(a ...any) {
	if u.err != nil {
		return
	}
	_, u.err = fmt.Fprintln(u.w, a...)
}

func (u *usageWriter) f(format string, a ...any) {
	if u.err != nil {
		return
	}
	_, u.err = fmt.Fprintf(u.w, format, a...)
}

func printMainUsage(w io.Writer) error {
	out := usageWriter{w: w}
	out.line("supa")
	out.line("  Manage a Supabase project's config, profiles, auth providers and environment variables.")
	out.line()
	out.line("Usage:")
	out.line("  supa [global options] <command> [command options] [args...]")
	out.line("  supa help [command]")
	out.line()
	out.line("Global options:")
	out.f("  --config <path>   Path to %s. If omitted: search upward from cwd.\n", config.DefaultConfigName)
	out.line("  --profile <name>  Profile override. If omitted: match the current git branch.")
	out.line("  --json            Machine-readable output on stdout.")
	out.line("  --debug           Debug logs on stderr (or set SUPA_LOG_LEVEL).")
	out.line()
	out.line("Commands:")
	for _, def := range commandDefs {
		out.f("  %-34s %s\n", displayName(def), def.Summary)
	}
	out.line()
	out.line("Examples:")
	out.line("  supa profile")
	out.line("  supa project env pull --environment preview")
	out.line("  supa project env push --prune --dry-run")
	out.line("  supa --profile staging project auth-provider list --json")
	out.line()
	out.line("Notes for automation/LLMs:")
	out.line("  - Global options can be passed either before the command or as command options.")
	out.line("  - With --json, results and errors are JSON documents on stdout; prompts are never shown, pass --yes.")
	out.line("  - Exit codes: 0=success, 1=error, 2=config or profile not found, 3=auth failure, 4=network error, 5=validation error, 130=cancelled.")
	return out.err
}

func displayName(def commandDef) string {
	if len(def.Aliases) == 0 {
		return def.Name
	}
	return def.Name + " (" + strings.Join(def.Aliases, ", ") + ")"
}

func printGroupUsage(w io.Writer, group string) error {
	out := usageWriter{w: w}
	out.line("Usage:")
	out.f("  supa %s <command> [options]\n", group)
	out.line()
	out.line("Commands:")
	for _, def := range commandsUnder(group) {
		out.f("  %-34s %s\n", displayName(def), def.Summary)
	}
	out.line()
	out.f("Run 'supa help %s <command>' for details.\n", group)
	return out.err
}

func printCommandUsage(w io.Writer, def commandDef) error {
	out := usageWriter{w: w}
	out.line("Usage:")
	out.f("  %s\n", def.Doc.Synopsis)

	if len(def.Aliases) > 0 {
		out.line()
		out.f("Aliases: %s\n", strings.Join(def.Aliases, ", "))
	}

	if len(def.Doc.Description) > 0 {
		out.line()
		for _, line := range def.Doc.Description {
			out.line(line)
		}
	}

	if len(def.Flags) > 0 {
		out.line()
		out.line("Options:")
		for _, flagDef := range sortedFlagDefs(def.Flags) {
			out.f("  --%s\n", formatFlagUsage(flagDef))
		}
	}

	if len(def.Doc.Notes) > 0 {
		out.line()
		out.line("Notes:")
		for _, note := range def.Doc.Notes {
			out.line("  - " + note)
		}
	}

	if len(def.Doc.Examples) > 0 {
		out.line()
		out.line("Examples:")
		for _, example := range def.Doc.Examples {
			out.f("  %s\n", example)
		}
	}

	return out.err
}

func sortedFlagDefs(flags []commandFlagDef) []commandFlagDef {
	out := make([]commandFlagDef, len(flags))
	copy(out, flags)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func formatFlagUsage(flagDef commandFlagDef) string {
	out := flagDef.Name
	if flagDef.Kind != commandFlagBool {
		out += " " + flagDef.ValueName
	}
	if flagDef.Help != "" {
		out += "  " + flagDef.Help
	}
	if flagDef.Default != "" {
		out += " (default: " + flagDef.Default + ")"
	}
	return out
}
