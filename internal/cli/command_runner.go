package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bsmartlabs/supa/internal/logger"
)

type parsedCommand struct {
	fs      *flag.FlagSet
	bools   map[string]*bool
	strings map[string]*string
	set     map[string]bool
}

// Bool returns a boolean flag, false when the command does not declare it.
func (p *parsedCommand) Bool(name string) bool {
	if v, ok := p.bools[name]; ok {
		return *v
	}
	return false
}

func (p *parsedCommand) String(name string) string {
	if v, ok := p.strings[name]; ok {
		return *v
	}
	return ""
}

// IsSet reports whether the flag was given on the command line.
func (p *parsedCommand) IsSet(name string) bool {
	return p.set[name]
}

func (p *parsedCommand) Args() []string {
	return p.fs.Args()
}

// errHelp is returned by parseCommand after printing help.
var errHelp = errors.New("help requested")

func parseCommand(ctx *commandContext, def commandDef, argv []string) (*parsedCommand, error) {
	fs := flag.NewFlagSet(def.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	bindGlobalOptionFlags(fs, &ctx.global)
	parsed := &parsedCommand{
		fs:      fs,
		bools:   make(map[string]*bool),
		strings: make(map[string]*string),
		set:     make(map[string]bool),
	}
	for _, flagDef := range def.Flags {
		switch flagDef.Kind {
		case commandFlagBool:
			parsed.bools[flagDef.Name] = fs.Bool(flagDef.Name, false, flagDef.Help)
		default:
			parsed.strings[flagDef.Name] = fs.String(flagDef.Name, flagDef.Default, flagDef.Help)
		}
	}

	reordered := reorderFlags(argv, withGlobalFlagSpecs(takesValueMap(def)))
	if err := fs.Parse(reordered); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			if err := printCommandUsage(ctx.stdout, def); err != nil {
				return nil, outputError(err)
			}
			return nil, errHelp
		}
		return nil, usageError(fmt.Errorf("%s: %w", def.Name, err))
	}
	fs.Visit(func(f *flag.Flag) { parsed.set[f.Name] = true })
	return parsed, nil
}

func runCommand(ctx commandContext, def commandDef, argv []string) int {
	parsed, err := parseCommand(&ctx, def, argv)
	if errors.Is(err, errHelp) {
		return 0
	}
	// Global flags given after the command can change the log level.
	ctx.log = logger.FromEnv(ctx.deps.Getenv, ctx.global.debug, ctx.stderr)
	if err != nil {
		return ctx.fail(err)
	}

	rt := &commandRuntime{
		commandContext: ctx,
		ctx:            ctx.runCtx,
		def:            def,
		parsed:         parsed,
		in:             bufio.NewReader(ctx.stdin),
	}
	if rt.ctx == nil {
		rt.ctx = context.Background()
	}
	if err := def.Run(rt); err != nil {
		return ctx.fail(err)
	}
	return 0
}

// args checks the positional argument count.
func (r *commandRuntime) args(minArgs, maxArgs int) ([]string, error) {
	args := r.parsed.Args()
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, usageError(fmt.Errorf("usage: %s", strings.TrimSpace(r.def.Doc.Synopsis)))
	}
	return args, nil
}
