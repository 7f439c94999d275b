package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/bsmartlabs/supa/internal/projectctx"
)

func readPassword(r io.Reader) (string, error) {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return "", projectctx.ErrNotTTY
	}
	b, err := term.ReadPassword(int(f.Fd()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func (r *commandRuntime) interactive() bool {
	return r.deps.IsTerminal(r.stdin)
}

// confirm returns nil when the action may proceed. --yes skips the prompt;
// JSON mode never prompts.
func (r *commandRuntime) confirm(question string) error {
	if r.parsed.Bool("yes") {
		return nil
	}
	if r.global.json {
		return usageError(errors.New("confirmation required: pass --yes with --json"))
	}
	if err := projectctx.CheckTTY(r.interactive()); err != nil {
		return err
	}
	ok, err := r.askYesNo(question, false)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

func (r *commandRuntime) askYesNo(question string, defaultYes bool) (bool, error) {
	suffix := " [y/N] "
	if defaultYes {
		suffix = " [Y/n] "
	}
	answer, err := r.ask(question + suffix)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ask prompts on stderr and reads one trimmed line.
func (r *commandRuntime) ask(prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(r.stderr, prompt); err != nil {
			return "", outputError(err)
		}
	}
	return r.readLine()
}

// readLine blocks until a line arrives. An interrupt received meanwhile wins
// over the answer.
func (r *commandRuntime) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if cerr := r.ctx.Err(); cerr != nil {
		return "", cerr
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// askSecret reads a value without echo on a terminal, or one line of piped
// input otherwise.
func (r *commandRuntime) askSecret(prompt string) (string, error) {
	if !r.interactive() {
		return r.readLine()
	}
	if _, err := fmt.Fprint(r.stderr, prompt); err != nil {
		return "", outputError(err)
	}
	v, err := r.deps.ReadPassword(r.stdin)
	fmt.Fprintln(r.stderr)
	if cerr := r.ctx.Err(); cerr != nil {
		return "", cerr
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}
