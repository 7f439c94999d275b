package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsmartlabs/supa/internal/authtoken"
	"github.com/bsmartlabs/supa/internal/envstore"
	"github.com/bsmartlabs/supa/internal/exitcode"
	"github.com/bsmartlabs/supa/internal/mgmtapi"
)

type commandErrorKind int

const (
	commandErrorUsage commandErrorKind = iota + 1
	commandErrorOutput
)

type commandError struct {
	kind commandErrorKind
	err  error
}

func (e *commandError) Error() string {
	return e.err.Error()
}

func (e *commandError) Unwrap() error {
	return e.err
}

func wrapCommandError(kind commandErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var existing *commandError
	if errors.As(err, &existing) {
		return err
	}
	return &commandError{kind: kind, err: err}
}

func usageError(err error) error {
	return wrapCommandError(commandErrorUsage, err)
}

func outputError(err error) error {
	return wrapCommandError(commandErrorOutput, err)
}

func isUsageError(err error) bool {
	var commandErr *commandError
	return errors.As(err, &commandErr) && commandErr.kind == commandErrorUsage
}

var errCancelled = exitcode.Wrap(exitcode.KindCancelled, errors.New("cancelled by user"))

// classify attaches an exit-code kind to err. Kinds attached by lower layers
// win; untagged API and network failures are classified here.
func classify(err error) error {
	return exitcode.Wrap(causeKind(err), err)
}

func causeKind(err error) exitcode.Kind {
	if errors.Is(err, context.Canceled) {
		return exitcode.KindCancelled
	}
	if errors.Is(err, authtoken.ErrNotAuthenticated) {
		return exitcode.KindAuthFailure
	}
	var apiErr *mgmtapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Unauthorized() {
			return exitcode.KindAuthFailure
		}
		return exitcode.KindNetwork
	}
	if errors.Is(err, mgmtapi.ErrNetwork) {
		return exitcode.KindNetwork
	}
	return exitcode.KindGeneric
}

type errorDocument struct {
	Status   string `json:"status"`
	Error    string `json:"error"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
	ExitCode int    `json:"exitCode"`
}

type statusDocument struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	notImplementedMessage = "Environment API not yet available"
	usageHint             = "Run 'supa help' for usage."
)

// fail reports err in the selected output mode and returns the exit code.
func (c commandContext) fail(err error) int {
	if errors.Is(err, envstore.ErrNotImplemented) {
		return c.notImplemented()
	}

	tagged := classify(err)
	code := exitcode.For(tagged)
	var hint string
	if isUsageError(err) {
		hint = usageHint
	}
	if c.global.json {
		if werr := writeJSON(c.stdout, errorDocument{
			Status:   "error",
			Error:    exitcode.KindOf(tagged).String(),
			Message:  err.Error(),
			Hint:     hint,
			ExitCode: code,
		}); werr != nil {
			return exitcode.GenericError
		}
		return code
	}

	out := usageWriter{w: c.stderr}
	out.f("error: %s\n", err)
	if hint != "" {
		out.line(hint)
	}
	return code
}

func (c commandContext) notImplemented() int {
	if c.global.json {
		if err := writeJSON(c.stdout, statusDocument{Status: "not_implemented", Message: notImplementedMessage}); err != nil {
			return exitcode.GenericError
		}
		return exitcode.Success
	}
	out := usageWriter{w: c.stdout}
	out.f("%s.\n", notImplementedMessage)
	out.line(`Set "env_store": {"provider": "scaleway", ...} in ` + "supabase/config.json to keep variables in Scaleway Secret Manager.")
	if out.err != nil {
		return exitcode.GenericError
	}
	return exitcode.Success
}

func requireValue(name, value string) error {
	if value == "" {
		return usageError(fmt.Errorf("--%s is required", name))
	}
	return nil
}
