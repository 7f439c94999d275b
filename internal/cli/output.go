package cli

import (
	"encoding/json"
	"io"
	"text/tabwriter"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes doc as JSON in --json mode and calls human otherwise.
func (r *commandRuntime) emit(doc any, human func(out *usageWriter)) error {
	if r.global.json {
		return outputError(writeJSON(r.stdout, doc))
	}
	out := usageWriter{w: r.stdout}
	human(&out)
	return outputError(out.err)
}

// table writes aligned columns and flushes them into out.
func table(out *usageWriter, fill func(tw *usageWriter)) {
	if out.err != nil {
		return
	}
	tw := tabwriter.NewWriter(out.w, 0, 0, 2, ' ', 0)
	rows := usageWriter{w: tw}
	fill(&rows)
	if rows.err != nil {
		out.err = rows.err
		return
	}
	out.err = tw.Flush()
}

// notice writes a human-only message to stderr. It is silent in --json mode.
func (r *commandRuntime) notice(format string, a ...any) {
	if r.global.json {
		return
	}
	out := usageWriter{w: r.stderr}
	out.f(format+"\n", a...)
}
