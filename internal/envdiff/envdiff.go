// Package envdiff computes and renders the difference between a local and a
// remote set of environment variables. It never talks to a remote store.
package envdiff

import (
	"strings"

	"github.com/bsmartlabs/supa/internal/envvar"
)

type ChangeType string

const (
	Added   ChangeType = "added"
	Changed ChangeType = "changed"
	Removed ChangeType = "removed"
)

const NoChanges = "No changes detected."

// Entry is one computed difference. LocalValue is empty for removals,
// RemoteValue is empty for additions.
type Entry struct {
	Key         string     `json:"key"`
	Type        ChangeType `json:"type"`
	LocalValue  string     `json:"localValue,omitempty"`
	RemoteValue string     `json:"remoteValue,omitempty"`
	Secret      bool       `json:"secret"`
}

type Options struct {
	Prune bool
}

type Summary struct {
	Additions int `json:"additions"`
	Changes   int `json:"changes"`
	Removals  int `json:"removals"`
}

// Compute returns the entries needed to make remote match local.
// Remote-only keys are reported as removals only when opts.Prune is set.
// A secret flag that differs while the value is equal produces no entry.
func Compute(local, remote []envvar.Variable, opts Options) []Entry {
	localIdx := envvar.Index(local)
	remoteIdx := envvar.Index(remote)

	var out []Entry
	for _, key := range envvar.Keys(local) {
		lv := localIdx[key]
		rv, exists := remoteIdx[key]
		switch {
		case !exists:
			out = append(out, Entry{
				Key:        key,
				Type:       Added,
				LocalValue: lv.Value,
				Secret:     lv.Secret,
			})
		case lv.Value != rv.Value:
			out = append(out, Entry{
				Key:         key,
				Type:        Changed,
				LocalValue:  lv.Value,
				RemoteValue: rv.Value,
				Secret:      lv.Secret || rv.Secret,
			})
		}
	}

	if !opts.Prune {
		return out
	}
	for _, key := range envvar.Keys(remote) {
		if _, ok := localIdx[key]; ok {
			continue
		}
		rv := remoteIdx[key]
		out = append(out, Entry{
			Key:         key,
			Type:        Removed,
			RemoteValue: rv.Value,
			Secret:      rv.Secret,
		})
	}
	return out
}

// Format renders entries grouped as Additions, Changes and Removals.
// Secret entries always display as [secret].
func Format(entries []Entry) string {
	if len(entries) == 0 {
		return NoChanges
	}

	var sections []string
	if lines := formatSection(entries, Added); len(lines) > 0 {
		sections = append(sections, "Additions:\n"+strings.Join(lines, "\n"))
	}
	if lines := formatSection(entries, Changed); len(lines) > 0 {
		sections = append(sections, "Changes:\n"+strings.Join(lines, "\n"))
	}
	if lines := formatSection(entries, Removed); len(lines) > 0 {
		sections = append(sections, "Removals:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func formatSection(entries []Entry, typ ChangeType) []string {
	var lines []string
	for _, e := range entries {
		if e.Type != typ {
			continue
		}
		switch typ {
		case Added:
			lines = append(lines, "  + "+e.Key+"="+display(e.LocalValue, e.Secret))
		case Changed:
			lines = append(lines,
				"  ~ "+e.Key,
				"      old: "+display(e.RemoteValue, e.Secret),
				"      new: "+display(e.LocalValue, e.Secret),
			)
		case Removed:
			lines = append(lines, "  - "+e.Key+"="+display(e.RemoteValue, e.Secret))
		}
	}
	return lines
}

func display(value string, secret bool) string {
	if secret {
		return envvar.SecretPlaceholder
	}
	return value
}

func HasChanges(entries []Entry) bool {
	return len(entries) > 0
}

func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Type {
		case Added:
			s.Additions++
		case Changed:
			s.Changes++
		case Removed:
			s.Removals++
		}
	}
	return s
}

// Redact returns a copy of entries with secret values blanked, for JSON output.
func Redact(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Secret {
			if e.LocalValue != "" {
				e.LocalValue = envvar.SecretPlaceholder
			}
			if e.RemoteValue != "" {
				e.RemoteValue = envvar.SecretPlaceholder
			}
		}
		out[i] = e
	}
	return out
}
