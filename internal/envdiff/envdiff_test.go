package envdiff

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bsmartlabs/supa/internal/envvar"
)

func vars(items ...envvar.Variable) []envvar.Variable { return items }

func v(key, value string, secret bool) envvar.Variable {
	return envvar.Variable{Key: key, Value: value, Secret: secret}
}

func TestCompute_Idempotent(t *testing.T) {
	sets := [][]envvar.Variable{
		nil,
		vars(v("A", "1", false)),
		vars(v("A", "1", false), v("B", "", true), v("C", "x y", false)),
	}
	for _, set := range sets {
		if got := Compute(set, set, Options{}); len(got) != 0 {
			t.Fatalf("expected no entries, got %#v", got)
		}
		if got := Compute(set, set, Options{Prune: true}); len(got) != 0 {
			t.Fatalf("expected no entries with prune, got %#v", got)
		}
	}
}

func TestCompute_AllAddedAllRemoved(t *testing.T) {
	set := vars(v("A", "1", false), v("B", "2", true))

	added := Compute(set, nil, Options{})
	if len(added) != 2 {
		t.Fatalf("expected 2, got %#v", added)
	}
	for _, e := range added {
		if e.Type != Added {
			t.Fatalf("expected added, got %#v", e)
		}
	}

	removed := Compute(nil, set, Options{Prune: true})
	if len(removed) != 2 {
		t.Fatalf("expected 2, got %#v", removed)
	}
	for _, e := range removed {
		if e.Type != Removed {
			t.Fatalf("expected removed, got %#v", e)
		}
	}

	if got := Compute(nil, set, Options{}); len(got) != 0 {
		t.Fatalf("expected nothing without prune, got %#v", got)
	}
}

func TestCompute_PruneExample(t *testing.T) {
	local := vars(v("A", "1", false), v("B", "2", true))
	remote := vars(v("A", "1", false), v("C", "3", false))

	got := Compute(local, remote, Options{})
	want := []Entry{{Key: "B", Type: Added, LocalValue: "2", Secret: true}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("without prune:\nwant=%#v\ngot =%#v", want, got)
	}

	got = Compute(local, remote, Options{Prune: true})
	want = []Entry{
		{Key: "B", Type: Added, LocalValue: "2", Secret: true},
		{Key: "C", Type: Removed, RemoteValue: "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("with prune:\nwant=%#v\ngot =%#v", want, got)
	}
}

func TestCompute_ChangedSecretIsSticky(t *testing.T) {
	got := Compute(vars(v("K", "new", false)), vars(v("K", "old", true)), Options{})
	if len(got) != 1 || got[0].Type != Changed || !got[0].Secret {
		t.Fatalf("expected secret changed entry, got %#v", got)
	}
	if got[0].LocalValue != "new" || got[0].RemoteValue != "old" {
		t.Fatalf("unexpected values: %#v", got[0])
	}
}

func TestCompute_SecretFlagOnlyChangeIgnored(t *testing.T) {
	got := Compute(vars(v("K", "same", true)), vars(v("K", "same", false)), Options{})
	if len(got) != 0 {
		t.Fatalf("expected no entry, got %#v", got)
	}
}

func TestCompute_DuplicateKeysLastWins(t *testing.T) {
	local := vars(v("A", "1", false), v("A", "2", false))
	remote := vars(v("A", "2", false))
	if got := Compute(local, remote, Options{}); len(got) != 0 {
		t.Fatalf("expected last local duplicate to win, got %#v", got)
	}
	remote = vars(v("X", "1", false), v("X", "9", false))
	got := Compute(nil, remote, Options{Prune: true})
	if len(got) != 1 || got[0].RemoteValue != "9" {
		t.Fatalf("expected single removal using last remote value, got %#v", got)
	}
}

func TestCompute_Order(t *testing.T) {
	local := vars(v("Z", "1", false), v("A", "new", false), v("M", "1", false))
	remote := vars(v("R2", "x", false), v("A", "old", false), v("R1", "y", false))
	got := Compute(local, remote, Options{Prune: true})
	var keys []string
	for _, e := range got {
		keys = append(keys, e.Key)
	}
	if !reflect.DeepEqual(keys, []string{"Z", "A", "M", "R2", "R1"}) {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "No changes detected." {
		t.Fatalf("unexpected empty format: %q", got)
	}

	entries := []Entry{
		{Key: "R", Type: Removed, RemoteValue: "gone"},
		{Key: "A", Type: Added, LocalValue: "1"},
		{Key: "C", Type: Changed, LocalValue: "new", RemoteValue: "old"},
	}
	want := strings.Join([]string{
		"Additions:",
		"  + A=1",
		"",
		"Changes:",
		"  ~ C",
		"      old: old",
		"      new: new",
		"",
		"Removals:",
		"  - R=gone",
	}, "\n")
	if got := Format(entries); got != want {
		t.Fatalf("unexpected format:\nwant=%q\ngot =%q", want, got)
	}
}

func TestFormat_OmitsEmptySections(t *testing.T) {
	got := Format([]Entry{{Key: "R", Type: Removed, RemoteValue: "x"}})
	if strings.Contains(got, "Additions") || strings.Contains(got, "Changes") {
		t.Fatalf("unexpected sections: %q", got)
	}
	if !strings.HasPrefix(got, "Removals:") {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestFormat_SecretsMasked(t *testing.T) {
	entries := []Entry{
		{Key: "A", Type: Added, LocalValue: "topsecret-a", Secret: true},
		{Key: "C", Type: Changed, LocalValue: "topsecret-new", RemoteValue: "topsecret-old", Secret: true},
		{Key: "R", Type: Removed, RemoteValue: "topsecret-r", Secret: true},
	}
	got := Format(entries)
	if strings.Contains(got, "topsecret") {
		t.Fatalf("secret value leaked: %q", got)
	}
	for _, want := range []string{"+ A=[secret]", "old: [secret]", "new: [secret]", "- R=[secret]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestSummaryAndHasChanges(t *testing.T) {
	entries := []Entry{
		{Key: "A", Type: Added},
		{Key: "B", Type: Added},
		{Key: "C", Type: Changed},
		{Key: "D", Type: Removed},
	}
	if !HasChanges(entries) || HasChanges(nil) {
		t.Fatalf("unexpected HasChanges")
	}
	if got := Summarize(entries); got != (Summary{Additions: 2, Changes: 1, Removals: 1}) {
		t.Fatalf("unexpected summary: %#v", got)
	}
}

func TestRedact(t *testing.T) {
	in := []Entry{
		{Key: "A", Type: Added, LocalValue: "s", Secret: true},
		{Key: "B", Type: Changed, LocalValue: "n", RemoteValue: "o"},
	}
	out := Redact(in)
	if out[0].LocalValue != "[secret]" || out[0].RemoteValue != "" {
		t.Fatalf("unexpected redaction: %#v", out[0])
	}
	if out[1].LocalValue != "n" || in[0].LocalValue != "s" {
		t.Fatalf("unexpected mutation: %#v %#v", out[1], in[0])
	}
}
