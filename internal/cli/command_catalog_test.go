package cli

import (
	"reflect"
	"strings"
	"testing"
)

func TestLookupCommand(t *testing.T) {
	cases := []struct {
		args     []string
		wantName string
		wantRest []string
	}{
		{[]string{"version"}, "version", []string{}},
		{[]string{"project", "env", "pull", "--yes"}, "project env pull", []string{"--yes"}},
		{[]string{"project", "env", "ls"}, "project env list", []string{}},
		{[]string{"project", "env", "envs"}, "project env list-environments", []string{}},
		{[]string{"project", "env", "rm", "staging"}, "project env delete", []string{"staging"}},
		{[]string{"project", "auth", "list"}, "project auth-provider list", []string{}},
		{[]string{"project", "api-keys", "--reveal"}, "project api-keys", []string{"--reveal"}},
		{[]string{"config", "validate"}, "config validate", []string{}},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, "_"), func(t *testing.T) {
			def, rest, ok := lookupCommand(tc.args)
			if !ok {
				t.Fatalf("expected a command for %v", tc.args)
			}
			if def.Name != tc.wantName {
				t.Fatalf("expected %q, got %q", tc.wantName, def.Name)
			}
			if len(rest) != len(tc.wantRest) || (len(rest) > 0 && !reflect.DeepEqual(rest, tc.wantRest)) {
				t.Fatalf("unexpected rest: %#v", rest)
			}
		})
	}

	for _, args := range [][]string{{"project"}, {"project", "env"}, {"nope"}, {"project", "env", "pul"}} {
		if _, _, ok := lookupCommand(args); ok {
			t.Fatalf("expected no command for %v", args)
		}
	}
}

func TestGroups(t *testing.T) {
	if !isGroup([]string{"project"}) || !isGroup([]string{"project", "env"}) || !isGroup([]string{"config"}) {
		t.Fatalf("expected groups")
	}
	if isGroup([]string{"version"}) || isGroup(nil) || isGroup([]string{"project", "env", "pull"}) {
		t.Fatalf("unexpected group")
	}
	if got := longestGroupPrefix([]string{"project", "env", "pul"}); !reflect.DeepEqual(got, []string{"project", "env"}) {
		t.Fatalf("unexpected prefix: %#v", got)
	}
	next := nextWords([]string{"project", "env"})
	for _, w := range []string{"pull", "push", "ls", "rm", "envs"} {
		found := false
		for _, n := range next {
			if n == w {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q in %v", w, next)
		}
	}
	if got := nextWords(nil); !reflect.DeepEqual(got, []string{"config", "login", "logout", "profile", "project", "version"}) {
		t.Fatalf("unexpected top-level words: %v", got)
	}
}

func TestCommandDefsConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range commandDefs {
		if seen[def.Name] {
			t.Fatalf("duplicate command %q", def.Name)
		}
		seen[def.Name] = true
		if def.Run == nil || def.Summary == "" {
			t.Fatalf("incomplete command %q", def.Name)
		}
		if !strings.HasPrefix(def.Doc.Synopsis, "supa "+def.Name) {
			t.Fatalf("synopsis of %q does not start with its name: %q", def.Name, def.Doc.Synopsis)
		}
		if len(def.words()) > 3 {
			t.Fatalf("command %q is nested too deep for lookup", def.Name)
		}
	}
}
