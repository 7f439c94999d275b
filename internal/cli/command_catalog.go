package cli

import (
	"sort"
	"strings"
)

type commandFlagKind int

const (
	commandFlagBool commandFlagKind = iota + 1
	commandFlagString
)

type commandFlagDef struct {
	Name      string
	Kind      commandFlagKind
	ValueName string
	Default   string
	Help      string
}

type commandDoc struct {
	Synopsis    string
	Description []string
	Notes       []string
	Examples    []string
}

type commandDef struct {
	// Name is the full command path, e.g. "project env pull".
	Name string
	// Aliases are alternative spellings of the last word of Name.
	Aliases []string
	Summary string
	Flags   []commandFlagDef
	Doc     commandDoc
	Run     func(*commandRuntime) error
}

var commandDefs = []commandDef{
	versionCommandDef,
	loginCommandDef,
	logoutCommandDef,
	profileCommandDef,
	configValidateCommandDef,
	apiKeysCommandDef,
	authProviderListCommandDef,
	authProviderAddCommandDef,
	authProviderEnableCommandDef,
	authProviderDisableCommandDef,
	configPullCommandDef,
	envPullCommandDef,
	envPushCommandDef,
	envSetCommandDef,
	envUnsetCommandDef,
	envListCommandDef,
	envListEnvironmentsCommandDef,
	envCreateCommandDef,
	envDeleteCommandDef,
	envSeedCommandDef,
}

// groupAliases maps an alternative group word to its canonical one, keyed by
// the words before it.
var groupAliases = map[string]map[string]string{
	"project": {"auth": "auth-provider"},
}

func (def commandDef) words() []string {
	return strings.Fields(def.Name)
}

func (def commandDef) matches(words []string) bool {
	name := def.words()
	if len(words) != len(name) {
		return false
	}
	last := len(name) - 1
	for i := 0; i < last; i++ {
		if words[i] != name[i] {
			return false
		}
	}
	if words[last] == name[last] {
		return true
	}
	for _, alias := range def.Aliases {
		if words[last] == alias {
			return true
		}
	}
	return false
}

// normalizeWords returns the leading non-flag words of args with group
// aliases replaced.
func normalizeWords(args []string) []string {
	var out []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			break
		}
		if aliases, ok := groupAliases[strings.Join(out, " ")]; ok {
			if canonical, ok := aliases[a]; ok {
				a = canonical
			}
		}
		out = append(out, a)
	}
	return out
}

// lookupCommand finds the longest command name matching the start of args and
// returns it with the remaining arguments.
func lookupCommand(args []string) (commandDef, []string, bool) {
	words := normalizeWords(args)
	for n := min(len(words), 3); n > 0; n-- {
		for _, def := range commandDefs {
			if def.matches(words[:n]) {
				return def, args[n:], true
			}
		}
	}
	return commandDef{}, nil, false
}

func isGroup(words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, def := range commandDefs {
		name := def.words()
		if len(name) > len(words) && strings.Join(name[:len(words)], " ") == strings.Join(words, " ") {
			return true
		}
	}
	return false
}

func longestGroupPrefix(words []string) []string {
	for n := len(words); n > 0; n-- {
		if isGroup(words[:n]) {
			return words[:n]
		}
	}
	return nil
}

// nextWords lists the words that may follow prefix, aliases included.
func nextWords(prefix []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(w string) {
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	for _, def := range commandDefs {
		name := def.words()
		if len(name) <= len(prefix) || strings.Join(name[:len(prefix)], " ") != strings.Join(prefix, " ") {
			continue
		}
		add(name[len(prefix)])
		if len(name) == len(prefix)+1 {
			for _, alias := range def.Aliases {
				add(alias)
			}
		}
	}
	sort.Strings(out)
	return out
}

// commandsUnder returns the commands whose name starts with group.
func commandsUnder(group string) []commandDef {
	var out []commandDef
	for _, def := range commandDefs {
		if strings.HasPrefix(def.Name, group+" ") {
			out = append(out, def)
		}
	}
	return out
}

func takesValueMap(def commandDef) map[string]bool {
	spec := make(map[string]bool, len(def.Flags))
	for _, flagDef := range def.Flags {
		spec[flagDef.Name] = flagDef.Kind != commandFlagBool
	}
	return spec
}
