// Package canonical maps dotted config paths to SUPABASE_* environment variable names
// and recognises env(NAME) references.
package canonical

import (
	"regexp"
	"strings"
)

const Prefix = "SUPABASE_"

var (
	nonIdentChar = regexp.MustCompile(`[^A-Za-z0-9_]`)
	envRefRe     = regexp.MustCompile(`^env\(([A-Z_][A-Z0-9_]*)\)$`)
)

// Name converts a config path such as "auth.external.google.secret" to
// "SUPABASE_AUTH_EXTERNAL_GOOGLE_SECRET".
func Name(configPath string) string {
	normalized := strings.ReplaceAll(configPath, ".", "_")
	normalized = nonIdentChar.ReplaceAllString(normalized, "_")
	return Prefix + strings.ToUpper(normalized)
}

// IsEnvRef reports whether value is exactly env(UPPER_SNAKE_IDENTIFIER).
func IsEnvRef(value string) bool {
	_, ok := ExtractEnvRef(value)
	return ok
}

// ExtractEnvRef returns the referenced variable name.
func ExtractEnvRef(value string) (string, bool) {
	m := envRefRe.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EnvRef renders the env(NAME) reference for name.
func EnvRef(name string) string {
	return "env(" + name + ")"
}
