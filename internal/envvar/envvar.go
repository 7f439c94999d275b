// Package envvar holds the environment-variable data model shared by the
// local .env layer, the diff engine and the remote stores.
package envvar

import (
	"fmt"
	"regexp"
)

const (
	Development = "development"
	Preview     = "preview"
	Production  = "production"

	DefaultEnvironment = Development
)

// SecretPlaceholder is what gets displayed instead of any secret value.
const SecretPlaceholder = "[secret]"

var (
	reservedEnvironments = []string{Development, Preview, Production}
	environmentNameRe    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type Variable struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Secret bool   `json:"secret"`
}

// DisplayValue returns the value, or SecretPlaceholder for secret variables.
func (v Variable) DisplayValue() string {
	if v.Secret {
		return SecretPlaceholder
	}
	return v.Value
}

type Environment struct {
	Name          string `json:"name"`
	IsDefault     bool   `json:"is_default"`
	CreatedAt     string `json:"created_at,omitempty"`
	VariableCount *int   `json:"variable_count,omitempty"`
}

// ReservedEnvironments returns the built-in environment names.
func ReservedEnvironments() []string {
	out := make([]string, len(reservedEnvironments))
	copy(out, reservedEnvironments)
	return out
}

func IsReserved(name string) bool {
	for _, r := range reservedEnvironments {
		if r == name {
			return true
		}
	}
	return false
}

// ValidateCustomName checks a name for a user-created environment.
func ValidateCustomName(name string) error {
	if !environmentNameRe.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: use letters, digits, hyphens and underscores only", name)
	}
	if IsReserved(name) {
		return fmt.Errorf("environment %q is reserved", name)
	}
	return nil
}

// Index maps keys to variables. Later duplicates win.
func Index(vars []Variable) map[string]Variable {
	out := make(map[string]Variable, len(vars))
	for _, v := range vars {
		out[v.Key] = v
	}
	return out
}

// Keys returns keys in input order, duplicates removed.
func Keys(vars []Variable) []string {
	seen := make(map[string]struct{}, len(vars))
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if _, ok := seen[v.Key]; ok {
			continue
		}
		seen[v.Key] = struct{}{}
		out = append(out, v.Key)
	}
	return out
}

// Partition splits vars into non-secret and secret sets, preserving order.
func Partition(vars []Variable) (plain, secret []Variable) {
	for _, v := range vars {
		if v.Secret {
			secret = append(secret, v)
			continue
		}
		plain = append(plain, v)
	}
	return plain, secret
}
