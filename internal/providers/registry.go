// Package providers maps OAuth provider settings between the structured
// auth.external.<provider> config and the flat external_<provider>_* keys of
// the management API.
package providers

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/bsmartlabs/supa/internal/canonical"
	"github.com/bsmartlabs/supa/internal/similar"
)

//go:embed config.schema.json
var defaultSchema []byte

type Category string

const (
	CategoryPopular    Category = "popular"
	CategorySocial     Category = "social"
	CategoryEnterprise Category = "enterprise"
)

var (
	popularKeys    = []string{"google", "github", "apple"}
	enterpriseKeys = []string{"azure", "gitlab", "keycloak", "workos", "bitbucket"}
	urlKeys        = []string{"azure", "gitlab", "keycloak", "workos"}

	displayNames = map[string]string{
		"azure":         "Azure AD",
		"gitlab":        "GitLab",
		"github":        "GitHub",
		"linkedin":      "LinkedIn",
		"linkedin_oidc": "LinkedIn",
		"workos":        "WorkOS",
	}
	aliases = map[string][]string{
		"azure":         {"azuread", "microsoft"},
		"linkedin_oidc": {"linkedin"},
		"twitter":       {"x"},
	}
)

type Definition struct {
	Key                 string   `json:"key"`
	DisplayName         string   `json:"displayName"`
	APIPrefix           string   `json:"apiPrefix"`
	Category            Category `json:"category"`
	HasURL              bool     `json:"hasUrl"`
	RequiresCredentials bool     `json:"requiresCredentials"`
	Aliases             []string `json:"aliases,omitempty"`
}

// SecretEnvVar is the variable that holds this provider's client secret.
func (d Definition) SecretEnvVar() string {
	return canonical.Name(d.ConfigPath("secret"))
}

// ConfigPath returns the dotted config.json path of field for this provider.
func (d Definition) ConfigPath(field string) string {
	return "auth.external." + d.Key + "." + field
}

// Registry is an immutable set of provider definitions.
type Registry struct {
	defs     []Definition
	fallback bool
}

func NewRegistry(defs []Definition) *Registry {
	out := make([]Definition, len(defs))
	copy(out, defs)
	return &Registry{defs: out}
}

type schemaDoc struct {
	Properties struct {
		Auth struct {
			Properties struct {
				External struct {
					Properties map[string]any `yaml:"properties"`
				} `yaml:"external"`
			} `yaml:"properties"`
		} `yaml:"auth"`
	} `yaml:"properties"`
}

// LoadRegistry builds a registry from the auth.external section of a config
// schema document, JSON or YAML.
func LoadRegistry(schema []byte) (*Registry, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(schema, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	external := doc.Properties.Auth.Properties.External.Properties
	if len(external) == 0 {
		return nil, errors.New("schema has no auth.external providers")
	}

	keys := make([]string, 0, len(external))
	for k := range external {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, errors.New("schema has no named auth.external providers")
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := categoryRank(keys[i]), categoryRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	defs := make([]Definition, 0, len(keys))
	for _, k := range keys {
		defs = append(defs, newDefinition(k))
	}
	return &Registry{defs: defs}, nil
}

// Default loads the bundled schema, or extra when non-nil. On failure it logs
// a warning and returns the google/github/apple fallback set.
func Default(extra []byte, log *slog.Logger) *Registry {
	schema := defaultSchema
	if extra != nil {
		schema = extra
	}
	reg, err := LoadRegistry(schema)
	if err == nil {
		return reg
	}
	if log != nil {
		log.Warn("could not load providers from schema; using fallback set", "error", err)
	}
	return Fallback()
}

func Fallback() *Registry {
	return &Registry{
		defs: []Definition{
			{Key: "google", DisplayName: "Google", APIPrefix: "google", Category: CategoryPopular, RequiresCredentials: true},
			{Key: "github", DisplayName: "GitHub", APIPrefix: "github", Category: CategoryPopular, RequiresCredentials: true},
			{Key: "apple", DisplayName: "Apple", APIPrefix: "apple", Category: CategoryPopular, RequiresCredentials: true},
		},
		fallback: true,
	}
}

func newDefinition(key string) Definition {
	display, ok := displayNames[key]
	if !ok {
		display = titleCase(key)
	}
	category := CategorySocial
	switch {
	case contains(popularKeys, key):
		category = CategoryPopular
	case contains(enterpriseKeys, key):
		category = CategoryEnterprise
	}
	return Definition{
		Key:                 key,
		DisplayName:         display,
		APIPrefix:           key,
		Category:            category,
		HasURL:              contains(urlKeys, key),
		RequiresCredentials: true,
		Aliases:             aliases[key],
	}
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func categoryRank(key string) int {
	switch {
	case contains(popularKeys, key):
		return 0
	case contains(enterpriseKeys, key):
		return 2
	default:
		return 1
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// All returns the definitions: popular, then social, then enterprise.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

func (r *Registry) IsFallback() bool { return r.fallback }

func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Key)
	}
	return out
}

// Find matches input case-insensitively against key, API prefix and aliases.
func (r *Registry) Find(input string) (Definition, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, d := range r.defs {
		if d.Key == normalized || d.APIPrefix == normalized || contains(d.Aliases, normalized) {
			return d, true
		}
	}
	return Definition{}, false
}

// Suggest returns near matches for an unknown provider name.
func (r *Registry) Suggest(input string) []string {
	return similar.Find(input, r.Keys())
}
