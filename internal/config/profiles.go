package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type NamedProfile struct {
	Name string
	Profile
}

// Profiles is the "profiles" object of config.json. It keeps declaration
// order, which decides branch-match precedence.
type Profiles []NamedProfile

func (p Profiles) Find(name string) (*NamedProfile, bool) {
	for i := range p {
		if p[i].Name == name {
			return &p[i], true
		}
	}
	return nil, false
}

func (p Profiles) Names() []string {
	out := make([]string, 0, len(p))
	for _, np := range p {
		out = append(out, np.Name)
	}
	return out
}

func (p *Profiles) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("profiles must be an object")
	}

	var out Profiles
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected profiles key %v", keyTok)
		}
		var prof Profile
		if err := dec.Decode(&prof); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		out = append(out, NamedProfile{Name: name, Profile: prof})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p Profiles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, np := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(np.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(np.Profile)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type projectConfigAlias ProjectConfig

var knownTopLevelKeys = map[string]struct{}{
	"$schema":         {},
	"project_id":      {},
	"api":             {},
	"auth":            {},
	"storage":         {},
	"profiles":        {},
	"default_profile": {},
	"env_store":       {},
}

func (c *ProjectConfig) UnmarshalJSON(data []byte) error {
	var alias projectConfigAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range knownTopLevelKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		alias.Extra = all
	}
	*c = ProjectConfig(alias)
	return nil
}

// MarshalJSON writes the known fields in declaration order, then the unknown
// keys kept from loading, sorted.
func (c ProjectConfig) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(projectConfigAlias(c))
	if err != nil {
		return nil, err
	}
	extra := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		if _, clash := knownTopLevelKeys[k]; !clash {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return known, nil
	}
	sort.Strings(extra)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for _, k := range extra {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(c.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
