package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsmartlabs/supa/internal/fsx"
)

const (
	DirName           = "supabase"
	FileName          = "config.json"
	DefaultConfigName = DirName + "/" + FileName
	DefaultSchemaRef  = "https://supabase.com/schemas/config.schema.json"

	ModeLocal  = "local"
	ModeRemote = "remote"

	WorkflowDashboard = "dashboard"
	WorkflowGit       = "git"

	EnvStorePlatform = "platform"
	EnvStoreScaleway = "scaleway"
)

// ErrNotFound is returned when no supabase/config.json exists from the start
// directory upward.
var ErrNotFound = errors.New("no supabase/config.json found")

var (
	absFn       = filepath.Abs
	relFn       = filepath.Rel
	statFileFn  = os.Stat
	readFileFn  = os.ReadFile
	writeJSONFn = fsx.WriteJSON
)

type Profile struct {
	Mode      string   `json:"mode"`
	Workflow  string   `json:"workflow,omitempty"`
	Branches  []string `json:"branches"`
	ProjectID string   `json:"project_id,omitempty"`
}

type EnvStoreConfig struct {
	Provider       string `json:"provider"`
	Region         string `json:"region,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	Profile        string `json:"profile,omitempty"`
}

// ProjectConfig mirrors supabase/config.json. Top-level keys it does not model
// are kept in Extra and written back unchanged.
type ProjectConfig struct {
	Schema         string          `json:"$schema,omitempty"`
	ProjectID      string          `json:"project_id"`
	API            map[string]any  `json:"api,omitempty"`
	Auth           map[string]any  `json:"auth,omitempty"`
	Storage        map[string]any  `json:"storage,omitempty"`
	Profiles       Profiles        `json:"profiles"`
	DefaultProfile string          `json:"default_profile,omitempty"`
	EnvStore       *EnvStoreConfig `json:"env_store,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type Loaded struct {
	Path     string
	Root     string
	Cfg      ProjectConfig
	Warnings []string
}

// FindConfigPath walks from startDir to the filesystem root looking for
// supabase/config.json.
func FindConfigPath(startDir string) (string, error) {
	if startDir == "" {
		return "", errors.New("startDir is empty")
	}

	dir, err := absFn(startDir)
	if err != nil {
		return "", fmt.Errorf("abs startDir: %w", err)
	}

	for {
		candidate := filepath.Join(dir, DirName, FileName)
		if info, err := statFileFn(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w (searched upward from %s)", ErrNotFound, startDir)
}

func Load(startDir, explicitPath string) (*Loaded, error) {
	if startDir == "" {
		return nil, errors.New("startDir is empty")
	}

	var path string
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			path = explicitPath
		} else {
			path = filepath.Join(startDir, explicitPath)
		}
	} else {
		found, err := FindConfigPath(startDir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	absPath, err := absFn(path)
	if err != nil {
		return nil, fmt.Errorf("abs config path: %w", err)
	}

	raw, err := readFileFn(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, absPath)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config json: %w", err)
	}

	warnings, err := cfg.normalizeAndValidate()
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", absPath, err)
	}

	return &Loaded{
		Path:     absPath,
		Root:     projectRoot(absPath),
		Cfg:      cfg,
		Warnings: warnings,
	}, nil
}

// Save writes the config back to the path it was loaded from.
func Save(loaded *Loaded) error {
	if loaded == nil || loaded.Path == "" {
		return errors.New("config has no path")
	}
	if _, err := loaded.Cfg.normalizeAndValidate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	if err := writeJSONFn(loaded.Path, &loaded.Cfg, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// projectRoot is the directory containing supabase/, or the config's own
// directory when the file lives elsewhere.
func projectRoot(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == DirName {
		return filepath.Dir(dir)
	}
	return dir
}

func (c *ProjectConfig) normalizeAndValidate() ([]string, error) {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	if len(c.Profiles) == 0 {
		return nil, errors.New("profiles is empty")
	}

	var warnings []string
	seen := make(map[string]struct{}, len(c.Profiles))
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("profile with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}

		switch p.Mode {
		case ModeLocal, ModeRemote:
		case "":
			return nil, fmt.Errorf("profile %q: missing required field: mode", p.Name)
		default:
			return nil, fmt.Errorf("profile %q: invalid mode %q (want local|remote)", p.Name, p.Mode)
		}

		p.ProjectID = strings.TrimSpace(p.ProjectID)
		for _, pattern := range p.Branches {
			if strings.TrimSpace(pattern) == "" {
				return nil, fmt.Errorf("profile %q: empty branch pattern", p.Name)
			}
		}
		if len(p.Branches) == 0 {
			warnings = append(warnings, fmt.Sprintf("profile %q has no branch patterns; select it with --profile", p.Name))
		}
	}

	if c.DefaultProfile != "" {
		if _, ok := seen[c.DefaultProfile]; !ok {
			return nil, fmt.Errorf("default_profile %q is not a declared profile", c.DefaultProfile)
		}
	}

	if c.EnvStore != nil {
		if c.EnvStore.Provider == "" {
			c.EnvStore.Provider = EnvStorePlatform
		}
		switch c.EnvStore.Provider {
		case EnvStorePlatform:
		case EnvStoreScaleway:
			if strings.TrimSpace(c.EnvStore.Region) == "" {
				return nil, errors.New("env_store: missing required field: region")
			}
			if strings.TrimSpace(c.EnvStore.ProjectID) == "" {
				return nil, errors.New("env_store: missing required field: project_id")
			}
		default:
			return nil, fmt.Errorf("env_store: invalid provider %q", c.EnvStore.Provider)
		}
	}

	return warnings, nil
}

// EnvStoreProvider returns the configured backend, platform when unset.
func (c ProjectConfig) EnvStoreProvider() string {
	if c.EnvStore == nil || c.EnvStore.Provider == "" {
		return EnvStorePlatform
	}
	return c.EnvStore.Provider
}

// ProjectRef returns the ref for profile: its own project_id when set,
// otherwise the top-level one.
func (c ProjectConfig) ProjectRef(profile *NamedProfile) string {
	if profile != nil && profile.ProjectID != "" {
		return profile.ProjectID
	}
	return c.ProjectID
}

// Document returns the config as a generic JSON object, the shape the
// sensitive-field policy walks.
func (c ProjectConfig) Document() (map[string]any, error) {
	raw, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode config document: %w", err)
	}
	return doc, nil
}

// ResolveFile joins rel onto rootDir and refuses paths that escape it.
func ResolveFile(rootDir string, rel string) (string, error) {
	if rootDir == "" {
		return "", errors.New("rootDir is empty")
	}
	if rel == "" {
		return "", errors.New("relative path is empty")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative: %q", rel)
	}

	absRoot, err := absFn(rootDir)
	if err != nil {
		return "", fmt.Errorf("abs rootDir: %w", err)
	}

	absPath, err := absFn(filepath.Join(absRoot, rel))
	if err != nil {
		return "", fmt.Errorf("abs joined path: %w", err)
	}

	relToRoot, err := relFn(absRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("rel path: %w", err)
	}

	if relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root: %q", rel)
	}

	return absPath, nil
}
