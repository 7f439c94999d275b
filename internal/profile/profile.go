// Package profile selects the profile that applies to an invocation.
package profile

import (
	"errors"
	"fmt"

	"github.com/bsmartlabs/supa/internal/config"
	"github.com/bsmartlabs/supa/internal/similar"
)

// DefaultBranch is used when the working copy's branch cannot be determined.
const DefaultBranch = "main"

var ErrProfileNotFound = errors.New("profile not found")

type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("profile %q not found in config", e.Name)
	if hint := similar.Hint(e.Suggestions); hint != "" {
		msg += ". " + hint
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrProfileNotFound
}

// Source records how a profile was selected.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceBranch   Source = "branch"
	SourceDefault  Source = "default"
	SourceNone     Source = "none"
)

type Resolution struct {
	Profile *config.NamedProfile
	Source  Source
	// Pattern is the branch pattern that matched, for SourceBranch.
	Pattern string
}

// Resolve picks the profile for branch. An explicit name must exist. Otherwise
// the first profile, in declaration order, with a matching branch pattern
// wins, then the config's default_profile. A nil Profile with no error means
// nothing applied.
func Resolve(cfg config.ProjectConfig, explicit, branch string) (Resolution, error) {
	if explicit != "" {
		p, ok := cfg.Profiles.Find(explicit)
		if !ok {
			return Resolution{}, &NotFoundError{
				Name:        explicit,
				Suggestions: similar.Find(explicit, cfg.Profiles.Names()),
			}
		}
		return Resolution{Profile: p, Source: SourceExplicit}, nil
	}

	if branch == "" {
		branch = DefaultBranch
	}
	for i := range cfg.Profiles {
		for _, pattern := range cfg.Profiles[i].Branches {
			if MatchBranch(pattern, branch) {
				return Resolution{Profile: &cfg.Profiles[i], Source: SourceBranch, Pattern: pattern}, nil
			}
		}
	}

	if cfg.DefaultProfile != "" {
		if p, ok := cfg.Profiles.Find(cfg.DefaultProfile); ok {
			return Resolution{Profile: p, Source: SourceDefault}, nil
		}
	}
	return Resolution{Source: SourceNone}, nil
}
