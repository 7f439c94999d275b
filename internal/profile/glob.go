package profile

import (
	"regexp"
	"strings"
)

// CompileGlob turns a branch pattern into an anchored regexp. "*" matches any
// run of characters other than "/"; everything else matches literally.
func CompileGlob(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, "[^/]*") + "$")
}

func MatchBranch(pattern, branch string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == branch
	}
	return CompileGlob(pattern).MatchString(branch)
}
