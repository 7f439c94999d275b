// Package secretcontract lists the config paths that must never hold literal
// credentials and checks a loaded config document against that list.
package secretcontract

import (
	"fmt"
	"strings"

	"github.com/bsmartlabs/supa/internal/canonical"
)

var sensitiveFields = []string{
	"auth.external.apple.secret",
	"auth.external.azure.secret",
	"auth.external.bitbucket.secret",
	"auth.external.discord.secret",
	"auth.external.facebook.secret",
	"auth.external.figma.secret",
	"auth.external.github.secret",
	"auth.external.gitlab.secret",
	"auth.external.google.secret",
	"auth.external.kakao.secret",
	"auth.external.keycloak.secret",
	"auth.external.linkedin_oidc.secret",
	"auth.external.notion.secret",
	"auth.external.slack.secret",
	"auth.external.spotify.secret",
	"auth.external.twitch.secret",
	"auth.external.twitter.secret",
	"auth.external.workos.secret",
	"auth.external.zoom.secret",

	"auth.email.smtp.pass",

	"storage.s3.access_key_id",
	"storage.s3.secret_access_key",
}

// ValidateNoHardcodedSecrets returns one message per registered path that holds
// a literal value instead of an env(...) reference. doc is never modified.
func ValidateNoHardcodedSecrets(doc map[string]any) []string {
	var violations []string
	for _, fieldPath := range sensitiveFields {
		value, ok := lookupPath(doc, fieldPath)
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString {
			if s == "" || canonical.IsEnvRef(s) {
				continue
			}
		}
		violations = append(violations, violationMessage(fieldPath))
	}
	return violations
}

func violationMessage(fieldPath string) string {
	name := canonical.Name(fieldPath)
	command := fmt.Sprintf(`supa project env set %s "your-value" --environment development --secret`, name)
	return fmt.Sprintf(
		"%s is a sensitive field and cannot be hardcoded in config.json.\n\n"+
			"Set it with:\n  %s\n\n"+
			"Or add it to supabase/.env for local development:\n  %s=your-value",
		fieldPath, command, name,
	)
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
