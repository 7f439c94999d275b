package secretcontract

import (
	"strings"
	"testing"
)

func TestValidateNoHardcodedSecrets(t *testing.T) {
	googleWith := func(v any) map[string]any {
		return map[string]any{
			"auth": map[string]any{
				"external": map[string]any{
					"google": map[string]any{"enabled": true, "secret": v},
				},
			},
		}
	}

	t.Run("EnvRefAccepted", func(t *testing.T) {
		got := ValidateNoHardcodedSecrets(googleWith("env(SUPABASE_AUTH_EXTERNAL_GOOGLE_SECRET)"))
		if len(got) != 0 {
			t.Fatalf("expected no violations, got %v", got)
		}
	})

	t.Run("LiteralRejected", func(t *testing.T) {
		got := ValidateNoHardcodedSecrets(googleWith("sk_live_abc123"))
		if len(got) != 1 {
			t.Fatalf("expected one violation, got %v", got)
		}
		for _, want := range []string{
			"auth.external.google.secret",
			"SUPABASE_AUTH_EXTERNAL_GOOGLE_SECRET",
			"supa project env set",
			"supabase/.env",
		} {
			if !strings.Contains(got[0], want) {
				t.Fatalf("expected violation to mention %q: %s", want, got[0])
			}
		}
		if strings.Contains(got[0], "sk_live_abc123") {
			t.Fatalf("violation must not echo the secret value")
		}
	})

	t.Run("EmptyAndNullSkipped", func(t *testing.T) {
		if got := ValidateNoHardcodedSecrets(googleWith("")); len(got) != 0 {
			t.Fatalf("expected none for empty, got %v", got)
		}
		if got := ValidateNoHardcodedSecrets(googleWith(nil)); len(got) != 0 {
			t.Fatalf("expected none for null, got %v", got)
		}
	})

	t.Run("NonStringRejected", func(t *testing.T) {
		if got := ValidateNoHardcodedSecrets(googleWith(12345.0)); len(got) != 1 {
			t.Fatalf("expected one violation, got %v", got)
		}
	})

	t.Run("LowercaseRefRejected", func(t *testing.T) {
		if got := ValidateNoHardcodedSecrets(googleWith("env(google_secret)")); len(got) != 1 {
			t.Fatalf("expected one violation, got %v", got)
		}
	})

	t.Run("IntermediateNotObject", func(t *testing.T) {
		doc := map[string]any{"auth": map[string]any{"external": "oops"}}
		if got := ValidateNoHardcodedSecrets(doc); len(got) != 0 {
			t.Fatalf("expected none, got %v", got)
		}
	})

	t.Run("MultipleViolations", func(t *testing.T) {
		doc := map[string]any{
			"auth": map[string]any{
				"email": map[string]any{"smtp": map[string]any{"pass": "hunter2"}},
			},
			"storage": map[string]any{"s3": map[string]any{"secret_access_key": "abc"}},
		}
		if got := ValidateNoHardcodedSecrets(doc); len(got) != 2 {
			t.Fatalf("expected two violations, got %v", got)
		}
	})

	t.Run("NilDocument", func(t *testing.T) {
		if got := ValidateNoHardcodedSecrets(nil); len(got) != 0 {
			t.Fatalf("expected none, got %v", got)
		}
	})
}

func TestIsSensitiveKey(t *testing.T) {
	cases := map[string]bool{
		"STRIPE_SECRET_KEY":             true,
		"DATABASE_PASSWORD":             true,
		"SMTP_PASS":                     true,
		"GITHUB_TOKEN":                  true,
		"OPENAI_API_KEY":                true,
		"SUPABASE_SERVICE_ROLE_KEY":     true,
		"NEXT_PUBLIC_SUPABASE_ANON_KEY": false,
		"VITE_API_URL":                  false,
		"DEBUG":                         false,
		"SITE_URL":                      false,
		"KEYCLOAK_REALM":                false,
	}
	for key, want := range cases {
		if got := IsSensitiveKey(key); got != want {
			t.Fatalf("IsSensitiveKey(%q): expected %v, got %v", key, want, got)
		}
	}
}
