package providers

import (
	"fmt"
	"strings"
)

const maskBullet = "●"

// Config is one provider's settings. A nil field is absent and is left out
// of payloads.
type Config struct {
	Enabled        *bool   `json:"enabled,omitempty"`
	ClientID       *string `json:"client_id,omitempty"`
	Secret         *string `json:"secret,omitempty"`
	RedirectURI    *string `json:"redirect_uri,omitempty"`
	URL            *string `json:"url,omitempty"`
	SkipNonceCheck *bool   `json:"skip_nonce_check,omitempty"`
}

func Bool(v bool) *bool       { return &v }
func String(v string) *string { return &v }

func (d Definition) prefix() string {
	return "external_" + d.APIPrefix
}

// FlatKey returns the management API key for field, e.g. external_github_enabled.
func (d Definition) FlatKey(field string) string {
	return d.prefix() + "_" + field
}

// BuildPayload emits the flat keys for the fields present in cfg. The url key
// is dropped for providers that do not take a custom URL.
func BuildPayload(d Definition, cfg Config) map[string]any {
	out := make(map[string]any)
	if cfg.Enabled != nil {
		out[d.FlatKey("enabled")] = *cfg.Enabled
	}
	if cfg.ClientID != nil {
		out[d.FlatKey("client_id")] = *cfg.ClientID
	}
	if cfg.Secret != nil {
		out[d.FlatKey("secret")] = *cfg.Secret
	}
	if cfg.RedirectURI != nil {
		out[d.FlatKey("redirect_uri")] = *cfg.RedirectURI
	}
	if cfg.URL != nil && d.HasURL {
		out[d.FlatKey("url")] = *cfg.URL
	}
	if cfg.SkipNonceCheck != nil {
		out[d.FlatKey("skip_nonce_check")] = *cfg.SkipNonceCheck
	}
	return out
}

// ParseFromRemote rebuilds a provider's config from the flat auth config.
// It returns nil when the provider is neither enabled nor has a client id.
func ParseFromRemote(d Definition, remote map[string]any) *Config {
	enabled := remote[d.FlatKey("enabled")] == true
	clientID := remote[d.FlatKey("client_id")]
	if !enabled && !truthy(clientID) {
		return nil
	}

	cfg := &Config{Enabled: Bool(enabled)}
	if truthy(clientID) {
		cfg.ClientID = String(stringify(clientID))
	}
	if v := remote[d.FlatKey("secret")]; truthy(v) {
		cfg.Secret = String(stringify(v))
	}
	if v := remote[d.FlatKey("redirect_uri")]; truthy(v) {
		cfg.RedirectURI = String(stringify(v))
	}
	if v := remote[d.FlatKey("url")]; d.HasURL && truthy(v) {
		cfg.URL = String(stringify(v))
	}
	if v, ok := remote[d.FlatKey("skip_nonce_check")]; ok {
		cfg.SkipNonceCheck = Bool(truthy(v))
	}
	return cfg
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// MaskSecret hides a secret for display. Up to 8 characters become bullets
// of the same count; longer values keep their first and last 4 characters
// around at most 16 bullets.
func MaskSecret(secret string) string {
	r := []rune(secret)
	if len(r) <= 8 {
		return strings.Repeat(maskBullet, len(r))
	}
	middle := min(len(r)-8, 16)
	return string(r[:4]) + strings.Repeat(maskBullet, middle) + string(r[len(r)-4:])
}

// CallbackURL is the OAuth redirect target for a hosted project.
func CallbackURL(projectRef string) string {
	return "https://" + projectRef + ".supabase.co/auth/v1/callback"
}
