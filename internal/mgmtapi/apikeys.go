package mgmtapi

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	KeyTypeLegacy      = "legacy"
	KeyTypePublishable = "publishable"
	KeyTypeSecret      = "secret"
)

type APIKey struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	Description string `json:"description,omitempty"`
}

// GetProjectAPIKeys lists a project's keys. Without reveal the API returns
// secret keys redacted.
func (c *Client) GetProjectAPIKeys(ctx context.Context, ref string, reveal bool) ([]APIKey, error) {
	path := projectPath(ref, "/api-keys")
	if reveal {
		path += "?reveal=true"
	}
	var out []APIKey
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MaskAPIKey shortens keys longer than 24 characters to the first 20 and
// last 4. Empty keys display as "-".
func MaskAPIKey(key string, reveal bool) string {
	if key == "" {
		return "-"
	}
	if reveal || len(key) <= 24 {
		return key
	}
	return key[:20] + "..." + key[len(key)-4:]
}

// LegacyClaims is what a legacy JWT key says about itself. Nothing here is
// verified; it is for display only.
type LegacyClaims struct {
	Role      string     `json:"role,omitempty"`
	Ref       string     `json:"ref,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// DecodeLegacyKey reads the claims of a JWT-shaped key without verifying its
// signature. ok is false for keys that are not JWTs.
func DecodeLegacyKey(key string) (LegacyClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return LegacyClaims{}, false
	}
	var out LegacyClaims
	out.Role, _ = claims["role"].(string)
	out.Ref, _ = claims["ref"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time.UTC()
		out.ExpiresAt = &t
	}
	return out, true
}
