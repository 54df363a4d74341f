// Package introspect provides local structural decoding of bearer tokens.
//
// Nothing here verifies a signature or talks to the network: the decoded
// claims are a cheap liveness and routing hint, not an authentication
// decision. The JWKS verifier remains the sole gate for protected requests.
package introspect

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RolesClaim is the claim name the upstream authority embeds role values
// under, independent of whatever role claim the bearer-validation layer is
// configured to read.
const RolesClaim = "roles"

// Decode parses the structured claims of a token without verifying it.
// ok is false for anything that does not parse as a JWT.
func Decode(token string) (claims jwt.MapClaims, ok bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	claims, ok = parsed.Claims.(jwt.MapClaims)
	return claims, ok
}

// Roles returns the string values under the upstream roles claim, order
// preserved, duplicates kept. A missing or malformed claim yields nil.
func Roles(claims jwt.MapClaims) []string {
	raw, ok := claims[RolesClaim].([]any)
	if !ok {
		return nil
	}
	var roles []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// Expired reports whether the embedded expiry is absent, unreadable, or at
// or before now.
func Expired(claims jwt.MapClaims, now time.Time) bool {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.Time.After(now)
}
