// Package ginmw provides the Gin middleware chain for authentication and
// role-based access control: bearer verification, role-claim bridging, and
// per-route role enforcement.
package ginmw

import (
	"net/http"
	"strings"

	catalog "github.com/bimdevops/catalog-api"
	"github.com/bimdevops/catalog-api/introspect"
	"github.com/gin-gonic/gin"
)

// Context keys for auth data stored in gin.Context.
const (
	KeyClaims       = "auth_claims"
	KeyUsername     = "auth_username"
	KeyBridgedRoles = "auth_bridged_roles"
)

// Auth returns middleware that verifies the bearer token on every request.
// On success the claims are stored in both the gin context and the request
// context. Responds 401 if the token is missing or fails verification.
func Auth(verifier catalog.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearerToken(c.Request)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing authorization token"})
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(KeyClaims, claims)
		c.Set(KeyUsername, claims.Username)
		c.Request = c.Request.WithContext(catalog.WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// RoleBridge returns middleware that reconciles the upstream authority's
// role-claim layout with the verifier's: every value found under the raw
// token's "roles" claim is added to the request's bridged-role set, in
// addition to whatever the verifier extracted from its configured claim.
//
// The bridge only augments. No token, an undecodable token, or a token
// without a roles claim all pass through unchanged; rejecting requests is
// the verifier's job, never this one's.
func RoleBridge() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearerToken(c.Request)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, ok := introspect.Decode(tokenStr)
		if !ok {
			c.Next()
			return
		}

		if roles := introspect.Roles(claims); len(roles) > 0 {
			c.Set(KeyBridgedRoles, roles)
			c.Request = c.Request.WithContext(catalog.WithBridgedRoles(c.Request.Context(), roles))
		}

		c.Next()
	}
}

// RequireAnyRole returns middleware enforcing a closed allow-list: the
// request proceeds if the identity carries at least one of the given roles,
// taken from the union of verified claim roles and bridged roles.
// Responds 401 without an authenticated identity, 403 without a match.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if GetClaims(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		for _, role := range catalog.EffectiveRoles(c.Request.Context()) {
			if allowed[role] {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
	}
}

// --- Context helpers ---

// GetClaims returns the verified claims from the Gin context, or nil.
func GetClaims(c *gin.Context) *catalog.Claims {
	v, _ := c.Get(KeyClaims)
	cl, _ := v.(*catalog.Claims)
	return cl
}

// GetUsername returns the authenticated username from the Gin context.
func GetUsername(c *gin.Context) string {
	v, _ := c.Get(KeyUsername)
	s, _ := v.(string)
	return s
}

// GetBridgedRoles returns the roles lifted from the raw token, or nil.
func GetBridgedRoles(c *gin.Context) []string {
	v, _ := c.Get(KeyBridgedRoles)
	r, _ := v.([]string)
	return r
}

// --- internal helpers ---

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
