package catalog

import "context"

type ctxKey string

const (
	ctxKeyClaims       ctxKey = "catalog_claims"
	ctxKeyBridgedRoles ctxKey = "catalog_bridged_roles"
)

// WithClaims stores verified token claims in the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// ClaimsFromContext extracts verified token claims from the context.
func ClaimsFromContext(ctx context.Context) *Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return v
}

// WithBridgedRoles stores role values lifted from the raw token by the role
// bridge. Kept separate from verified claims so the two never shadow each
// other.
func WithBridgedRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ctxKeyBridgedRoles, roles)
}

// BridgedRolesFromContext extracts bridged role values from the context.
func BridgedRolesFromContext(ctx context.Context) []string {
	v, _ := ctx.Value(ctxKeyBridgedRoles).([]string)
	return v
}

// EffectiveRoles returns the union of verified claim roles and bridged
// roles, in that order. Duplicates are preserved as encountered.
func EffectiveRoles(ctx context.Context) []string {
	var roles []string
	if claims := ClaimsFromContext(ctx); claims != nil {
		roles = append(roles, claims.Roles...)
	}
	return append(roles, BridgedRolesFromContext(ctx)...)
}
