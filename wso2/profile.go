package wso2

import (
	"strings"

	catalog "github.com/bimdevops/catalog-api"
)

// internalRolePrefix is the role namespace WSO2 prepends to internal roles.
// Only this literal prefix is stripped; other namespaces pass through.
const internalRolePrefix = "Internal/"

// userInfoResponse is the raw JSON shape of the upstream userinfo endpoint.
type userInfoResponse struct {
	Sub               string   `json:"sub"`
	Username          string   `json:"username"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	EmailVerified     bool     `json:"email_verified"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	Name              string   `json:"name"`
	Roles             []string `json:"roles"`
	Groups            []string `json:"groups"`
}

// normalizeProfile converts the upstream claim layout into the canonical
// identity. Role order and duplicates are preserved; groups pass through
// verbatim.
func normalizeProfile(u userInfoResponse) catalog.UserInfo {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, stripInternalPrefix(r))
	}

	primary := ""
	if len(roles) > 0 {
		primary = roles[0]
	}

	username := u.Username
	if username == "" {
		username = u.PreferredUsername
	}

	groups := u.Groups
	if groups == nil {
		groups = []string{}
	}

	return catalog.UserInfo{
		Username:  username,
		Email:     u.Email,
		FirstName: u.GivenName,
		LastName:  u.FamilyName,
		Role:      primary,
		Roles:     roles,
		Groups:    groups,
	}
}

// stripInternalPrefix removes a leading Internal/ namespace, case-insensitive.
func stripInternalPrefix(role string) string {
	if len(role) >= len(internalRolePrefix) &&
		strings.EqualFold(role[:len(internalRolePrefix)], internalRolePrefix) {
		return role[len(internalRolePrefix):]
	}
	return role
}
