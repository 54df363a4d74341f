package wso2

import (
	"reflect"
	"testing"
)

func TestNormalizeProfile_StripsInternalPrefix(t *testing.T) {
	info := normalizeProfile(userInfoResponse{
		Username: "alice",
		Roles:    []string{"Internal/admin", "Internal/user"},
	})

	if !reflect.DeepEqual(info.Roles, []string{"admin", "user"}) {
		t.Errorf("Roles = %v, want [admin user]", info.Roles)
	}
	if info.Role != "admin" {
		t.Errorf("Role = %q, want %q", info.Role, "admin")
	}
}

func TestNormalizeProfile_PrefixCaseInsensitive(t *testing.T) {
	info := normalizeProfile(userInfoResponse{
		Roles: []string{"internal/yks_admin", "INTERNAL/yks_user"},
	})

	if !reflect.DeepEqual(info.Roles, []string{"yks_admin", "yks_user"}) {
		t.Errorf("Roles = %v, want [yks_admin yks_user]", info.Roles)
	}
}

func TestNormalizeProfile_UnrelatedPrefixUntouched(t *testing.T) {
	info := normalizeProfile(userInfoResponse{
		Roles: []string{"Application/admin", "External/user", "plain"},
	})

	want := []string{"Application/admin", "External/user", "plain"}
	if !reflect.DeepEqual(info.Roles, want) {
		t.Errorf("Roles = %v, want %v", info.Roles, want)
	}
}

func TestNormalizeProfile_EmptyRoles(t *testing.T) {
	for _, roles := range [][]string{nil, {}} {
		info := normalizeProfile(userInfoResponse{Username: "bob", Roles: roles})
		if info.Role != "" {
			t.Errorf("Role = %q, want empty", info.Role)
		}
		if len(info.Roles) != 0 {
			t.Errorf("Roles = %v, want empty", info.Roles)
		}
		if info.Roles == nil {
			t.Error("Roles should be an empty slice, not nil")
		}
	}
}

func TestNormalizeProfile_DuplicatesAndOrderPreserved(t *testing.T) {
	info := normalizeProfile(userInfoResponse{
		Roles: []string{"Internal/user", "Internal/admin", "Internal/user"},
	})

	want := []string{"user", "admin", "user"}
	if !reflect.DeepEqual(info.Roles, want) {
		t.Errorf("Roles = %v, want %v", info.Roles, want)
	}
	if info.Role != "user" {
		t.Errorf("Role = %q, want %q", info.Role, "user")
	}
}

func TestNormalizeProfile_UsernameFallback(t *testing.T) {
	tests := []struct {
		name string
		in   userInfoResponse
		want string
	}{
		{"username wins", userInfoResponse{Username: "alice", PreferredUsername: "alice@x"}, "alice"},
		{"preferred_username fallback", userInfoResponse{PreferredUsername: "alice@x"}, "alice@x"},
		{"both empty", userInfoResponse{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeProfile(tt.in).Username; got != tt.want {
				t.Errorf("Username = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeProfile_NamesAndGroups(t *testing.T) {
	info := normalizeProfile(userInfoResponse{
		Username:   "alice",
		Email:      "a@x.com",
		GivenName:  "Alice",
		FamilyName: "Smith",
		Groups:     []string{"Internal/everyone", "staff"},
	})

	if info.FirstName != "Alice" || info.LastName != "Smith" {
		t.Errorf("names = %q %q, want Alice Smith", info.FirstName, info.LastName)
	}
	// groups are passed through verbatim, no prefix stripping
	want := []string{"Internal/everyone", "staff"}
	if !reflect.DeepEqual(info.Groups, want) {
		t.Errorf("Groups = %v, want %v", info.Groups, want)
	}
}
