package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthzService_Enforce(t *testing.T) {
	enforcer, err := NewEnforcer()
	assert.NoError(t, err)

	service := NewService(enforcer)

	cases := []struct {
		name     string
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{"employee creates own request", RoleEmployee, "leave", "create", true},
		{"employee reads own history", RoleEmployee, "leave", "read_own", true},
		{"employee reads stats", RoleEmployee, "leave", "stats", true},
		{"employee cannot read team", RoleEmployee, "leave", "read_team", false},
		{"employee cannot decide", RoleEmployee, "leave", "decide", false},
		{"employee cannot read all", RoleEmployee, "leave", "read_all", false},

		{"manager decides", RoleManager, "leave", "decide", true},
		{"manager reads pending", RoleManager, "leave", "read_pending", true},
		{"manager reads team", RoleManager, "leave", "read_team", true},
		{"manager inherits employee grants", RoleManager, "leave", "create", true},
		{"manager cannot read all", RoleManager, "leave", "read_all", false},

		{"hr reads all", RoleHR, "leave", "read_all", true},
		{"hr inherits manager grants", RoleHR, "leave", "decide", true},
		{"hr inherits employee grants", RoleHR, "leave", "read_own", true},

		{"admin inherits the full chain", RoleAdmin, "leave", "read_all", true},
		{"admin decides", RoleAdmin, "leave", "decide", true},

		{"unknown role denied", "contractor", "leave", "create", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := service.Enforce(tc.role, tc.resource, tc.action)
			assert.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestIsPrivileged(t *testing.T) {
	assert.True(t, IsPrivileged(RoleAdmin))
	assert.True(t, IsPrivileged(RoleHR))
	assert.False(t, IsPrivileged(RoleManager))
	assert.False(t, IsPrivileged(RoleEmployee))
	assert.False(t, IsPrivileged(""))
}
