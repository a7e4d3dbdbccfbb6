package authz

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// NewEnforcer builds the enforcer with the static role policy. The policy is
// fixed per deployment, so it lives in code rather than a store: employees
// file and read their own requests, managers additionally work their team's
// queue, hr and admin see everything.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := [][]string{
		{RoleEmployee, "leave", "create"},
		{RoleEmployee, "leave", "read_own"},
		{RoleEmployee, "leave", "stats"},
		{RoleManager, "leave", "read_team"},
		{RoleManager, "leave", "read_pending"},
		{RoleManager, "leave", "decide"},
		{RoleHR, "leave", "read_all"},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, err
	}

	// Each role inherits everything below it.
	groupings := [][]string{
		{RoleManager, RoleEmployee},
		{RoleHR, RoleManager},
		{RoleAdmin, RoleHR},
	}
	if _, err := e.AddGroupingPolicies(groupings); err != nil {
		return nil, err
	}

	return e, nil
}
