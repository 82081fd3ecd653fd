// Package authz decides which back-office routes an admin role may use.
package authz

import (
	"fmt"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Staff run the front desk; managers also own the room catalogue and may
// move bookings.
var defaultPolicies = [][]string{
	{model.AdminRoleStaff, "/admin", "GET"},
	{model.AdminRoleStaff, "/admin/logout", "POST"},
	{model.AdminRoleStaff, "/admin/rooms", "GET"},
	{model.AdminRoleStaff, "/admin/bookings", "GET"},
	{model.AdminRoleStaff, "/admin/bookings/:id", "GET"},
	{model.AdminRoleStaff, "/admin/bookings/:id/approve", "POST"},
	{model.AdminRoleStaff, "/admin/bookings/:id/reject", "POST"},

	{model.AdminRoleManager, "/admin/rooms", "POST"},
	{model.AdminRoleManager, "/admin/rooms/*", "^(GET|PUT|DELETE)$"},
	{model.AdminRoleManager, "/admin/bookings/:id/dates", "PUT"},
}

var defaultGroups = [][]string{
	{model.AdminRoleManager, model.AdminRoleStaff},
}

type Authorizer struct {
	enforcer *casbin.Enforcer
	log      *logger.Logger
}

func New(log *logger.Logger) (*Authorizer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicies(defaultGroups); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}
	return &Authorizer{enforcer: e, log: log}, nil
}

// Allowed reports whether role may call method on path. Enforcement errors
// deny.
func (a *Authorizer) Allowed(role, path, method string) bool {
	ok, err := a.enforcer.Enforce(role, path, method)
	if err != nil {
		a.log.Error("Authorization check failed", "role", role, "path", path, "method", method, "error", err)
		return false
	}
	return ok
}
