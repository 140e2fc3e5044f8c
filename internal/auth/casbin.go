package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// modelText is an RBAC model with path wildcards; roles inherit through g.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Model returns the casbin model used by the application.
func Model() (model.Model, error) {
	return model.NewModelFromString(modelText)
}

// NewEnforcer creates and configures a new Casbin enforcer.
// Policies are stored in the application's database through the sqlx adapter
// and loaded before the enforcer is returned.
func NewEnforcer(driverName, dsn string) (*casbin.Enforcer, error) {
	opts := &sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	}
	adapter := sqlxadapter.NewAdapterFromOptions(opts)

	m, err := Model()
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer creates an enforcer without persistence, seeded with the default policies.
func NewMemoryEnforcer() (*casbin.Enforcer, error) {
	m, err := Model()
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	if err := addDefaults(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}
