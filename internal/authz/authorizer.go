// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
)

// Resource kinds.
const (
	ResourcePost    = "post"
	ResourceComment = "comment"
)

// Actions.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// RoleModerator is the Casbin role granted to configured moderators.
const RoleModerator = "moderator"

// roleOwner is matched against the request owner rather than a grouping.
// Role names themselves never act as users, since g(x, x) holds.
const roleOwner = "owner"

const modelText = `
[request_definition]
r = sub, owner, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.obj == p.obj && regexMatch(r.act, p.act) && ((p.sub == "owner" && r.sub != "" && r.sub == r.owner) || (p.sub != "owner" && r.sub != p.sub && g(r.sub, p.sub)))
`

var defaultPolicy = [][]string{
	{roleOwner, ResourcePost, "^(edit|delete)$"},
	{roleOwner, ResourceComment, "^(edit|delete)$"},
	{RoleModerator, ResourcePost, "^(edit|delete)$"},
	{RoleModerator, ResourceComment, "^(edit|delete)$"},
}

// Authorizer evaluates ownership rules.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds the enforcer and grants the moderator role to moderators.
func New(moderators []string) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicy); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}

	a := &Authorizer{enforcer: enforcer}
	for _, id := range moderators {
		if err := a.AddModerator(id); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// AddModerator grants the moderator role.
func (a *Authorizer) AddModerator(userID string) error {
	if userID == "" || userID == roleOwner || userID == RoleModerator {
		return fmt.Errorf("invalid moderator id %q", userID)
	}
	if _, err := a.enforcer.AddGroupingPolicy(userID, RoleModerator); err != nil {
		return fmt.Errorf("failed to add moderator %s: %w", userID, err)
	}
	return nil
}

// IsModerator reports whether userID holds the moderator role.
func (a *Authorizer) IsModerator(userID string) bool {
	ok, err := a.enforcer.HasRoleForUser(userID, RoleModerator)
	return err == nil && ok
}

// Can reports whether userID may perform action on a resource owned by
// ownerID. Evaluation errors deny.
func (a *Authorizer) Can(userID, ownerID, resource, action string) bool {
	allowed, err := a.enforcer.Enforce(userID, ownerID, resource, action)
	if err != nil {
		logging.Error().Err(err).Str("resource", resource).Str("action", action).Msg("Authorization check failed")
		allowed = false
	}

	result := "deny"
	if allowed {
		result = "allow"
	}
	metrics.AuthzDecisions.WithLabelValues(resource, action, result).Inc()
	return allowed
}
