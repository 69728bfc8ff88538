// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

// ScopeAdmin is the capability tag granting administrative access.
// Matching is exact and case-sensitive; there are no wildcard scopes.
const ScopeAdmin = "admin"

// Policy evaluates authorization rules for account operations. It is
// stateless: decisions depend only on the actor and target passed in.
type Policy struct{}

// NewPolicy creates a new Policy.
func NewPolicy() Policy {
	return Policy{}
}

// CanAccess reports whether actor may read or mutate target: true when
// the actor is the target itself or holds the admin scope. Gates get,
// update-email, and every self-service mutation.
func (Policy) CanAccess(actor, target *Account) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.Username == target.Username {
		return true
	}
	return hasScope(actor, ScopeAdmin)
}

// IsAdmin reports whether actor holds the admin scope. Listing and
// deleting accounts require this unconditionally, with no
// self-exception.
func (Policy) IsAdmin(actor *Account) bool {
	return hasScope(actor, ScopeAdmin)
}

func hasScope(acct *Account, scope string) bool {
	if acct == nil {
		return false
	}
	for _, s := range acct.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
