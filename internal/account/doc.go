// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package account implements the credential lifecycle for user accounts.
//
// # Domain Types
//
// Account is the sole aggregate: identity fields, password material
// (hash + salt, always regenerated as a pair), a capability scope set,
// and an optional single-use password-reset token with expiry.
// Accounts bound to an external identity provider carry no local
// password material and reject local password operations.
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialManager - password derivation and verification
//   - ResetTokenService - issue, redeem, and purge reset tokens
//   - Service - actor-gated account operations (the controller boundary)
//
// Policy evaluates "self or admin" access rules; it is pure and holds
// no state. Persistence is a collaborator behind the Repository
// interface; implementations must serialize concurrent writes to one
// account so a reset token cannot be redeemed twice.
package account
