// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint on username,
// email, or external ID is violated.
var ErrConflict = errors.New("conflict")
