// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/pkg/errutil"
)

func TestRunMigrate_DownAndStepsAreExclusive(t *testing.T) {
	cmd := NewMigrateCmd()
	err := runMigrate(cmd, nil, &migrateConfig{down: true, steps: 2, force: -1})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_FLAGS")
}

func TestGenerateSeedPassword(t *testing.T) {
	first, err := generateSeedPassword()
	require.NoError(t, err)
	require.Len(t, first, seedPasswordBytes*2, "hex encoding doubles the byte count")

	second, err := generateSeedPassword()
	require.NoError(t, err)
	require.NotEqual(t, first, second, "passwords must be random")
}
