// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "seed")
	assert.Contains(t, names, "reset-request")
	assert.Contains(t, names, "cleanup")
}

func TestStartObservability(t *testing.T) {
	srv, stop := startObservability("127.0.0.1:0")
	require.NotNil(t, srv, "server should bind an ephemeral port")
	defer stop()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metrics, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metrics.Body.Close() }()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "accountd_", "credential counters are scrapeable while a command runs")
}

func TestStartObservability_BindFailureIsNonFatal(t *testing.T) {
	srv, stop := startObservability("256.256.256.256:0")
	assert.Nil(t, srv)
	stop()
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"config", "database-url", "log-level", "log-format", "reset-ttl"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestNewRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
}
