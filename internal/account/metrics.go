// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the credential lifecycle.
var (
	// derivationsTotal counts KDF invocations. Each one is a deliberate
	// CPU-bound unit of work, so the rate doubles as a load signal.
	derivationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_password_derivations_total",
		Help: "Total number of password hash derivations",
	})

	// verificationsTotal counts password checks by outcome.
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_password_verifications_total",
		Help: "Total number of password verifications by outcome",
	}, []string{"outcome"})

	// resetsTotal counts reset-token lifecycle events.
	resetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_password_resets_total",
		Help: "Total number of password reset events by kind",
	}, []string{"event"})
)

func recordDerivation() {
	derivationsTotal.Inc()
}

func recordVerification(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	verificationsTotal.WithLabelValues(outcome).Inc()
}

func recordResetIssued()   { resetsTotal.WithLabelValues("issued").Inc() }
func recordResetRedeemed() { resetsTotal.WithLabelValues("redeemed").Inc() }
func recordResetRejected() { resetsTotal.WithLabelValues("rejected").Inc() }
