/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package tracking defines the run-tracking client that trace records are mirrored to.
//
// Implementations live in subpackages: mlflow talks to an MLflow tracking server,
// oteltracking turns runs into OpenTelemetry spans, and trackingtest provides
// in-memory and failing doubles for tests. Multi combines several clients.
package tracking
