/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package replay loads YAML scripts of pipeline lifecycle events and plays
// them through the callbacks registered with a pipeline.Settings.
package replay
