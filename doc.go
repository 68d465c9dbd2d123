// Package sentin defines the domain types, collaborator interfaces, errors,
// and configuration for the surge readiness engine. The engine itself is
// assembled in internal/runtime and served over HTTP by cmd/server.
package sentin
