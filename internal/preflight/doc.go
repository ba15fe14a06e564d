// Package preflight provides readiness checks for the filesystem paths and
// credential files the uploader depends on.
//
// The daemon runs RunAll at startup to surface misconfiguration before any
// upload begins, and the CLI "ytpub status" command uses the same checks to
// display service health.
package preflight
