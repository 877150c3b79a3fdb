// Package hostkit bootstraps a long-lived web server process in which:
// - Configuration is layered: JSON files, a key-per-file directory,
//   environment variables, developer secrets, and command-line overrides
// - Logging runs in two phases: a bootstrap logger usable before any
//   configuration exists, then an operational pipeline powered by Sypl
// - Telemetry is powered by Open Telemetry, routed by environment
// - Shutdown is graceful, and the process exit code reflects the outcome
// - Built-in handlers such as liveness, and readiness are pre-loaded
// - Metrics are powered by ExpVar.
package hostkit
