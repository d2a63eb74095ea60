// Package app wires the application together: configuration, logging,
// the risk engine build, the fundamentals analyzer, services, and the
// HTTP server with its middleware chain. It owns startup order and
// graceful shutdown; everything else lives in the packages it composes.
package app
