// Package runtime provides the execution context shared by the CLI commands
// and the HTTP server.
//
// It holds the loaded configuration, the logger and the three long-lived
// service gateways, plus the workflow orchestrator built on top of them.
// Gateways are connected once at start-up; a gateway that cannot connect is
// left nil and reported as disconnected.
package runtime
