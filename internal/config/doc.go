// Package config loads ticketbridge configuration.
//
// It handles:
//   - An optional YAML file (--config flag or TICKETBRIDGE_CONFIG)
//   - Environment overrides using the service variable names (JIRA_URL, GITHUB_TOKEN, ...)
//   - Defaults for the listen address and log rotation
package config
