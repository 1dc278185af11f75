package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAddr is the listen address used when none is configured
	DefaultAddr = ":8000"

	// DefaultGitHubHost is the public GitHub hostname
	DefaultGitHubHost = "github.com"

	// ConfigEnvVar names the environment variable holding the config file path
	ConfigEnvVar = "TICKETBRIDGE_CONFIG"
)

// Config is the full ticketbridge configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Jira       JiraConfig       `yaml:"jira"`
	Confluence ConfluenceConfig `yaml:"confluence"`
	GitHub     GitHubConfig     `yaml:"github"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	// File enables rotating file logging when set
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// JiraConfig holds ticket tracker connection settings
type JiraConfig struct {
	URL      string `yaml:"url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Configured reports whether enough settings are present to attempt a connection
func (c JiraConfig) Configured() bool {
	return c.URL != "" && c.Email != "" && c.APIToken != ""
}

// ConfluenceConfig holds wiki connection settings.
// Email and APIToken fall back to the Jira credentials when empty.
type ConfluenceConfig struct {
	URL      string `yaml:"url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Configured reports whether enough settings are present to attempt a connection
func (c ConfluenceConfig) Configured() bool {
	return c.URL != "" && c.Email != "" && c.APIToken != ""
}

// GitHubConfig holds code host connection settings
type GitHubConfig struct {
	Token string `yaml:"token"`
	// Host is github.com or a GitHub Enterprise hostname
	Host string `yaml:"host"`
}

// Configured reports whether a token is present
func (c GitHubConfig) Configured() bool {
	return c.Token != ""
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// Load reads the config file at path (or the file named by TICKETBRIDGE_CONFIG when
// path is empty), then applies environment overrides and defaults.
// A missing path is not an error; a named file that cannot be read or parsed is.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	if path == "" {
		if envPath, ok := lookup(ConfigEnvVar); ok {
			path = envPath
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(lookup)
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) {
	setString(lookup, "TICKETBRIDGE_ADDR", &c.Server.Addr)
	setString(lookup, "TICKETBRIDGE_LOG_FILE", &c.Log.File)
	if v, ok := lookup("DEBUG"); ok && v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Log.Debug = debug
		} else {
			c.Log.Debug = true
		}
	}

	setString(lookup, "JIRA_URL", &c.Jira.URL)
	setString(lookup, "JIRA_EMAIL", &c.Jira.Email)
	setString(lookup, "JIRA_API_TOKEN", &c.Jira.APIToken)

	setString(lookup, "CONFLUENCE_URL", &c.Confluence.URL)
	setString(lookup, "CONFLUENCE_EMAIL", &c.Confluence.Email)
	setString(lookup, "CONFLUENCE_API_TOKEN", &c.Confluence.APIToken)

	setString(lookup, "GITHUB_TOKEN", &c.GitHub.Token)
	setString(lookup, "GITHUB_HOST", &c.GitHub.Host)
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.GitHub.Host == "" {
		c.GitHub.Host = DefaultGitHubHost
	}
	// Confluence Cloud shares Atlassian account credentials with Jira
	if c.Confluence.Email == "" {
		c.Confluence.Email = c.Jira.Email
	}
	if c.Confluence.APIToken == "" {
		c.Confluence.APIToken = c.Jira.APIToken
	}

	c.Jira.URL = strings.TrimRight(c.Jira.URL, "/")
	c.Confluence.URL = strings.TrimRight(c.Confluence.URL, "/")
}

func setString(lookup LookupFunc, key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}
