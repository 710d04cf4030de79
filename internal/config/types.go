package config

import (
	"os"
	"sort"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/login"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Login modes.
const (
	// LoginAuto shows the form on a terminal and falls back to static
	// credentials otherwise.
	LoginAuto = "auto"
	// LoginForm always uses the interactive form.
	LoginForm = "form"
	// LoginStatic answers every prompt with the configured credentials.
	LoginStatic = "static"
)

// Config represents the complete .commandcenter.yaml configuration file.
type Config struct {
	Version   int                `yaml:"version" mapstructure:"version"`
	Gateways  map[string]Gateway `yaml:"gateways" mapstructure:"gateways"`
	Challenge ChallengeConfig    `yaml:"challenge" mapstructure:"challenge"`
	Monitor   MonitorConfig      `yaml:"monitor" mapstructure:"monitor"`
	Login     LoginConfig        `yaml:"login" mapstructure:"login"`
	Reconnect ReconnectConfig    `yaml:"reconnect" mapstructure:"reconnect"`
}

// Gateway is one gateway management endpoint.
type Gateway struct {
	// URL is the websocket management URL, e.g. ws://gw1:8000/snmp.
	URL string `yaml:"url" mapstructure:"url"`

	// Username and PasswordEnv override the login section for this gateway.
	Username    string `yaml:"username" mapstructure:"username"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`

	// CanChangeURL lets the login form edit the URL.
	CanChangeURL bool `yaml:"can_change_url" mapstructure:"can_change_url"`
}

// ChallengeConfig selects the challenges answered with credentials.
type ChallengeConfig struct {
	Scheme string `yaml:"scheme" mapstructure:"scheme"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// MonitorConfig controls the dashboard.
type MonitorConfig struct {
	// Interval is how often the dashboard redraws.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// History is how many samples each sparkline keeps.
	History int `yaml:"history" mapstructure:"history"`
}

// LoginConfig controls how credentials are gathered.
type LoginConfig struct {
	// Mode: "auto", "form" or "static".
	Mode string `yaml:"mode" mapstructure:"mode"`

	Username string `yaml:"username" mapstructure:"username"`

	// PasswordEnv names the environment variable holding the password.
	// Passwords are never stored in the config file.
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
}

// ReconnectConfig bounds the reconnect backoff.
type ReconnectConfig struct {
	Min              time.Duration `yaml:"min" mapstructure:"min"`
	Max              time.Duration `yaml:"max" mapstructure:"max"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentConfigVersion,
		Gateways: make(map[string]Gateway),
		Challenge: ChallengeConfig{
			Scheme: login.DefaultScheme,
			Path:   login.DefaultPath,
		},
		Monitor: MonitorConfig{
			Interval: time.Second,
			History:  120,
		},
		Login: LoginConfig{
			Mode:        LoginAuto,
			PasswordEnv: "CC_PASSWORD",
		},
		Reconnect: ReconnectConfig{
			Min:              time.Second,
			Max:              30 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// GatewayNames returns the configured gateway names, sorted.
func (c *Config) GatewayNames() []string {
	names := make([]string, 0, len(c.Gateways))
	for name := range c.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Credentials resolves the static credentials for a gateway: its own
// username and password variable first, then the login section's.
// The password is read from the environment.
func (c *Config) Credentials(name string) (username, password string) {
	gw := c.Gateways[name]

	username = gw.Username
	if username == "" {
		username = c.Login.Username
	}

	env := gw.PasswordEnv
	if env == "" {
		env = c.Login.PasswordEnv
	}
	if env != "" {
		password = os.Getenv(env)
	}
	return username, password
}
