package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but commandcenter only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade commandcenter to read this config")
	}

	for _, name := range cfg.GatewayNames() {
		if err := validateGateway(name, cfg.Gateways[name]); err != nil {
			return err
		}
	}

	if err := validateChallenge(cfg.Challenge); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'challenge' section in your "+ConfigFileName+".")
	}
	if err := validateMonitor(cfg.Monitor); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'monitor' section in your "+ConfigFileName+".")
	}
	if err := validateLogin(cfg.Login); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'login' section in your "+ConfigFileName+".")
	}
	if err := validateReconnect(cfg.Reconnect); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'reconnect' section in your "+ConfigFileName+".")
	}
	return nil
}

// RequireGateways fails when no gateway is configured.
func RequireGateways(cfg *Config) error {
	if len(cfg.Gateways) == 0 {
		return errors.New(errors.ErrConfig,
			"No gateways configured",
			"Add one under 'gateways:' in "+ConfigFileName+", e.g.\n  gateways:\n    gw1:\n      url: ws://gw1:8000/snmp")
	}
	return nil
}

func validateGateway(name string, gw Gateway) error {
	if strings.ContainsAny(name, "/ ") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Gateway name '%s' can't contain spaces or slashes", name),
			"Use a short name like 'gw1'.")
	}
	if gw.URL == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Gateway '%s' has no url", name),
			"Set url to the gateway's management websocket, e.g. ws://gw1:8000/snmp")
	}
	u, err := url.Parse(gw.URL)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Gateway '%s' has an invalid url", name),
			"Check the url is a ws:// or wss:// address")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Gateway '%s' url must use ws:// or wss://, got '%s'", name, u.Scheme),
			"Gateways are reached over websockets")
	}
	if u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Gateway '%s' url has no host", name),
			"Use ws://host:port/path")
	}
	return nil
}

func validateChallenge(c ChallengeConfig) error {
	if strings.TrimSpace(c.Scheme) == "" {
		return fmt.Errorf("challenge scheme can't be empty")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("challenge path '%s' must start with /", c.Path)
	}
	return nil
}

func validateMonitor(m MonitorConfig) error {
	if m.Interval < 100*time.Millisecond {
		return fmt.Errorf("monitor interval %s is too short (minimum 100ms)", m.Interval)
	}
	if m.History < 2 {
		return fmt.Errorf("monitor history must keep at least 2 samples, got %d", m.History)
	}
	return nil
}

func validateLogin(l LoginConfig) error {
	switch l.Mode {
	case LoginAuto, LoginForm:
		return nil
	case LoginStatic:
		if l.Username == "" {
			return fmt.Errorf("login mode 'static' needs a username")
		}
		return nil
	default:
		return fmt.Errorf("login mode must be 'auto', 'form' or 'static', got '%s'", l.Mode)
	}
}

func validateReconnect(r ReconnectConfig) error {
	if r.Min <= 0 {
		return fmt.Errorf("reconnect min must be positive, got %s", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("reconnect max (%s) is shorter than min (%s)", r.Max, r.Min)
	}
	if r.HandshakeTimeout < 0 {
		return fmt.Errorf("reconnect handshake_timeout can't be negative")
	}
	return nil
}
