package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/config"
	"github.com/rileyhilliard/commandcenter/internal/dashboard"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/feed"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
	return path
}

func TestNewSession(t *testing.T) {
	path := writeTestConfig(t, `
gateways:
  gw1:
    url: ws://gw1:8000/snmp
monitor:
  history: 5
`)

	s, err := newSession(logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, path, s.cfgPath)
	assert.Equal(t, []string{"gw1"}, s.cfg.GatewayNames())
	assert.Same(t, s.series, s.cluster.Series())
}

func TestNewSession_InvalidConfig(t *testing.T) {
	writeTestConfig(t, "gateways:\n  gw1:\n    url: http://gw1/snmp\n")

	_, err := newSession(logger.Noop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws:// or wss://")
}

func TestEndpoints(t *testing.T) {
	t.Setenv("CC_PASSWORD", "")
	t.Setenv("GW2_PASSWORD", "secret")

	cfg := config.DefaultConfig()
	cfg.Login.Username = "admin"
	cfg.Gateways["gw1"] = config.Gateway{URL: "ws://gw1/snmp", CanChangeURL: true}
	cfg.Gateways["gw2"] = config.Gateway{URL: "ws://gw2/snmp", Username: "ops", PasswordEnv: "GW2_PASSWORD"}

	eps := endpoints(cfg)
	require.Len(t, eps, 2)

	assert.Equal(t, feed.Endpoint{Name: "gw1", URL: "ws://gw1/snmp", CanChangeURL: true}, eps[0],
		"no password means no cached credentials")
	assert.Equal(t, feed.Endpoint{Name: "gw2", URL: "ws://gw2/snmp",
		Credentials: login.EncodeCredentials("ops", "secret")}, eps[1])
}

func TestHubConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reconnect.Min = 2 * time.Second
	cfg.Reconnect.HandshakeTimeout = 3 * time.Second

	hc := hubConfig(cfg, logger.Noop(), nil)
	assert.Equal(t, login.DefaultScheme, hc.Scheme)
	assert.Equal(t, login.DefaultPath, hc.Path)
	assert.Equal(t, feed.Backoff{Min: 2 * time.Second, Max: 30 * time.Second}, hc.Backoff)
	require.NotNil(t, hc.Dialer)
	assert.Equal(t, 3*time.Second, hc.Dialer.HandshakeTimeout)
}

func TestSelectDialog(t *testing.T) {
	q := event.NewQueue()
	interactive := dashboard.NewDialog(q)

	tests := []struct {
		name       string
		mode       string
		tty        bool
		wantStatic bool
	}{
		{"auto on a terminal", config.LoginAuto, true, false},
		{"auto without a terminal", config.LoginAuto, false, true},
		{"form", config.LoginForm, false, false},
		{"static", config.LoginStatic, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Login.Mode = tt.mode
			cfg.Login.Username = "admin"

			d := selectDialog(cfg, q, interactive, tt.tty)
			if tt.wantStatic {
				static, ok := d.(*login.StaticDialog)
				require.True(t, ok)
				assert.Equal(t, "admin", static.Username)
				return
			}
			assert.Same(t, interactive, d)
		})
	}
}

func TestPersistURLChanges(t *testing.T) {
	path := writeTestConfig(t, `gateways:
  gw1:
    url: ws://old:8000/snmp # edited by the login form
  gw2:
    url: ws://gw2:8000/snmp
`)
	s, err := newSession(logger.Noop())
	require.NoError(t, err)

	dialog := login.DialogFunc(func(p login.Prompt, done func(login.Result)) {
		s.queue.Schedule(func() {
			done(login.Result{ConnectionURL: "ws://new:8000/snmp", Username: "admin", Password: "pw"})
		})
	})
	coord := login.NewCoordinator(s.queue, dialog)
	hub := feed.NewHub(s.queue, s.cluster, coord, endpoints(s.cfg), hubConfig(s.cfg, logger.Noop(), nil))

	stop := s.runQueue()
	defer stop()

	answered := make(chan *login.ChallengeResponse, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.queue.Call(ctx, func() {
		h, _ := hub.Handler("gw1")
		h.Handle(login.ChallengeRequest{Scheme: login.DefaultScheme, Location: "ws://old:8000" + login.DefaultPath},
			func(r *login.ChallengeResponse) { answered <- r })
	}))

	select {
	case r := <-answered:
		require.NotNil(t, r)
	case <-ctx.Done():
		t.Fatal("challenge was not answered")
	}

	s.persistURLChanges(hub)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://new:8000/snmp", cfg.Gateways["gw1"].URL)
	assert.Equal(t, "ws://gw2:8000/snmp", cfg.Gateways["gw2"].URL)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# edited by the login form")
}

func TestPersistURLChanges_NoConfigFile(t *testing.T) {
	s := &session{cfg: config.DefaultConfig(), log: logger.Noop(), queue: event.NewQueue()}
	s.persistURLChanges(nil) // returns before touching the hub
}
