package cli

import (
	"context"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/config"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/feed"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
	"github.com/rileyhilliard/commandcenter/internal/summary"
	"golang.org/x/term"
)

// session is the state every command shares: the loaded config, the event
// queue and the cluster it owns.
type session struct {
	cfg     *config.Config
	cfgPath string
	log     logger.Logger

	queue   *event.Queue
	cluster *cluster.Cluster
	series  *summary.Series
}

// newSession loads and validates the config and builds an empty cluster.
func newSession(log logger.Logger) (*session, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	series := summary.NewSeries(cfg.Monitor.History)
	return &session{
		cfg:     cfg,
		cfgPath: path,
		log:     log,
		queue:   event.NewQueue(),
		cluster: cluster.New(cluster.WithSeries(series), cluster.WithLogger(log)),
		series:  series,
	}, nil
}

// runQueue drives the event queue on its own goroutine. The returned stop
// func cancels it and waits for the current task to finish.
func (s *session) runQueue() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.queue.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// endpoints turns the configured gateways into hub endpoints. Gateways with
// both a username and a password get those credentials tried first.
func endpoints(cfg *config.Config) []feed.Endpoint {
	names := cfg.GatewayNames()
	eps := make([]feed.Endpoint, 0, len(names))
	for _, name := range names {
		gw := cfg.Gateways[name]
		ep := feed.Endpoint{Name: name, URL: gw.URL, CanChangeURL: gw.CanChangeURL}
		if user, pass := cfg.Credentials(name); user != "" && pass != "" {
			ep.Credentials = login.EncodeCredentials(user, pass)
		}
		eps = append(eps, ep)
	}
	return eps
}

// hubConfig maps the challenge and reconnect sections onto a hub.
func hubConfig(cfg *config.Config, log logger.Logger, rec *feed.Recorder) feed.HubConfig {
	return feed.HubConfig{
		Scheme:  cfg.Challenge.Scheme,
		Path:    cfg.Challenge.Path,
		Backoff: feed.Backoff{Min: cfg.Reconnect.Min, Max: cfg.Reconnect.Max},
		Dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.Reconnect.HandshakeTimeout,
		},
		Log:      log,
		Recorder: rec,
	}
}

// isTerminal reports whether stdin and stdout are both a TTY.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// selectDialog picks the login dialog for the configured mode. interactive
// is the dialog to use when a user can answer; it is ignored in static
// mode and, in auto mode, when there is no terminal.
func selectDialog(cfg *config.Config, sched event.Scheduler, interactive login.Dialog, tty bool) login.Dialog {
	static := func() login.Dialog {
		user := cfg.Login.Username
		var pass string
		if cfg.Login.PasswordEnv != "" {
			pass = os.Getenv(cfg.Login.PasswordEnv)
		}
		return login.NewStaticDialog(sched, user, pass)
	}

	switch cfg.Login.Mode {
	case config.LoginStatic:
		return static()
	case config.LoginForm:
		return interactive
	default:
		if tty {
			return interactive
		}
		return static()
	}
}

// persistURLChanges writes URLs changed in the login form back to the
// config file. Must run while the queue is still being driven.
func (s *session) persistURLChanges(hub *feed.Hub) {
	if s.cfgPath == "" {
		return
	}

	changed := make(map[string]string)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.queue.Call(ctx, func() {
		for _, name := range s.cfg.GatewayNames() {
			h, ok := hub.Handler(name)
			if ok && h.ConnectionURL() != s.cfg.Gateways[name].URL {
				changed[name] = h.ConnectionURL()
			}
		}
	})
	if err != nil {
		s.log.Warn("could not collect changed gateway URLs: %v", err)
		return
	}

	for name, url := range changed {
		if err := config.SetGatewayURL(s.cfgPath, name, url); err != nil {
			s.log.Warn("%v", err)
			continue
		}
		s.log.Info("saved new url for %s: %s", name, url)
	}
}
