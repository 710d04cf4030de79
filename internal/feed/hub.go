package feed

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
)

// Endpoint is one gateway management connection.
type Endpoint struct {
	Name string
	URL  string

	// Credentials are pre-encoded credentials tried before asking the user.
	Credentials  string
	CanChangeURL bool
}

// HubConfig holds the settings shared by every connection of a hub.
type HubConfig struct {
	Scheme  string
	Path    string
	Backoff Backoff
	Dialer  *websocket.Dialer
	Log     logger.Logger

	// Recorder, when set, receives every message before it is applied.
	Recorder *Recorder
}

// Hub connects to a set of gateways and applies their feeds to a cluster.
// The cluster, coordinator and challenge handlers are only touched from
// the hub's event queue.
type Hub struct {
	sched   event.Scheduler
	cluster *cluster.Cluster
	coord   *login.Coordinator
	shared  *login.SharedCredentials
	cfg     HubConfig
	log     logger.Logger

	clients  []*Client
	handlers map[string]*login.ChallengeHandler
}

// NewHub builds a client and challenge handler per endpoint.
func NewHub(sched event.Scheduler, c *cluster.Cluster, coord *login.Coordinator, endpoints []Endpoint, cfg HubConfig) *Hub {
	log := cfg.Log
	if log == nil {
		log = logger.Noop()
	}
	h := &Hub{
		sched:    sched,
		cluster:  c,
		coord:    coord,
		shared:   &login.SharedCredentials{},
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]*login.ChallengeHandler),
	}

	for _, ep := range endpoints {
		opts := []login.HandlerOption{
			login.WithHandlerLogger(logger.WithPrefix(log, "["+ep.Name+"]")),
			login.WithCanChangeURL(ep.CanChangeURL),
		}
		if cfg.Scheme != "" {
			opts = append(opts, login.WithScheme(cfg.Scheme))
		}
		if cfg.Path != "" {
			opts = append(opts, login.WithPath(cfg.Path))
		}
		if ep.Credentials != "" {
			opts = append(opts, login.WithCachedCredentials(ep.Credentials))
		}
		handler := login.NewChallengeHandler(ep.URL, coord, h.shared, opts...)
		h.handlers[ep.Name] = handler

		copts := []ClientOption{WithClientLogger(log), WithBackoff(cfg.Backoff)}
		if cfg.Dialer != nil {
			copts = append(copts, WithDialer(cfg.Dialer))
		}
		h.clients = append(h.clients, NewClient(ep.Name, ep.URL, sched, handler, h.apply, copts...))
	}
	return h
}

// Cluster returns the cluster the hub feeds.
func (h *Hub) Cluster() *cluster.Cluster { return h.cluster }

// Handler returns the challenge handler for a gateway.
func (h *Hub) Handler(name string) (*login.ChallengeHandler, bool) {
	handler, ok := h.handlers[name]
	return handler, ok
}

// Run runs every client until ctx is cancelled or all of them gave up.
// Each client's handler is disposed when the client stops. On cancellation
// the login lock is reset first, so the dialog does not move on to the
// next gateway and a dialog still on screen has no effect. Returns the
// errors of clients that stopped on their own.
func (h *Hub) Run(ctx context.Context) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, c := range h.clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			err := c.Run(ctx)

			handler := h.handlers[c.Name()]
			stopping := ctx.Err() != nil
			h.sched.Schedule(func() {
				if stopping {
					h.coord.ResetAll()
				}
				handler.Dispose()
			})

			if err != nil && ctx.Err() == nil {
				h.log.Error("%s: %v", c.Name(), err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(c)
	}

	wg.Wait()
	return errs
}

func (h *Hub) apply(m Message) {
	if h.cfg.Recorder != nil {
		if err := h.cfg.Recorder.Record(m); err != nil {
			h.log.Warn("%v", err)
		}
	}
	if _, err := Apply(h.cluster, m); err != nil {
		h.log.Warn("%s: %v", m.Gateway, err)
	}
}
