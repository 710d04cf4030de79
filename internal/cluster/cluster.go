// Package cluster owns the summary stores of every gateway currently in the
// monitored cluster and ties their lifecycle to gateway membership.
package cluster

import (
	"sort"

	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// Membership announces a gateway joining or leaving the cluster.
type Membership struct {
	Gateway string
	Joined  bool
}

// Cluster tracks gateways by name. Like the stores it owns, it is driven
// from a single event.Queue.
type Cluster struct {
	gateways map[string]*Gateway
	defs     map[summary.Kind]summary.DataDefinition
	series   *summary.Series

	updates    event.Listeners[summary.Update]
	membership event.Listeners[Membership]
	log        logger.Logger
}

// Option configures a Cluster.
type Option func(*Cluster)

// WithSeries records every store's attributes into series.
func WithSeries(series *summary.Series) Option {
	return func(c *Cluster) { c.series = series }
}

// WithLogger sets the cluster logger. Stores log through it too.
func WithLogger(l logger.Logger) Option {
	return func(c *Cluster) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDefinition overrides the default definition used for kind when a
// gateway has not announced its own.
func WithDefinition(kind summary.Kind, def summary.DataDefinition) Option {
	return func(c *Cluster) { c.defs[kind] = def }
}

// New creates an empty cluster.
func New(opts ...Option) *Cluster {
	c := &Cluster{
		gateways: make(map[string]*Gateway),
		defs:     make(map[summary.Kind]summary.DataDefinition),
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Join returns the named gateway, creating it and announcing the membership
// change the first time.
func (c *Cluster) Join(name string) *Gateway {
	if g, ok := c.gateways[name]; ok {
		return g
	}
	g := newGateway(c, name)
	c.gateways[name] = g
	c.log.Info("gateway %s joined", name)
	c.membership.Fire(Membership{Gateway: name, Joined: true})
	return g
}

// Leave removes a gateway. When stopTime is positive the gateway and service
// stores first merge a shutdown record so listeners see the stop. Every
// store of the gateway is then closed and its series dropped.
// Returns false if the gateway was not a member.
func (c *Cluster) Leave(name string, stopTime int64) bool {
	g, ok := c.gateways[name]
	if !ok {
		return false
	}
	if stopTime > 0 {
		g.ShutDown(stopTime)
	}
	g.close()
	delete(c.gateways, name)

	c.log.Info("gateway %s left", name)
	c.membership.Fire(Membership{Gateway: name, Joined: false})
	return true
}

// Gateway returns a member gateway.
func (c *Cluster) Gateway(name string) (*Gateway, bool) {
	g, ok := c.gateways[name]
	return g, ok
}

// Names returns member gateway names, sorted.
func (c *Cluster) Names() []string {
	names := make([]string, 0, len(c.gateways))
	for name := range c.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe receives the updates of every store in the cluster, including
// stores created after the call.
func (c *Cluster) Subscribe(fn func(summary.Update)) func() {
	return c.updates.Subscribe(fn)
}

// OnMembership receives join and leave announcements.
func (c *Cluster) OnMembership(fn func(Membership)) func() {
	return c.membership.Subscribe(fn)
}

// Series returns the series recorder, or nil when none is configured.
func (c *Cluster) Series() *summary.Series {
	return c.series
}

func (c *Cluster) definition(kind summary.Kind) summary.DataDefinition {
	if def, ok := c.defs[kind]; ok {
		return def
	}
	return summary.DefaultDefinition(kind)
}
