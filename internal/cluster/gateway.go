package cluster

import (
	"sort"

	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// Gateway groups the stores describing one gateway host: one per entity
// kind plus one per service it runs.
type Gateway struct {
	name    string
	cluster *Cluster
	log     logger.Logger

	defs     map[summary.Kind]summary.DataDefinition
	stores   map[summary.Kind]*summaryStore
	services map[string]*summaryStore
}

// summaryStore pairs a store with the subscriptions the cluster holds on it.
type summaryStore struct {
	store  *summary.Store
	cancel []func()
}

func newGateway(c *Cluster, name string) *Gateway {
	return &Gateway{
		name:     name,
		cluster:  c,
		log:      logger.WithPrefix(c.log, "["+name+"]"),
		defs:     make(map[summary.Kind]summary.DataDefinition),
		stores:   make(map[summary.Kind]*summaryStore),
		services: make(map[string]*summaryStore),
	}
}

// Name returns the gateway name.
func (g *Gateway) Name() string { return g.name }

// SetDefinition records the definition the gateway announced for kind.
// Existing stores of that kind are replaced, dropping their data, since
// their rows no longer match the field layout.
func (g *Gateway) SetDefinition(kind summary.Kind, def summary.DataDefinition) {
	g.defs[kind] = def

	if kind == summary.KindService {
		for name, ss := range g.services {
			g.release(ss)
			g.services[name] = g.newStore(kind, g.serviceID(name))
		}
		return
	}
	if ss, ok := g.stores[kind]; ok {
		g.release(ss)
		g.stores[kind] = g.newStore(kind, g.storeID(kind))
	}
}

// Definition returns the definition in force for kind.
func (g *Gateway) Definition(kind summary.Kind) summary.DataDefinition {
	if def, ok := g.defs[kind]; ok {
		return def
	}
	return g.cluster.definition(kind)
}

// Store returns the gateway's store for a non-service kind, creating it on
// first use. Service stores are reached through Service.
func (g *Gateway) Store(kind summary.Kind) *summary.Store {
	if kind == summary.KindService {
		return nil
	}
	ss, ok := g.stores[kind]
	if !ok {
		ss = g.newStore(kind, g.storeID(kind))
		g.stores[kind] = ss
	}
	return ss.store
}

// Service returns the store for a named service, creating it on first use.
func (g *Gateway) Service(name string) *summary.Store {
	ss, ok := g.services[name]
	if !ok {
		ss = g.newStore(summary.KindService, g.serviceID(name))
		g.services[name] = ss
	}
	return ss.store
}

// RemoveService drops a service that is no longer deployed.
func (g *Gateway) RemoveService(name string) bool {
	ss, ok := g.services[name]
	if !ok {
		return false
	}
	g.release(ss)
	delete(g.services, name)
	return true
}

// Services returns service names, sorted.
func (g *Gateway) Services() []string {
	names := make([]string, 0, len(g.services))
	for name := range g.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stores returns every existing store: entity kinds in summary.Kinds order,
// then services by name.
func (g *Gateway) Stores() []*summary.Store {
	var out []*summary.Store
	for _, k := range summary.Kinds {
		if ss, ok := g.stores[k]; ok {
			out = append(out, ss.store)
		}
	}
	for _, name := range g.Services() {
		out = append(out, g.services[name].store)
	}
	return out
}

// ShutDown merges a shutdown record at stopTime into the gateway store and
// every service store that exists.
func (g *Gateway) ShutDown(stopTime int64) {
	if ss, ok := g.stores[summary.KindGateway]; ok {
		if _, err := ss.store.ShutDown(stopTime); err != nil {
			g.log.Warn("shutdown: %v", err)
		}
	}
	for _, name := range g.Services() {
		if _, err := g.services[name].store.ShutDown(stopTime); err != nil {
			g.log.Warn("shutdown %s: %v", name, err)
		}
	}
}

func (g *Gateway) storeID(kind summary.Kind) string {
	return g.name + "/" + string(kind)
}

func (g *Gateway) serviceID(name string) string {
	return g.name + "/service/" + name
}

func (g *Gateway) newStore(kind summary.Kind, id string) *summaryStore {
	store := summary.NewStore(kind, g.Definition(kind),
		summary.WithID(id),
		summary.WithLogger(g.log))

	ss := &summaryStore{store: store}
	ss.cancel = append(ss.cancel, store.Subscribe(g.cluster.updates.Fire))
	if g.cluster.series != nil {
		ss.cancel = append(ss.cancel, g.cluster.series.Track(store))
	}
	return ss
}

func (g *Gateway) release(ss *summaryStore) {
	for _, cancel := range ss.cancel {
		cancel()
	}
	ss.store.Close()
	if g.cluster.series != nil {
		g.cluster.series.Clear(ss.store.ID())
	}
}

func (g *Gateway) close() {
	for kind, ss := range g.stores {
		g.release(ss)
		delete(g.stores, kind)
	}
	for name, ss := range g.services {
		g.release(ss)
		delete(g.services, name)
	}
}
