package feed

import (
	"fmt"

	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// Apply routes m to the cluster. Messages for a gateway that has not joined
// yet join it implicitly. Must run on the cluster's event queue.
// Returns the number of update events the message fired.
func Apply(c *cluster.Cluster, m Message) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	switch m.Type {
	case TypeJoin:
		c.Join(m.Gateway)
		return 0, nil
	case TypeLeave:
		c.Leave(m.Gateway, m.StopTime)
		return 0, nil
	}

	g := c.Join(m.Gateway)

	if m.Type == TypeShutdown && m.Kind == "" {
		g.ShutDown(m.StopTime)
		return 0, nil
	}

	kind, err := summary.ParseKind(m.Kind)
	if err != nil {
		return 0, err
	}

	if m.Type == TypeDefinition {
		g.SetDefinition(kind, m.Definition.DataDefinition())
		return 0, nil
	}

	if m.Type == TypeShutdown && !kind.CanShutDown() {
		return 0, errors.New(errors.ErrFeed,
			fmt.Sprintf("Shutdown is not tracked for %s entities", kind), "")
	}

	var store *summary.Store
	if kind == summary.KindService {
		store = g.Service(m.Key)
	} else {
		store = g.Store(kind)
	}

	switch m.Type {
	case TypeLoad:
		return store.Load(summary.Payload{
			Keys:    m.Keys,
			Samples: summarySamples(kind.Shape(), m.Samples),
		}), nil
	case TypeNotify:
		return store.Notify(summarySamples(kind.Shape(), m.Samples)...), nil
	case TypeShutdown:
		fired, err := store.ShutDown(m.StopTime)
		if err != nil || !fired {
			return 0, err
		}
		return 1, nil
	}
	return 0, nil
}
