package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// HistoryPoints is how many series points a snapshot carries per graph.
const HistoryPoints = 60

// GatewayStatus summarizes what the dashboard knows about a gateway.
type GatewayStatus int

const (
	// GatewayWaiting has no summary data yet.
	GatewayWaiting GatewayStatus = iota
	GatewayLive
	GatewayStopped
)

func (s GatewayStatus) String() string {
	switch s {
	case GatewayWaiting:
		return "waiting"
	case GatewayLive:
		return "live"
	case GatewayStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the cluster taken on the event queue. The model
// only ever reads snapshots, never the stores themselves.
type Snapshot struct {
	Taken    time.Time
	Gateways []GatewayView
}

// Gateway returns the named gateway view.
func (s Snapshot) Gateway(name string) (GatewayView, bool) {
	for _, g := range s.Gateways {
		if g.Name == name {
			return g, true
		}
	}
	return GatewayView{}, false
}

// GatewayView is the card for one gateway.
type GatewayView struct {
	Name   string
	Status GatewayStatus

	Sessions    summary.Lookup
	BytesIn     summary.Lookup
	BytesOut    summary.Lookup
	CPUPercent  summary.Lookup
	HeapPercent float64
	HasHeap     bool

	SessionHistory []float64
	CPUHistory     []float64

	Services []ServiceView
	Stores   []StoreView
}

// ServiceView is one service row on a gateway card.
type ServiceView struct {
	Name     string
	State    string
	Sessions summary.Lookup
	Stopped  bool
}

// StoreView is the full content of one store for the detail view.
type StoreView struct {
	ID       string
	Kind     summary.Kind
	Fields   []string
	Keys     []string
	Rows     [][]string
	ReadTime int64
	Stopped  bool
}

// Collect copies the cluster into a snapshot. Must run on the cluster's
// event queue. Names that have not joined yet are listed as waiting.
func Collect(c *cluster.Cluster, expected ...string) Snapshot {
	snap := Snapshot{Taken: time.Now()}
	seen := make(map[string]bool)

	for _, name := range c.Names() {
		g, _ := c.Gateway(name)
		snap.Gateways = append(snap.Gateways, collectGateway(g, c.Series()))
		seen[name] = true
	}
	for _, name := range expected {
		if !seen[name] {
			snap.Gateways = append(snap.Gateways, GatewayView{Name: name})
			seen[name] = true
		}
	}
	return snap
}

func collectGateway(g *cluster.Gateway, series *summary.Series) GatewayView {
	v := GatewayView{Name: g.Name()}
	hasData := false

	for _, s := range g.Stores() {
		sv := collectStore(s)
		v.Stores = append(v.Stores, sv)
		if s.Latest() != nil {
			hasData = true
		}

		switch s.Kind() {
		case summary.KindGateway:
			v.Sessions = s.Value("totalCurrentSessions", false)
			v.BytesIn = s.Value("totalBytesReceived", false)
			v.BytesOut = s.Value("totalBytesSent", false)
			if s.Stopped() {
				v.Status = GatewayStopped
			}
			if series != nil {
				v.SessionHistory = series.Values(s.ID(), 0, "totalCurrentSessions", HistoryPoints)
			}
		case summary.KindSystem:
			v.CPUPercent = s.Value("cpuPercentage", false)
			if series != nil {
				v.CPUHistory = series.Values(s.ID(), 0, "cpuPercentage", HistoryPoints)
			}
		case summary.KindJVM:
			used, ok1 := s.Value("memHeapUsed", false).Float()
			total, ok2 := s.Value("memHeapMaxSize", false).Float()
			if ok1 && ok2 && total > 0 {
				v.HeapPercent = used / total * 100
				v.HasHeap = true
			}
		case summary.KindService:
			v.Services = append(v.Services, ServiceView{
				Name:     serviceName(s.ID()),
				State:    s.Value("state", false).String(),
				Sessions: s.Value("numberOfCurrentSessions", false),
				Stopped:  s.Stopped(),
			})
		}
	}

	if v.Status != GatewayStopped && hasData {
		v.Status = GatewayLive
	}
	return v
}

func collectStore(s *summary.Store) StoreView {
	def := s.Definition()
	sv := StoreView{
		ID:       s.ID(),
		Kind:     s.Kind(),
		Fields:   def.Fields[:def.Width()-1],
		Keys:     s.Keys(),
		ReadTime: s.LatestTime(),
		Stopped:  s.Stopped(),
	}
	for i := 0; i < s.Len(); i++ {
		row := make([]string, len(sv.Fields))
		for j, f := range sv.Fields {
			row[j] = s.ValueAt(i, f, false).String()
		}
		sv.Rows = append(sv.Rows, row)
	}
	return sv
}

func serviceName(storeID string) string {
	if i := strings.Index(storeID, "/service/"); i >= 0 {
		return storeID[i+len("/service/"):]
	}
	return storeID
}

// Source produces snapshots for the model. Snapshot may block and is
// called off the event queue.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

// Snapshot calls f.
func (f SourceFunc) Snapshot(ctx context.Context) (Snapshot, error) {
	return f(ctx)
}

// QueueSource collects snapshots by running Collect on the queue that owns
// the cluster.
type QueueSource struct {
	Queue    *event.Queue
	Cluster  *cluster.Cluster
	Expected []string
}

// Snapshot waits for the queue to run Collect.
func (s QueueSource) Snapshot(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	if err := s.Queue.Call(ctx, func() {
		ch <- Collect(s.Cluster, s.Expected...)
	}); err != nil {
		return Snapshot{}, err
	}
	return <-ch, nil
}
