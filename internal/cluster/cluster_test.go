package cluster

import (
	"testing"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_JoinIsIdempotent(t *testing.T) {
	c := New()
	var events []Membership
	c.OnMembership(func(m Membership) { events = append(events, m) })

	g1 := c.Join("gw1")
	g2 := c.Join("gw1")
	c.Join("gw0")

	assert.Same(t, g1, g2)
	assert.Equal(t, []string{"gw0", "gw1"}, c.Names())
	assert.Equal(t, []Membership{{"gw1", true}, {"gw0", true}}, events)
}

func TestCluster_StoresFanInUpdates(t *testing.T) {
	c := New()
	var ids []string
	c.Subscribe(func(u summary.Update) { ids = append(ids, u.Store.ID()) })

	g := c.Join("gw1")
	g.Store(summary.KindSystem).Notify(summary.ScalarSample([]any{1.0, 2.0, 3.0, 4.0, 5.0}, 10))
	g.Service("echo").Notify(summary.ScalarSample([]any{"RUNNING"}, 10))

	assert.Equal(t, []string{"gw1/system", "gw1/service/echo"}, ids)
}

func TestGateway_StoreLazyAndStable(t *testing.T) {
	c := New()
	g := c.Join("gw1")

	cpu := g.Store(summary.KindCPU)
	require.NotNil(t, cpu)
	assert.Same(t, cpu, g.Store(summary.KindCPU))
	assert.Equal(t, summary.KindCPU, cpu.Kind())
	assert.Nil(t, g.Store(summary.KindService))

	g.Service("b")
	g.Service("a")
	assert.Equal(t, []string{"a", "b"}, g.Services())

	var kinds []summary.Kind
	for _, s := range g.Stores() {
		kinds = append(kinds, s.Kind())
	}
	assert.Equal(t, []summary.Kind{summary.KindCPU, summary.KindService, summary.KindService}, kinds)
}

func TestGateway_DefinitionOverrides(t *testing.T) {
	custom := summary.NewDefinition([]string{"busy"}, time.Second, time.Second)
	c := New(WithDefinition(summary.KindCPU, custom))
	g := c.Join("gw1")

	assert.Equal(t, custom.Fields, g.Store(summary.KindCPU).Definition().Fields)

	announced := summary.NewDefinition([]string{"busy", "idle"}, time.Second, time.Second)
	old := g.Store(summary.KindCPU)
	old.Notify(summary.Sample{Rows: [][]any{{1.0}}, ReadTime: 1})

	g.SetDefinition(summary.KindCPU, announced)
	replaced := g.Store(summary.KindCPU)

	assert.NotSame(t, old, replaced)
	assert.Equal(t, announced.Fields, replaced.Definition().Fields)
	assert.Nil(t, replaced.Latest())
}

func TestGateway_ServiceDefinitionReplacesServices(t *testing.T) {
	c := New()
	g := c.Join("gw1")
	old := g.Service("echo")

	def := summary.NewDefinition([]string{"state"}, time.Second, time.Second)
	g.SetDefinition(summary.KindService, def)

	assert.NotSame(t, old, g.Service("echo"))
	assert.Equal(t, def.Fields, g.Service("echo").Definition().Fields)
}

func TestCluster_LeaveShutsDownAndDiscards(t *testing.T) {
	series := summary.NewSeries(10)
	c := New(WithSeries(series))

	var updates []summary.Update
	c.Subscribe(func(u summary.Update) { updates = append(updates, u) })
	var left []Membership
	c.OnMembership(func(m Membership) {
		if !m.Joined {
			left = append(left, m)
		}
	})

	g := c.Join("gw1")
	gw := g.Store(summary.KindGateway)
	gw.Notify(summary.ScalarSample([]any{7.0, 100.0, 200.0, 3600.0}, 1000))
	svc := g.Service("echo")
	svc.Notify(summary.ScalarSample([]any{"RUNNING", 2.0, 1.0, 1.0, 9.0}, 1000))
	require.Equal(t, 1, series.Count("gw1/gateway", 0, "totalCurrentSessions"))

	ok := c.Leave("gw1", 2000)
	require.True(t, ok)

	// One shutdown record per gateway and service store, live counters zeroed.
	require.Len(t, updates, 4)
	assert.Equal(t, int64(2000), updates[2].Record.ReadTime)
	assert.Equal(t, float64(0), gw.Value("totalCurrentSessions", false).Value)
	assert.Equal(t, 100.0, gw.Value("totalBytesReceived", false).Value)
	assert.Equal(t, float64(0), svc.Value("numberOfCurrentSessions", false).Value)
	assert.Equal(t, 9.0, svc.Value("numberOfCumulativeSessions", false).Value)

	assert.Equal(t, []Membership{{"gw1", false}}, left)
	assert.Empty(t, c.Names())
	_, exists := c.Gateway("gw1")
	assert.False(t, exists)
	assert.Empty(t, series.StoreIDs())

	// Discarded stores no longer reach cluster listeners.
	gw.Notify(summary.ScalarSample([]any{1.0}, 3000))
	assert.Len(t, updates, 4)

	assert.False(t, c.Leave("gw1", 0))
}

func TestCluster_LeaveWithoutStopTime(t *testing.T) {
	c := New()
	var updates int
	c.Subscribe(func(summary.Update) { updates++ })

	g := c.Join("gw1")
	g.Store(summary.KindJVM)

	require.True(t, c.Leave("gw1", 0))
	assert.Equal(t, 0, updates)
}

func TestGateway_RemoveService(t *testing.T) {
	series := summary.NewSeries(5)
	c := New(WithSeries(series))
	g := c.Join("gw1")
	g.Service("echo").Notify(summary.ScalarSample([]any{"RUNNING", 1.0}, 1))

	assert.True(t, g.RemoveService("echo"))
	assert.False(t, g.RemoveService("echo"))
	assert.Empty(t, g.Services())
	assert.NotContains(t, series.StoreIDs(), "gw1/service/echo")
}

func TestCluster_LogsMembership(t *testing.T) {
	log := logger.NewBufferLogger()
	c := New(WithLogger(log))

	c.Join("gw1")
	c.Leave("gw1", 0)

	assert.True(t, log.Contains("gateway gw1 joined"))
	assert.True(t, log.Contains("gateway gw1 left"))
}
