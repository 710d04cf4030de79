package summary

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultSeriesSize},
		{"negative size", -1, DefaultSeriesSize},
		{"custom size", 30, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeries(tt.size)
			assert.Equal(t, tt.expected, s.size)
			assert.NotNil(t, s.tracks)
		})
	}
}

func TestSeries_RecordsEverySampleIncludingStale(t *testing.T) {
	store := NewStore(KindCPU, cpuDefinition(), WithID("gw1/cpu"))
	series := NewSeries(10)
	series.Track(store, "cpuPercent")

	store.Notify(Sample{Rows: [][]any{{10.0}, {20.0}}, ReadTime: 1000})
	store.Notify(Sample{Rows: [][]any{{11.0}, {21.0}}, ReadTime: 2000})
	store.Notify(Sample{Rows: [][]any{{9.0}, {19.0}}, ReadTime: 1500})

	points := series.Points("gw1/cpu", 0, "cpuPercent", 10)
	require.Len(t, points, 3)
	assert.Equal(t, []Point{
		{ReadTime: 1000, Value: 10},
		{ReadTime: 2000, Value: 11},
		{ReadTime: 1500, Value: 9},
	}, points)

	assert.Equal(t, []float64{20, 21, 19}, series.Values("gw1/cpu", 1, "cpuPercent", 10))
	assert.Equal(t, 3, series.Count("gw1/cpu", 1, "cpuPercent"))

	// The snapshot still reflects the newest sample.
	assert.Equal(t, 11.0, store.ValueAt(0, "cpuPercent", false).Value)
}

func TestSeries_RingBufferOverflow(t *testing.T) {
	store := NewStore(KindSystem, NewDefinition([]string{"cpuPercentage"}, time.Second, time.Second), WithID("gw1/system"))
	series := NewSeries(3)
	series.Track(store)

	for i := 0; i < 5; i++ {
		store.Notify(ScalarSample([]any{float64(i)}, int64(i+1)*1000))
	}

	assert.Equal(t, 3, series.Count("gw1/system", 0, "cpuPercentage"))
	assert.Equal(t, []float64{2, 3, 4}, series.Values("gw1/system", 0, "cpuPercentage", 10))
	assert.Equal(t, []float64{3, 4}, series.Values("gw1/system", 0, "cpuPercentage", 2))

	last, ok := series.Last("gw1/system", 0, "cpuPercentage")
	require.True(t, ok)
	assert.Equal(t, Point{ReadTime: 5000, Value: 4}, last)
}

func TestSeries_SkipsNonNumericAndUnknown(t *testing.T) {
	def := NewDefinition([]string{"state", "sessions"}, time.Second, time.Second)
	store := NewStore(KindService, def, WithID("gw1/svc/echo"))
	series := NewSeries(5)
	series.Track(store, "state", "sessions", "bogus", ReadTimeField)

	store.Notify(ScalarSample([]any{"RUNNING", 4.0}, 100))

	assert.Equal(t, 0, series.Count("gw1/svc/echo", 0, "state"))
	assert.Equal(t, 1, series.Count("gw1/svc/echo", 0, "sessions"))
	assert.Equal(t, 0, series.Count("gw1/svc/echo", 0, "bogus"))
	assert.Equal(t, 0, series.Count("gw1/svc/echo", 0, ReadTimeField))
}

func TestSeries_Rate(t *testing.T) {
	store := NewStore(KindGateway, NewDefinition([]string{"bytes"}, time.Second, time.Second), WithID("gw1/gateway"))
	series := NewSeries(10)
	series.Track(store, "bytes")

	assert.Equal(t, 0.0, series.Rate("gw1/gateway", 0, "bytes"))

	store.Notify(ScalarSample([]any{1000.0}, 10_000))
	store.Notify(ScalarSample([]any{5000.0}, 12_000))
	assert.Equal(t, 2000.0, series.Rate("gw1/gateway", 0, "bytes"))

	// Counter reset.
	store.Notify(ScalarSample([]any{10.0}, 14_000))
	assert.Equal(t, 0.0, series.Rate("gw1/gateway", 0, "bytes"))

	// Stale sample arriving after a newer one.
	store.Notify(ScalarSample([]any{20.0}, 13_000))
	assert.Equal(t, 0.0, series.Rate("gw1/gateway", 0, "bytes"))
}

func TestSeries_StopTrackingAndClear(t *testing.T) {
	store := NewStore(KindJVM, NewDefinition([]string{"threads"}, time.Second, time.Second), WithID("gw1/jvm"))
	series := NewSeries(5)
	stop := series.Track(store)

	store.Notify(ScalarSample([]any{1.0}, 1))
	stop()
	store.Notify(ScalarSample([]any{2.0}, 2))
	assert.Equal(t, 1, series.Count("gw1/jvm", 0, "threads"))
	assert.Equal(t, []string{"gw1/jvm"}, series.StoreIDs())

	series.Clear("gw1/jvm")
	assert.Nil(t, series.Points("gw1/jvm", 0, "threads", 5))
	assert.Empty(t, series.StoreIDs())

	series.Track(store)
	store.Notify(ScalarSample([]any{3.0}, 3))
	series.ClearAll()
	assert.Equal(t, 0, series.Count("gw1/jvm", 0, "threads"))
}

func TestSeries_ConcurrentReaders(t *testing.T) {
	store := NewStore(KindSystem, NewDefinition([]string{"v"}, time.Second, time.Second), WithID("s"))
	series := NewSeries(50)
	series.Track(store)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = series.Values("s", 0, "v", 10)
				_ = series.Rate("s", 0, "v")
			}
		}()
	}
	for i := 0; i < 100; i++ {
		store.Notify(ScalarSample([]any{float64(i)}, int64(i+1)))
	}
	wg.Wait()

	assert.Equal(t, 50, series.Count("s", 0, "v"))
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "gw1/nic[2].rxBytes", SeriesKey("gw1/nic", 2, "rxBytes"))
}
