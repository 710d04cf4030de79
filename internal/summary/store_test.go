package summary

import (
	"testing"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpuDefinition() DataDefinition {
	return NewDefinition([]string{"cpuPercent", "readTime"}, 5*time.Second, 2*time.Second)
}

// collect subscribes to a store and returns a pointer to the captured updates.
func collect(s *Store) *[]Update {
	var got []Update
	s.Subscribe(func(u Update) { got = append(got, u) })
	return &got
}

func TestNewDefinition(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   []string
	}{
		{"appends readTime", []string{"a", "b"}, []string{"a", "b", "readTime"}},
		{"keeps trailing readTime", []string{"a", "readTime"}, []string{"a", "readTime"}},
		{"moves misplaced readTime", []string{"readTime", "a"}, []string{"a", "readTime"}},
		{"empty", nil, []string{"readTime"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewDefinition(tt.fields, time.Second, time.Second)
			assert.Equal(t, tt.want, def.Fields)
			assert.Equal(t, len(tt.want), def.Width())
		})
	}
}

func TestKind_Shape(t *testing.T) {
	assert.Equal(t, ShapeIndexed, KindCPU.Shape())
	assert.Equal(t, ShapeIndexed, KindNIC.Shape())
	assert.Equal(t, ShapeScalar, KindGateway.Shape())
	assert.Equal(t, ShapeScalar, KindJVM.Shape())
	assert.True(t, KindGateway.CanShutDown())
	assert.True(t, KindService.CanShutDown())
	assert.False(t, KindSystem.CanShutDown())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("nic")
	require.NoError(t, err)
	assert.Equal(t, KindNIC, k)

	_, err = ParseKind("disk")
	assert.True(t, errors.IsCode(err, errors.ErrStore))
}

func TestDefaultDefinition_EndsWithReadTime(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			def := DefaultDefinition(k)
			require.NotEmpty(t, def.Fields)
			assert.Equal(t, ReadTimeField, def.Fields[len(def.Fields)-1])
		})
	}
}

func TestStore_CPUExample(t *testing.T) {
	s := NewStore(KindCPU, cpuDefinition())
	updates := collect(s)

	n := s.Load(Payload{Samples: []Sample{{Rows: [][]any{{12.5}}, ReadTime: 1000}}})
	require.Equal(t, 1, n)

	v := s.ValueAt(0, "cpuPercent", false)
	assert.Equal(t, StatusOK, v.Status)
	assert.Equal(t, 12.5, v.Value)
	assert.Nil(t, v.Pair())

	timed := s.ValueAt(0, "cpuPercent", true)
	assert.Equal(t, []any{int64(1000), 12.5}, timed.Pair())

	// Older sample: announced, but the snapshot is unchanged.
	s.Notify(Sample{Rows: [][]any{{99.0}}, ReadTime: 900})

	require.Len(t, *updates, 2)
	assert.False(t, (*updates)[1].Latest)
	assert.Equal(t, int64(900), (*updates)[1].Record.ReadTime)
	assert.Equal(t, 12.5, s.ValueAt(0, "cpuPercent", false).Value)
}

func TestStore_MergeEmitsEveryRecordKeepsMax(t *testing.T) {
	times := []int64{100, 200, 200, 300, 300, 450}

	s := NewStore(KindGateway, NewDefinition([]string{"sessions"}, time.Second, time.Second))
	updates := collect(s)

	var maxSeen int64
	for i, ts := range times {
		s.Notify(ScalarSample([]any{float64(i)}, ts))
		if ts > maxSeen {
			maxSeen = ts
		}
		assert.Equal(t, maxSeen, s.LatestTime(), "step %d", i)
	}

	require.Len(t, *updates, len(times))
	for i, u := range *updates {
		assert.Equal(t, times[i], u.Record.ReadTime, "events must follow call order")
		assert.Same(t, s, u.Store)
	}

	// Equal timestamps do not replace the snapshot.
	latest := []bool{true, true, false, true, false, true}
	for i, u := range *updates {
		assert.Equal(t, latest[i], u.Latest, "update %d", i)
	}
	assert.Equal(t, float64(5), s.Value("sessions", false).Value)
}

func TestStore_MergeBatchReplacesWholeIndexedSnapshot(t *testing.T) {
	s := NewStore(KindNIC, NewDefinition([]string{"rx"}, time.Second, time.Second))
	s.Load(Payload{
		Keys:    []string{"eth0", "eth1"},
		Samples: []Sample{{Rows: [][]any{{1.0}, {2.0}}, ReadTime: 10}},
	})

	s.Notify(Sample{Rows: [][]any{{5.0}}, ReadTime: 20})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 5.0, s.ValueFor("eth0", "rx", false).Value)
	assert.Equal(t, StatusNoData, s.ValueFor("eth1", "rx", false).Status)
}

func TestStore_MalformedSampleSkipped(t *testing.T) {
	s := NewStore(KindCPU, cpuDefinition())
	updates := collect(s)

	n := s.Load(Payload{Samples: []Sample{
		{Rows: [][]any{{10.0}}, ReadTime: 100},
		{Rows: nil, ReadTime: 200},
		{Rows: [][]any{{30.0}}, ReadTime: 300},
	}})

	assert.Equal(t, 2, n)
	require.Len(t, *updates, 2)
	assert.Equal(t, int64(100), (*updates)[0].Record.ReadTime)
	assert.Equal(t, int64(300), (*updates)[1].Record.ReadTime)
	assert.Equal(t, 30.0, s.ValueAt(0, "cpuPercent", false).Value)
}

func TestStore_MalformedOnlyLeavesSnapshot(t *testing.T) {
	s := NewStore(KindCPU, cpuDefinition())
	s.Notify(Sample{Rows: [][]any{{10.0}}, ReadTime: 100})
	before := s.Latest()
	updates := collect(s)

	s.Notify(Sample{ReadTime: 500})
	s.MergeBatch([]*Record{nil, {ReadTime: 600}})

	assert.Empty(t, *updates)
	assert.Equal(t, before, s.Latest())
}

func TestStore_MalformedLogsDebug(t *testing.T) {
	log := logger.NewBufferLogger()
	s := NewStore(KindCPU, cpuDefinition(), WithID("gw1/cpu"), WithLogger(log))

	s.Notify(Sample{ReadTime: 42})

	assert.True(t, log.HasLevel("debug"))
	assert.True(t, log.Contains("gw1/cpu: dropping malformed sample at 42"))
}

func TestStore_LookupStatuses(t *testing.T) {
	s := NewStore(KindJVM, NewDefinition([]string{"threadCount"}, time.Second, time.Second))

	unknown := s.Value("gcPauses", false)
	noData := s.Value("threadCount", false)

	assert.Equal(t, StatusUnknown, unknown.Status)
	assert.Equal(t, StatusNoData, noData.Status)
	assert.NotEqual(t, unknown.Status, noData.Status)
	assert.False(t, unknown.OK())
	assert.False(t, noData.OK())

	s.Notify(ScalarSample([]any{17.0}, 5))
	assert.Equal(t, StatusUnknown, s.Value("gcPauses", false).Status)
	assert.Equal(t, StatusOK, s.Value("threadCount", false).Status)

	// readTime itself is addressable.
	assert.Equal(t, int64(5), s.Value(ReadTimeField, false).Value)
}

func TestStore_IndexedLookupOutOfRange(t *testing.T) {
	s := NewStore(KindCPU, cpuDefinition())
	s.Load(Payload{Keys: []string{"0", "1"}, Samples: []Sample{{Rows: [][]any{{1.0}, {2.0}}, ReadTime: 1}}})

	assert.Equal(t, 2.0, s.ValueAt(1, "cpuPercent", false).Value)
	assert.Equal(t, 2.0, s.ValueFor("1", "cpuPercent", false).Value)
	assert.Equal(t, StatusNoData, s.ValueAt(2, "cpuPercent", false).Status)
	assert.Equal(t, StatusNoData, s.ValueAt(-1, "cpuPercent", false).Status)
	assert.Equal(t, StatusNoData, s.ValueFor("7", "cpuPercent", false).Status)
	assert.Equal(t, StatusUnknown, s.ValueFor("7", "steal", false).Status)
	assert.Equal(t, []string{"0", "1"}, s.Keys())
}

func TestStore_NormalizesRowWidth(t *testing.T) {
	def := NewDefinition([]string{"a", "b"}, time.Second, time.Second)
	s := NewStore(KindSystem, def)

	// Row carrying a stale readTime slot gets the sample's time.
	s.Notify(ScalarSample([]any{1.0, 2.0, int64(1)}, 50))
	rec := s.Latest()
	require.Len(t, rec.Rows, 1)
	assert.Equal(t, []any{1.0, 2.0, int64(50)}, rec.Rows[0])

	// Short row from an older gateway pads with nil.
	s.Notify(ScalarSample([]any{3.0}, 60))
	assert.Equal(t, []any{3.0, nil, int64(60)}, s.Latest().Rows[0])
	assert.Equal(t, StatusOK, s.Value("b", false).Status)
	assert.Nil(t, s.Value("b", false).Value)
}

func TestStore_ScalarRejectsMultiRowSample(t *testing.T) {
	s := NewStore(KindSystem, NewDefinition([]string{"a"}, time.Second, time.Second))
	n := s.Notify(Sample{Rows: [][]any{{1.0}, {2.0}}, ReadTime: 10})

	assert.Equal(t, 0, n)
	assert.Nil(t, s.Latest())
}

func TestStore_LatestIsCopy(t *testing.T) {
	s := NewStore(KindSystem, NewDefinition([]string{"a"}, time.Second, time.Second))
	s.Notify(ScalarSample([]any{1.0}, 10))

	rec := s.Latest()
	rec.Rows[0][0] = 999.0

	assert.Equal(t, 1.0, s.Value("a", false).Value)
}

func TestStore_ShutDown(t *testing.T) {
	def := NewDefinition([]string{"current", "total"}, time.Second, time.Second, "current")
	s := NewStore(KindService, def)
	s.Notify(ScalarSample([]any{5.0, 120.0}, 1000))
	updates := collect(s)

	merged, err := s.ShutDown(2000)
	require.NoError(t, err)
	assert.True(t, merged)
	assert.True(t, s.Stopped())

	assert.Equal(t, float64(0), s.Value("current", false).Value)
	assert.Equal(t, 120.0, s.Value("total", false).Value)
	assert.Equal(t, int64(2000), s.LatestTime())
	require.Len(t, *updates, 1)

	snapshot := s.Latest()
	merged, err = s.ShutDown(2000)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Len(t, *updates, 1, "second shutdown at the same time must not emit")
	assert.Equal(t, snapshot, s.Latest())
}

func TestStore_ShutDownThenResume(t *testing.T) {
	def := NewDefinition([]string{"current"}, time.Second, time.Second, "current")
	s := NewStore(KindGateway, def)
	s.Notify(ScalarSample([]any{3.0}, 100))

	_, err := s.ShutDown(200)
	require.NoError(t, err)
	assert.True(t, s.Stopped())

	s.Notify(ScalarSample([]any{4.0}, 300))
	assert.False(t, s.Stopped())
	assert.Equal(t, 4.0, s.Value("current", false).Value)
}

func TestStore_ShutDownWithoutData(t *testing.T) {
	def := NewDefinition([]string{"current", "total"}, time.Second, time.Second, "current")
	s := NewStore(KindGateway, def)

	merged, err := s.ShutDown(10)
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, float64(0), s.Value("current", false).Value)
	assert.Nil(t, s.Value("total", false).Value)
}

func TestStore_ShutDownNeedsStopTime(t *testing.T) {
	def := NewDefinition([]string{"current"}, time.Second, time.Second, "current")
	s := NewStore(KindGateway, def)
	s.Notify(ScalarSample([]any{3.0}, 1000))
	updates := collect(s)

	for _, stopTime := range []int64{0, 0, -5} {
		merged, err := s.ShutDown(stopTime)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrStore))
		assert.False(t, merged)
	}

	assert.Empty(t, *updates)
	assert.False(t, s.Stopped())
	assert.Equal(t, 3.0, s.Value("current", false).Value)
}

func TestStore_ShutDownUnsupportedKind(t *testing.T) {
	s := NewStore(KindCPU, cpuDefinition())
	_, err := s.ShutDown(10)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStore))
}

func TestStore_CloseDropsListeners(t *testing.T) {
	s := NewStore(KindSystem, NewDefinition([]string{"a"}, time.Second, time.Second))
	updates := collect(s)
	s.Close()

	s.Notify(ScalarSample([]any{1.0}, 1))
	assert.Empty(t, *updates)
	assert.Equal(t, 1.0, s.Value("a", false).Value)
}

func TestLookup_Helpers(t *testing.T) {
	l := Lookup{Status: StatusOK, Value: "42.5"}
	f, ok := l.Float()
	assert.True(t, ok)
	assert.Equal(t, 42.5, f)

	assert.Equal(t, "42.5", Lookup{Status: StatusOK, Value: 42.5}.String())
	assert.Equal(t, "-", Lookup{Status: StatusNoData}.String())
	assert.Equal(t, "up", Lookup{Status: StatusOK, Value: "up"}.String())
	assert.Equal(t, "unknown attribute", StatusUnknown.String())

	_, ok = Lookup{Status: StatusUnknown}.Float()
	assert.False(t, ok)
}
