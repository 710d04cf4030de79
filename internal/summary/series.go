package summary

import (
	"sort"
	"strconv"
	"sync"
)

// DefaultSeriesSize is the default number of points retained per attribute.
const DefaultSeriesSize = 120

// Point is one observed value of an attribute.
type Point struct {
	ReadTime int64
	Value    float64
}

// Series keeps per-attribute history for tracked stores in ring buffers.
// Updates arrive on the event queue; readers such as the dashboard may call
// the accessors from other goroutines.
type Series struct {
	mu     sync.RWMutex
	size   int
	tracks map[string]*storeTrack
}

// storeTrack holds the buffers of one store, keyed by row then attribute.
type storeTrack struct {
	attrs map[string]int
	rows  map[int]map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer of points.
type ringBuffer struct {
	data  []Point
	head  int
	count int
	size  int
}

// NewSeries creates a series recorder retaining size points per attribute.
func NewSeries(size int) *Series {
	if size <= 0 {
		size = DefaultSeriesSize
	}
	return &Series{
		size:   size,
		tracks: make(map[string]*storeTrack),
	}
}

// Track subscribes to store and records the named attributes of every row
// on each update, stale samples included. Attributes the store's definition
// does not know are ignored. With no attrs every field but readTime is
// tracked. The returned func stops tracking.
func (s *Series) Track(store *Store, attrs ...string) func() {
	def := store.Definition()
	if len(attrs) == 0 {
		attrs = def.Fields[:def.Width()-1]
	}

	cols := make(map[string]int, len(attrs))
	for _, a := range attrs {
		if col, ok := store.index[a]; ok && a != ReadTimeField {
			cols[a] = col
		}
	}

	s.mu.Lock()
	s.tracks[store.ID()] = &storeTrack{
		attrs: cols,
		rows:  make(map[int]map[string]*ringBuffer),
	}
	s.mu.Unlock()

	return store.Subscribe(s.record)
}

// record pushes the numeric values of an update into the buffers.
func (s *Series) record(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.tracks[u.Store.ID()]
	if !ok {
		return
	}

	for i, row := range u.Record.Rows {
		bufs, ok := tr.rows[i]
		if !ok {
			bufs = make(map[string]*ringBuffer, len(tr.attrs))
			tr.rows[i] = bufs
		}
		for attr, col := range tr.attrs {
			if col >= len(row) {
				continue
			}
			v, ok := toFloat(row[col])
			if !ok {
				continue
			}
			buf, ok := bufs[attr]
			if !ok {
				buf = newRingBuffer(s.size)
				bufs[attr] = buf
			}
			buf.push(Point{ReadTime: u.Record.ReadTime, Value: v})
		}
	}
}

// Points returns up to the last count points for an attribute, oldest first.
func (s *Series) Points(storeID string, row int, attr string, count int) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.buffer(storeID, row, attr)
	if buf == nil {
		return nil
	}
	return buf.getLast(count)
}

// Values returns just the values of Points, for sparklines.
func (s *Series) Values(storeID string, row int, attr string, count int) []float64 {
	points := s.Points(storeID, row, attr, count)
	if points == nil {
		return nil
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recently recorded point for an attribute.
func (s *Series) Last(storeID string, row int, attr string) (Point, bool) {
	points := s.Points(storeID, row, attr, 1)
	if len(points) == 0 {
		return Point{}, false
	}
	return points[0], true
}

// Count returns the number of points held for an attribute.
func (s *Series) Count(storeID string, row int, attr string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.buffer(storeID, row, attr)
	if buf == nil {
		return 0
	}
	return buf.count
}

// Rate returns the per-second change between the two most recent points of
// a counter attribute. Read times are in milliseconds. Counter resets and
// out-of-order pairs yield 0.
func (s *Series) Rate(storeID string, row int, attr string) float64 {
	points := s.Points(storeID, row, attr, 2)
	if len(points) < 2 {
		return 0
	}

	elapsed := points[1].ReadTime - points[0].ReadTime
	delta := points[1].Value - points[0].Value
	if elapsed <= 0 || delta < 0 {
		return 0
	}
	return delta / (float64(elapsed) / 1000)
}

// StoreIDs returns the tracked store ids, sorted.
func (s *Series) StoreIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear removes all history for a store. The subscription, if any, is the
// caller's to cancel.
func (s *Series) Clear(storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracks, storeID)
}

// ClearAll removes all history.
func (s *Series) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = make(map[string]*storeTrack)
}

// buffer finds a ring buffer. Must be called with s.mu held.
func (s *Series) buffer(storeID string, row int, attr string) *ringBuffer {
	tr, ok := s.tracks[storeID]
	if !ok {
		return nil
	}
	bufs, ok := tr.rows[row]
	if !ok {
		return nil
	}
	return bufs[attr]
}

// SeriesKey formats a store/row/attribute triple for display and logs.
func SeriesKey(storeID string, row int, attr string) string {
	return storeID + "[" + strconv.Itoa(row) + "]." + attr
}

// newRingBuffer creates a new ring buffer with the specified capacity.
func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]Point, size),
		size: size,
	}
}

// push adds a point to the ring buffer.
func (r *ringBuffer) push(p Point) {
	r.data[r.head] = p
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count points in arrival order (oldest first).
func (r *ringBuffer) getLast(count int) []Point {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]Point, count)

	// head is the next write position, so the newest point sits at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
