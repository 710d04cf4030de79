package summary

import (
	"fmt"

	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
)

// Update is fired once for every record a store accepts.
type Update struct {
	Store  *Store
	Record *Record

	// Latest is true when the record replaced the store's snapshot.
	Latest bool
}

// Store holds the freshest summary record for one monitored entity.
// Not safe for concurrent use; drive it from a single event.Queue.
type Store struct {
	id    string
	kind  Kind
	def   DataDefinition
	index map[string]int

	keys     []string
	keyIndex map[string]int

	latest    *Record
	stoppedAt int64

	listeners event.Listeners[Update]
	log       logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithID sets the identifier used by Series and log messages.
func WithID(id string) Option {
	return func(s *Store) { s.id = id }
}

// WithLogger sets the store's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates an empty store. The attribute index is computed here
// once and reused for every lookup.
func NewStore(kind Kind, def DataDefinition, opts ...Option) *Store {
	s := &Store{
		id:    string(kind),
		kind:  kind,
		def:   def,
		index: def.indexMap(),
		log:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the store identifier.
func (s *Store) ID() string { return s.id }

// Kind returns the entity kind.
func (s *Store) Kind() Kind { return s.kind }

// Definition returns the store's data definition.
func (s *Store) Definition() DataDefinition { return s.def }

// Keys returns the sub-entity keys of an indexed store in row order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Subscribe registers fn for update events and returns its cancel func.
func (s *Store) Subscribe(fn func(Update)) func() {
	return s.listeners.Subscribe(fn)
}

// Latest returns a copy of the current snapshot, or nil before the first load.
func (s *Store) Latest() *Record {
	return s.latest.Clone()
}

// LatestTime returns the current snapshot's read time, 0 when empty.
func (s *Store) LatestTime() int64 {
	if s.latest == nil {
		return 0
	}
	return s.latest.ReadTime
}

// Len returns the number of rows in the current snapshot.
func (s *Store) Len() int {
	if s.latest == nil {
		return 0
	}
	return len(s.latest.Rows)
}

// Load takes the entity's initial snapshot. For indexed stores the payload
// keys become the sub-entity keys. Returns the number of update events fired.
func (s *Store) Load(p Payload) int {
	if s.kind.Shape() == ShapeIndexed && p.Keys != nil {
		s.setKeys(p.Keys)
	}
	return s.Notify(p.Samples...)
}

// Notify normalizes incremental samples and merges them.
// Returns the number of update events fired.
func (s *Store) Notify(samples ...Sample) int {
	records := make([]*Record, 0, len(samples))
	for _, sample := range samples {
		rec := normalize(s.def, s.kind.Shape(), sample)
		if rec == nil {
			s.log.Debug("%s: dropping malformed sample at %d", s.id, sample.ReadTime)
			continue
		}
		records = append(records, rec)
	}
	return s.MergeBatch(records)
}

// MergeBatch applies records in order. A record strictly newer than the
// current snapshot replaces it whole; every record is announced whether or
// not it became the latest. Records without rows are skipped silently.
// Returns the number of update events fired.
func (s *Store) MergeBatch(records []*Record) int {
	fired := 0
	for _, rec := range records {
		if rec == nil || rec.Rows == nil {
			continue
		}

		newer := rec.ReadTime > s.LatestTime()
		if newer {
			s.latest = rec
		}

		s.listeners.Fire(Update{Store: s, Record: rec, Latest: newer})
		fired++
	}
	return fired
}

// Value looks up attr in the first row. Scalar stores only have one.
func (s *Store) Value(attr string, withTime bool) Lookup {
	return s.ValueAt(0, attr, withTime)
}

// ValueAt looks up attr in the row at index.
func (s *Store) ValueAt(index int, attr string, withTime bool) Lookup {
	col, ok := s.index[attr]
	if !ok {
		return Lookup{Status: StatusUnknown}
	}
	if s.latest == nil || index < 0 || index >= len(s.latest.Rows) {
		return Lookup{Status: StatusNoData}
	}

	row := s.latest.Rows[index]
	if col >= len(row) {
		return Lookup{Status: StatusNoData}
	}

	l := Lookup{Status: StatusOK, Value: row[col]}
	if withTime {
		l.ReadTime = s.latest.ReadTime
		l.timed = true
	}
	return l
}

// ValueFor looks up attr in the row belonging to sub-entity key.
func (s *Store) ValueFor(key, attr string, withTime bool) Lookup {
	if _, ok := s.index[attr]; !ok {
		return Lookup{Status: StatusUnknown}
	}
	idx, ok := s.keyIndex[key]
	if !ok {
		return Lookup{Status: StatusNoData}
	}
	return s.ValueAt(idx, attr, withTime)
}

// Stopped reports whether the current snapshot is a shutdown record.
func (s *Store) Stopped() bool {
	return s.stoppedAt != 0 && s.LatestTime() == s.stoppedAt
}

// ShutDown merges a terminal record at stopTime: live counters are zeroed
// and cumulative ones keep their last value. Calling it again with the same
// stopTime does nothing. stopTime must be positive. Returns whether a
// record was merged.
func (s *Store) ShutDown(stopTime int64) (bool, error) {
	if !s.kind.CanShutDown() {
		return false, errors.New(errors.ErrStore,
			fmt.Sprintf("%s stores cannot be shut down", s.kind),
			"Only gateway and service stores track shutdown")
	}
	if stopTime <= 0 {
		return false, errors.New(errors.ErrStore,
			fmt.Sprintf("%s: shutdown needs a stop time, got %d", s.id, stopTime),
			"Pass the time the entity stopped, in epoch milliseconds")
	}
	if s.stoppedAt == stopTime {
		return false, nil
	}

	width := s.def.Width()
	var rows [][]any
	if s.latest != nil {
		rows = s.latest.Clone().Rows
	} else {
		rows = [][]any{make([]any, width)}
	}

	for _, row := range rows {
		for _, name := range s.def.Live {
			if col, ok := s.index[name]; ok && col < len(row) {
				row[col] = float64(0)
			}
		}
		row[len(row)-1] = stopTime
	}

	s.stoppedAt = stopTime
	s.log.Debug("%s: shut down at %d", s.id, stopTime)
	s.MergeBatch([]*Record{{ReadTime: stopTime, Rows: rows}})
	return true, nil
}

// Close drops every listener. The owning gateway calls it when the entity
// leaves the cluster.
func (s *Store) Close() {
	s.listeners.Clear()
}

func (s *Store) setKeys(keys []string) {
	s.keys = append([]string(nil), keys...)
	s.keyIndex = make(map[string]int, len(keys))
	for i, k := range s.keys {
		s.keyIndex[k] = i
	}
}
