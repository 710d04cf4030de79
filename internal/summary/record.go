package summary

// Record is one normalized summary-data snapshot. Scalar stores use a
// single row, indexed stores one row per sub-entity. Every row holds the
// definition's fields in order and ends with ReadTime.
type Record struct {
	ReadTime int64
	Rows     [][]any
}

// Clone returns a deep copy of the record's rows.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	rows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = append([]any(nil), row...)
	}
	return &Record{ReadTime: r.ReadTime, Rows: rows}
}

// Sample is a record as delivered by a feed: raw rows that may or may not
// carry the readTime slot yet. A nil Rows marks the sample malformed.
type Sample struct {
	Rows     [][]any `json:"summaryData" yaml:"summaryData"`
	ReadTime int64   `json:"readTime" yaml:"readTime"`
}

// ScalarSample wraps a single row of values for a scalar store.
func ScalarSample(values []any, readTime int64) Sample {
	if values == nil {
		return Sample{ReadTime: readTime}
	}
	return Sample{Rows: [][]any{values}, ReadTime: readTime}
}

// Payload is an initial bulk load. Keys names the sub-entities of an
// indexed store (CPU ids, NIC names) in row order and is ignored by scalar
// stores.
type Payload struct {
	Keys    []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Samples []Sample `json:"samples" yaml:"samples"`
}

// normalize turns a sample into a record whose rows are exactly def.Width()
// long with the readTime in the last slot. Returns nil for malformed samples.
func normalize(def DataDefinition, shape Shape, s Sample) *Record {
	if s.Rows == nil {
		return nil
	}
	if shape == ShapeScalar && len(s.Rows) != 1 {
		return nil
	}

	width := def.Width()
	rows := make([][]any, 0, len(s.Rows))
	for _, raw := range s.Rows {
		if raw == nil {
			return nil
		}
		// Short rows from older gateways leave trailing fields nil.
		row := make([]any, width)
		copy(row[:width-1], raw)
		row[width-1] = s.ReadTime
		rows = append(rows, row)
	}
	return &Record{ReadTime: s.ReadTime, Rows: rows}
}
