// Package summary implements the client-side data model for gateway
// telemetry: per-entity summary-data stores and the per-attribute time
// series built from their update events.
//
// # Stores
//
// Every monitored entity (gateway, JVM, system, service, CPU list, NIC list)
// gets one Store. A Store holds the freshest Record it has seen and answers
// attribute lookups by name through its DataDefinition. Scalar stores hold a
// single row; indexed stores hold one row per sub-entity (CPU core, NIC).
//
// # Merge policy
//
// MergeBatch walks incoming records in arrival order. A record whose
// ReadTime is strictly greater than the current one replaces the whole
// snapshot. Every accepted record, newer or not, is announced to listeners
// as an Update, so history consumers see every sample while latest-value
// consumers can check Update.Latest and ignore the rest.
//
// # Lookups
//
// Value, ValueAt and ValueFor return a Lookup whose Status separates the
// three outcomes callers must treat differently:
//
//	StatusOK       value present
//	StatusUnknown  attribute not in this store's definition (version skew)
//	StatusNoData   attribute known but nothing loaded yet
//
// # Series
//
// Series subscribes to stores and keeps a bounded ring buffer of points per
// (store, row, attribute) for charts and rate calculations.
package summary
