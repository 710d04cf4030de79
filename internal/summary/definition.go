package summary

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/errors"
)

// ReadTimeField is the name of the timestamp field that always closes a row.
const ReadTimeField = "readTime"

// Kind identifies the entity type a store describes.
type Kind string

const (
	KindGateway Kind = "gateway"
	KindJVM     Kind = "jvm"
	KindSystem  Kind = "system"
	KindService Kind = "service"
	KindCPU     Kind = "cpu"
	KindNIC     Kind = "nic"
)

// Shape says whether a store keeps one row or one row per sub-entity.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeIndexed
)

func (s Shape) String() string {
	if s == ShapeIndexed {
		return "indexed"
	}
	return "scalar"
}

// Kinds lists every entity kind in display order.
var Kinds = []Kind{KindGateway, KindJVM, KindSystem, KindService, KindCPU, KindNIC}

// Shape returns the row layout used by stores of this kind.
func (k Kind) Shape() Shape {
	switch k {
	case KindCPU, KindNIC:
		return ShapeIndexed
	default:
		return ShapeScalar
	}
}

// CanShutDown reports whether stores of this kind accept a terminal
// shutdown record.
func (k Kind) CanShutDown() bool {
	return k == KindGateway || k == KindService
}

// ParseKind converts a feed or config string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrStore,
		fmt.Sprintf("Unknown entity kind %q", s),
		"Expected one of gateway, jvm, system, service, cpu, nic")
}

// DataDefinition is the ordered field schema for one entity type plus the
// intervals the gateway gathers and publishes it at.
type DataDefinition struct {
	Fields               []string
	NotificationInterval time.Duration
	GatherInterval       time.Duration

	// Live names the "current" counters a shutdown record zeroes.
	// Every other field is carried over unchanged.
	Live []string
}

// NewDefinition builds a definition, appending ReadTimeField if the field
// list does not already end with it. The slices are copied.
func NewDefinition(fields []string, notification, gather time.Duration, live ...string) DataDefinition {
	f := make([]string, 0, len(fields)+1)
	for _, name := range fields {
		if name == ReadTimeField {
			continue
		}
		f = append(f, name)
	}
	f = append(f, ReadTimeField)

	var l []string
	if len(live) > 0 {
		l = append(l, live...)
	}

	return DataDefinition{
		Fields:               f,
		NotificationInterval: notification,
		GatherInterval:       gather,
		Live:                 l,
	}
}

// Width is the number of values in a normalized row, readTime included.
func (d DataDefinition) Width() int {
	return len(d.Fields)
}

// indexMap maps field names to row positions.
func (d DataDefinition) indexMap() map[string]int {
	m := make(map[string]int, len(d.Fields))
	for i, name := range d.Fields {
		if _, dup := m[name]; !dup {
			m[name] = i
		}
	}
	return m
}

const (
	defaultNotificationInterval = 5 * time.Second
	defaultGatherInterval       = 2 * time.Second
)

// DefaultDefinition returns the field schema a current gateway publishes for
// kind. Feeds that send their own definition override it.
func DefaultDefinition(kind Kind) DataDefinition {
	switch kind {
	case KindGateway:
		return NewDefinition([]string{
			"totalCurrentSessions",
			"totalBytesReceived",
			"totalBytesSent",
			"uptime",
		}, defaultNotificationInterval, defaultGatherInterval, "totalCurrentSessions")
	case KindService:
		return NewDefinition([]string{
			"state",
			"numberOfCurrentSessions",
			"numberOfCurrentNativeSessions",
			"numberOfCurrentEmulatedSessions",
			"numberOfCumulativeSessions",
			"totalBytesReceivedCount",
			"totalBytesSentCount",
			"lastSuccessfulConnectTime",
			"lastFailedConnectTime",
		}, defaultNotificationInterval, defaultGatherInterval,
			"numberOfCurrentSessions", "numberOfCurrentNativeSessions", "numberOfCurrentEmulatedSessions")
	case KindJVM:
		return NewDefinition([]string{
			"classesLoaded",
			"totalClassesLoaded",
			"memHeapInitSize",
			"memHeapUsed",
			"memHeapCommitted",
			"memHeapMaxSize",
			"threadCount",
			"totalThreadCount",
		}, defaultNotificationInterval, defaultGatherInterval)
	case KindSystem:
		return NewDefinition([]string{
			"totalFreeMemory",
			"totalUsedMemory",
			"totalFreeSwap",
			"totalUsedSwap",
			"cpuPercentage",
		}, defaultNotificationInterval, defaultGatherInterval)
	case KindCPU:
		return NewDefinition([]string{
			"combined",
			"idle",
			"irq",
			"nice",
			"softIrq",
			"stolen",
			"sys",
			"user",
			"wait",
		}, defaultNotificationInterval, defaultGatherInterval)
	case KindNIC:
		return NewDefinition([]string{
			"rxBytes",
			"rxBytesPerSecond",
			"rxDropped",
			"rxErrors",
			"txBytes",
			"txBytesPerSecond",
			"txDropped",
			"txErrors",
		}, defaultNotificationInterval, defaultGatherInterval)
	default:
		return NewDefinition(nil, defaultNotificationInterval, defaultGatherInterval)
	}
}
