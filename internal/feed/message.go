// Package feed decodes gateway management messages and applies them to a
// cluster. Messages arrive over a websocket connection per gateway or from a
// recorded replay file.
package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// Type names the kind of feed message.
type Type string

const (
	TypeDefinition Type = "definition"
	TypeLoad       Type = "load"
	TypeNotify     Type = "notify"
	TypeShutdown   Type = "shutdown"
	TypeJoin       Type = "join"
	TypeLeave      Type = "leave"
)

// Message is one feed envelope.
type Message struct {
	Type    Type   `json:"type" yaml:"type"`
	Gateway string `json:"gateway" yaml:"gateway"`
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Key names the service for service-kind messages.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Keys names the rows of an indexed load.
	Keys    []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Samples []Sample `json:"samples,omitempty" yaml:"samples,omitempty"`

	Definition *Definition `json:"definition,omitempty" yaml:"definition,omitempty"`
	StopTime   int64       `json:"stopTime,omitempty" yaml:"stopTime,omitempty"`
}

// Sample is a sample as it appears on the wire. Scalar entities may send
// summaryData as a flat list instead of a list of rows.
type Sample struct {
	SummaryData any   `json:"summaryData" yaml:"summaryData"`
	ReadTime    int64 `json:"readTime" yaml:"readTime"`
}

// Definition is a data definition as it appears on the wire. Intervals
// are in milliseconds.
type Definition struct {
	Fields               []string `json:"fields" yaml:"fields"`
	NotificationInterval int64    `json:"notificationInterval,omitempty" yaml:"notificationInterval,omitempty"`
	GatherInterval       int64    `json:"gatherInterval,omitempty" yaml:"gatherInterval,omitempty"`
	Live                 []string `json:"live,omitempty" yaml:"live,omitempty"`
}

// DataDefinition converts the wire form into a summary.DataDefinition.
func (d *Definition) DataDefinition() summary.DataDefinition {
	return summary.NewDefinition(d.Fields,
		time.Duration(d.NotificationInterval)*time.Millisecond,
		time.Duration(d.GatherInterval)*time.Millisecond,
		d.Live...)
}

// Decode parses a JSON message and checks it is well formed.
func Decode(data []byte) (Message, error) {
	return decode(data, "")
}

// decode fills in gateway when the message does not name one.
func decode(data []byte, gateway string) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, errors.WrapWithCode(err, errors.ErrFeed,
			"Failed to decode feed message",
			"The gateway sent something that is not a JSON feed envelope")
	}
	if m.Gateway == "" {
		m.Gateway = gateway
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Encode renders m as JSON.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFeed, "Failed to encode feed message", "")
	}
	return data, nil
}

// Validate checks the envelope fields each type needs.
func (m Message) Validate() error {
	if m.Gateway == "" {
		return errors.New(errors.ErrFeed,
			fmt.Sprintf("Feed message of type %q has no gateway", m.Type), "")
	}

	switch m.Type {
	case TypeJoin, TypeLeave:
		return nil
	case TypeDefinition, TypeLoad, TypeNotify, TypeShutdown:
	default:
		return errors.New(errors.ErrFeed,
			fmt.Sprintf("Unknown feed message type %q", m.Type),
			"Expected one of definition, load, notify, shutdown, join, leave")
	}

	if m.Type == TypeShutdown && m.StopTime <= 0 {
		return errors.New(errors.ErrFeed,
			fmt.Sprintf("Shutdown for %s has no stop time", m.Gateway),
			"Shutdown messages carry stopTime in epoch milliseconds")
	}
	if m.Type == TypeShutdown && m.Kind == "" {
		// Gateway-wide shutdown.
		return nil
	}
	kind, err := summary.ParseKind(m.Kind)
	if err != nil {
		return err
	}
	if kind == summary.KindService && m.Key == "" && m.Type != TypeDefinition {
		return errors.New(errors.ErrFeed,
			fmt.Sprintf("Service %s message for %s has no key", m.Type, m.Gateway),
			"Service messages name the service in the key field")
	}
	if m.Type == TypeDefinition && (m.Definition == nil || len(m.Definition.Fields) == 0) {
		return errors.New(errors.ErrFeed,
			fmt.Sprintf("Definition message for %s/%s has no fields", m.Gateway, m.Kind), "")
	}
	return nil
}

// summarySamples converts wire samples for a store of the given shape.
// Unusable summaryData yields a sample with nil rows, which the store drops.
func summarySamples(shape summary.Shape, in []Sample) []summary.Sample {
	out := make([]summary.Sample, len(in))
	for i, s := range in {
		out[i] = summary.Sample{Rows: rows(shape, s.SummaryData), ReadTime: s.ReadTime}
	}
	return out
}

func rows(shape summary.Shape, data any) [][]any {
	list, ok := data.([]any)
	if !ok {
		return nil
	}

	if len(list) == 0 {
		return [][]any{}
	}

	nested := true
	for _, v := range list {
		if _, isRow := v.([]any); !isRow {
			nested = false
			break
		}
	}
	if nested {
		out := make([][]any, len(list))
		for i, v := range list {
			out[i] = v.([]any)
		}
		return out
	}

	if shape == summary.ShapeScalar {
		return [][]any{list}
	}
	return nil
}
