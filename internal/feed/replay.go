package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"gopkg.in/yaml.v3"
)

// ReadReplay decodes a YAML stream holding one message per document.
func ReadReplay(r io.Reader) ([]Message, error) {
	dec := yaml.NewDecoder(r)
	var msgs []Message
	for i := 1; ; i++ {
		var m Message
		err := dec.Decode(&m)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrFeed,
				fmt.Sprintf("Failed to decode replay document %d", i),
				"Replay files are YAML documents separated by ---")
		}
		if err := m.Validate(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrFeed,
				fmt.Sprintf("Replay document %d is not a valid message", i), "")
		}
		msgs = append(msgs, m)
	}
}

// LoadReplay reads a replay file from disk.
func LoadReplay(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrFeed,
			fmt.Sprintf("Failed to open replay file %s", path),
			"Check the path, or record one with: commandcenter watch --record <file>")
	}
	defer f.Close()
	return ReadReplay(f)
}

// Player feeds recorded messages into a cluster through its event queue.
type Player struct {
	Cluster *cluster.Cluster
	Sched   event.Scheduler

	// Pace is the delay between messages. Zero plays everything at once.
	Pace time.Duration
	Log  logger.Logger
}

// Play schedules msgs in order. Messages that do not apply are logged and
// skipped. Returns early with ctx's error when it is cancelled.
func (p *Player) Play(ctx context.Context, msgs []Message) error {
	log := p.Log
	if log == nil {
		log = logger.Noop()
	}

	for i, m := range msgs {
		if i > 0 && p.Pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Pace):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		m := m
		p.Sched.Schedule(func() {
			if _, err := Apply(p.Cluster, m); err != nil {
				log.Warn("replay: %v", err)
			}
		})
	}
	return nil
}

// Recorder appends messages to a YAML replay stream. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	enc *yaml.Encoder
	w   io.Writer
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &Recorder{enc: enc, w: w}
}

// Record appends m as one document.
func (r *Recorder) Record(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(m); err != nil {
		return errors.WrapWithCode(err, errors.ErrFeed, "Failed to record feed message", "")
	}
	return nil
}

// Close flushes the stream and closes the writer if it is closable.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.enc.Close()
	if c, ok := r.w.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
