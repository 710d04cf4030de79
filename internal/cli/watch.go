package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/cluster"
	"github.com/rileyhilliard/commandcenter/internal/config"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/feed"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
	"github.com/rileyhilliard/commandcenter/internal/summary"
)

// watchCommand connects to every configured gateway and prints each update
// as a line on stdout until interrupted.
func watchCommand(recordPath string) error {
	log := logger.NewEnvLogger("[watch]")
	s, err := newSession(log)
	if err != nil {
		return err
	}
	if err := config.RequireGateways(s.cfg); err != nil {
		return err
	}

	var rec *feed.Recorder
	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrFeed,
				"Failed to create replay file "+recordPath, "Check the directory exists and is writable")
		}
		rec = feed.NewRecorder(f)
		defer rec.Close()
	}

	tty := isTerminal()
	coord := login.NewCoordinator(s.queue,
		selectDialog(s.cfg, s.queue, login.NewFormDialog(s.queue, log), tty),
		login.WithCoordinatorLogger(log))
	hub := feed.NewHub(s.queue, s.cluster, coord, endpoints(s.cfg), hubConfig(s.cfg, log, rec))

	printer := newUpdatePrinter(os.Stdout)
	s.queue.Schedule(func() { printer.attach(s.cluster) })

	stopQueue := s.runQueue()
	defer stopQueue()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errs := hub.Run(ctx)
	s.persistURLChanges(hub)
	if len(errs) > 0 && ctx.Err() == nil {
		return errs[0]
	}
	return nil
}

// updatePrinter writes cluster activity as one line per event. It runs on
// the event queue, so writes are never interleaved.
type updatePrinter struct {
	w io.Writer
}

func newUpdatePrinter(w io.Writer) *updatePrinter {
	return &updatePrinter{w: w}
}

// attach subscribes to c. Must run on c's event queue.
func (p *updatePrinter) attach(c *cluster.Cluster) func() {
	stopUpdates := c.Subscribe(p.update)
	stopMembers := c.OnMembership(p.membership)
	return func() {
		stopUpdates()
		stopMembers()
	}
}

func (p *updatePrinter) membership(m cluster.Membership) {
	verb := "left"
	if m.Joined {
		verb = "joined"
	}
	fmt.Fprintf(p.w, "%s %s\n", m.Gateway, verb)
}

func (p *updatePrinter) update(u summary.Update) {
	fmt.Fprintln(p.w, formatUpdate(u))
}

// formatUpdate renders an update as
// "<store> <time> field=value ...", with indexed rows as key{...} and
// records older than the snapshot marked stale.
func formatUpdate(u summary.Update) string {
	def := u.Store.Definition()
	fields := def.Fields[:def.Width()-1]
	keys := u.Store.Keys()
	indexed := u.Store.Kind().Shape() == summary.ShapeIndexed

	var b strings.Builder
	b.WriteString(u.Store.ID())
	b.WriteString(" ")
	b.WriteString(time.UnixMilli(u.Record.ReadTime).UTC().Format(time.TimeOnly))

	for i, row := range u.Record.Rows {
		var parts []string
		for j, f := range fields {
			if j >= len(row) || row[j] == nil {
				continue
			}
			parts = append(parts, f+"="+formatValue(row[j]))
		}
		if indexed {
			key := fmt.Sprintf("#%d", i)
			if i < len(keys) {
				key = keys[i]
			}
			b.WriteString(" " + key + "{" + strings.Join(parts, " ") + "}")
			continue
		}
		if len(parts) > 0 {
			b.WriteString(" " + strings.Join(parts, " "))
		}
	}

	if !u.Latest {
		b.WriteString(" (stale)")
	}
	if u.Store.Stopped() && u.Record.ReadTime == u.Store.LatestTime() {
		b.WriteString(" (stopped)")
	}
	return b.String()
}

func formatValue(v any) string {
	l := summary.Lookup{Status: summary.StatusOK, Value: v}
	return l.String()
}
