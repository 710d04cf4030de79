package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/commandcenter/internal/dashboard"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/feed"
	"github.com/rileyhilliard/commandcenter/internal/logger"
)

// replayCommand plays a recorded feed file into a fresh cluster, either
// printing updates or showing them in the dashboard.
func replayCommand(path string, pace time.Duration, tui bool) error {
	msgs, err := feed.LoadReplay(path)
	if err != nil {
		return err
	}

	if tui {
		if !isTerminal() {
			return errors.New(errors.ErrConfig,
				"The dashboard needs a terminal",
				"Drop --tui to print the replay instead")
		}
		logFile, err := tea.LogToFile(debugLogPath(), "commandcenter")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to open the debug log", "Check that the current directory is writable")
		}
		defer logFile.Close()
	}

	log := logger.NewEnvLogger("[replay]")
	s, err := newSession(log)
	if err != nil {
		return err
	}

	player := &feed.Player{Cluster: s.cluster, Sched: s.queue, Pace: pace, Log: log}

	if !tui {
		printer := newUpdatePrinter(os.Stdout)
		s.queue.Schedule(func() { printer.attach(s.cluster) })

		stopQueue := s.runQueue()
		defer stopQueue()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := player.Play(ctx, msgs); err != nil {
			return nil // interrupted
		}
		// Wait for the queue to apply the last message.
		return s.queue.Call(ctx, func() {})
	}

	stopQueue := s.runQueue()
	defer stopQueue()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := player.Play(ctx, msgs); err == nil {
			log.Info("replay of %s finished", path)
		}
	}()

	source := dashboard.QueueSource{Queue: s.queue, Cluster: s.cluster}
	p := tea.NewProgram(dashboard.NewModel(source, s.cfg.Monitor.Interval, "commandcenter replay"), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
