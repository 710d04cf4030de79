package cli

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/commandcenter/internal/config"
	"github.com/rileyhilliard/commandcenter/internal/dashboard"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/feed"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
)

// monitorCommand connects to every configured gateway and runs the dashboard.
func monitorCommand(interval time.Duration) error {
	if !isTerminal() {
		return errors.New(errors.ErrConfig,
			"The dashboard needs a terminal",
			"Use 'commandcenter watch' when running without a TTY")
	}

	logFile, err := tea.LogToFile(debugLogPath(), "commandcenter")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to open the debug log", "Check that the current directory is writable")
	}
	defer logFile.Close()

	log := logger.NewEnvLogger("[monitor]")
	s, err := newSession(log)
	if err != nil {
		return err
	}
	if err := config.RequireGateways(s.cfg); err != nil {
		return err
	}
	if interval == 0 {
		interval = s.cfg.Monitor.Interval
	}

	dialog := dashboard.NewDialog(s.queue)
	coord := login.NewCoordinator(s.queue,
		selectDialog(s.cfg, s.queue, dialog, true),
		login.WithCoordinatorLogger(log))
	hub := feed.NewHub(s.queue, s.cluster, coord, endpoints(s.cfg), hubConfig(s.cfg, log, nil))

	stopQueue := s.runQueue()
	defer stopQueue()

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan []error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	source := dashboard.QueueSource{Queue: s.queue, Cluster: s.cluster, Expected: s.cfg.GatewayNames()}
	p := tea.NewProgram(dashboard.NewModel(source, interval, "commandcenter"), tea.WithAltScreen())
	dialog.Attach(p.Send)

	_, runErr := p.Run()
	dialog.Attach(nil)

	cancel()
	<-hubDone
	s.persistURLChanges(hub)
	return runErr
}

// debugLogPath is where the dashboard sends log output while it owns the
// terminal.
func debugLogPath() string {
	if verbose {
		return "commandcenter-debug.log"
	}
	return os.DevNull
}
